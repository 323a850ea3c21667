package model

// Model defines how to transform to an API model from a database model.
// Request bodies have their own input types with Export methods.
type Model interface {
	// Import transforms to an API model.
	Import(interface{}) error
}

var (
	_ Model = &APIUser{}
	_ Model = &APIHypothesis{}
	_ Model = &APIScript{}
	_ Model = &APIVPPoint{}
	_ Model = &APIICP{}
	_ Model = &APIVertical{}
	_ Model = &APISubVertical{}
	_ Model = &APITAL{}
	_ Model = &APITALAccount{}
	_ Model = &APICompany{}
	_ Model = &APICall{}
	_ Model = &APIMetrics{}
	_ Model = &APIWeeklyMetric{}
	_ Model = &APIImportResult{}
	_ Model = &APIDocument{}
	_ Model = &APIReindexResult{}
)
