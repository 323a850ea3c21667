package model

// APIDebugInsert is the response of a raw event insert.
type APIDebugInsert struct {
	OK           bool                     `json:"ok"`
	Table        string                   `json:"table"`
	InsertedRows int                      `json:"inserted_rows"`
	Data         []map[string]interface{} `json:"data"`
}

// APIStatus reports the running build.
type APIStatus struct {
	Revision string `json:"revision"`
	Service  string `json:"service"`
}
