package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/pkg/errors"
)

// APIImportResult is the outcome of a company import.
type APIImportResult struct {
	TotalRows  int     `json:"total_rows"`
	Inserted   int     `json:"inserted"`
	Skipped    int     `json:"skipped"`
	Path       string  `json:"path"`
	FinishedAt APITime `json:"finished_at"`
}

func (a *APIImportResult) Import(i interface{}) error {
	switch r := i.(type) {
	case dbmodel.ImportResult:
		a.TotalRows = r.TotalRows
		a.Inserted = r.Inserted
		a.Skipped = r.Skipped
		a.Path = r.Path
	case dbmodel.OperationRun:
		if r.Import == nil {
			return errors.Errorf("'%s' run has no import result", r.ID)
		}
		if err := a.Import(*r.Import); err != nil {
			return err
		}
		a.FinishedAt = NewTime(r.FinishedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APIImportResult type", i)
	}
	return nil
}

// APICompanyList is one page of the company list.
type APICompanyList struct {
	Total      int              `json:"total"`
	Query      string           `json:"q"`
	ICP        string           `json:"icp"`
	Companies  []APICompany     `json:"companies"`
	CanImport  bool             `json:"can_import"`
	LastImport *APIImportResult `json:"last_import"`
}
