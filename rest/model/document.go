package model

import (
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

type APIDocument struct {
	ID         int     `json:"id"`
	RelPath    string  `json:"rel_path"`
	Kind       string  `json:"kind"`
	Ext        string  `json:"ext"`
	SizeBytes  int64   `json:"size_bytes"`
	Size       string  `json:"size"`
	ModifiedAt APITime `json:"modified_at"`
	UpdatedAt  APITime `json:"updated_at"`
}

func (a *APIDocument) Import(i interface{}) error {
	switch d := i.(type) {
	case dbmodel.Document:
		a.ID = d.ID
		a.RelPath = d.RelPath
		a.Kind = d.Kind
		a.Ext = d.Ext
		a.SizeBytes = d.SizeBytes
		if d.SizeBytes >= 0 {
			a.Size = humanize.Bytes(uint64(d.SizeBytes))
		}
		a.ModifiedAt = NewTime(time.Unix(d.MtimeUnix, 0))
		a.UpdatedAt = NewTime(d.UpdatedAt)
	case *dbmodel.Document:
		if d == nil {
			return errors.New("cannot convert nil document")
		}
		return a.Import(*d)
	default:
		return errors.Errorf("incorrect type %T when converting to APIDocument type", i)
	}
	return nil
}

// APIDocumentDetail carries a text preview for the file types that have
// one.
type APIDocumentDetail struct {
	APIDocument
	Previewable bool    `json:"previewable"`
	Preview     *string `json:"preview"`
	DownloadURL string  `json:"download_url"`
}

// APIReindexResult is the outcome of a file index rebuild.
type APIReindexResult struct {
	TotalScanned int     `json:"total_scanned"`
	Created      int     `json:"created"`
	Updated      int     `json:"updated"`
	Deleted      int     `json:"deleted"`
	FinishedAt   APITime `json:"finished_at"`
}

func (a *APIReindexResult) Import(i interface{}) error {
	switch r := i.(type) {
	case dbmodel.ReindexResult:
		a.TotalScanned = r.TotalScanned
		a.Created = r.Created
		a.Updated = r.Updated
		a.Deleted = r.Deleted
	case dbmodel.OperationRun:
		if r.Reindex == nil {
			return errors.Errorf("'%s' run has no reindex result", r.ID)
		}
		if err := a.Import(*r.Reindex); err != nil {
			return err
		}
		a.FinishedAt = NewTime(r.FinishedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APIReindexResult type", i)
	}
	return nil
}

type APIDocumentList struct {
	Total       int               `json:"total"`
	Query       string            `json:"q"`
	Kind        string            `json:"kind"`
	Kinds       []string          `json:"kinds"`
	Documents   []APIDocument     `json:"documents"`
	CanReindex  bool              `json:"can_reindex"`
	LastReindex *APIReindexResult `json:"last_reindex"`
}
