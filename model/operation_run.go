package model

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/db"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const operationRunCollection = "operation_runs"

const (
	OperationCompanyImport = "company-import"
	OperationFilesReindex  = "files-reindex"
)

// OperationRun remembers the outcome of the last run of an admin
// operation. Only the field matching the kind is set.
type OperationRun struct {
	ID         string         `bson:"_id" json:"kind"`
	Import     *ImportResult  `bson:"import,omitempty" json:"import,omitempty"`
	Reindex    *ReindexResult `bson:"reindex,omitempty" json:"reindex,omitempty"`
	FinishedAt time.Time      `bson:"finished_at" json:"finished_at"`
}

func saveOperationRun(ctx context.Context, env scout.Environment, run *OperationRun) error {
	if env == nil {
		return errors.New("cannot save with a nil environment")
	}
	run.FinishedAt = time.Now().UTC()
	_, err := env.GetDB().Collection(operationRunCollection).ReplaceOne(ctx,
		bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "problem recording '%s' run", run.ID)
}

func SaveImportRun(ctx context.Context, env scout.Environment, res ImportResult) error {
	return saveOperationRun(ctx, env, &OperationRun{ID: OperationCompanyImport, Import: &res})
}

func SaveReindexRun(ctx context.Context, env scout.Environment, res ReindexResult) error {
	return saveOperationRun(ctx, env, &OperationRun{ID: OperationFilesReindex, Reindex: &res})
}

// FindOperationRun returns the last recorded run of the kind, or nil when the
// operation never ran.
func FindOperationRun(ctx context.Context, env scout.Environment, kind string) (*OperationRun, error) {
	out := &OperationRun{}
	err := env.GetDB().Collection(operationRunCollection).FindOne(ctx, bson.M{"_id": kind}).Decode(out)
	if db.ResultsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "problem finding last '%s' run", kind)
	}
	return out, nil
}
