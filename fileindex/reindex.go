package fileindex

import (
	"context"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Reindex scans the configured working root, reconciles the document index
// with it, and records the result as the last reindex.
func Reindex(ctx context.Context, env scout.Environment) (model.ReindexResult, error) {
	conf := env.GetConfig()
	if conf == nil {
		return model.ReindexResult{}, errors.New("environment is not configured")
	}

	scanned, err := Scan(conf.WorkingRoot, NewExcluder(conf.ExcludedPaths...))
	if err != nil {
		return model.ReindexResult{}, errors.WithStack(err)
	}

	res, err := model.SyncDocuments(ctx, env, scanned)
	if err != nil {
		return res, errors.WithStack(err)
	}

	if err = model.SaveReindexRun(ctx, env, res); err != nil {
		return res, errors.Wrap(err, "problem recording reindex")
	}

	grip.Info(message.Fields{
		"message": "reindexed working root",
		"root":    conf.WorkingRoot,
		"scanned": res.TotalScanned,
		"created": res.Created,
		"updated": res.Updated,
		"deleted": res.Deleted,
	})

	return res, nil
}
