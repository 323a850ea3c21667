package units

import (
	"context"
	"fmt"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const statsDBCollectionSizeJobName = "stats-db-collection-size"

type statsDBCollectionSizeJob struct {
	job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	env      scout.Environment
}

func init() {
	registry.AddJobType(statsDBCollectionSizeJobName,
		func() amboy.Job { return makeStatsDBCollectionSizeJob() })
}

func makeStatsDBCollectionSizeJob() *statsDBCollectionSizeJob {
	j := &statsDBCollectionSizeJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    statsDBCollectionSizeJobName,
				Version: 0,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewStatsDBCollectionSizeJob creates a job that logs the document count and
// the storage and index sizes of every collection in the scout database.
func NewStatsDBCollectionSizeJob(env scout.Environment, id string) amboy.Job {
	j := makeStatsDBCollectionSizeJob()
	j.SetID(fmt.Sprintf("%s.%s", statsDBCollectionSizeJobName, id))
	j.env = env
	return j
}

func (j *statsDBCollectionSizeJob) Run(ctx context.Context) {
	defer j.MarkComplete()
	if j.env == nil {
		j.env = scout.GetEnvironment()
	}
	db := j.env.GetDB()
	if db == nil {
		j.AddError(errors.New("environment has no database"))
		return
	}

	collectionNames, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		j.AddError(errors.Wrap(err, "getting collection names"))
		return
	}
	for _, collName := range collectionNames {
		var statsResult bson.M
		statsCmd := bson.D{{Key: "collStats", Value: collName}}
		if err = db.RunCommand(ctx, statsCmd).Decode(&statsResult); err != nil {
			j.AddError(errors.Wrapf(err, "getting stats of collection '%s'", collName))
			continue
		}
		grip.Info(message.Fields{
			"job_id":       j.ID(),
			"message":      statsDBCollectionSizeJobName,
			"collection":   collName,
			"count":        statsResult["count"],
			"storage_size": statsResult["storageSize"],
			"index_size":   statsResult["totalIndexSize"],
		})
	}
}
