package units

import (
	"context"
	"fmt"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/fileindex"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/pkg/errors"
)

const reindexDocumentsJobName = "reindex-documents"

type reindexDocumentsJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`

	env scout.Environment
}

func init() {
	registry.AddJobType(reindexDocumentsJobName, func() amboy.Job { return makeReindexDocumentsJob() })
}

func makeReindexDocumentsJob() *reindexDocumentsJob {
	j := &reindexDocumentsJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    reindexDocumentsJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewReindexDocumentsJob creates a job that rescans the working root. The id
// is usually a timestamp so that one run is queued per interval.
func NewReindexDocumentsJob(id string) amboy.Job {
	j := makeReindexDocumentsJob()
	j.SetID(fmt.Sprintf("%s.%s", reindexDocumentsJobName, id))
	return j
}

func (j *reindexDocumentsJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = scout.GetEnvironment()
	}

	if _, err := fileindex.Reindex(ctx, j.env); err != nil {
		j.AddError(errors.Wrap(err, "reindexing working root"))
	}
}
