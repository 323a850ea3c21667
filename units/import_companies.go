package units

import (
	"context"
	"fmt"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/ingest"
	"github.com/google/uuid"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/pkg/errors"
)

const importCompaniesJobName = "import-companies"

type importCompaniesJob struct {
	Path      string `bson:"path" json:"path" yaml:"path"`
	Limit     int    `bson:"limit" json:"limit" yaml:"limit"`
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`

	env scout.Environment
}

func init() {
	registry.AddJobType(importCompaniesJobName, func() amboy.Job { return makeImportCompaniesJob() })
}

func makeImportCompaniesJob() *importCompaniesJob {
	j := &importCompaniesJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    importCompaniesJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewImportCompaniesJob creates a job that imports the company export at
// path. A positive limit stops after that many rows.
func NewImportCompaniesJob(path string, limit int) amboy.Job {
	j := makeImportCompaniesJob()
	j.Path = path
	j.Limit = limit
	j.SetID(fmt.Sprintf("%s.%s", importCompaniesJobName, uuid.New()))
	return j
}

func (j *importCompaniesJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = scout.GetEnvironment()
	}

	if _, err := ingest.ImportCompanies(ctx, j.env, j.Path, j.Limit); err != nil {
		j.AddError(errors.Wrapf(err, "importing companies from '%s'", j.Path))
	}
}
