package units

import (
	"context"
	"fmt"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/knowledge"
	"github.com/discovery-tools/scout/model"
	"github.com/google/uuid"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const syncCardJobName = "sync-knowledge-card"

// syncCardJob pushes the stored card of a hypothesis to the GitHub
// repository. Push failures are logged, never retried.
type syncCardJob struct {
	HypothesisID int `bson:"hypothesis_id" json:"hypothesis_id" yaml:"hypothesis_id"`
	*job.Base    `bson:"metadata" json:"metadata" yaml:"metadata"`

	env    scout.Environment
	store  *knowledge.Store
	client *knowledge.GitHubClient
}

func init() {
	registry.AddJobType(syncCardJobName, func() amboy.Job { return makeSyncCardJob() })
}

func makeSyncCardJob() *syncCardJob {
	j := &syncCardJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    syncCardJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewSyncCardJob creates a job that mirrors the hypothesis' card.
func NewSyncCardJob(hypothesisID int) amboy.Job {
	j := makeSyncCardJob()
	j.HypothesisID = hypothesisID
	j.SetID(fmt.Sprintf("%s.%d.%s", syncCardJobName, hypothesisID, uuid.New()))
	return j
}

// CommitMessage is the commit message used when pushing a card.
func CommitMessage(hypothesisID int) string {
	return fmt.Sprintf("Update hypothesis card #%d", hypothesisID)
}

func (j *syncCardJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = scout.GetEnvironment()
	}
	conf := j.env.GetConfig()
	if j.client == nil {
		j.client = knowledge.NewGitHubClient(conf.GitHub)
	}
	if j.client == nil {
		grip.Debug(message.Fields{
			"message":    "github sync disabled, skipping card",
			"job":        j.ID(),
			"hypothesis": j.HypothesisID,
		})
		return
	}
	if j.store == nil {
		store, err := knowledge.NewStore(ctx, conf)
		if err != nil {
			j.AddError(errors.Wrap(err, "problem opening card store"))
			return
		}
		j.store = store
	}

	h := &model.Hypothesis{ID: j.HypothesisID}
	h.Setup(j.env)
	if err := h.Find(ctx); err != nil {
		j.AddError(errors.WithStack(err))
		return
	}

	name := knowledge.Filename(h)
	content, err := j.store.Get(ctx, name)
	if err != nil {
		j.AddError(errors.WithStack(err))
		return
	}

	if err = j.client.UpsertFile(ctx, j.store.RepoPath(name), content, CommitMessage(h.ID)); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":    "problem syncing card to github",
			"job":        j.ID(),
			"hypothesis": h.ID,
			"card":       name,
		}))
	}
}
