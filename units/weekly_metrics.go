package units

import (
	"context"
	"fmt"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	weeklyMetricsJobName  = "weekly-metrics-snapshot"
	weeklyMetricsIDFormat = "2006-01-02T15"
)

// weeklyMetricsJob stores one metrics snapshot per hypothesis for the week
// containing Now. Weeks that already have a snapshot are left alone.
type weeklyMetricsJob struct {
	Now       time.Time `bson:"now" json:"now" yaml:"now"`
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`

	env scout.Environment
}

func init() {
	registry.AddJobType(weeklyMetricsJobName, func() amboy.Job { return makeWeeklyMetricsJob() })
}

func makeWeeklyMetricsJob() *weeklyMetricsJob {
	j := &weeklyMetricsJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    weeklyMetricsJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewWeeklyMetricsJob creates a snapshot job for the week containing now.
// Jobs for the same hour share an id, so hypotheses created later in the
// week are picked up by the next hourly run.
func NewWeeklyMetricsJob(now time.Time) amboy.Job {
	j := makeWeeklyMetricsJob()
	j.Now = now.UTC()
	j.SetID(fmt.Sprintf("%s.%s", weeklyMetricsJobName, j.Now.Truncate(time.Hour).Format(weeklyMetricsIDFormat)))
	return j
}

func (j *weeklyMetricsJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = scout.GetEnvironment()
	}
	if j.Now.IsZero() {
		j.Now = time.Now().UTC()
	}

	hypotheses, err := model.FindHypotheses(ctx, j.env, 0)
	if err != nil {
		j.AddError(errors.WithStack(err))
		return
	}

	saved := 0
	for i := range hypotheses {
		h := &hypotheses[i]
		metrics, err := model.GetHypothesisMetrics(ctx, j.env, h.ID)
		if err != nil {
			j.AddError(errors.Wrapf(err, "computing metrics for hypothesis %d", h.ID))
			continue
		}
		ok, err := model.SaveWeeklyMetric(ctx, j.env, h, metrics, j.Now)
		if err != nil {
			j.AddError(err)
			continue
		}
		if ok {
			saved++
		}
	}

	grip.Info(message.Fields{
		"message":    "stored weekly metrics",
		"job":        j.ID(),
		"week":       model.WeekStart(j.Now).Format(scout.ShortDateFormat),
		"hypotheses": len(hypotheses),
		"saved":      saved,
	})
}
