package units

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	tsFormat = "2006-01-02.15-04-05"

	weeklyMetricsInterval = time.Hour
	queueStatsInterval    = time.Minute
	dbStatsInterval       = time.Hour
)

// StartCrons schedules the periodic jobs on the environment's queue: a
// rescan of the working root at the configured interval, the weekly metrics
// snapshot, and the queue and database stats loggers.
func StartCrons(ctx context.Context, env scout.Environment) error {
	conf := env.GetConfig()
	if conf == nil {
		return errors.New("environment is not configured")
	}
	if conf.DisableBackgroundJobs {
		grip.Info("background jobs are disabled")
		return nil
	}

	opts := amboy.QueueOperationConfig{
		ContinueOnError: true,
		LogErrors:       false,
		DebugLogging:    false,
	}
	q := env.GetQueue()

	grip.Info(message.Fields{
		"message":          "starting background cron jobs",
		"opts":             opts,
		"started":          q.Info().Started,
		"reindex_interval": conf.ReindexInterval.String(),
	})

	if conf.ReindexInterval > 0 {
		amboy.IntervalQueueOperation(ctx, q, conf.ReindexInterval, time.Now(), opts, func(ctx context.Context, queue amboy.Queue) error {
			ts := time.Now().UTC().Truncate(conf.ReindexInterval).Format(tsFormat)
			return amboy.EnqueueUniqueJob(ctx, queue, NewReindexDocumentsJob(ts))
		})
	}
	amboy.IntervalQueueOperation(ctx, q, weeklyMetricsInterval, time.Now(), opts, func(ctx context.Context, queue amboy.Queue) error {
		return amboy.EnqueueUniqueJob(ctx, queue, NewWeeklyMetricsJob(time.Now()))
	})
	amboy.IntervalQueueOperation(ctx, q, queueStatsInterval, time.Now(), opts, func(ctx context.Context, queue amboy.Queue) error {
		ts := time.Now().UTC().Truncate(queueStatsInterval).Format(tsFormat)
		return amboy.EnqueueUniqueJob(ctx, queue, NewAmboyStatsCollector(env, ts))
	})
	amboy.IntervalQueueOperation(ctx, q, dbStatsInterval, time.Now(), opts, func(ctx context.Context, queue amboy.Queue) error {
		ts := time.Now().UTC().Truncate(dbStatsInterval).Format(tsFormat)
		return amboy.EnqueueUniqueJob(ctx, queue, NewStatsDBCollectionSizeJob(env, ts))
	})

	return nil
}
