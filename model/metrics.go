package model

import (
	"context"
	"math"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weeklyMetricCollection = "weekly_metrics"

// DecisionHint is shown next to the metrics to help read them.
const DecisionHint = "Rule of thumb:\n" +
	"- If pain confirmed < 30% → likely invalid (or TAL dirty).\n" +
	"- If pain is high but interest low → value wording / owning role.\n" +
	"- If pain+interest high but follow-up low → urgency/ownership/trust.\n" +
	"- If signals appear only after 25–30 calls → likely rationalizing."

// HypothesisMetrics summarizes the calls of one hypothesis. Rates are whole
// percentages. The first-call fields hold the 1-based position of the first
// call showing the signal.
type HypothesisMetrics struct {
	TotalCalls      int  `bson:"total_calls" json:"total_calls"`
	PainConfirmed   int  `bson:"pain_confirmed" json:"pain_confirmed"`
	Interest        int  `bson:"interest" json:"interest"`
	FollowUp        int  `bson:"follow_up" json:"follow_up"`
	PainRate        int  `bson:"pain_rate" json:"pain_rate"`
	InterestRate    int  `bson:"interest_rate" json:"interest_rate"`
	FollowRate      int  `bson:"follow_rate" json:"follow_rate"`
	FirstPainCall   *int `bson:"first_pain_call,omitempty" json:"first_pain_call"`
	FirstFollowCall *int `bson:"first_follow_call,omitempty" json:"first_follow_call"`
}

// Percent returns x as a share of total, rounded half to even. A zero total
// gives zero.
func Percent(x, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(x) / float64(total) * 100))
}

// ComputeMetrics expects calls in the order they were logged.
func ComputeMetrics(calls []Call) HypothesisMetrics {
	m := HypothesisMetrics{TotalCalls: len(calls)}
	for idx, c := range calls {
		pos := idx + 1
		if c.PainConfirmed {
			m.PainConfirmed++
			if m.FirstPainCall == nil {
				m.FirstPainCall = &pos
			}
		}
		if c.Interest {
			m.Interest++
		}
		if c.FollowUp {
			m.FollowUp++
			if m.FirstFollowCall == nil {
				m.FirstFollowCall = &pos
			}
		}
	}

	m.PainRate = Percent(m.PainConfirmed, m.TotalCalls)
	m.InterestRate = Percent(m.Interest, m.TotalCalls)
	m.FollowRate = Percent(m.FollowUp, m.TotalCalls)

	return m
}

// GetHypothesisMetrics loads the calls of the hypothesis and summarizes them.
func GetHypothesisMetrics(ctx context.Context, env scout.Environment, hypothesisID int) (HypothesisMetrics, error) {
	calls, err := FindCalls(ctx, env, hypothesisID, false)
	if err != nil {
		return HypothesisMetrics{}, errors.WithStack(err)
	}
	return ComputeMetrics(calls), nil
}

// WeeklyMetric is a snapshot of a hypothesis' metrics taken once per week.
type WeeklyMetric struct {
	ID           int               `bson:"_id" json:"id"`
	HypothesisID int               `bson:"hypothesis_id" json:"hypothesis_id"`
	OwnerUserID  int               `bson:"owner_user_id" json:"owner_user_id"`
	WeekStart    time.Time         `bson:"week_start" json:"week_start"`
	Payload      HypothesisMetrics `bson:"payload" json:"payload"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
}

var (
	weeklyMetricIDKey         = bsonutil.MustHaveTag(WeeklyMetric{}, "ID")
	weeklyMetricHypothesisKey = bsonutil.MustHaveTag(WeeklyMetric{}, "HypothesisID")
	weeklyMetricOwnerKey      = bsonutil.MustHaveTag(WeeklyMetric{}, "OwnerUserID")
	weeklyMetricWeekStartKey  = bsonutil.MustHaveTag(WeeklyMetric{}, "WeekStart")
)

// WeekStart returns midnight UTC of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// SaveWeeklyMetric stores a snapshot for the week containing now. It reports
// false when that week already has one.
func SaveWeeklyMetric(ctx context.Context, env scout.Environment, h *Hypothesis, m HypothesisMetrics, now time.Time) (bool, error) {
	if env == nil {
		return false, errors.New("cannot save with a nil environment")
	}

	week := WeekStart(now)
	filter := bson.M{
		weeklyMetricHypothesisKey: h.ID,
		weeklyMetricOwnerKey:      h.OwnerUserID,
		weeklyMetricWeekStartKey:  week,
	}
	count, err := env.GetDB().Collection(weeklyMetricCollection).CountDocuments(ctx, filter)
	if err != nil {
		return false, errors.Wrap(err, "problem checking for weekly snapshot")
	}
	if count > 0 {
		return false, nil
	}

	id, err := nextID(ctx, env, weeklyMetricCollection)
	if err != nil {
		return false, errors.WithStack(err)
	}
	wm := &WeeklyMetric{
		ID:           id,
		HypothesisID: h.ID,
		OwnerUserID:  h.OwnerUserID,
		WeekStart:    week,
		Payload:      m,
		CreatedAt:    now.UTC(),
	}
	insertResult, err := env.GetDB().Collection(weeklyMetricCollection).InsertOne(ctx, wm)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   weeklyMetricCollection,
		"id":           id,
		"hypothesis":   h.ID,
		"week":         week.Format(scout.ShortDateFormat),
		"insertResult": insertResult,
		"op":           "save weekly metric",
	})

	return err == nil, errors.Wrapf(err, "problem saving weekly metric for hypothesis %d", h.ID)
}

// FindWeeklyMetrics returns the snapshots of a hypothesis, most recent week
// first.
func FindWeeklyMetrics(ctx context.Context, env scout.Environment, hypothesisID int) ([]WeeklyMetric, error) {
	out := []WeeklyMetric{}
	opts := options.Find().SetSort(bson.D{{Key: weeklyMetricWeekStartKey, Value: -1}, {Key: weeklyMetricIDKey, Value: -1}})
	if err := findInto(ctx, env, weeklyMetricCollection, bson.M{weeklyMetricHypothesisKey: hypothesisID}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}
