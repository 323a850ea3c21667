package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/pkg/errors"
)

// APIMetrics are the validation metrics of a hypothesis and the hint for
// reading them.
type APIMetrics struct {
	HypothesisID    int    `json:"hypothesis_id"`
	TotalCalls      int    `json:"total_calls"`
	PainConfirmed   int    `json:"pain_confirmed"`
	Interest        int    `json:"interest"`
	FollowUp        int    `json:"follow_up"`
	PainRate        int    `json:"pain_rate"`
	InterestRate    int    `json:"interest_rate"`
	FollowRate      int    `json:"follow_rate"`
	FirstPainCall   *int   `json:"first_pain_call"`
	FirstFollowCall *int   `json:"first_follow_call"`
	DecisionHint    string `json:"decision_hint,omitempty"`
}

func (a *APIMetrics) Import(i interface{}) error {
	switch m := i.(type) {
	case dbmodel.HypothesisMetrics:
		a.TotalCalls = m.TotalCalls
		a.PainConfirmed = m.PainConfirmed
		a.Interest = m.Interest
		a.FollowUp = m.FollowUp
		a.PainRate = m.PainRate
		a.InterestRate = m.InterestRate
		a.FollowRate = m.FollowRate
		a.FirstPainCall = m.FirstPainCall
		a.FirstFollowCall = m.FirstFollowCall
		a.DecisionHint = dbmodel.DecisionHint
	default:
		return errors.Errorf("incorrect type %T when converting to APIMetrics type", i)
	}
	return nil
}

type APIWeeklyMetric struct {
	HypothesisID int        `json:"hypothesis_id"`
	WeekStart    APIDate    `json:"week_start"`
	Metrics      APIMetrics `json:"metrics"`
	CreatedAt    APITime    `json:"created_at"`
}

func (a *APIWeeklyMetric) Import(i interface{}) error {
	switch w := i.(type) {
	case dbmodel.WeeklyMetric:
		a.HypothesisID = w.HypothesisID
		week := w.WeekStart
		a.WeekStart = NewDate(&week)
		if err := a.Metrics.Import(w.Payload); err != nil {
			return err
		}
		a.Metrics.HypothesisID = w.HypothesisID
		a.Metrics.DecisionHint = ""
		a.CreatedAt = NewTime(w.CreatedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APIWeeklyMetric type", i)
	}
	return nil
}
