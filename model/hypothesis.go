package model

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const hypothesisCollection = "hypotheses"

const (
	DecisionOpen         = "open"
	DecisionValidated    = "validated"
	DecisionInvalidated  = "invalidated"
	DecisionInconclusive = "inconclusive"

	HypothesisStatusDraft = "draft"
)

// ValidDecisions lists the outcomes a hypothesis can be marked with.
func ValidDecisions() []string {
	return []string{DecisionOpen, DecisionValidated, DecisionInvalidated, DecisionInconclusive}
}

// Hypothesis is a sales hypothesis owned by one user. The legacy free-form
// fields predate the VP/ICP/vertical framework and are kept alongside it.
type Hypothesis struct {
	ID          int    `bson:"_id" json:"id"`
	OwnerUserID int    `bson:"owner_user_id" json:"owner_user_id"`
	Title       string `bson:"title" json:"title"`

	Segment       string `bson:"segment" json:"segment"`
	Problem       string `bson:"problem" json:"problem"`
	Assumption    string `bson:"assumption" json:"assumption"`
	Channel       string `bson:"channel" json:"channel"`
	SuccessMetric string `bson:"success_metric" json:"success_metric"`
	MinimalSignal string `bson:"minimal_signal" json:"minimal_signal"`

	VPPointID      *int   `bson:"vp_point_id,omitempty" json:"vp_point_id"`
	ICPID          *int   `bson:"icp_id,omitempty" json:"icp_id"`
	SubVerticalID  *int   `bson:"sub_vertical_id,omitempty" json:"sub_vertical_id"`
	Pain           string `bson:"pain" json:"pain"`
	ExpectedSignal string `bson:"expected_signal" json:"expected_signal"`
	Disqualifiers  string `bson:"disqualifiers" json:"disqualifiers"`

	Decision      string     `bson:"decision" json:"decision"`
	DecisionNotes string     `bson:"decision_notes" json:"decision_notes"`
	Status        string     `bson:"status" json:"status"`
	StartDate     *time.Time `bson:"start_date,omitempty" json:"start_date"`
	EndDate       *time.Time `bson:"end_date,omitempty" json:"end_date"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`

	env       scout.Environment
	populated bool
}

var (
	hypothesisIDKey            = bsonutil.MustHaveTag(Hypothesis{}, "ID")
	hypothesisOwnerKey         = bsonutil.MustHaveTag(Hypothesis{}, "OwnerUserID")
	hypothesisDecisionKey      = bsonutil.MustHaveTag(Hypothesis{}, "Decision")
	hypothesisDecisionNotesKey = bsonutil.MustHaveTag(Hypothesis{}, "DecisionNotes")
	hypothesisCreatedAtKey     = bsonutil.MustHaveTag(Hypothesis{}, "CreatedAt")
	hypothesisUpdatedAtKey     = bsonutil.MustHaveTag(Hypothesis{}, "UpdatedAt")
)

// NewHypothesis returns a populated hypothesis with the defaults for status
// and decision filled in.
func NewHypothesis(ownerID int, title string) *Hypothesis {
	now := time.Now().UTC()
	return &Hypothesis{
		OwnerUserID: ownerID,
		Title:       title,
		Decision:    DecisionOpen,
		Status:      HypothesisStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		populated:   true,
	}
}

func (h *Hypothesis) Setup(env scout.Environment) { h.env = env }
func (h *Hypothesis) IsNil() bool                  { return !h.populated }

// VisibleTo reports whether the user may read the hypothesis. Admins see
// everything, everyone else only what they own.
func (h *Hypothesis) VisibleTo(u *User) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || h.OwnerUserID == u.ID
}

func (h *Hypothesis) Find(ctx context.Context) error {
	if h.env == nil {
		return errors.New("cannot find with a nil environment")
	}

	h.populated = false
	err := h.env.GetDB().Collection(hypothesisCollection).FindOne(ctx, bson.M{hypothesisIDKey: h.ID}).Decode(h)
	if db.ResultsNotFound(err) {
		return errors.Wrapf(err, "could not find hypothesis %d in the database", h.ID)
	} else if err != nil {
		return errors.Wrapf(err, "problem finding hypothesis %d", h.ID)
	}

	h.populated = true
	return nil
}

func (h *Hypothesis) SaveNew(ctx context.Context) error {
	if !h.populated {
		return errors.New("cannot save unpopulated hypothesis")
	}
	if h.env == nil {
		return errors.New("cannot save with a nil environment")
	}
	if h.Title == "" {
		return errors.New("hypothesis title is required")
	}

	if h.ID == 0 {
		id, err := nextID(ctx, h.env, hypothesisCollection)
		if err != nil {
			return errors.WithStack(err)
		}
		h.ID = id
	}

	insertResult, err := h.env.GetDB().Collection(hypothesisCollection).InsertOne(ctx, h)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   hypothesisCollection,
		"id":           h.ID,
		"owner":        h.OwnerUserID,
		"insertResult": insertResult,
		"op":           "save new hypothesis",
	})

	return errors.Wrapf(err, "problem saving hypothesis %d", h.ID)
}

// SetDecision records the validation outcome and its notes.
func (h *Hypothesis) SetDecision(ctx context.Context, decision, notes string) error {
	if h.env == nil {
		return errors.New("cannot update with a nil environment")
	}
	if !utility.StringSliceContains(ValidDecisions(), decision) {
		return errors.Errorf("decision '%s' is not valid", decision)
	}

	now := time.Now().UTC()
	updateResult, err := h.env.GetDB().Collection(hypothesisCollection).UpdateOne(ctx,
		bson.M{hypothesisIDKey: h.ID},
		bson.M{"$set": bson.M{
			hypothesisDecisionKey:      decision,
			hypothesisDecisionNotesKey: notes,
			hypothesisUpdatedAtKey:     now,
		}},
	)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   hypothesisCollection,
		"id":           h.ID,
		"decision":     decision,
		"updateResult": updateResult,
		"op":           "set hypothesis decision",
	})
	if err != nil {
		return errors.Wrapf(err, "problem updating decision for hypothesis %d", h.ID)
	}
	if updateResult.MatchedCount == 0 {
		return errors.Errorf("could not find hypothesis %d in the database", h.ID)
	}

	h.Decision = decision
	h.DecisionNotes = notes
	h.UpdatedAt = now
	return nil
}

// FindHypotheses returns hypotheses newest first. A zero owner returns every
// hypothesis.
func FindHypotheses(ctx context.Context, env scout.Environment, ownerID int) ([]Hypothesis, error) {
	filter := bson.M{}
	if ownerID != 0 {
		filter[hypothesisOwnerKey] = ownerID
	}

	opts := options.Find().SetSort(bson.D{{Key: hypothesisCreatedAtKey, Value: -1}, {Key: hypothesisIDKey, Value: -1}})
	cur, err := env.GetDB().Collection(hypothesisCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "problem finding hypotheses")
	}

	out := []Hypothesis{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "problem decoding hypotheses")
	}
	for i := range out {
		out[i].Setup(env)
		out[i].populated = true
	}

	return out, nil
}
