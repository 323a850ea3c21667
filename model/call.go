package model

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const callCollection = "calls"

// Call is one logged discovery call and what it showed.
type Call struct {
	ID           int        `bson:"_id" json:"id"`
	OwnerUserID  int        `bson:"owner_user_id" json:"owner_user_id"`
	HypothesisID *int       `bson:"hypothesis_id,omitempty" json:"hypothesis_id"`
	TALAccountID *int       `bson:"tal_account_id,omitempty" json:"tal_account_id"`
	CompanyID    *int       `bson:"company_id,omitempty" json:"company_id"`
	CallDate     *time.Time `bson:"call_date,omitempty" json:"call_date"`

	Company       string `bson:"company" json:"company"`
	Contact       string `bson:"contact" json:"contact"`
	Source        string `bson:"source" json:"source"`
	Summary       string `bson:"summary" json:"summary"`
	TranscriptURL string `bson:"transcript_url" json:"transcript_url"`

	PainConfirmed bool   `bson:"pain_confirmed" json:"pain_confirmed"`
	Severity      int    `bson:"severity" json:"severity"`
	Interest      bool   `bson:"interest" json:"interest"`
	FollowUp      bool   `bson:"follow_up" json:"follow_up"`
	Disqualifier  string `bson:"disqualifier" json:"disqualifier"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	env       scout.Environment
	populated bool
}

var (
	callIDKey         = bsonutil.MustHaveTag(Call{}, "ID")
	callHypothesisKey = bsonutil.MustHaveTag(Call{}, "HypothesisID")
	callCreatedAtKey  = bsonutil.MustHaveTag(Call{}, "CreatedAt")
)

// NewCall returns a populated call owned by the user.
func NewCall(ownerID int) *Call {
	return &Call{
		OwnerUserID: ownerID,
		CreatedAt:   time.Now().UTC(),
		populated:   true,
	}
}

func (c *Call) Setup(env scout.Environment) { c.env = env }
func (c *Call) IsNil() bool                  { return !c.populated }

func (c *Call) SaveNew(ctx context.Context) error {
	if !c.populated {
		return errors.New("cannot save unpopulated call")
	}
	if c.env == nil {
		return errors.New("cannot save with a nil environment")
	}

	if c.ID == 0 {
		id, err := nextID(ctx, c.env, callCollection)
		if err != nil {
			return errors.WithStack(err)
		}
		c.ID = id
	}

	insertResult, err := c.env.GetDB().Collection(callCollection).InsertOne(ctx, c)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   callCollection,
		"id":           c.ID,
		"hypothesis":   c.HypothesisID,
		"insertResult": insertResult,
		"op":           "save new call",
	})

	return errors.Wrapf(err, "problem saving call %d", c.ID)
}

// FindCalls returns the calls logged against a hypothesis. Metrics depend on
// call order, so oldest first is by id; newest first is by creation time.
func FindCalls(ctx context.Context, env scout.Environment, hypothesisID int, newestFirst bool) ([]Call, error) {
	opts := options.Find().SetSort(bson.D{{Key: callIDKey, Value: 1}})
	if newestFirst {
		opts = options.Find().SetSort(bson.D{{Key: callCreatedAtKey, Value: -1}, {Key: callIDKey, Value: -1}})
	}

	out := []Call{}
	if err := findInto(ctx, env, callCollection, bson.M{callHypothesisKey: hypothesisID}, opts, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Setup(env)
		out[i].populated = true
	}
	return out, nil
}
