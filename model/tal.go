package model

import (
	"context"
	"fmt"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	talCollection        = "tals"
	talAccountCollection = "tal_accounts"

	TALAccountNotContacted = "not_contacted"
)

// TAL is the target account list of one hypothesis.
type TAL struct {
	ID           int       `bson:"_id" json:"id"`
	HypothesisID int       `bson:"hypothesis_id" json:"hypothesis_id"`
	OwnerUserID  int       `bson:"owner_user_id" json:"owner_user_id"`
	Name         string    `bson:"name" json:"name"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// TALAccount is a company selected into a TAL. A company appears at most once
// per list.
type TALAccount struct {
	ID        int       `bson:"_id" json:"id"`
	TALID     int       `bson:"tal_id" json:"tal_id"`
	CompanyID int       `bson:"company_id" json:"company_id"`
	FitReason string    `bson:"fit_reason" json:"fit_reason"`
	PainHint  string    `bson:"pain_hint" json:"pain_hint"`
	Status    string    `bson:"status" json:"status"`
	Notes     string    `bson:"notes" json:"notes"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

var (
	talIDKey               = bsonutil.MustHaveTag(TAL{}, "ID")
	talHypothesisKey       = bsonutil.MustHaveTag(TAL{}, "HypothesisID")
	talAccountIDKey        = bsonutil.MustHaveTag(TALAccount{}, "ID")
	talAccountTALKey       = bsonutil.MustHaveTag(TALAccount{}, "TALID")
	talAccountCompanyKey   = bsonutil.MustHaveTag(TALAccount{}, "CompanyID")
	talAccountCreatedAtKey = bsonutil.MustHaveTag(TALAccount{}, "CreatedAt")
)

// TALName is the conventional name of a hypothesis' list.
func TALName(hypothesisID int) string { return fmt.Sprintf("TAL-H-%d", hypothesisID) }

// FindTAL returns the list of the hypothesis, or a not found error.
func FindTAL(ctx context.Context, env scout.Environment, hypothesisID int) (*TAL, error) {
	out := &TAL{}
	err := env.GetDB().Collection(talCollection).FindOne(ctx, bson.M{talHypothesisKey: hypothesisID}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding tal for hypothesis %d", hypothesisID)
	}
	return out, nil
}

// GetOrCreateTAL returns the hypothesis' list, creating it on first use. The
// list is owned by the hypothesis owner.
func GetOrCreateTAL(ctx context.Context, env scout.Environment, h *Hypothesis) (*TAL, error) {
	if env == nil {
		return nil, errors.New("cannot query with a nil environment")
	}

	tal, err := FindTAL(ctx, env, h.ID)
	if err == nil {
		return tal, nil
	} else if !db.ResultsNotFound(errors.Cause(err)) {
		return nil, errors.WithStack(err)
	}

	id, err := nextID(ctx, env, talCollection)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tal = &TAL{
		ID:           id,
		HypothesisID: h.ID,
		OwnerUserID:  h.OwnerUserID,
		Name:         TALName(h.ID),
		CreatedAt:    time.Now().UTC(),
	}

	insertResult, err := env.GetDB().Collection(talCollection).InsertOne(ctx, tal)
	if mongo.IsDuplicateKeyError(err) {
		return FindTAL(ctx, env, h.ID)
	} else if err != nil {
		return nil, errors.Wrapf(err, "problem creating tal for hypothesis %d", h.ID)
	}
	grip.Debug(message.Fields{
		"collection":   talCollection,
		"id":           tal.ID,
		"hypothesis":   h.ID,
		"insertResult": insertResult,
		"op":           "create tal",
	})

	return tal, nil
}

// AddTALAccount adds acct.CompanyID to the list acct.TALID, filling in the
// id, status and creation time. It reports false, without an error, when the
// company is already there.
func AddTALAccount(ctx context.Context, env scout.Environment, acct *TALAccount) (bool, error) {
	if env == nil {
		return false, errors.New("cannot save with a nil environment")
	}

	count, err := env.GetDB().Collection(talAccountCollection).CountDocuments(ctx, bson.M{
		talAccountTALKey:     acct.TALID,
		talAccountCompanyKey: acct.CompanyID,
	})
	if err != nil {
		return false, errors.Wrap(err, "problem checking tal membership")
	}
	if count > 0 {
		return false, nil
	}

	id, err := nextID(ctx, env, talAccountCollection)
	if err != nil {
		return false, errors.WithStack(err)
	}
	acct.ID = id
	if acct.Status == "" {
		acct.Status = TALAccountNotContacted
	}
	acct.CreatedAt = time.Now().UTC()

	_, err = env.GetDB().Collection(talAccountCollection).InsertOne(ctx, acct)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "problem adding company %d to tal %d", acct.CompanyID, acct.TALID)
	}

	return true, nil
}

// FindTALAccounts returns the accounts of the list, newest first.
func FindTALAccounts(ctx context.Context, env scout.Environment, talID int) ([]TALAccount, error) {
	out := []TALAccount{}
	opts := options.Find().SetSort(bson.D{{Key: talAccountCreatedAtKey, Value: -1}, {Key: talAccountIDKey, Value: -1}})
	if err := findInto(ctx, env, talAccountCollection, bson.M{talAccountTALKey: talID}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindTALAccount(ctx context.Context, env scout.Environment, id int) (*TALAccount, error) {
	out := &TALAccount{}
	err := env.GetDB().Collection(talAccountCollection).FindOne(ctx, bson.M{talAccountIDKey: id}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding tal account %d", id)
	}
	return out, nil
}

// CountTALAccounts returns the size of the hypothesis' list, zero when the
// list has not been created yet.
func CountTALAccounts(ctx context.Context, env scout.Environment, hypothesisID int) (int, error) {
	tal, err := FindTAL(ctx, env, hypothesisID)
	if db.ResultsNotFound(errors.Cause(err)) {
		return 0, nil
	} else if err != nil {
		return 0, errors.WithStack(err)
	}

	n, err := env.GetDB().Collection(talAccountCollection).CountDocuments(ctx, bson.M{talAccountTALKey: tal.ID})
	return int(n), errors.Wrapf(err, "problem counting accounts of tal %d", tal.ID)
}
