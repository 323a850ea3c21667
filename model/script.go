package model

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const scriptCollection = "scripts"

// Script is the call script of a hypothesis. There is at most one per
// hypothesis.
type Script struct {
	ID           int       `bson:"_id" json:"id"`
	HypothesisID int       `bson:"hypothesis_id" json:"hypothesis_id"`
	OwnerUserID  int       `bson:"owner_user_id" json:"owner_user_id"`
	Content      string    `bson:"content" json:"content"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	scriptHypothesisKey = bsonutil.MustHaveTag(Script{}, "HypothesisID")
	scriptContentKey    = bsonutil.MustHaveTag(Script{}, "Content")
	scriptUpdatedAtKey  = bsonutil.MustHaveTag(Script{}, "UpdatedAt")
)

func FindScript(ctx context.Context, env scout.Environment, hypothesisID int) (*Script, error) {
	out := &Script{}
	err := env.GetDB().Collection(scriptCollection).FindOne(ctx, bson.M{scriptHypothesisKey: hypothesisID}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding script for hypothesis %d", hypothesisID)
	}
	return out, nil
}

// SaveScript writes the content as the hypothesis' script, creating the
// script owned by the hypothesis owner on first save.
func SaveScript(ctx context.Context, env scout.Environment, h *Hypothesis, content string) (*Script, error) {
	if env == nil {
		return nil, errors.New("cannot save with a nil environment")
	}

	now := time.Now().UTC()
	existing, err := FindScript(ctx, env, h.ID)
	if err == nil {
		_, err = env.GetDB().Collection(scriptCollection).UpdateOne(ctx,
			bson.M{scriptHypothesisKey: h.ID},
			bson.M{"$set": bson.M{scriptContentKey: content, scriptUpdatedAtKey: now}},
		)
		if err != nil {
			return nil, errors.Wrapf(err, "problem updating script for hypothesis %d", h.ID)
		}
		existing.Content = content
		existing.UpdatedAt = now
		return existing, nil
	} else if !db.ResultsNotFound(errors.Cause(err)) {
		return nil, errors.WithStack(err)
	}

	id, err := nextID(ctx, env, scriptCollection)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s := &Script{
		ID:           id,
		HypothesisID: h.ID,
		OwnerUserID:  h.OwnerUserID,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	insertResult, err := env.GetDB().Collection(scriptCollection).InsertOne(ctx, s)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   scriptCollection,
		"id":           id,
		"hypothesis":   h.ID,
		"insertResult": insertResult,
		"op":           "save new script",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "problem saving script for hypothesis %d", h.ID)
	}

	return s, nil
}
