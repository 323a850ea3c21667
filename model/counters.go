package model

import (
	"context"

	"github.com/discovery-tools/scout"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterCollection = "counters"

type sequenceCounter struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

// nextIDs reserves n consecutive integer ids for the named collection and
// returns the first one. Ids start at 1.
func nextIDs(ctx context.Context, env scout.Environment, collection string, n int) (int, error) {
	if env == nil {
		return 0, errors.New("cannot allocate ids with a nil environment")
	}
	if n < 1 {
		return 0, errors.Errorf("cannot allocate %d ids", n)
	}

	out := sequenceCounter{}
	err := env.GetDB().Collection(counterCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"seq": n}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, errors.Wrapf(err, "problem allocating ids for '%s'", collection)
	}

	return out.Seq - n + 1, nil
}

func nextID(ctx context.Context, env scout.Environment, collection string) (int, error) {
	return nextIDs(ctx, env, collection, 1)
}
