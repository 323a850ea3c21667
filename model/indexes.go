package model

import (
	"context"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SystemIndexes holds the keys, uniqueness and the collection for an index.
type SystemIndexes struct {
	Keys       bson.D
	Unique     bool
	Collection string
}

// GetRequiredIndexes returns required indexes for the scout database.
func GetRequiredIndexes() []SystemIndexes {
	return []SystemIndexes{
		{
			Keys:       bson.D{{Key: dbUserEmailKey, Value: 1}},
			Unique:     true,
			Collection: userCollection,
		},
		{
			Keys:       bson.D{{Key: dbUserAPIKeyKey, Value: 1}},
			Collection: userCollection,
		},
		{
			Keys:       bson.D{{Key: hypothesisOwnerKey, Value: 1}, {Key: hypothesisCreatedAtKey, Value: -1}},
			Collection: hypothesisCollection,
		},
		{
			Keys:       bson.D{{Key: catalogNameKey, Value: 1}},
			Unique:     true,
			Collection: vpPointCollection,
		},
		{
			Keys:       bson.D{{Key: catalogNameKey, Value: 1}},
			Unique:     true,
			Collection: icpCollection,
		},
		{
			Keys:       bson.D{{Key: catalogNameKey, Value: 1}},
			Unique:     true,
			Collection: verticalCollection,
		},
		{
			Keys:       bson.D{{Key: subVerticalParentKey, Value: 1}, {Key: subVerticalNameKey, Value: 1}},
			Unique:     true,
			Collection: subVerticalCollection,
		},
		{
			Keys:       bson.D{{Key: talHypothesisKey, Value: 1}},
			Unique:     true,
			Collection: talCollection,
		},
		{
			Keys:       bson.D{{Key: talAccountTALKey, Value: 1}, {Key: talAccountCompanyKey, Value: 1}},
			Unique:     true,
			Collection: talAccountCollection,
		},
		{
			Keys:       bson.D{{Key: callHypothesisKey, Value: 1}},
			Collection: callCollection,
		},
		{
			Keys:       bson.D{{Key: companyWebsiteKey, Value: 1}},
			Collection: companyCollection,
		},
		{
			Keys:       bson.D{{Key: companyICPKey, Value: 1}},
			Collection: companyCollection,
		},
		{
			Keys:       bson.D{{Key: documentRelPathKey, Value: 1}},
			Unique:     true,
			Collection: documentCollection,
		},
		{
			Keys:       bson.D{{Key: documentKindKey, Value: 1}},
			Collection: documentCollection,
		},
		{
			Keys:       bson.D{{Key: scriptHypothesisKey, Value: 1}},
			Unique:     true,
			Collection: scriptCollection,
		},
		{
			Keys: bson.D{
				{Key: weeklyMetricHypothesisKey, Value: 1},
				{Key: weeklyMetricOwnerKey, Value: 1},
				{Key: weeklyMetricWeekStartKey, Value: 1},
			},
			Unique:     true,
			Collection: weeklyMetricCollection,
		},
	}
}

// EnsureIndexes creates every required index. Existing indexes with the same
// definition are left alone.
func EnsureIndexes(ctx context.Context, env scout.Environment) error {
	if env == nil {
		return errors.New("cannot create indexes with a nil environment")
	}

	catcher := grip.NewBasicCatcher()
	created := 0
	for _, idx := range GetRequiredIndexes() {
		model := mongo.IndexModel{Keys: idx.Keys}
		if idx.Unique {
			model.Options = options.Index().SetUnique(true)
		}
		name, err := env.GetDB().Collection(idx.Collection).Indexes().CreateOne(ctx, model)
		if err != nil {
			catcher.Wrapf(err, "creating index on '%s'", idx.Collection)
			continue
		}
		created++
		grip.Debug(message.Fields{
			"collection": idx.Collection,
			"index":      name,
			"op":         "ensure index",
		})
	}

	grip.Info(message.Fields{
		"message": "ensured indexes",
		"count":   created,
		"errors":  catcher.HasErrors(),
	})

	return catcher.Resolve()
}

// CheckIndexes returns an error naming every required index that is missing
// from its collection. Key order and direction must match exactly.
func CheckIndexes(ctx context.Context, db *mongo.Database, required []SystemIndexes) error {
	present := map[string][]bson.D{}
	catcher := grip.NewBasicCatcher()
	for _, idx := range required {
		if _, ok := present[idx.Collection]; ok {
			continue
		}
		keys, err := listIndexKeys(ctx, db.Collection(idx.Collection))
		if err != nil {
			return errors.Wrapf(err, "listing indexes for '%s'", idx.Collection)
		}
		present[idx.Collection] = keys
	}

	for _, idx := range required {
		found := false
		for _, keys := range present[idx.Collection] {
			if sameKeys(idx.Keys, keys) {
				found = true
				break
			}
		}
		catcher.AddWhen(!found, errors.Errorf("missing index %v on '%s'", idx.Keys, idx.Collection))
	}

	return catcher.Resolve()
}

func listIndexKeys(ctx context.Context, coll *mongo.Collection) ([]bson.D, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer cur.Close(ctx)

	var out []bson.D
	for cur.Next(ctx) {
		var info struct {
			Key bson.D `bson:"key"`
		}
		if err := cur.Decode(&info); err != nil {
			return nil, errors.WithStack(err)
		}
		out = append(out, info.Key)
	}
	return out, errors.WithStack(cur.Err())
}

func sameKeys(want, got bson.D) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i].Key != got[i].Key || toInt(want[i].Value) != toInt(got[i].Value) {
			return false
		}
	}
	return true
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
