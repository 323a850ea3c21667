package model

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	companyCollection = "companies"

	// DefaultListLimit caps the rows returned by the list queries.
	DefaultListLimit = 200
)

// Company is a row of the imported company list. Website is normalized and
// is the deduplication key when present.
type Company struct {
	ID        int               `bson:"_id" json:"id"`
	ICP       string            `bson:"icp" json:"icp"`
	Name      string            `bson:"name" json:"name"`
	Website   *string           `bson:"website,omitempty" json:"website"`
	Score     string            `bson:"score" json:"score"`
	Reasoning string            `bson:"reasoning" json:"reasoning"`
	Notes     string            `bson:"notes" json:"notes"`
	Raw       map[string]string `bson:"raw" json:"raw"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
}

var (
	companyIDKey        = bsonutil.MustHaveTag(Company{}, "ID")
	companyICPKey       = bsonutil.MustHaveTag(Company{}, "ICP")
	companyNameKey      = bsonutil.MustHaveTag(Company{}, "Name")
	companyWebsiteKey   = bsonutil.MustHaveTag(Company{}, "Website")
	companyCreatedAtKey = bsonutil.MustHaveTag(Company{}, "CreatedAt")
)

// CompanyQuery filters the company list. Query matches a case-insensitive
// substring of the name or website; ICP must match exactly.
type CompanyQuery struct {
	Query string
	ICP   string
	Limit int
}

func (q CompanyQuery) filter() bson.M {
	filter := bson.M{}
	if q.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{companyNameKey: pattern},
			bson.M{companyWebsiteKey: pattern},
		}
	}
	if q.ICP != "" {
		filter[companyICPKey] = q.ICP
	}
	return filter
}

// FindCompanies returns the matching companies, newest first.
func FindCompanies(ctx context.Context, env scout.Environment, q CompanyQuery) ([]Company, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: companyCreatedAtKey, Value: -1}, {Key: companyIDKey, Value: -1}}).
		SetLimit(int64(q.Limit))

	out := []Company{}
	if err := findInto(ctx, env, companyCollection, q.filter(), opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountCompanies counts every stored company.
func CountCompanies(ctx context.Context, env scout.Environment) (int, error) {
	n, err := env.GetDB().Collection(companyCollection).CountDocuments(ctx, bson.M{})
	return int(n), errors.Wrap(err, "problem counting companies")
}

func FindCompany(ctx context.Context, env scout.Environment, id int) (*Company, error) {
	out := &Company{}
	err := env.GetDB().Collection(companyCollection).FindOne(ctx, bson.M{companyIDKey: id}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding company %d", id)
	}
	return out, nil
}

func FindCompaniesByIDs(ctx context.Context, env scout.Environment, ids []int) ([]Company, error) {
	out := []Company{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := findInto(ctx, env, companyCollection, bson.M{companyIDKey: bson.M{"$in": ids}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeWebsite lowercases the address, drops the scheme, and trims
// slashes and spaces from both ends.
func NormalizeWebsite(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	return strings.Trim(strings.TrimSpace(s), "/")
}

// KnownWebsites returns the normalized websites already stored.
func KnownWebsites(ctx context.Context, env scout.Environment) (map[string]bool, error) {
	values, err := env.GetDB().Collection(companyCollection).Distinct(ctx, companyWebsiteKey, bson.M{
		companyWebsiteKey: bson.M{"$exists": true, "$ne": nil},
	})
	if err != nil {
		return nil, errors.Wrap(err, "problem listing known websites")
	}

	out := make(map[string]bool, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out[NormalizeWebsite(s)] = true
		}
	}
	return out, nil
}

// InsertCompanies stores a batch of new companies, allocating their ids in
// one counter update.
func InsertCompanies(ctx context.Context, env scout.Environment, companies []Company) error {
	if len(companies) == 0 {
		return nil
	}
	if env == nil {
		return errors.New("cannot save with a nil environment")
	}

	first, err := nextIDs(ctx, env, companyCollection, len(companies))
	if err != nil {
		return errors.WithStack(err)
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(companies))
	for i := range companies {
		companies[i].ID = first + i
		if companies[i].CreatedAt.IsZero() {
			companies[i].CreatedAt = now
		}
		docs[i] = companies[i]
	}

	res, err := env.GetDB().Collection(companyCollection).InsertMany(ctx, docs)
	if err != nil {
		return errors.Wrap(err, "problem inserting companies")
	}
	grip.Debug(message.Fields{
		"collection": companyCollection,
		"first_id":   first,
		"inserted":   len(res.InsertedIDs),
		"op":         "insert companies",
	})

	return nil
}

// ImportResult describes one run of the company CSV import.
type ImportResult struct {
	TotalRows int    `bson:"total_rows" json:"total_rows"`
	Inserted  int    `bson:"inserted" json:"inserted"`
	Skipped   int    `bson:"skipped" json:"skipped"`
	Path      string `bson:"path" json:"path"`
}
