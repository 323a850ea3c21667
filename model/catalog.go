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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	vpPointCollection     = "vp_points"
	icpCollection         = "icps"
	verticalCollection    = "verticals"
	subVerticalCollection = "sub_verticals"
)

// ErrDuplicate is the cause of errors returned when a unique key already
// exists.
var ErrDuplicate = errors.New("record already exists")

// VPPoint is one element of the value proposition.
type VPPoint struct {
	ID            int       `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	JobToBeDone   string    `bson:"job_to_be_done" json:"job_to_be_done"`
	PainFriction  string    `bson:"pain_friction" json:"pain_friction"`
	OutcomeMetric string    `bson:"outcome_metric" json:"outcome_metric"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// ICP is an ideal customer profile.
type ICP struct {
	ID              int       `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Role            string    `bson:"role" json:"role"`
	Scale           string    `bson:"scale" json:"scale"`
	DecisionContext string    `bson:"decision_context" json:"decision_context"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

type Vertical struct {
	ID          int       `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// SubVertical names are unique within their vertical.
type SubVertical struct {
	ID          int       `bson:"_id" json:"id"`
	VerticalID  int       `bson:"vertical_id" json:"vertical_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

var (
	catalogIDKey          = bsonutil.MustHaveTag(VPPoint{}, "ID")
	catalogNameKey        = bsonutil.MustHaveTag(VPPoint{}, "Name")
	catalogCreatedAtKey   = bsonutil.MustHaveTag(VPPoint{}, "CreatedAt")
	subVerticalParentKey  = bsonutil.MustHaveTag(SubVertical{}, "VerticalID")
	subVerticalNameKey    = bsonutil.MustHaveTag(SubVertical{}, "Name")
	subVerticalCreatedKey = bsonutil.MustHaveTag(SubVertical{}, "CreatedAt")
)

// insertCatalogEntry allocates the next id for the collection, lets set
// store it on the document, and inserts it. Unique index violations are
// reported as ErrDuplicate.
func insertCatalogEntry(ctx context.Context, env scout.Environment, collection, name string, set func(int), doc interface{}) error {
	if env == nil {
		return errors.New("cannot save with a nil environment")
	}
	if name == "" {
		return errors.New("name is required")
	}

	id, err := nextID(ctx, env, collection)
	if err != nil {
		return errors.WithStack(err)
	}
	set(id)

	insertResult, err := env.GetDB().Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrDuplicate, "'%s' already exists in %s", name, collection)
	}
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   collection,
		"id":           id,
		"name":         name,
		"insertResult": insertResult,
		"op":           "save new catalog entry",
	})

	return errors.Wrapf(err, "problem saving '%s' to %s", name, collection)
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: catalogCreatedAtKey, Value: -1}, {Key: catalogIDKey, Value: -1}})
}

func findInto(ctx context.Context, env scout.Environment, collection string, filter interface{}, opts *options.FindOptions, out interface{}) error {
	if env == nil {
		return errors.New("cannot query with a nil environment")
	}
	cur, err := env.GetDB().Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return errors.Wrapf(err, "problem querying %s", collection)
	}
	return errors.Wrapf(cur.All(ctx, out), "problem decoding %s", collection)
}

func idsFilter(ids []int) bson.M {
	return bson.M{catalogIDKey: bson.M{"$in": ids}}
}

// SaveNew inserts the VP point with a fresh id.
func (p *VPPoint) SaveNew(ctx context.Context, env scout.Environment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return insertCatalogEntry(ctx, env, vpPointCollection, p.Name, func(id int) { p.ID = id }, p)
}

func (p *ICP) SaveNew(ctx context.Context, env scout.Environment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return insertCatalogEntry(ctx, env, icpCollection, p.Name, func(id int) { p.ID = id }, p)
}

func (v *Vertical) SaveNew(ctx context.Context, env scout.Environment) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return insertCatalogEntry(ctx, env, verticalCollection, v.Name, func(id int) { v.ID = id }, v)
}

// SaveNew inserts the sub-vertical. The parent vertical must exist.
func (s *SubVertical) SaveNew(ctx context.Context, env scout.Environment) error {
	if env == nil {
		return errors.New("cannot save with a nil environment")
	}
	if _, err := FindVertical(ctx, env, s.VerticalID); err != nil {
		return errors.WithStack(err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return insertCatalogEntry(ctx, env, subVerticalCollection, s.Name, func(id int) { s.ID = id }, s)
}

func FindVPPoints(ctx context.Context, env scout.Environment) ([]VPPoint, error) {
	out := []VPPoint{}
	if err := findInto(ctx, env, vpPointCollection, bson.M{}, newestFirst(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindICPs(ctx context.Context, env scout.Environment) ([]ICP, error) {
	out := []ICP{}
	if err := findInto(ctx, env, icpCollection, bson.M{}, newestFirst(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindVerticals(ctx context.Context, env scout.Environment) ([]Vertical, error) {
	out := []Vertical{}
	if err := findInto(ctx, env, verticalCollection, bson.M{}, newestFirst(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindSubVerticals returns the sub-verticals of the given verticals, newest
// first. No ids returns every sub-vertical.
func FindSubVerticals(ctx context.Context, env scout.Environment, verticalIDs ...int) ([]SubVertical, error) {
	filter := bson.M{}
	if len(verticalIDs) > 0 {
		filter[subVerticalParentKey] = bson.M{"$in": verticalIDs}
	}
	out := []SubVertical{}
	opts := options.Find().SetSort(bson.D{{Key: subVerticalCreatedKey, Value: -1}, {Key: catalogIDKey, Value: -1}})
	if err := findInto(ctx, env, subVerticalCollection, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindVPPointsByIDs(ctx context.Context, env scout.Environment, ids []int) ([]VPPoint, error) {
	out := []VPPoint{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := findInto(ctx, env, vpPointCollection, idsFilter(ids), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindICPsByIDs(ctx context.Context, env scout.Environment, ids []int) ([]ICP, error) {
	out := []ICP{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := findInto(ctx, env, icpCollection, idsFilter(ids), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindSubVerticalsByIDs(ctx context.Context, env scout.Environment, ids []int) ([]SubVertical, error) {
	out := []SubVertical{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := findInto(ctx, env, subVerticalCollection, idsFilter(ids), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func FindVerticalsByIDs(ctx context.Context, env scout.Environment, ids []int) ([]Vertical, error) {
	out := []Vertical{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := findInto(ctx, env, verticalCollection, idsFilter(ids), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindVertical returns the vertical with the id or a not found error.
func FindVertical(ctx context.Context, env scout.Environment, id int) (*Vertical, error) {
	out := &Vertical{}
	err := env.GetDB().Collection(verticalCollection).FindOne(ctx, bson.M{catalogIDKey: id}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding vertical %d", id)
	}
	return out, nil
}

// FindSubVerticalByName looks a sub-vertical up within its vertical.
func FindSubVerticalByName(ctx context.Context, env scout.Environment, verticalID int, name string) (*SubVertical, error) {
	out := &SubVertical{}
	err := env.GetDB().Collection(subVerticalCollection).FindOne(ctx, bson.M{
		subVerticalParentKey: verticalID,
		subVerticalNameKey:   name,
	}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding sub-vertical '%s' of vertical %d", name, verticalID)
	}
	return out, nil
}

// FindVPPointByName is used to check uniqueness before insert and by tests.
func FindVPPointByName(ctx context.Context, env scout.Environment, name string) (*VPPoint, error) {
	out := &VPPoint{}
	err := env.GetDB().Collection(vpPointCollection).FindOne(ctx, bson.M{catalogNameKey: name}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding vp point '%s'", name)
	}
	return out, nil
}
