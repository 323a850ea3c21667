package model

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentCollection = "documents"

// Document is one file found under the working root. RelPath always uses
// forward slashes.
type Document struct {
	ID        int       `bson:"_id" json:"id"`
	RelPath   string    `bson:"rel_path" json:"rel_path"`
	Kind      string    `bson:"kind" json:"kind"`
	Ext       string    `bson:"ext" json:"ext"`
	SizeBytes int64     `bson:"size_bytes" json:"size_bytes"`
	MtimeUnix int64     `bson:"mtime_unix" json:"mtime_unix"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	documentIDKey        = bsonutil.MustHaveTag(Document{}, "ID")
	documentRelPathKey   = bsonutil.MustHaveTag(Document{}, "RelPath")
	documentKindKey      = bsonutil.MustHaveTag(Document{}, "Kind")
	documentExtKey       = bsonutil.MustHaveTag(Document{}, "Ext")
	documentSizeKey      = bsonutil.MustHaveTag(Document{}, "SizeBytes")
	documentMtimeKey     = bsonutil.MustHaveTag(Document{}, "MtimeUnix")
	documentUpdatedAtKey = bsonutil.MustHaveTag(Document{}, "UpdatedAt")
)

// FileMeta is what a filesystem scan reports for one file.
type FileMeta struct {
	RelPath   string
	Ext       string
	Kind      string
	SizeBytes int64
	MtimeUnix int64
}

func (d *Document) changed(m FileMeta) bool {
	return d.SizeBytes != m.SizeBytes || d.MtimeUnix != m.MtimeUnix || d.Kind != m.Kind || d.Ext != m.Ext
}

// ReindexResult describes one reconciliation of the file index.
type ReindexResult struct {
	TotalScanned int `bson:"total_scanned" json:"total_scanned"`
	Created      int `bson:"created" json:"created"`
	Updated      int `bson:"updated" json:"updated"`
	Deleted      int `bson:"deleted" json:"deleted"`
}

// DocumentQuery filters the file index. Query matches a case-insensitive
// substring of the path.
type DocumentQuery struct {
	Query string
	Kind  string
	Limit int
}

// FindDocuments returns matching documents, most recently indexed first.
func FindDocuments(ctx context.Context, env scout.Environment, q DocumentQuery) ([]Document, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	filter := bson.M{}
	if q.Query != "" {
		filter[documentRelPathKey] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Query), Options: "i"}
	}
	if q.Kind != "" {
		filter[documentKindKey] = q.Kind
	}
	opts := options.Find().
		SetSort(bson.D{{Key: documentIDKey, Value: -1}}).
		SetLimit(int64(q.Limit))

	out := []Document{}
	if err := findInto(ctx, env, documentCollection, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func CountDocuments(ctx context.Context, env scout.Environment) (int, error) {
	n, err := env.GetDB().Collection(documentCollection).CountDocuments(ctx, bson.M{})
	return int(n), errors.Wrap(err, "problem counting documents")
}

// DocumentKinds returns the distinct kinds in the index, sorted.
func DocumentKinds(ctx context.Context, env scout.Environment) ([]string, error) {
	values, err := env.GetDB().Collection(documentCollection).Distinct(ctx, documentKindKey, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "problem listing document kinds")
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func FindDocument(ctx context.Context, env scout.Environment, id int) (*Document, error) {
	out := &Document{}
	err := env.GetDB().Collection(documentCollection).FindOne(ctx, bson.M{documentIDKey: id}).Decode(out)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding document %d", id)
	}
	return out, nil
}

// SyncDocuments reconciles the index with a scan: new paths are inserted,
// changed files updated, and paths missing from the scan removed.
func SyncDocuments(ctx context.Context, env scout.Environment, scanned []FileMeta) (ReindexResult, error) {
	res := ReindexResult{TotalScanned: len(scanned)}
	if env == nil {
		return res, errors.New("cannot reindex with a nil environment")
	}

	existing := []Document{}
	if err := findInto(ctx, env, documentCollection, bson.M{}, nil, &existing); err != nil {
		return res, errors.WithStack(err)
	}
	byPath := make(map[string]*Document, len(existing))
	for i := range existing {
		byPath[existing[i].RelPath] = &existing[i]
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(scanned))
	newDocs := []Document{}
	writes := []mongo.WriteModel{}
	for _, m := range scanned {
		seen[m.RelPath] = true
		d, ok := byPath[m.RelPath]
		if !ok {
			newDocs = append(newDocs, Document{
				RelPath:   m.RelPath,
				Kind:      m.Kind,
				Ext:       m.Ext,
				SizeBytes: m.SizeBytes,
				MtimeUnix: m.MtimeUnix,
				CreatedAt: now,
				UpdatedAt: now,
			})
			continue
		}
		if d.changed(m) {
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(bson.M{documentIDKey: d.ID}).
				SetUpdate(bson.M{"$set": bson.M{
					documentSizeKey:      m.SizeBytes,
					documentMtimeKey:     m.MtimeUnix,
					documentKindKey:      m.Kind,
					documentExtKey:       m.Ext,
					documentUpdatedAtKey: now,
				}}))
			res.Updated++
		}
	}

	for _, d := range existing {
		if !seen[d.RelPath] {
			writes = append(writes, mongo.NewDeleteOneModel().SetFilter(bson.M{documentIDKey: d.ID}))
			res.Deleted++
		}
	}

	if len(newDocs) > 0 {
		first, err := nextIDs(ctx, env, documentCollection, len(newDocs))
		if err != nil {
			return res, errors.WithStack(err)
		}
		for i := range newDocs {
			newDocs[i].ID = first + i
			writes = append(writes, mongo.NewInsertOneModel().SetDocument(newDocs[i]))
		}
		res.Created = len(newDocs)
	}

	if len(writes) > 0 {
		bulkResult, err := env.GetDB().Collection(documentCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return res, errors.Wrap(err, "problem writing document index")
		}
		grip.Debug(message.Fields{
			"collection": documentCollection,
			"inserted":   bulkResult.InsertedCount,
			"modified":   bulkResult.ModifiedCount,
			"deleted":    bulkResult.DeletedCount,
			"op":         "sync documents",
		})
	}

	return res, nil
}
