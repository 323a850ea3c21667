package knowledge

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/discovery-tools/scout"
	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// StorageType names the blob storage backing a card store.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
)

// ErrCardNotFound is returned when a hypothesis has no stored card.
var ErrCardNotFound = errors.New("card not found")

// Store keeps hypothesis cards, one object per card keyed by file name.
type Store struct {
	bucket pail.Bucket
	// RepoDir is the directory cards live under when mirrored to a
	// repository.
	RepoDir string
}

// NewStore returns a Store for the configured storage. Local stores live in
// <path>/<prefix> under the working root.
func NewStore(ctx context.Context, conf *scout.Configuration) (*Store, error) {
	kc := conf.Knowledge
	var b pail.Bucket
	var err error

	switch StorageType(kc.Type) {
	case StorageS3:
		b, err = pail.NewS3Bucket(ctx, pail.S3Options{
			Name:   kc.Bucket,
			Prefix: kc.Prefix,
			Region: kc.Region,
		})
		if err != nil {
			return nil, errors.Wrap(err, "problem creating s3 card bucket")
		}
	case StorageLocal, "":
		dir := filepath.Join(conf.ResolvePath(kc.Path), kc.Prefix)
		if err = os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "problem creating card directory '%s'", dir)
		}
		b, err = pail.NewLocalBucket(pail.LocalOptions{Path: dir})
		if err != nil {
			return nil, errors.Wrap(err, "problem creating local card bucket")
		}
	default:
		return nil, errors.Errorf("card storage '%s' is not supported", kc.Type)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.Wrap(err, "problem checking card bucket")
	}

	return NewStoreWithBucket(b, path.Join("knowledge", kc.Prefix)), nil
}

// NewStoreWithBucket wraps an existing bucket.
func NewStoreWithBucket(b pail.Bucket, repoDir string) *Store {
	return &Store{bucket: b, RepoDir: repoDir}
}

// RepoPath is the path of the card within a mirrored repository.
func (s *Store) RepoPath(name string) string { return path.Join(s.RepoDir, name) }

// Put writes the card, replacing any previous content.
func (s *Store) Put(ctx context.Context, name, content string) error {
	err := s.bucket.Put(ctx, name, strings.NewReader(content))
	grip.DebugWhen(err == nil, message.Fields{
		"message": "wrote card",
		"card":    name,
		"size":    len(content),
	})
	return errors.Wrapf(err, "problem writing card '%s'", name)
}

// Get returns the content of the named card.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	r, err := s.bucket.Get(ctx, name)
	if err != nil {
		return "", errors.Wrapf(ErrCardNotFound, "card '%s': %s", name, err.Error())
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrapf(err, "problem reading card '%s'", name)
	}
	return string(data), nil
}

// Find returns the name of the hypothesis' card. When a retitled hypothesis
// left more than one card behind, the last name in order wins.
func (s *Store) Find(ctx context.Context, id int) (string, error) {
	iter, err := s.bucket.List(ctx, "")
	if err != nil {
		return "", errors.Wrap(err, "problem listing cards")
	}

	prefix := FilenamePrefix(id)
	names := []string{}
	for iter.Next(ctx) {
		name := path.Base(iter.Item().Name())
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".md") {
			names = append(names, name)
		}
	}
	if err = iter.Err(); err != nil {
		return "", errors.Wrap(err, "problem iterating cards")
	}
	if len(names) == 0 {
		return "", errors.Wrapf(ErrCardNotFound, "hypothesis %d", id)
	}

	sort.Strings(names)
	return names[len(names)-1], nil
}
