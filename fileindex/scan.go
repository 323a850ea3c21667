/*
Package fileindex scans the working root into the document index and serves
previews and downloads of indexed files without escaping the root.
*/
package fileindex

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/discovery-tools/scout/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Document kinds.
const (
	KindCSV   = "csv"
	KindHTML  = "html"
	KindMD    = "md"
	KindPY    = "py"
	KindImage = "image"
	KindDB    = "db"
	KindOther = "other"
)

// DefaultExclusions are always skipped by a scan: tool directories, the
// local database's journal files and compiled python.
var DefaultExclusions = []string{
	".venv",
	"__pycache__",
	".git",
	"product.db-wal",
	"product.db-shm",
	"*.pyc",
}

var kindsByExt = map[string]string{
	"csv":    KindCSV,
	"html":   KindHTML,
	"htm":    KindHTML,
	"md":     KindMD,
	"py":     KindPY,
	"jpg":    KindImage,
	"jpeg":   KindImage,
	"png":    KindImage,
	"gif":    KindImage,
	"webp":   KindImage,
	"db":     KindDB,
	"sqlite": KindDB,
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// GuessKind maps an extension, as returned by Extension, to a document kind.
func GuessKind(ext string) string {
	if kind, ok := kindsByExt[ext]; ok {
		return kind
	}
	return KindOther
}

// Excluder decides which paths a scan skips. Patterns use doublestar
// syntax and are matched against both the slash separated relative path and
// the base name.
type Excluder struct {
	patterns []string
}

// NewExcluder combines the default exclusions with extra patterns.
func NewExcluder(extra ...string) *Excluder {
	return &Excluder{patterns: append(append([]string{}, DefaultExclusions...), extra...)}
}

// Excluded reports whether relPath matches an exclusion. Malformed patterns
// never match.
func (e *Excluder) Excluded(relPath string) bool {
	base := path.Base(relPath)
	lower := strings.ToLower(base)
	for _, p := range e.patterns {
		for _, candidate := range []string{relPath, base, lower} {
			ok, err := doublestar.Match(p, candidate)
			if err != nil {
				grip.Debug(message.WrapError(err, message.Fields{
					"message": "bad exclusion pattern",
					"pattern": p,
				}))
				break
			}
			if ok {
				return true
			}
		}
	}
	return false
}

// Scan walks root and reports every file not excluded. Excluded directories
// are not descended into. Files that cannot be stat'ed are skipped.
func Scan(root string, exclude *Excluder) ([]model.FileMeta, error) {
	if exclude == nil {
		exclude = NewExcluder()
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "problem resolving working root")
	}

	out := []model.FileMeta{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if p == root {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d != nil && d.IsDir() {
			if exclude.Excluded(rel) {
				return filepath.SkipDir
			}
			if walkErr != nil {
				grip.Debug(message.WrapError(walkErr, message.Fields{
					"message": "skipping unreadable directory",
					"path":    rel,
				}))
				return filepath.SkipDir
			}
			return nil
		}
		if walkErr != nil || exclude.Excluded(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			if info, err = os.Stat(p); err != nil {
				return nil
			}
			if info.IsDir() {
				return nil
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		ext := Extension(rel)
		out = append(out, model.FileMeta{
			RelPath:   rel,
			Ext:       ext,
			Kind:      GuessKind(ext),
			SizeBytes: info.Size(),
			MtimeUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "problem scanning '%s'", root)
	}

	return out, nil
}
