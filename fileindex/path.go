package fileindex

import (
	"path/filepath"
	"strings"
)

// SafeResolve returns the absolute path of relPath under root with symlinks
// resolved. It fails when the file does not exist or resolves outside root.
func SafeResolve(root, relPath string) (string, bool) {
	if relPath == "" || filepath.IsAbs(filepath.FromSlash(relPath)) {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", false
	}

	target, err := filepath.EvalSymlinks(filepath.Join(realRoot, filepath.FromSlash(relPath)))
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(realRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}
