package fileindex

import (
	"io"
	"os"

	"github.com/discovery-tools/scout/util"
)

// MaxPreviewBytes caps how much of a file a preview reads.
const MaxPreviewBytes = 200000

var previewExtensions = map[string]bool{
	"md":   true,
	"txt":  true,
	"csv":  true,
	"html": true,
	"htm":  true,
	"py":   true,
	"json": true,
}

// Previewable reports whether files with the name's extension get a text
// preview.
func Previewable(name string) bool { return previewExtensions[Extension(name)] }

// ReadPreview returns up to MaxPreviewBytes of a text-like file, decoded as
// UTF-8 or else Windows-1251. It returns false for other file types and for
// unreadable files.
func ReadPreview(p string) (string, bool) {
	if !Previewable(p) {
		return "", false
	}

	f, err := os.Open(p)
	if err != nil {
		return "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPreviewBytes))
	if err != nil {
		return "", false
	}

	text, _ := util.DecodeText(data, false)
	return text, true
}
