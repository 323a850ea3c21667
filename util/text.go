package util

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Charset names the encoding DecodeText settled on.
type Charset string

const (
	CharsetUTF8    Charset = "utf-8"
	CharsetUTF8BOM Charset = "utf-8-sig"
	CharsetCP1251  Charset = "cp1251"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as a string. Valid UTF-8 is used as is, with a
// leading byte order mark dropped when stripBOM is set. Anything else is read
// as Windows-1251 with undefined bytes replaced.
func DecodeText(data []byte, stripBOM bool) (string, Charset) {
	if utf8.Valid(data) {
		if stripBOM && bytes.HasPrefix(data, utf8BOM) {
			return string(data[len(utf8BOM):]), CharsetUTF8BOM
		}
		return string(data), CharsetUTF8
	}

	out, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�"))), CharsetCP1251
	}
	return string(out), CharsetCP1251
}
