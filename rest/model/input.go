package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FormValue is a request field that clients send either as a string or as
// a bare JSON value. Form submissions only ever produce strings, so the
// string reading is authoritative.
type FormValue struct {
	raw   string
	isSet bool
}

// NewFormValue wraps a string as if it had been submitted.
func NewFormValue(s string) FormValue { return FormValue{raw: s, isSet: true} }

func (v *FormValue) UnmarshalJSON(b []byte) error {
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}

	v.isSet = out != nil
	switch val := out.(type) {
	case nil:
		v.raw = ""
	case string:
		v.raw = val
	case bool:
		if val {
			v.raw = "on"
		} else {
			v.raw = ""
		}
	case float64:
		v.raw = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		v.raw = string(b)
	}

	return nil
}

func (v FormValue) MarshalJSON() ([]byte, error) {
	if !v.isSet {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// String returns the trimmed value.
func (v FormValue) String() string { return strings.TrimSpace(v.raw) }

// Bool reports whether the field carried a non-empty value, which is how a
// checked box arrives.
func (v FormValue) Bool() bool { return v.raw != "" }

// ID returns the value as an id when it consists of digits only.
func (v FormValue) ID() *int {
	n, ok := digits(v.String())
	if !ok {
		return nil
	}
	return &n
}

// Int returns the value when it consists of digits only, otherwise def.
func (v FormValue) Int(def int) int {
	n, ok := digits(v.String())
	if !ok {
		return def
	}
	return n
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
