package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
)

// APITimeFormat is the layout used for every timestamp in the API.
const APITimeFormat = "\"2006-01-02T15:04:05.000Z\""

// APITime is a UTC timestamp with millisecond precision. The zero value
// marshals as null.
type APITime time.Time

// NewTime truncates t to milliseconds and converts it to UTC.
func NewTime(t time.Time) APITime {
	utcT := t.In(time.UTC)
	return APITime(time.Date(
		utcT.Year(),
		utcT.Month(),
		utcT.Day(),
		utcT.Hour(),
		utcT.Minute(),
		utcT.Second(),
		(utcT.Nanosecond()/1000000)*1000000,
		time.UTC,
	))
}

// UnmarshalJSON accepts the API layout or null.
func (at *APITime) UnmarshalJSON(b []byte) error {
	str := string(b)
	t := time.Time{}
	var err error
	if str != "null" {
		t, err = time.ParseInLocation(APITimeFormat, str, time.UTC)
		if err != nil {
			return err
		}
	}
	*at = APITime(t)
	return nil
}

func (at APITime) MarshalJSON() ([]byte, error) {
	t := time.Time(at)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(t.Format(APITimeFormat)), nil
}

// APIDate is a calendar day, written as YYYY-MM-DD or null.
type APIDate struct {
	t *time.Time
}

// NewDate wraps an optional day.
func NewDate(t *time.Time) APIDate { return APIDate{t: t} }

// ParseDate reads a YYYY-MM-DD day. Blank or malformed input gives nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(scout.ShortDateFormat, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// Time returns the day, or nil.
func (d APIDate) Time() *time.Time { return d.t }

func (d APIDate) MarshalJSON() ([]byte, error) {
	if d.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.UTC().Format(scout.ShortDateFormat))
}

// UnmarshalJSON never fails on a badly formed day; it is read as null.
func (d *APIDate) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil || s == nil {
		d.t = nil
		return nil
	}
	d.t = ParseDate(*s)
	return nil
}
