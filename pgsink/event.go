package pgsink

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is a parsed debug insert request.
type Event struct {
	Table  string
	Record map[string]interface{}
}

// ParseEvent reads a debug insert body. Anything but a JSON object counts as
// an empty body. Without a "table" the default table is used, and without an
// object "record" the whole body is wrapped in a manual debug record.
func ParseEvent(body []byte, now time.Time) Event {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		payload = map[string]interface{}{}
	}

	table := DefaultTable
	if t, ok := payload["table"]; ok && t != nil {
		if name := strings.TrimSpace(fmt.Sprint(t)); name != "" {
			table = name
		}
	}

	record, ok := payload["record"].(map[string]interface{})
	if !ok {
		var inner interface{} = payload
		if len(payload) == 0 {
			inner = map[string]interface{}{"message": "supabase ping"}
		}
		record = map[string]interface{}{
			"source":     "manual_debug",
			"payload":    inner,
			"created_at": now.UTC().Format("2006-01-02T15:04:05.000000"),
		}
	}

	return Event{Table: table, Record: record}
}
