package data

import (
	"context"
	"net/http"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/pgsink"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

func sinkError(err error) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    "Supabase insert failed: " + err.Error(),
	}
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) InsertDebugEvent(ctx context.Context, u *dbmodel.User, body []byte) (*model.APIDebugInsert, error) {
	if err := requireAdmin(u, "insert debug events"); err != nil {
		return nil, err
	}

	event := pgsink.ParseEvent(body, time.Now())
	sink, err := dbc.eventSink()
	if err != nil {
		return nil, sinkError(err)
	}
	rows, err := sink.Insert(ctx, event.Table, event.Record)
	if err != nil {
		return nil, sinkError(err)
	}

	grip.Info(message.Fields{
		"message": "inserted debug event",
		"table":   event.Table,
		"rows":    len(rows),
		"user":    u.Email,
	})
	return &model.APIDebugInsert{
		OK:           true,
		Table:        event.Table,
		InsertedRows: len(rows),
		Data:         rows,
	}, nil
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) InsertDebugEvent(_ context.Context, u *dbmodel.User, body []byte) (*model.APIDebugInsert, error) {
	if err := requireAdmin(u, "insert debug events"); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.SinkError != nil {
		return nil, sinkError(mc.SinkError)
	}
	event := pgsink.ParseEvent(body, time.Now())
	mc.Events = append(mc.Events, MockEvent{Table: event.Table, Record: event.Record})
	return &model.APIDebugInsert{
		OK:           true,
		Table:        event.Table,
		InsertedRows: 1,
		Data:         []map[string]interface{}{event.Record},
	}, nil
}
