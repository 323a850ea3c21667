package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const maxDebugBodySize = 1 << 20

///////////////////////////////////////////////////////////////////////////////
//
// POST /debug/supabase-insert

type debugInsertHandler struct {
	body []byte
	user *dbmodel.User
	sc   data.Connector
}

func makeDebugInsert(sc data.Connector) gimlet.RouteHandler {
	return &debugInsertHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new debugInsertHandler.
func (h *debugInsertHandler) Factory() gimlet.RouteHandler {
	return &debugInsertHandler{
		sc: h.sc,
	}
}

// Parse reads the raw body. Bodies that are not JSON objects are handled by
// the insert itself.
func (h *debugInsertHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	var err error
	h.body, err = io.ReadAll(io.LimitReader(r.Body, maxDebugBodySize))
	if err != nil {
		return badBody(errors.WithStack(err))
	}
	return nil
}

// Run writes the event to the Postgres sink.
func (h *debugInsertHandler) Run(ctx context.Context) gimlet.Responder {
	res, err := h.sc.InsertDebugEvent(ctx, h.user, h.body)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/debug/supabase-insert",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(res)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /status

type statusHandler struct{}

func makeStatus() gimlet.RouteHandler { return &statusHandler{} }

func (h *statusHandler) Factory() gimlet.RouteHandler { return &statusHandler{} }

func (h *statusHandler) Parse(_ context.Context, _ *http.Request) error { return nil }

// Run reports the running build.
func (h *statusHandler) Run(_ context.Context) gimlet.Responder {
	return gimlet.NewJSONResponse(model.APIStatus{
		Revision: scout.BuildRevision,
		Service:  "scout",
	})
}
