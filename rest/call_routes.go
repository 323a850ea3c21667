package rest

import (
	"context"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/calls

type callsGetHandler struct {
	hypothesisID int
	user         *dbmodel.User
	sc           data.Connector
}

func makeGetCalls(sc data.Connector) gimlet.RouteHandler {
	return &callsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new callsGetHandler.
func (h *callsGetHandler) Factory() gimlet.RouteHandler {
	return &callsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id from the http request.
func (h *callsGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.hypothesisID, err = parseID(r, "id")
	return err
}

// Run returns the calls, newest first, with the accounts a call can be
// logged against.
func (h *callsGetHandler) Run(ctx context.Context) gimlet.Responder {
	calls, err := h.sc.FindCalls(ctx, h.user, h.hypothesisID)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/calls",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(calls)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses/{id}/calls

type callCreateHandler struct {
	hypothesisID int
	user         *dbmodel.User
	input        model.APICallInput
	sc           data.Connector
}

func makeCreateCall(sc data.Connector) gimlet.RouteHandler {
	return &callCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new callCreateHandler.
func (h *callCreateHandler) Factory() gimlet.RouteHandler {
	return &callCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id and the call.
func (h *callCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	if h.hypothesisID, err = parseID(r, "id"); err != nil {
		return err
	}
	if err = gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run logs the call.
func (h *callCreateHandler) Run(ctx context.Context) gimlet.Responder {
	call, err := h.sc.CreateCall(ctx, h.user, h.hypothesisID, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses/{id}/calls",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	grip.Info(message.Fields{
		"message":    "logged call",
		"request":    gimlet.GetRequestID(ctx),
		"hypothesis": h.hypothesisID,
		"call":       call.ID,
	})
	return gimlet.NewJSONResponse(call)
}
