package rest

import (
	"context"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip/message"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/tal

type talGetHandler struct {
	hypothesisID int
	user         *dbmodel.User
	sc           data.Connector
}

func makeGetTAL(sc data.Connector) gimlet.RouteHandler {
	return &talGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new talGetHandler.
func (h *talGetHandler) Factory() gimlet.RouteHandler {
	return &talGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id from the http request.
func (h *talGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.hypothesisID, err = parseID(r, "id")
	return err
}

// Run returns the target account list, creating it on first use.
func (h *talGetHandler) Run(ctx context.Context) gimlet.Responder {
	tal, err := h.sc.FindTAL(ctx, h.user, h.hypothesisID)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/tal",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(tal)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses/{id}/tal/add

type talAddHandler struct {
	hypothesisID int
	user         *dbmodel.User
	input        model.APITALAccountInput
	sc           data.Connector
}

func makeAddTALAccount(sc data.Connector) gimlet.RouteHandler {
	return &talAddHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new talAddHandler.
func (h *talAddHandler) Factory() gimlet.RouteHandler {
	return &talAddHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id and the company to add.
func (h *talAddHandler) Parse(ctx context.Context, r *http.Request) error {
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

// Run adds the company and returns the list. Unknown and repeated companies
// leave the list as it was.
func (h *talAddHandler) Run(ctx context.Context) gimlet.Responder {
	tal, err := h.sc.AddTALAccount(ctx, h.user, h.hypothesisID, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses/{id}/tal/add",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(tal)
}
