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
	"github.com/pkg/errors"
)

func badBody(err error) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    errors.Wrap(err, "problem parsing request body").Error(),
	}
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses

type hypothesesGetHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeGetHypotheses(sc data.Connector) gimlet.RouteHandler {
	return &hypothesesGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new hypothesesGetHandler.
func (h *hypothesesGetHandler) Factory() gimlet.RouteHandler {
	return &hypothesesGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *hypothesesGetHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run returns the hypotheses the user can see, newest first.
func (h *hypothesesGetHandler) Run(ctx context.Context) gimlet.Responder {
	hypotheses, err := h.sc.FindHypotheses(ctx, h.user)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(hypotheses)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses

type hypothesisCreateHandler struct {
	user  *dbmodel.User
	input model.APIHypothesisInput
	sc    data.Connector
}

func makeCreateHypothesis(sc data.Connector) gimlet.RouteHandler {
	return &hypothesisCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new hypothesisCreateHandler.
func (h *hypothesisCreateHandler) Factory() gimlet.RouteHandler {
	return &hypothesisCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user and the hypothesis fields.
func (h *hypothesisCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	if err := gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run saves the hypothesis and writes its card.
func (h *hypothesisCreateHandler) Run(ctx context.Context) gimlet.Responder {
	hypothesis, err := h.sc.CreateHypothesis(ctx, h.user, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	grip.Info(message.Fields{
		"message":    "created hypothesis",
		"request":    gimlet.GetRequestID(ctx),
		"hypothesis": hypothesis.ID,
		"user":       h.user.Email,
	})
	return gimlet.NewJSONResponse(hypothesis)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}

type hypothesisGetByIDHandler struct {
	id   int
	user *dbmodel.User
	sc   data.Connector
}

func makeGetHypothesisByID(sc data.Connector) gimlet.RouteHandler {
	return &hypothesisGetByIDHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new hypothesisGetByIDHandler.
func (h *hypothesisGetByIDHandler) Factory() gimlet.RouteHandler {
	return &hypothesisGetByIDHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *hypothesisGetByIDHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.id, err = parseID(r, "id")
	return err
}

// Run returns the hypothesis with the name of its card.
func (h *hypothesisGetByIDHandler) Run(ctx context.Context) gimlet.Responder {
	hypothesis, err := h.sc.FindHypothesisByID(ctx, h.user, h.id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(hypothesis)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses/{id}/decision

type hypothesisDecisionHandler struct {
	id    int
	user  *dbmodel.User
	input model.APIDecisionInput
	sc    data.Connector
}

func makeSetHypothesisDecision(sc data.Connector) gimlet.RouteHandler {
	return &hypothesisDecisionHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new hypothesisDecisionHandler.
func (h *hypothesisDecisionHandler) Factory() gimlet.RouteHandler {
	return &hypothesisDecisionHandler{
		sc: h.sc,
	}
}

// Parse fetches the id and the decision.
func (h *hypothesisDecisionHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	if h.id, err = parseID(r, "id"); err != nil {
		return err
	}
	if err = gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run records the decision and refreshes the card.
func (h *hypothesisDecisionHandler) Run(ctx context.Context) gimlet.Responder {
	hypothesis, err := h.sc.SetHypothesisDecision(ctx, h.user, h.id, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses/{id}/decision",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(hypothesis)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses/{id}/card

type cardRefreshHandler struct {
	id   int
	user *dbmodel.User
	sc   data.Connector
}

func makeRefreshCard(sc data.Connector) gimlet.RouteHandler {
	return &cardRefreshHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new cardRefreshHandler.
func (h *cardRefreshHandler) Factory() gimlet.RouteHandler {
	return &cardRefreshHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *cardRefreshHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.id, err = parseID(r, "id")
	return err
}

// Run rewrites the card with the current facts.
func (h *cardRefreshHandler) Run(ctx context.Context) gimlet.Responder {
	card, err := h.sc.RefreshCard(ctx, h.user, h.id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses/{id}/card",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(card)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/card

type cardGetHandler struct {
	id   int
	user *dbmodel.User
	sc   data.Connector
}

func makeGetCard(sc data.Connector) gimlet.RouteHandler {
	return &cardGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new cardGetHandler.
func (h *cardGetHandler) Factory() gimlet.RouteHandler {
	return &cardGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *cardGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.id, err = parseID(r, "id")
	return err
}

// Run returns the stored markdown card.
func (h *cardGetHandler) Run(ctx context.Context) gimlet.Responder {
	card, err := h.sc.FindCard(ctx, h.user, h.id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/card",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(card)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/script

type scriptGetHandler struct {
	id   int
	user *dbmodel.User
	sc   data.Connector
}

func makeGetScript(sc data.Connector) gimlet.RouteHandler {
	return &scriptGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new scriptGetHandler.
func (h *scriptGetHandler) Factory() gimlet.RouteHandler {
	return &scriptGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *scriptGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.id, err = parseID(r, "id")
	return err
}

// Run returns the call script, which is empty until one is saved.
func (h *scriptGetHandler) Run(ctx context.Context) gimlet.Responder {
	script, err := h.sc.FindScript(ctx, h.user, h.id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/script",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(script)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /hypotheses/{id}/script

type scriptSaveHandler struct {
	id    int
	user  *dbmodel.User
	input model.APIScriptInput
	sc    data.Connector
}

func makeSaveScript(sc data.Connector) gimlet.RouteHandler {
	return &scriptSaveHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new scriptSaveHandler.
func (h *scriptSaveHandler) Factory() gimlet.RouteHandler {
	return &scriptSaveHandler{
		sc: h.sc,
	}
}

// Parse fetches the id and the script content.
func (h *scriptSaveHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	if h.id, err = parseID(r, "id"); err != nil {
		return err
	}
	if err = gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run replaces the call script.
func (h *scriptSaveHandler) Run(ctx context.Context) gimlet.Responder {
	script, err := h.sc.SaveScript(ctx, h.user, h.id, h.input.Content)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/hypotheses/{id}/script",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(script)
}
