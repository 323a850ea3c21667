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

// The catalogue lists are shared by everyone who is logged in. Only admins
// change them.

///////////////////////////////////////////////////////////////////////////////
//
// GET /vp

type vpPointsGetHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeGetVPPoints(sc data.Connector) gimlet.RouteHandler {
	return &vpPointsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new vpPointsGetHandler.
func (h *vpPointsGetHandler) Factory() gimlet.RouteHandler {
	return &vpPointsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *vpPointsGetHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run returns the value proposition points, newest first.
func (h *vpPointsGetHandler) Run(ctx context.Context) gimlet.Responder {
	if h.user == nil {
		return gimlet.MakeJSONErrorResponder(errNotLoggedIn)
	}

	points, err := h.sc.FindVPPoints(ctx)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/vp",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(points)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /vp

type vpPointCreateHandler struct {
	user  *dbmodel.User
	input model.APIVPPointInput
	sc    data.Connector
}

func makeCreateVPPoint(sc data.Connector) gimlet.RouteHandler {
	return &vpPointCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new vpPointCreateHandler.
func (h *vpPointCreateHandler) Factory() gimlet.RouteHandler {
	return &vpPointCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user and the new point.
func (h *vpPointCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	if err := gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run saves the point.
func (h *vpPointCreateHandler) Run(ctx context.Context) gimlet.Responder {
	point, err := h.sc.CreateVPPoint(ctx, h.user, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/vp",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(point)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /icp

type icpsGetHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeGetICPs(sc data.Connector) gimlet.RouteHandler {
	return &icpsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new icpsGetHandler.
func (h *icpsGetHandler) Factory() gimlet.RouteHandler {
	return &icpsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *icpsGetHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run returns the customer profiles, newest first.
func (h *icpsGetHandler) Run(ctx context.Context) gimlet.Responder {
	if h.user == nil {
		return gimlet.MakeJSONErrorResponder(errNotLoggedIn)
	}

	icps, err := h.sc.FindICPs(ctx)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/icp",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(icps)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /icp

type icpCreateHandler struct {
	user  *dbmodel.User
	input model.APIICPInput
	sc    data.Connector
}

func makeCreateICP(sc data.Connector) gimlet.RouteHandler {
	return &icpCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new icpCreateHandler.
func (h *icpCreateHandler) Factory() gimlet.RouteHandler {
	return &icpCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user and the new profile.
func (h *icpCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	if err := gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run saves the profile.
func (h *icpCreateHandler) Run(ctx context.Context) gimlet.Responder {
	icp, err := h.sc.CreateICP(ctx, h.user, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/icp",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(icp)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /verticals

type verticalsGetHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeGetVerticals(sc data.Connector) gimlet.RouteHandler {
	return &verticalsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new verticalsGetHandler.
func (h *verticalsGetHandler) Factory() gimlet.RouteHandler {
	return &verticalsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *verticalsGetHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run returns the verticals with their sub-verticals.
func (h *verticalsGetHandler) Run(ctx context.Context) gimlet.Responder {
	if h.user == nil {
		return gimlet.MakeJSONErrorResponder(errNotLoggedIn)
	}

	verticals, err := h.sc.FindVerticals(ctx)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/verticals",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(verticals)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /verticals

type verticalCreateHandler struct {
	user  *dbmodel.User
	input model.APIVerticalInput
	sc    data.Connector
}

func makeCreateVertical(sc data.Connector) gimlet.RouteHandler {
	return &verticalCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new verticalCreateHandler.
func (h *verticalCreateHandler) Factory() gimlet.RouteHandler {
	return &verticalCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user and the new vertical.
func (h *verticalCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	if err := gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run saves the vertical and its first sub-vertical, when one is named.
func (h *verticalCreateHandler) Run(ctx context.Context) gimlet.Responder {
	vertical, err := h.sc.CreateVertical(ctx, h.user, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/verticals",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(vertical)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /verticals/{id}/sub

type subVerticalCreateHandler struct {
	verticalID int
	user       *dbmodel.User
	input      model.APISubVerticalInput
	sc         data.Connector
}

func makeCreateSubVertical(sc data.Connector) gimlet.RouteHandler {
	return &subVerticalCreateHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new subVerticalCreateHandler.
func (h *subVerticalCreateHandler) Factory() gimlet.RouteHandler {
	return &subVerticalCreateHandler{
		sc: h.sc,
	}
}

// Parse fetches the parent id and the new sub-vertical.
func (h *subVerticalCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	if h.verticalID, err = parseID(r, "id"); err != nil {
		return err
	}
	if err = gimlet.GetJSON(r.Body, &h.input); err != nil {
		return badBody(err)
	}
	return nil
}

// Run adds the sub-vertical and returns its parent.
func (h *subVerticalCreateHandler) Run(ctx context.Context) gimlet.Responder {
	vertical, err := h.sc.CreateSubVertical(ctx, h.user, h.verticalID, h.input)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/verticals/{id}/sub",
			"id":      h.verticalID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(vertical)
}
