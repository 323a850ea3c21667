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

var errNotLoggedIn = gimlet.ErrorResponse{
	StatusCode: http.StatusUnauthorized,
	Message:    "not logged in",
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /users/me

type userGetCurrentHandler struct {
	user *dbmodel.User
}

func makeGetCurrentUser() gimlet.RouteHandler {
	return &userGetCurrentHandler{}
}

// Factory returns a pointer to a new userGetCurrentHandler.
func (h *userGetCurrentHandler) Factory() gimlet.RouteHandler {
	return &userGetCurrentHandler{}
}

// Parse fetches the requesting user.
func (h *userGetCurrentHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run returns the requesting user.
func (h *userGetCurrentHandler) Run(ctx context.Context) gimlet.Responder {
	if h.user == nil {
		return gimlet.MakeJSONErrorResponder(errNotLoggedIn)
	}

	out := model.APIUser{}
	if err := out.Import(h.user); err != nil {
		return gimlet.MakeJSONInternalErrorResponder(errors.Wrap(err, "problem converting user"))
	}
	return gimlet.NewJSONResponse(out)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /users/me/key

type userCreateKeyHandler struct {
	user  *dbmodel.User
	sc    data.Connector
	users *userCache
}

func makeCreateUserKey(sc data.Connector, users *userCache) gimlet.RouteHandler {
	return &userCreateKeyHandler{
		sc:    sc,
		users: users,
	}
}

// Factory returns a pointer to a new userCreateKeyHandler.
func (h *userCreateKeyHandler) Factory() gimlet.RouteHandler {
	return &userCreateKeyHandler{
		sc:    h.sc,
		users: h.users,
	}
}

// Parse fetches the requesting user.
func (h *userCreateKeyHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run generates a new API key for the requesting user. The previous key
// stops working.
func (h *userCreateKeyHandler) Run(ctx context.Context) gimlet.Responder {
	key, err := h.sc.CreateAPIKey(ctx, h.user)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/users/me/key",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	if h.users != nil {
		h.users.remove(h.user.ID)
	}

	grip.Info(message.Fields{
		"message": "created api key",
		"request": gimlet.GetRequestID(ctx),
		"user":    key.User,
	})
	return gimlet.NewJSONResponse(key)
}
