package rest

import (
	"context"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /companies

type companiesGetHandler struct {
	query string
	icp   string
	user  *dbmodel.User
	sc    data.Connector
}

func makeGetCompanies(sc data.Connector) gimlet.RouteHandler {
	return &companiesGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new companiesGetHandler.
func (h *companiesGetHandler) Factory() gimlet.RouteHandler {
	return &companiesGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the q and icp filters from the query string.
func (h *companiesGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	vals := r.URL.Query()
	h.query = vals.Get("q")
	h.icp = vals.Get("icp")
	return nil
}

// Run returns the matching companies with the last import result.
func (h *companiesGetHandler) Run(ctx context.Context) gimlet.Responder {
	companies, err := h.sc.FindCompanies(ctx, h.user, h.query, h.icp)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/companies",
			"q":       h.query,
			"icp":     h.icp,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(companies)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /companies/import

type companiesImportHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeImportCompanies(sc data.Connector) gimlet.RouteHandler {
	return &companiesImportHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new companiesImportHandler.
func (h *companiesImportHandler) Factory() gimlet.RouteHandler {
	return &companiesImportHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *companiesImportHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run imports the configured company export.
func (h *companiesImportHandler) Run(ctx context.Context) gimlet.Responder {
	res, err := h.sc.ImportCompanies(ctx, h.user)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/companies/import",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	grip.Info(message.Fields{
		"message":  "imported companies",
		"request":  gimlet.GetRequestID(ctx),
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
		"rows":     res.TotalRows,
	})
	return gimlet.NewJSONResponse(res)
}
