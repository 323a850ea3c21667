package rest

import (
	"context"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip/message"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/metrics

type metricsGetHandler struct {
	hypothesisID int
	user         *dbmodel.User
	sc           data.Connector
}

func makeGetMetrics(sc data.Connector) gimlet.RouteHandler {
	return &metricsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new metricsGetHandler.
func (h *metricsGetHandler) Factory() gimlet.RouteHandler {
	return &metricsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id from the http request.
func (h *metricsGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.hypothesisID, err = parseID(r, "id")
	return err
}

// Run computes the call metrics of the hypothesis.
func (h *metricsGetHandler) Run(ctx context.Context) gimlet.Responder {
	metrics, err := h.sc.GetMetrics(ctx, h.user, h.hypothesisID)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/metrics",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(metrics)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /hypotheses/{id}/metrics/weekly

type weeklyMetricsGetHandler struct {
	hypothesisID int
	user         *dbmodel.User
	sc           data.Connector
}

func makeGetWeeklyMetrics(sc data.Connector) gimlet.RouteHandler {
	return &weeklyMetricsGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new weeklyMetricsGetHandler.
func (h *weeklyMetricsGetHandler) Factory() gimlet.RouteHandler {
	return &weeklyMetricsGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the hypothesis id from the http request.
func (h *weeklyMetricsGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.hypothesisID, err = parseID(r, "id")
	return err
}

// Run returns the stored weekly snapshots.
func (h *weeklyMetricsGetHandler) Run(ctx context.Context) gimlet.Responder {
	snapshots, err := h.sc.FindWeeklyMetrics(ctx, h.user, h.hypothesisID)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/hypotheses/{id}/metrics/weekly",
			"id":      h.hypothesisID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(snapshots)
}
