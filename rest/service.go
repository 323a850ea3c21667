package rest

import (
	"context"
	_ "embed"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

//go:embed landing.html
var landingPage []byte

// Service serves the landing page, the Prometheus metrics and the JSON API
// under /rest/v1.
type Service struct {
	Environment scout.Environment
	Conf        *scout.Configuration
	// Connector defaults to a database connector over Environment.
	Connector data.Connector

	// internal settings
	sc       data.Connector
	users    *userCache
	app      *gimlet.APIApp
	registry *prometheus.Registry
	handler  http.Handler
}

// Validate fills in the defaults and assembles the routes. It must be called
// before Start or Handler.
func (s *Service) Validate() error {
	if s.Conf == nil && s.Environment != nil {
		s.Conf = s.Environment.GetConfig()
	}
	if s.Conf == nil {
		return errors.New("must specify a configuration")
	}
	if s.Connector == nil {
		if s.Environment == nil {
			return errors.New("must specify an environment or a connector")
		}
		s.Connector = data.CreateDBConnector(s.Environment)
	}
	s.sc = s.Connector

	var err error
	if s.users, err = newUserCache(userCacheSize, userCacheTTL); err != nil {
		return errors.WithStack(err)
	}

	s.app = gimlet.NewApp()
	s.app.SetPrefix("rest")
	s.app.AddMiddleware(newUserMiddleware(s.sc, s.Conf.SecretKey, s.users))
	s.addRoutes()
	api, err := s.app.Handler()
	if err != nil {
		return errors.Wrap(err, "problem resolving routes")
	}

	s.registry = prometheus.NewRegistry()
	metrics, err := newRequestMetrics(s.registry)
	if err != nil {
		return errors.WithStack(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/rest/", api)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.landing)

	s.handler = metrics.wrap(mux)
	if len(s.Conf.CORSOrigins) > 0 {
		s.handler = cors.New(cors.Options{
			AllowedOrigins:   s.Conf.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Content-Type", "Authorization", scout.APIUserHeader, scout.APIKeyHeader},
			AllowCredentials: true,
		}).Handler(s.handler)
	}

	return nil
}

// Handler returns the assembled handler.
func (s *Service) Handler() http.Handler { return s.handler }

// Start starts the environment's queue and serves until the context is
// canceled, then shuts the server down.
func (s *Service) Start(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("application is not valid")
	}

	if s.Environment != nil {
		q := s.Environment.GetQueue()
		if q != nil && !q.Info().Started {
			if err := q.Start(ctx); err != nil {
				return errors.Wrap(err, "problem starting queue")
			}
		}
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(s.Conf.Host, strconv.Itoa(s.Conf.Port)),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	grip.Notice(message.Fields{
		"message":  "starting scout service",
		"addr":     srv.Addr,
		"revision": scout.BuildRevision,
	})

	select {
	case err := <-serveErr:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, "problem running service")
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grip.Info("shutting down scout service")
		return errors.Wrap(srv.Shutdown(sctx), "problem shutting down service")
	}
}

func (s *Service) landing(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := rw.Write(landingPage); err != nil {
		logRequestError(r, errors.Wrap(err, "problem writing landing page"))
	}
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/status").Version(1).Get().RouteHandler(makeStatus())

	s.app.AddRoute("/auth/login").Version(1).Post().Handler(s.login)
	s.app.AddRoute("/auth/logout").Version(1).Post().Handler(s.logout)
	s.app.AddRoute("/users/me").Version(1).Get().RouteHandler(makeGetCurrentUser())
	s.app.AddRoute("/users/me/key").Version(1).Post().RouteHandler(makeCreateUserKey(s.sc, s.users))

	s.app.AddRoute("/hypotheses").Version(1).Get().RouteHandler(makeGetHypotheses(s.sc))
	s.app.AddRoute("/hypotheses").Version(1).Post().RouteHandler(makeCreateHypothesis(s.sc))
	s.app.AddRoute("/hypotheses/{id}").Version(1).Get().RouteHandler(makeGetHypothesisByID(s.sc))
	s.app.AddRoute("/hypotheses/{id}/decision").Version(1).Post().RouteHandler(makeSetHypothesisDecision(s.sc))
	s.app.AddRoute("/hypotheses/{id}/card").Version(1).Get().RouteHandler(makeGetCard(s.sc))
	s.app.AddRoute("/hypotheses/{id}/card").Version(1).Post().RouteHandler(makeRefreshCard(s.sc))
	s.app.AddRoute("/hypotheses/{id}/script").Version(1).Get().RouteHandler(makeGetScript(s.sc))
	s.app.AddRoute("/hypotheses/{id}/script").Version(1).Post().RouteHandler(makeSaveScript(s.sc))
	s.app.AddRoute("/hypotheses/{id}/tal").Version(1).Get().RouteHandler(makeGetTAL(s.sc))
	s.app.AddRoute("/hypotheses/{id}/tal/add").Version(1).Post().RouteHandler(makeAddTALAccount(s.sc))
	s.app.AddRoute("/hypotheses/{id}/calls").Version(1).Get().RouteHandler(makeGetCalls(s.sc))
	s.app.AddRoute("/hypotheses/{id}/calls").Version(1).Post().RouteHandler(makeCreateCall(s.sc))
	s.app.AddRoute("/hypotheses/{id}/metrics").Version(1).Get().RouteHandler(makeGetMetrics(s.sc))
	s.app.AddRoute("/hypotheses/{id}/metrics/weekly").Version(1).Get().RouteHandler(makeGetWeeklyMetrics(s.sc))

	s.app.AddRoute("/vp").Version(1).Get().RouteHandler(makeGetVPPoints(s.sc))
	s.app.AddRoute("/vp").Version(1).Post().RouteHandler(makeCreateVPPoint(s.sc))
	s.app.AddRoute("/icp").Version(1).Get().RouteHandler(makeGetICPs(s.sc))
	s.app.AddRoute("/icp").Version(1).Post().RouteHandler(makeCreateICP(s.sc))
	s.app.AddRoute("/verticals").Version(1).Get().RouteHandler(makeGetVerticals(s.sc))
	s.app.AddRoute("/verticals").Version(1).Post().RouteHandler(makeCreateVertical(s.sc))
	s.app.AddRoute("/verticals/{id}/sub").Version(1).Post().RouteHandler(makeCreateSubVertical(s.sc))

	s.app.AddRoute("/companies").Version(1).Get().RouteHandler(makeGetCompanies(s.sc))
	s.app.AddRoute("/companies/import").Version(1).Post().RouteHandler(makeImportCompanies(s.sc))

	s.app.AddRoute("/files").Version(1).Get().RouteHandler(makeGetFiles(s.sc))
	s.app.AddRoute("/files/reindex").Version(1).Post().RouteHandler(makeReindexFiles(s.sc))
	s.app.AddRoute("/files/{id}").Version(1).Get().RouteHandler(makeGetFileByID(s.sc))
	s.app.AddRoute("/files/{id}/download").Version(1).Get().Handler(s.downloadFile)

	s.app.AddRoute("/debug/supabase-insert").Version(1).Post().RouteHandler(makeDebugInsert(s.sc))
}
