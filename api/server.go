// Package api provides the HTTP REST surface for FastStock.
//
// Handlers translate request parameters into core calls (cache reads,
// routed adapter fetches, option-chain pipeline runs) and shape the
// typed responses. They hold no business logic of their own.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/internal/cache"
	"github.com/seenimoa/faststock/internal/config"
	"github.com/seenimoa/faststock/internal/metrics"
	"github.com/seenimoa/faststock/internal/options"
	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/internal/router"
	"github.com/seenimoa/faststock/internal/subs"
	"github.com/seenimoa/faststock/pkg/models"
)

// IndexQuoter serves live index prices straight from the exchange.
type IndexQuoter interface {
	IndexQuote(ctx context.Context, index string) (*models.Quote, error)
}

// Authenticator wraps the API routes. The default is a passthrough;
// deployments slot their own middleware here.
type Authenticator func(http.Handler) http.Handler

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	cache    *cache.Store
	subs     *subs.Store
	rtr      *router.Router
	pipeline *options.Pipeline
	index    IndexQuoter
	metrics  *metrics.Metrics
	log      zerolog.Logger
	auth     Authenticator
}

// Deps wires a Server. Config, Cache, Subs, and Router are required;
// the rest degrade the matching endpoints when absent.
type Deps struct {
	Config  *config.Config
	Cache   *cache.Store
	Subs    *subs.Store
	Router  *router.Router
	Options *options.Pipeline
	Index   IndexQuoter
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	Auth    Authenticator
}

// NewServer creates a configured API server with all routes and
// middleware.
func NewServer(d Deps) *Server {
	auth := d.Auth
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}
	s := &Server{
		cfg:      d.Config,
		cache:    d.Cache,
		subs:     d.Subs,
		rtr:      d.Router,
		pipeline: d.Options,
		index:    d.Index,
		metrics:  d.Metrics,
		log:      d.Logger.With().Str("component", "api").Logger(),
		auth:     auth,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("shutting down http server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		// Quotes
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/fetch/{symbol}", s.handleFetch)
		r.Get("/quotes", s.handleQuotes)
		r.Get("/quotes/fetch", s.handleQuotesFetch)
		r.Get("/historical/{symbol}", s.handleHistorical)

		// Subscriptions
		r.Post("/subscribe", s.handleSubscribe)
		r.Delete("/subscribe/{symbol}", s.handleUnsubscribe)
		r.Get("/subscriptions", s.handleSubscriptions)

		// Crypto extras
		r.Get("/crypto/stats/{symbol}", s.handleCryptoStats)

		// Option chains
		r.Route("/options", func(r chi.Router) {
			r.Get("/expiries", s.handleOptionExpiries)
			r.Get("/index-price", s.handleIndexPrice)
			r.Post("/fetch", s.handleOptionFetch)
			r.Post("/fetch/expiry", s.handleOptionFetchExpiry)
			r.Get("/analytics", s.handleOptionAnalytics)
			r.Get("/live-analytics", s.handleOptionLiveAnalytics)
			r.Get("/latest", s.handleOptionLatest)
			r.Get("/historical/{symbol}", s.handleNotImplemented)
		})

		// BSE placeholders
		r.Route("/bse", func(r chi.Router) {
			r.Get("/quote/{symbol}", s.handleNotImplemented)
			r.Get("/options/expiries", s.handleNotImplemented)
		})

		// Configuration
		r.Get("/config/keys", s.handleConfigKeys)
	})

	return r
}

// requestLogger logs one line per request through the service logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleNotImplemented(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "not implemented")
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// respondErr maps a classified error onto its HTTP status.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch provider.KindOf(err) {
	case provider.KindNotFound:
		return http.StatusNotFound
	case provider.KindValidation:
		return http.StatusBadRequest
	case provider.KindUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
