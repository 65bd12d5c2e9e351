// Package server exposes the catalog and quote engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/internal/graphql"
	"github.com/tournevent/postage/pkg/shipper"
)

// RequestRecorder receives HTTP request metrics.
type RequestRecorder interface {
	RecordRequest(route string, status int, d time.Duration)
}

// Server is the HTTP server for the postage service.
type Server struct {
	port      int
	catalog   *catalog.Service
	quotes    graphql.Quoter
	registry  *shipper.Registry
	providers shipper.ProvidersConfig
	logger    *otelzap.Logger
	metrics   RequestRecorder
	gatherer  prometheus.Gatherer
	resolver  *graphql.Resolver
	now       func() time.Time
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Deps are the services the server routes to.
type Deps struct {
	Catalog   *catalog.Service
	Quotes    graphql.Quoter
	Registry  *shipper.Registry
	Providers shipper.ProvidersConfig
	Logger    *otelzap.Logger

	// Metrics and Gatherer are optional. Without a Gatherer /metrics serves
	// the default prometheus registry.
	Metrics  RequestRecorder
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, deps Deps) *Server {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		port:      cfg.Port,
		catalog:   deps.Catalog,
		quotes:    deps.Quotes,
		registry:  deps.Registry,
		providers: deps.Providers,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		gatherer:  gatherer,
		resolver:  graphql.NewResolver(deps.Registry, deps.Providers, deps.Quotes, deps.Logger),
		now:       time.Now,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.recoverer, s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Handle("/graphql", s.resolver.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Post("/", s.createItem)
			r.Get("/{id}", s.getItem)
			r.Put("/{id}", s.updateItem)
			r.Delete("/{id}", s.deleteItem)
		})
		r.Route("/packaging", func(r chi.Router) {
			r.Get("/", s.listPackaging)
			r.Post("/", s.createPackaging)
			r.Get("/{id}", s.getPackaging)
			r.Put("/{id}", s.updatePackaging)
			r.Delete("/{id}", s.deletePackaging)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/origin", s.getOrigin)
			r.Put("/origin", s.saveOrigin)
			r.Put("/theme", s.setTheme)
		})
		r.Post("/quotes", s.createQuote)
		r.Get("/providers", s.listProviders)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, codeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, codeBadRequest, "Method not allowed")
	})
	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// observe records request metrics under the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if s.metrics == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordRequest(route, status, time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Ctx(r.Context()).Error("handler panicked",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				s.writeError(w, r, http.StatusInternalServerError, codeInternal, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
