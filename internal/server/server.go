package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/export"
	"github.com/ultimatefreight/freightdesk/internal/service"
	"go.uber.org/zap"
)

// Server is the HTTP server for the freight desk API.
type Server struct {
	port          int
	adminPassword string
	svc           *service.Service
	exporter      *export.Exporter
	logger        *otelzap.Logger
	now           func() time.Time
}

// Config holds server configuration.
type Config struct {
	Port          int
	AdminPassword string
}

// New creates a new server instance.
func New(cfg Config, svc *service.Service, logger *otelzap.Logger) *Server {
	return &Server{
		port:          cfg.Port,
		adminPassword: cfg.AdminPassword,
		svc:           svc,
		exporter:      export.NewExporter(logger),
		logger:        logger,
		now:           time.Now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate-price", s.handleCalculatePrice)
		r.Post("/quote", s.handleQuote)
		r.Post("/contact", s.handleContact)
		r.Get("/locations", s.handleLocations)
		r.Get("/currencies", s.handleCurrencies)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/queries", s.handleListQueries)
			r.Get("/queries/export", s.handleExportQueries)
			r.Delete("/queries", s.handleClearQueries)
			r.Get("/pricing-config", s.handleGetPricingConfig)
			r.Put("/pricing-config", s.handlePutPricingConfig)
			r.Post("/pricing-config/reset", s.handleResetPricingConfig)
		})
	})
	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.svc.Wait()
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Ctx(r.Context()).Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestId", middleware.GetReqID(r.Context())),
		)
	})
}
