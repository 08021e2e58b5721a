package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	apierrors "anyumarket/internal/errors"
	customMiddleware "anyumarket/internal/middleware"
	"anyumarket/internal/pipeline"
	"anyumarket/internal/scheduler"
	"anyumarket/internal/services"
	handlers "anyumarket/internal/transport/http"
)

// Application is the document server with its weekly report trigger
type Application struct {
	Runtime   *Runtime
	Router    chi.Router
	Server    *http.Server
	Scheduler *scheduler.Weekly
	Reporter  *pipeline.Reporter

	DocumentService *services.DocumentService
	HealthService   *services.HealthService
}

// NewApplication builds services, router and server on rt
func NewApplication(rt *Runtime) (*Application, error) {
	a := &Application{
		Runtime:         rt,
		Reporter:        rt.NewReporter(),
		DocumentService: services.NewDocumentService(rt.Paths.ReportsDir, rt.Catalog, rt.Logger),
		HealthService:   services.NewHealthService(Version, rt.Paths.DataDir, rt.Logger),
	}
	if rt.Config.Schedule.Enabled {
		a.Scheduler = scheduler.NewWeekly(rt.Config.Schedule, rt.Logger)
	}

	router, err := a.setupRouter()
	if err != nil {
		return nil, err
	}
	a.Router = router

	srv := rt.Config.Server
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.Port),
		Handler:      router,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
	}
	return a, nil
}

// setupRouter applies the middleware chain
// RequestID → RealIP → Telemetry → Logger → Recoverer and mounts the routes.
func (a *Application) setupRouter() (chi.Router, error) {
	logger := a.Runtime.Logger
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	telemetry, err := customMiddleware.NewTelemetry(a.Runtime.OTel)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry middleware: %w", err)
	}
	r.Use(telemetry.Handler)
	r.Use(customMiddleware.StructuredLogger(logger))
	r.Use(customMiddleware.Recoverer(logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{AllowedOrigins: []string{"*"}}))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		if rl := a.Runtime.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, logger).Handler)
		}
		handlers.NewDocumentsHandler(a.DocumentService, logger, errorHandler).RegisterRoutes(r)
	})

	r.Get("/health", handlers.NewHealthHandler(a.HealthService, logger).HealthCheck)
	if a.Runtime.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Runtime.OTel.PrometheusHTTP)
	}
	return r, nil
}

// Run serves HTTP and runs the scheduler until ctx is cancelled, then shuts
// the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	logger := a.Runtime.Logger
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "document server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "shutting down document server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Runtime.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if a.Scheduler != nil {
		g.Go(func() error {
			err := a.Scheduler.Run(gctx, a.ReportJob)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// ReportJob produces the report of the current week
func (a *Application) ReportJob(ctx context.Context) error {
	_, err := a.Reporter.Run(ctx, time.Now())
	return err
}
