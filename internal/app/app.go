package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"schoolpulse/internal/config"
	"schoolpulse/internal/dataset"
	"schoolpulse/internal/errors"
	"schoolpulse/internal/exporter"
	"schoolpulse/internal/infrastructure"
	customMiddleware "schoolpulse/internal/middleware"
	"schoolpulse/internal/services"
	handlers "schoolpulse/internal/transport/http"
	"schoolpulse/internal/validation"
	ws "schoolpulse/internal/websocket"
)

const (
	AppName = "Tokyo High School Admissions Dashboard"
	// compressionLevel is the gzip level for HTML, JSON and CSV responses
	compressionLevel = 5
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.DatasetMetrics
	Cache            *dataset.Cache
	Watcher          *dataset.Watcher
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	ErrorHandler     *errors.ErrorHandler
	Validator        *customMiddleware.RequestValidator
}

// NewApplication loads configuration from configFile (or the usual
// locations when empty) and wires every component.
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.GetPaths().EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))
	cfg.GetPaths().LogPathResolution(logger)

	return NewWithConfig(cfg, logger)
}

// NewWithConfig wires the application from an already loaded configuration
func NewWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDatasetMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	sources := a.Config.Sources()

	// Missing or broken sources are logged, not fatal: readiness reports them
	// and the watcher picks the files up once they appear.
	sourceValidator := validation.NewSourceValidator(a.Logger)
	if err := sourceValidator.ValidateDataDir(a.Config.GetPaths().DataDir); err != nil {
		a.Logger.Warn("Data directory check failed", slog.String("error", err.Error()))
	}
	if err := validation.FirstError(sourceValidator.ValidateSources(sources)); err != nil {
		a.Logger.Warn("Dataset sources incomplete", slog.String("error", err.Error()))
	}

	loader := dataset.NewLoader(sources, a.Config.Dataset.Encoding, a.Logger, dataset.WithMetrics(a.Metrics))
	a.Cache = dataset.NewCache(loader, a.Logger, a.Metrics)

	hub := ws.NewHub(ws.OptionsFromConfig(a.Config.WebSocket), a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	if a.Config.Dataset.Watch {
		watcher, err := dataset.NewWatcher(a.Cache, a.Config.Dataset.Debounce, a.Logger, hub)
		if err != nil {
			return fmt.Errorf("failed to initialize dataset watcher: %w", err)
		}
		a.Watcher = watcher
	}

	a.DashboardService = services.NewDashboardService(a.Cache, exporter.New(a.Logger, a.Metrics), a.Logger, hub)
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, BuildID, a.Cache, hub, a.Logger)

	a.ErrorHandler = errors.NewErrorHandler(a.Logger, a.isDevelopmentMode())
	a.Validator = customMiddleware.NewRequestValidator(a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter untouched runs ahead of /ws
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger, a.ErrorHandler)
	r.Handle("/ws", wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.ErrorHandler.Recoverer)
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(customMiddleware.Compress(compressionLevel))

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.ErrorHandler))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/metrics", handlers.NewMetricsHandler(a.WebSocketHub, a.DashboardService).Routes())

		r.Post("/logs", handlers.NewClientLogHandler(a.Logger, a.Validator, a.ErrorHandler).Handle)

		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Validator, a.Logger, a.ErrorHandler)
		r.Mount("/", dashboardHandler.Routes())
	})
}

// setupHTMLRoutes serves the server-rendered dashboard
func (a *Application) setupHTMLRoutes(r chi.Router) {
	pageHandler := handlers.NewPageHandler(a.DashboardService, a.Validator, a.Logger, a.ErrorHandler)
	r.With(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.ErrorHandler)).Get("/", pageHandler.ServeDashboard)
}

// getCORSConfig returns CORS configuration for the dashboard and local development
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if a.isDevelopmentMode() {
		origins = append(append([]string{}, origins...),
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port))
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// isDevelopmentMode checks if the application is running in development mode
func (a *Application) isDevelopmentMode() bool {
	if env := os.Getenv("SCHOOLPULSE_ENV"); env != "" {
		return env == "development" || env == "dev"
	}
	return a.Config.Telemetry.Environment == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application. A listen failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("addr", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if a.Watcher != nil {
		a.Watcher.Start(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Warm the cache; a failure here is reported but the server keeps running
	// so /api/health/ready can surface it.
	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// performStartupHealthCheck loads the dataset once so the first page view is warm
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	start := time.Now()
	table, err := a.Cache.Table(ctx)
	if err != nil {
		return fmt.Errorf("dataset unavailable: %w", err)
	}

	a.Logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Watcher != nil {
		if err := a.Watcher.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing dataset watcher", slog.String("error", err.Error()))
		}
	}
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
