// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkdrift/inkdrift/internal/blog"
	blogpostgres "github.com/inkdrift/inkdrift/internal/blog/postgres"
	"github.com/inkdrift/inkdrift/internal/config"
	"github.com/inkdrift/inkdrift/internal/identity"
	"github.com/inkdrift/inkdrift/internal/newsletter"
	newsletterpostgres "github.com/inkdrift/inkdrift/internal/newsletter/postgres"
	"github.com/inkdrift/inkdrift/internal/newsletter/postmark"
	"github.com/inkdrift/inkdrift/internal/newsletter/smtp"
	"github.com/inkdrift/inkdrift/internal/pkg/ctxlog"
	"github.com/inkdrift/inkdrift/internal/pkg/httputil"
	"github.com/inkdrift/inkdrift/internal/pkg/metrics"
	"github.com/inkdrift/inkdrift/internal/pkg/postgres"
	"github.com/inkdrift/inkdrift/internal/version"
	"github.com/inkdrift/inkdrift/migrations"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	if cfg.Database.Migrate {
		if err := postgres.RunMigrations(cfg.Database.URL, migrations.FS); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go app.collectDBMetrics(metricsCtx)

	router, err := app.setupRouter()
	if err != nil {
		db.Close()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter() (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	blogRepo := blogpostgres.NewRepository(a.db)
	blogService := blog.NewService(blogRepo)
	blogHandler := blog.NewHandler(blogService)

	newsletterRepo := newsletterpostgres.NewRepository(a.db)

	sender, err := a.buildSender()
	if err != nil {
		return nil, fmt.Errorf("create email sender: %w", err)
	}

	renderer, err := newsletter.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create newsletter renderer: %w", err)
	}

	dispatcher := newsletter.NewDispatcher(newsletterRepo, sender, renderer, newsletter.DispatcherConfig{
		BaseURL:     a.config.Newsletter.BaseURL,
		SiteTitle:   a.config.Newsletter.SiteTitle,
		SendTimeout: a.config.Newsletter.SendTimeout,
		SendRate:    a.config.Newsletter.SendRate,
		SendBurst:   a.config.Newsletter.SendBurst,
	})

	newsletterService := newsletter.NewService(newsletterRepo, dispatcher)
	newsletterHandler := newsletter.NewHandler(newsletterService, dispatcher, blogService)

	identityService, err := identity.NewService(identity.Config{
		Username:      a.config.Admin.Username,
		PasswordHash:  a.config.Admin.PasswordHash,
		JWTSecret:     a.config.JWT.SecretKey,
		TokenDuration: a.config.JWT.TokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity service: %w", err)
	}
	identityHandler := identity.NewHandler(identityService)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)
		blogHandler.RegisterPublicRoutes(r)
		newsletterHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			blogHandler.RegisterAdminRoutes(r)
			newsletterHandler.RegisterAdminRoutes(r)
		})
	})

	return r, nil
}

func (a *App) buildSender() (newsletter.Sender, error) {
	switch a.config.Newsletter.Provider {
	case "smtp":
		return smtp.NewSender(smtp.Config{
			Enabled:     true,
			Host:        a.config.Newsletter.SMTP.Host,
			Port:        a.config.Newsletter.SMTP.Port,
			User:        a.config.Newsletter.SMTP.Username,
			Password:    a.config.Newsletter.SMTP.Password,
			FromAddress: a.config.Newsletter.SMTP.FromAddress,
			FromName:    a.config.Newsletter.SMTP.FromName,
		})
	case "postmark":
		return postmark.NewSender(postmark.Config{
			Enabled:      true,
			ServerToken:  a.config.Newsletter.Postmark.ServerToken,
			AccountToken: a.config.Newsletter.Postmark.AccountToken,
			FromAddress:  a.config.Newsletter.Postmark.FromAddress,
		})
	default:
		slog.Warn("newsletter sender is disabled: confirmation and broadcast emails will not be sent")
		return smtp.NewSender(smtp.Config{Enabled: false})
	}
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
