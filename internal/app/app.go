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

	"github.com/mond-tech/solfrance-backend/internal/cart"
	cartpostgres "github.com/mond-tech/solfrance-backend/internal/cart/postgres"
	"github.com/mond-tech/solfrance-backend/internal/catalog"
	catalogpostgres "github.com/mond-tech/solfrance-backend/internal/catalog/postgres"
	"github.com/mond-tech/solfrance-backend/internal/config"
	"github.com/mond-tech/solfrance-backend/internal/contact"
	contactpostgres "github.com/mond-tech/solfrance-backend/internal/contact/postgres"
	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/identity"
	"github.com/mond-tech/solfrance-backend/internal/identity/jwt"
	identitypostgres "github.com/mond-tech/solfrance-backend/internal/identity/postgres"
	"github.com/mond-tech/solfrance-backend/internal/mailer"
	"github.com/mond-tech/solfrance-backend/internal/mailer/smtp"
	"github.com/mond-tech/solfrance-backend/internal/pkg/ctxlog"
	"github.com/mond-tech/solfrance-backend/internal/pkg/httputil"
	"github.com/mond-tech/solfrance-backend/internal/pkg/metrics"
	"github.com/mond-tech/solfrance-backend/internal/pkg/postgres"
	"github.com/mond-tech/solfrance-backend/internal/version"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	mailQueue     *mailer.Queue
	mailWorker    *mailer.Worker
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

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

	router, err := app.setupRouter(metricsCtx)
	if err != nil {
		db.Close()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
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
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application. The mail worker is
// stopped before the queue closes so an in-flight delivery can finish
// its current attempt.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	if a.mailWorker != nil {
		a.mailWorker.Stop()
	}
	if a.mailQueue != nil {
		a.mailQueue.Close()
	}

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

// MailQueue returns the email queue instance. Used in tests.
func (a *App) MailQueue() *mailer.Queue {
	return a.mailQueue
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
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

	renderer, err := mailer.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create mail renderer: %w", err)
	}

	a.mailQueue = mailer.NewQueue()

	senders, err := a.mailSenderFactory()
	if err != nil {
		return nil, err
	}

	a.mailWorker = mailer.NewWorker(mailer.WorkerConfig{
		MaxAttempts: a.config.Mail.MaxAttempts,
		BackoffUnit: a.config.Mail.BackoffUnit,
	}, a.mailQueue, senders)
	a.mailWorker.Start(ctx)

	catalogRepo := catalogpostgres.NewRepository(a.db)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	identityRepo := identitypostgres.NewRepository(a.db)
	jwtAuth, err := jwt.NewAuthenticator(jwt.Config{
		SecretKey:     a.config.JWT.SecretKey,
		TokenDuration: a.config.JWT.TokenDuration,
		Issuer:        a.config.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}
	identityService := identity.NewService(identityRepo, jwtAuth, a.mailQueue, renderer, a.config.Frontend.BaseURL)
	identityHandler := identity.NewHandler(identityService)

	cartRepo := cartpostgres.NewRepository(a.db)
	cartService := cart.NewService(cartRepo, catalogService, identityService, a.mailQueue, renderer)
	cartHandler := cart.NewHandler(cartService)

	contactRepo := contactpostgres.NewRepository(a.db)
	contactService := contact.NewService(contactRepo, a.mailQueue, renderer, a.config.Mail.ContactEmail)
	contactHandler := contact.NewHandler(contactService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httputil.RateLimitMiddleware(a.config.RateLimit.RequestsPerSecond, a.config.RateLimit.Burst))
			identityHandler.RegisterRoutes(r)
			contactHandler.RegisterRoutes(r)
		})

		catalogHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)
			cartHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleAdmin))
				identityHandler.RegisterAdminRoutes(r)
			})
		})
	})

	return r, nil
}

// mailSenderFactory builds the per-attempt SMTP sender factory. The
// sender is constructed once; it dials per message, so each attempt
// still gets its own connection. When mail is disabled the factory
// hands out a sender that logs and discards.
func (a *App) mailSenderFactory() (mailer.SenderFactory, error) {
	if !a.config.Mail.Enabled {
		a.logger.Warn("mail delivery is disabled: queued emails will be discarded")
		return func() mailer.Sender {
			return discardSender{logger: a.logger}
		}, nil
	}

	smtpConfig := smtp.Config{
		Host:        a.config.Mail.SMTPHost,
		Port:        a.config.Mail.SMTPPort,
		Username:    a.config.Mail.SMTPUser,
		Password:    a.config.Mail.SMTPPassword,
		FromAddress: a.config.Mail.FromAddress,
		FromName:    a.config.Mail.FromName,
	}
	sender, err := smtp.NewSender(smtpConfig)
	if err != nil {
		return nil, fmt.Errorf("create smtp sender: %w", err)
	}

	// The sender dials per Send call, so every delivery attempt still
	// gets a fresh connection.
	return func() mailer.Sender {
		return sender
	}, nil
}

// discardSender accepts every message without sending it.
type discardSender struct {
	logger *slog.Logger
}

func (d discardSender) Send(_ context.Context, msg mailer.Message) error {
	d.logger.Debug("discarding email", "to", msg.To, "subject", msg.Subject)
	return nil
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
