// Package runtime wires configuration, storage, services and the HTTP stack
// into a runnable process.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	app "github.com/harborline/fleetd/internal/app"
	"github.com/harborline/fleetd/internal/app/httpapi"
	"github.com/harborline/fleetd/internal/app/storage/postgres"
	"github.com/harborline/fleetd/internal/config"
	"github.com/harborline/fleetd/internal/logging"
	"github.com/harborline/fleetd/internal/logistics"
	"github.com/harborline/fleetd/internal/mailer"
	"github.com/harborline/fleetd/internal/middleware"
	"github.com/harborline/fleetd/internal/platform/migrations"
)

// Application manages process lifecycle around the assembled service.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	httpServer *http.Server
	db         *sql.DB
}

// NewApplication constructs the application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApplication(cfg)
}

func newApplication(cfg *config.Config) (*Application, error) {
	log := logging.New("fleetd", cfg.Logging.Level, cfg.Logging.Format)

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	appCfg := app.Config{
		TokenSecret: cfg.Auth.TokenSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
	}
	if cfg.Mail.BaseURL != "" {
		appCfg.Mailer = mailer.New(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From, log)
	}
	if cfg.Logistics.BaseURL != "" {
		appCfg.Logistics = logistics.New(cfg.Logistics.BaseURL, cfg.Logistics.APIKey, log)
	}

	application, err := app.New(stores, appCfg, log)
	if err != nil {
		return nil, fmt.Errorf("assemble application: %w", err)
	}

	handler, err := httpapi.NewHandler(application, httpapi.Options{
		AuditFile: cfg.Audit.File,
		AuditMax:  cfg.Audit.Max,
	})
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}

	authMW := middleware.NewAuthMiddleware(application.Tokens, log,
		[]string{"/healthz", "/metrics"}, []string{"/api/auth/"})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)

	var chained http.Handler = handler
	chained = authMW.Handler(chained)
	chained = limiter.Handler(chained)
	chained = middleware.MetricsMiddleware()(chained)
	chained = middleware.LoggingMiddleware(log)(chained)
	chained = cors.Handler(chained)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      chained,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{cfg: cfg, log: log, httpServer: srv, db: db}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.WithField("addr", a.httpServer.Addr).Info("http server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown drains in-flight requests and closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

// buildStores opens postgres when a DSN is configured and falls back to the
// in-memory store otherwise. The fallback keeps local development and tests
// free of external dependencies; state does not survive a restart.
func buildStores(cfg *config.Config, log *logging.Logger) (app.Stores, *sql.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn("no database dsn configured, using volatile in-memory storage")
		return app.Stores{}, nil, nil
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return app.Stores{}, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, db); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("run migrations: %w", err)
	}

	store := postgres.New(db)
	return app.Stores{Users: store, Vessels: store, Crews: store, Requests: store}, db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
