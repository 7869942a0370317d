package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/router-for-me/VisitMappingService/internal/config"
	"github.com/router-for-me/VisitMappingService/internal/db"
	"github.com/router-for-me/VisitMappingService/internal/http/api"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/ratelimit"
	"github.com/router-for-me/VisitMappingService/internal/security"
	"github.com/router-for-me/VisitMappingService/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ErrMissingJWTSecret indicates the server cannot verify bearer tokens.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := db.Close(conn); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}()
	return db.Migrate(conn.WithContext(ctx))
}

// IssueToken signs a bearer token for subject using the configured secret.
func IssueToken(cfg config.Config, subject string, roles []string, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", ErrMissingJWTSecret
	}
	return security.IssueToken(cfg.JWT.Secret, subject, roles, ttl, time.Now())
}

// RunServer boots the mapping API and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.Config) error {
	if cfg.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := db.Close(conn); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}()
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}

	svc := mapping.NewService(store.NewGormVisitStore(conn), store.NewGormRoomStore(conn))
	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsFromConfig(cfg.RateLimit)), time.Now, nil)
	defer func() {
		if errClose := limiter.Close(); errClose != nil {
			log.WithError(errClose).Warn("close rate limiter")
		}
	}()

	engine := api.NewEngine(cfg.Debug)
	api.RegisterRoutes(engine, conn, svc, cfg.JWT, limiter)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errServe := make(chan error, 1)
	go func() {
		errServe <- srv.ListenAndServe()
	}()
	log.WithField("addr", srv.Addr).Info("visit mapping service listening")

	select {
	case errListen := <-errServe:
		if errors.Is(errListen, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", errListen)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("app: shutdown: %w", errShutdown)
	}
	return nil
}
