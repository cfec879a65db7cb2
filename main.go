package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/amalieborg/bridal-crm/internal/auth"
	"github.com/amalieborg/bridal-crm/internal/cache"
	"github.com/amalieborg/bridal-crm/internal/config"
	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
	"github.com/amalieborg/bridal-crm/internal/infra"
	"github.com/amalieborg/bridal-crm/internal/ratelimit"
	"github.com/amalieborg/bridal-crm/internal/session"
	"github.com/amalieborg/bridal-crm/internal/storage"
	"github.com/amalieborg/bridal-crm/internal/store"
)

const (
	defaultShutdownTimeout        = 10 * time.Second
	defaultDatabaseConnectTimeout = 5 * time.Second
	initialLoadTimeout            = 30 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	cfg, err := config.Build()
	if err != nil {
		logrus.Fatalf("startup failed - %s", err)
	}

	customersStore, cleanup, err := buildStore(cfg.BackendCfg)
	if err != nil {
		logrus.Fatalf("failed to build customers store - %s", err)
	}
	defer cleanup()

	run(cfg, customersStore)
}

func buildStore(cfg config.BackendCfg) (store.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		return store.NewRestStore(cfg.URL, cfg.AnonKey, nil), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDatabaseConnectTimeout)
	defer cancel()

	pool, err := pgxpool.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to establish connection to db - %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("didn't get response from database after sending ping request - %w", err)
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func run(cfg config.Config, customersStore store.Store) {
	authClient := auth.NewClient(cfg.BackendCfg.URL, cfg.BackendCfg.AnonKey, nil)
	storageClient := storage.NewClient(cfg.BackendCfg.URL, cfg.BackendCfg.AnonKey, nil)
	tokenValidator := auth.NewTokenValidator(cfg.BackendCfg.JwtSecret)

	throttle := ratelimit.NewThrottle(cfg.ThrottleCfg.MaxAttempts, cfg.ThrottleCfg.Window)
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.ThrottleCfg.SweepSchedule, throttle.Cleanup); err != nil {
		logrus.Fatalf("invalid throttle sweep schedule - %s", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	custCache := cache.NewCustomerCache(customersStore)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), initialLoadTimeout)
	if err := custCache.Refresh(loadCtx); err != nil {
		logrus.WithError(err).Warn("initial customers load failed, continuing with empty cache")
	}
	cancelLoad()

	debouncer := cache.NewSearchDebouncer(custCache, cfg.ServerCfg.SearchDebounce)
	defer debouncer.Stop()

	guard := session.NewGuard(cfg.SessionCfg.Timeout, cfg.SessionCfg.WarningWindow, authClient.SignOut)
	defer guard.Stop()

	go watchSession(guard, authClient)

	app, err := infra.Router(infra.Deps{
		Cache:          custCache,
		Debouncer:      debouncer,
		AuthClient:     authClient,
		Throttle:       throttle,
		Storage:        storageClient,
		TokenValidator: tokenValidator,
		Guard:          guard,
	})
	if err != nil {
		logrus.Fatalf("failed to assemble router - %s", err)
	}

	start(app, cfg.ServerCfg.Port)
}

func watchSession(guard *session.Guard, authClient *auth.Client) {
	for {
		select {
		case e, ok := <-guard.Events():
			if !ok {
				return
			}
			switch e {
			case session.EventWarning:
				logrus.Warnf("session expires in %s without activity", guard.Remaining())
			case session.EventExpired:
				apperrors.LogSecurityEvent("session expired, forced sign-out", logrus.Fields{})
			}
		case e, ok := <-authClient.Events():
			if !ok {
				return
			}
			logrus.WithField("email", e.Email).Infof("session change: %v", e.Kind)
		}
	}
}

func start(app *echo.Echo, port int) {
	shutdownCh := make(chan os.Signal, 1)
	errorCh := make(chan error, 1)
	signal.Notify(shutdownCh, os.Interrupt)

	go func() {
		errorCh <- app.Start(fmt.Sprintf(":%d", port))
	}()

	select {
	case <-shutdownCh:
		ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		app.Logger.Infof("shutdown signal has been sent, stopping the server...")
		if err := app.Shutdown(ctx); err != nil {
			app.Logger.Fatalf("failed to stop server gracefully - %s", err)
		}
	case err := <-errorCh:
		if !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Fatalf("shutting down the server, unexpected error occurred - %s", err)
		}
	}
}
