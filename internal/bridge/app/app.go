package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crossauth/bridge/internal/bridge/domain"
	httpapi "github.com/crossauth/bridge/internal/bridge/http"
	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/internal/bridge/store"
	"github.com/crossauth/bridge/internal/bridge/store/drivers/legacy"
	"github.com/crossauth/bridge/internal/bridge/store/drivers/portal"
	"github.com/crossauth/bridge/pkg/jwtx"
	"github.com/crossauth/bridge/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the bridge with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	legacyStore *legacy.Store
	portalStore *portal.Store
	keyManager  *jwtx.KeyManager

	reconciler *service.Reconciler
	translator *service.Translator
	gate       *service.Gate

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-bridge",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.PortalSecret == "" {
		return nil, errors.New("BRIDGE_PORTAL_SECRET must be set")
	}

	if err := app.initStores(); err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewKeyManager(cfg.NumKeys, cfg.Issuer, app.audience())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	if err := app.seedLegacy(); err != nil {
		return nil, err
	}

	return app, nil
}

// seedLegacy ensures the configured bootstrap user and opaque token exist in
// the legacy store. Both operations treat "already exists" as success so
// restarts are clean.
func (app *Application) seedLegacy() error {
	if app.cfg.SeedLegacyUser == "" || app.cfg.SeedLegacyToken == "" {
		return nil
	}

	ctx := context.Background()
	_, err := app.legacyStore.Create(ctx, domain.Identity{
		Key:         app.cfg.SeedLegacyUser,
		DisplayName: app.cfg.SeedLegacyUser,
		Role:        domain.RoleUser,
		Active:      true,
	})
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("seed legacy user: %w", err)
	}

	err = app.legacyStore.SeedToken(ctx, app.cfg.SeedLegacyUser, app.cfg.SeedLegacyToken)
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("seed legacy token: %w", err)
	}

	app.logger.Info("seeded legacy bootstrap user", "user", app.cfg.SeedLegacyUser)
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth bridge starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth bridge...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	var closeErr error
	if err := app.legacyStore.Close(); err != nil {
		app.logger.Error("error closing legacy store", "error", err)
		closeErr = err
	}
	if err := app.portalStore.Close(); err != nil {
		app.logger.Error("error closing portal store", "error", err)
		closeErr = err
	}

	app.logger.Info("auth bridge stopped")
	return closeErr
}

// initStores opens both credential stores and applies their migrations.
func (app *Application) initStores() error {
	legacyDSN := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.LegacyDatabaseFile)
	lg, err := legacy.NewStore(legacyDSN)
	if err != nil {
		return fmt.Errorf("failed to open legacy store: %w", err)
	}
	if err := lg.ApplyMigrations(); err != nil {
		_ = lg.Close()
		return fmt.Errorf("failed to migrate legacy store: %w", err)
	}
	app.legacyStore = lg

	portalDSN := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.PortalDatabaseFile)
	pt, err := portal.NewStore(portalDSN, []byte(app.cfg.PortalSecret), portal.DefaultTokenTTL)
	if err != nil {
		_ = lg.Close()
		return fmt.Errorf("failed to open portal store: %w", err)
	}
	if err := pt.ApplyMigrations(); err != nil {
		_ = lg.Close()
		_ = pt.Close()
		return fmt.Errorf("failed to migrate portal store: %w", err)
	}
	app.portalStore = pt

	app.logger.Info("store migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	stores := service.Stores{Legacy: app.legacyStore, Portal: app.portalStore}

	app.reconciler = &service.Reconciler{Stores: stores}
	app.translator = &service.Translator{
		Stores:     stores,
		Reconciler: app.reconciler,
		Keys:       app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.audience(),
		UnifiedTTL: app.cfg.UnifiedTTL,
	}
	app.gate = &service.Gate{Stores: stores, Verifier: app.keyManager.Verifier}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		BuildVersion,
		service.Stores{Legacy: app.legacyStore, Portal: app.portalStore},
		app.logger,
	)

	router.Translator = app.translator
	router.Gate = app.gate
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) audience() []string {
	if app.cfg.Audience == "" {
		return nil
	}
	return []string{app.cfg.Audience}
}
