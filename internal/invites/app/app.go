package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/events"
	httpapi "github.com/aussiebroadwan/cliq/internal/invites/http"
	"github.com/aussiebroadwan/cliq/internal/invites/notify"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/jwtx"
	"github.com/aussiebroadwan/cliq/pkg/pendingcookie"
	"github.com/aussiebroadwan/cliq/pkg/slogx"

	"github.com/nats-io/nats.go"
)

const ServiceName = "cliq-invites"

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// keySource resolves verification keys and reports when it has some.
type keySource interface {
	jwtx.KeyResolver
	Ready(ctx context.Context) error
}

// Application holds the invite service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       *sqlite.Store
	keys     keySource
	verifier jwtx.Verifier
	hasher   *cryptox.Hasher
	notifier service.Notifier
	bus      *events.Bus
	events   service.Publisher
	metrics  *telemetry.Metrics

	stopTracing func(context.Context) error

	// Services
	inviteService       *service.InviteService
	approvalService     *service.ApprovalService
	provisioningService *service.ProvisioningService
	accountService      *service.AccountService
	verificationService *service.VerificationService
	cliqService         *service.CliqService
	nextStepService     *service.NextStepService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: ServiceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates an Application with every dependency initialised.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: telemetry.NewMetrics(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if err := app.initKeys(); err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialise verification keys: %w", err)
	}
	if err := app.initNotifier(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initEvents(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initTracing(ctx); err != nil {
		app.closeAll()
		return nil, err
	}

	app.initServices()
	if err := app.initHTTP(); err != nil {
		app.closeAll()
		return nil, err
	}

	return app, nil
}

// Handler returns the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until ctx ends, SIGINT or SIGTERM arrives, or the server fails.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("invite service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
	case <-ctx.Done():
		app.logger.Info("context done, shutting down")
	}

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown drains the server and releases every dependency.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down invite service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.stopTracing != nil {
		if err := app.stopTracing(ctx); err != nil {
			app.logger.Error("error flushing traces", "error", err)
		}
	}
	app.bus.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("invite service stopped")
	return nil
}

// closeAll releases what New managed to open before failing.
func (app *Application) closeAll() {
	app.bus.Close()
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg)
	if err != nil {
		return err
	}
	app.db = db
	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKeys prefers a JWKS URL; a static JWKS document is for deployments
// without network access to the auth service.
func (app *Application) initKeys() error {
	if app.cfg.AuthJWKSURL != "" {
		app.keys = jwtx.NewRemoteKeySet(app.cfg.AuthJWKSURL, nil)
		app.logger.Info("verifying tokens against remote jwks", "url", app.cfg.AuthJWKSURL)
	} else {
		jwks, err := jwtx.LoadJWKS([]byte(app.cfg.AuthJWKSJSON))
		if err != nil {
			return err
		}
		ks := jwtx.NewKeySet()
		if err := ks.ResetFromJWKS(jwks); err != nil {
			return err
		}
		app.keys = ks
		app.logger.Info("verifying tokens against static jwks", "keys", len(jwks.Keys))
	}

	app.verifier = jwtx.NewVerifier(app.keys, jwtx.VerifyOptions{
		Issuer:   app.cfg.AuthIssuer,
		Audience: app.cfg.AuthAudience,
	})
	return nil
}

func (app *Application) initNotifier(ctx context.Context) error {
	if app.cfg.SESFromEmail == "" {
		app.logger.Warn("SES_FROM_EMAIL not set, notices are logged instead of sent")
		app.notifier = notify.Log{}
		return nil
	}

	ses, err := notify.NewSES(ctx, app.cfg.SESRegion, app.cfg.SESFromEmail, app.cfg.SESFromName, app.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialise SES: %w", err)
	}
	app.notifier = ses
	return nil
}

func (app *Application) initEvents() error {
	bus, pub, err := ConnectEvents(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.bus = bus
	if pub != nil {
		app.events = pub
	}
	return nil
}

func (app *Application) initTracing(ctx context.Context) error {
	stop, err := telemetry.InitTracing(ctx, ServiceName, BuildVersion, app.cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	app.stopTracing = stop
	return nil
}

func (app *Application) initServices() {
	app.accountService = &service.AccountService{Store: app.db, Events: app.events}
	app.cliqService = &service.CliqService{Store: app.db}
	app.nextStepService = &service.NextStepService{Store: app.db}
	app.inviteService = &service.InviteService{
		Store:      app.db,
		Events:     app.events,
		Metrics:    app.metrics,
		DefaultTTL: app.cfg.InviteTTL,
	}
	app.approvalService = &service.ApprovalService{
		Store:    app.db,
		Notifier: app.notifier,
		Events:   app.events,
		Metrics:  app.metrics,
		TTL:      app.cfg.ApprovalTTL,
	}
	app.provisioningService = &service.ProvisioningService{
		Store:   app.db,
		Hasher:  app.hasher,
		Events:  app.events,
		Metrics: app.metrics,
		TTL:     app.cfg.ApprovalTTL,
	}
	app.verificationService = &service.VerificationService{
		Store:    app.db,
		Notifier: app.notifier,
		Metrics:  app.metrics,
		Issuer:   "Cliq",
		Period:   app.cfg.VerificationPeriod,
	}
}

func (app *Application) initHTTP() error {
	secret := []byte(app.cfg.CookieSecret)
	if len(secret) == 0 {
		// Dev only; ValidateServe rejects this elsewhere.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate cookie secret: %w", err)
		}
		app.logger.Warn("COOKIE_SECRET not set, pending-invite cookies will not survive a restart")
	}

	router := httpapi.NewRouter(app.verifier, app.keys, BuildVersion, app.db, app.logger)
	if app.cfg.OTLPEndpoint != "" {
		router.Use(telemetry.HTTPMiddleware(ServiceName))
	}

	router.BaseURL = app.cfg.BaseURL
	router.Cookies = &pendingcookie.Codec{Secret: secret, Secure: app.cfg.CookieSecure}
	router.Metrics = app.metrics
	router.InviteService = app.inviteService
	router.ApprovalService = app.approvalService
	router.ProvisioningService = app.provisioningService
	router.AccountService = app.accountService
	router.VerificationService = app.verificationService
	router.CliqService = app.cliqService
	router.NextStepService = app.nextStepService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// OpenStore opens the configured database and brings its schema up to date.
func OpenStore(cfg Config) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// ConnectEvents dials NATS when NATS_URL is set. Both results are nil when
// events are disabled.
func ConnectEvents(cfg Config, logger *slog.Logger) (*events.Bus, *events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("NATS_URL not set, domain events disabled")
		return nil, nil, nil
	}

	bus, err := events.Connect(cfg.NATSURL, nats.Name(ServiceName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	if err := bus.EnsureStream(cfg.NATSStream, cfg.NATSPrefix+".>"); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.NATSStream, err)
	}

	logger.Info("publishing domain events", "stream", cfg.NATSStream, "prefix", cfg.NATSPrefix)
	return bus, &events.Publisher{Bus: bus, Prefix: cfg.NATSPrefix}, nil
}
