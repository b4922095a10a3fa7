package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/events"
	"github.com/aussiebroadwan/cliq/internal/invites/service"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                int           `env:"PORT"                  envDefault:"8080"`
	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"cliq.db"`
	PepperFile   string `env:"PEPPER_FILE"   envDefault:"pepper"`

	// Access tokens are issued by the auth service. Exactly one of the JWKS
	// sources is required.
	AuthIssuer   string   `env:"AUTH_ISSUER"`
	AuthAudience []string `env:"AUTH_AUDIENCE"  envSeparator:","`
	AuthJWKSURL  string   `env:"AUTH_JWKS_URL"`
	AuthJWKSJSON string   `env:"AUTH_JWKS_JSON"`

	CookieSecret string `env:"COOKIE_SECRET"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`
	BaseURL      string `env:"APP_BASE_URL"  envDefault:"http://localhost:8080"`

	ApprovalTTL        time.Duration `env:"APPROVAL_TTL"`
	InviteTTL          time.Duration `env:"INVITE_TTL"`
	VerificationPeriod time.Duration `env:"VERIFICATION_PERIOD"`

	SESRegion    string `env:"SES_REGION"     envDefault:"ap-southeast-2"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME"  envDefault:"Cliq"`

	NATSURL    string `env:"NATS_URL"`
	NATSStream string `env:"NATS_STREAM"         envDefault:"CLIQ_INVITES"`
	NATSPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"cliq.invites"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepBatch    int           `env:"SWEEP_BATCH"    envDefault:"500"`
}

var (
	ErrNoJWKS         = errors.New("app: one of AUTH_JWKS_URL or AUTH_JWKS_JSON is required")
	ErrNoCookieSecret = errors.New("app: COOKIE_SECRET is required outside dev")
)

// LoadConfig reads the environment, after loading .env if one exists.
func LoadConfig() (Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ApprovalTTL <= 0 {
		cfg.ApprovalTTL = domain.ApprovalTTL
	}
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = domain.DefaultInviteTTL
	}
	if cfg.VerificationPeriod <= 0 {
		cfg.VerificationPeriod = service.DefaultVerificationPeriod
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = service.DefaultSweepBatch
	}
	if cfg.NATSStream == "" {
		cfg.NATSStream = events.DefaultStream
	}
	if cfg.NATSPrefix == "" {
		cfg.NATSPrefix = events.DefaultPrefix
	}
	return cfg, nil
}

// ValidateServe checks what the HTTP server needs beyond the store.
func (c Config) ValidateServe() error {
	if c.AuthJWKSURL == "" && c.AuthJWKSJSON == "" {
		return ErrNoJWKS
	}
	if c.CookieSecret == "" && c.Env != "dev" {
		return ErrNoCookieSecret
	}
	return nil
}
