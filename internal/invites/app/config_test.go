package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/events"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "cliq.db", cfg.DatabaseFile)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, domain.ApprovalTTL, cfg.ApprovalTTL)
	require.Equal(t, domain.DefaultInviteTTL, cfg.InviteTTL)
	require.Equal(t, events.DefaultStream, cfg.NATSStream)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_AUDIENCE", "cliq-web,cliq-app")
	t.Setenv("APPROVAL_TTL", "24h")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("SWEEP_BATCH", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, []string{"cliq-web", "cliq-app"}, cfg.AuthAudience)
	require.Equal(t, 24*time.Hour, cfg.ApprovalTTL)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, 50, cfg.SweepBatch)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidateServe(t *testing.T) {
	cfg := Config{Env: "dev"}
	require.ErrorIs(t, cfg.ValidateServe(), ErrNoJWKS)

	cfg.AuthJWKSURL = "https://auth.example.com/.well-known/jwks.json"
	require.NoError(t, cfg.ValidateServe())

	cfg.Env = "prod"
	require.ErrorIs(t, cfg.ValidateServe(), ErrNoCookieSecret)

	cfg.CookieSecret = "s3cret"
	require.NoError(t, cfg.ValidateServe())
}
