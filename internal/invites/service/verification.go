package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/slogx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultVerificationPeriod is how long an emailed code stays valid, before
// the one step of skew that Confirm allows.
const DefaultVerificationPeriod = 10 * time.Minute

// VerificationService proves a free-plan adult controls their contact
// address before they can become a parent. Codes are TOTP values over a
// per-user secret with a long period, delivered by email.
type VerificationService struct {
	Store    store.Store
	Notifier Notifier
	Metrics  *telemetry.Metrics
	Now      func() time.Time

	Issuer string
	Period time.Duration
}

// Start issues a fresh secret and emails the current code. It returns when
// the code stops being accepted.
func (s *VerificationService) Start(ctx context.Context, u domain.User) (time.Time, error) {
	log := slogx.FromContext(ctx).With(slog.String("user_id", u.ID))
	now := clock(s.Now)

	if u.Role == domain.RoleChild {
		return time.Time{}, ErrWrongRole
	}
	if u.EmailNormalized == "" {
		return time.Time{}, invalid("account has no email address to verify")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: u.EmailNormalized,
		Period:      s.period(),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		log.Error("failed to generate verification secret", slog.Any("error", err))
		return time.Time{}, fmt.Errorf("generate secret: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), now, s.opts())
	if err != nil {
		log.Error("failed to generate verification code", slog.Any("error", err))
		return time.Time{}, fmt.Errorf("generate code: %w", err)
	}

	if err := s.Store.Users().SetIdentitySecret(ctx, u.ID, key.Secret()); err != nil {
		log.Error("failed to store verification secret", slog.Any("error", err))
		return time.Time{}, fmt.Errorf("store secret: %w", err)
	}

	expires := s.expiry(now)
	sent := true
	if s.Notifier == nil {
		sent = false
	} else if err := s.Notifier.SendVerificationCode(ctx, domain.VerificationNotice{
		UserID:    u.ID,
		Email:     u.EmailNormalized,
		Code:      code,
		ExpiresAt: expires,
	}); err != nil {
		sent = false
		log.Error("failed to send verification code", slog.Any("error", err))
	}
	s.Metrics.Notification("verification", sent)
	if !sent {
		return time.Time{}, fmt.Errorf("verification code not delivered")
	}

	log.Info("identity verification started", slog.Time("expires_at", expires))
	return expires, nil
}

// Confirm checks code against the stored secret and marks the identity
// verified.
func (s *VerificationService) Confirm(ctx context.Context, u domain.User, code string) error {
	log := slogx.FromContext(ctx).With(slog.String("user_id", u.ID))
	now := clock(s.Now)

	if u.IdentityVerified() {
		return nil
	}
	if code == "" {
		return invalid("code is required")
	}
	if u.IdentitySecret == "" {
		return ErrInvalidCode
	}

	ok, err := totp.ValidateCustom(code, u.IdentitySecret, now, s.opts())
	if err != nil || !ok {
		log.Warn("invalid verification code")
		return ErrInvalidCode
	}

	if err := s.Store.Users().MarkIdentityVerified(ctx, u.ID, now); err != nil {
		log.Error("failed to mark identity verified", slog.Any("error", err))
		return fmt.Errorf("mark verified: %w", err)
	}

	log.Info("identity verified")
	return nil
}

func (s *VerificationService) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    s.period(),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// expiry is the end of the current step plus the skew step.
func (s *VerificationService) expiry(now time.Time) time.Time {
	p := int64(s.period())
	step := now.Unix() / p
	return time.Unix((step+2)*p, 0).UTC()
}

func (s *VerificationService) period() uint {
	if s.Period >= time.Second {
		return uint(s.Period / time.Second)
	}
	return uint(DefaultVerificationPeriod / time.Second)
}

func (s *VerificationService) issuer() string {
	if s.Issuer != "" {
		return s.Issuer
	}
	return "cliq"
}
