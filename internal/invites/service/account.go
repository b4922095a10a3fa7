package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/routing"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/jwtx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// AccountService keeps the local view of callers. Identities are issued by
// the auth service; a row is created the first time a subject is seen.
type AccountService struct {
	Store  store.Store
	Events Publisher
	Now    func() time.Time
}

// Caller returns the stored user for verified bearer claims, creating an
// adult account on first sight. The plan claim is authoritative and synced.
func (s *AccountService) Caller(ctx context.Context, claims jwtx.Claims) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if claims.Subject == "" {
		return domain.User{}, ErrUnauthorized
	}
	plan := planFromClaim(claims.Plan)

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	switch {
	case err == nil:
		if claims.Plan != "" && u.Plan != plan {
			if err := s.Store.Users().UpdatePlan(ctx, u.ID, plan); err != nil {
				log.Error("failed to sync plan", slog.Any("error", err))
				return domain.User{}, fmt.Errorf("sync plan: %w", err)
			}
			u.Plan = plan
		}
		return u, nil
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to fetch caller", slog.Any("error", err))
		return domain.User{}, fmt.Errorf("get caller: %w", err)
	}

	now := clock(s.Now)
	display := claims.PreferredName
	if display == "" {
		display = claims.Username
	}
	u = domain.User{
		ID:              claims.Subject,
		EmailNormalized: domain.NormalizeEmail(claims.Email),
		DisplayName:     display,
		Role:            domain.RoleAdult,
		Plan:            plan,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			log.Error("failed to create caller", slog.Any("error", err))
			return domain.User{}, fmt.Errorf("create caller: %w", err)
		}
		// A concurrent first request won, or the email belongs to a
		// different subject.
		existing, getErr := s.Store.Users().GetUserByID(ctx, claims.Subject)
		if getErr != nil {
			log.Warn("caller email already bound to another account", slog.String("user_id", claims.Subject))
			return domain.User{}, forbidden("email is already bound to another account")
		}
		return existing, nil
	}

	log.Info("caller account created", slog.String("user_id", u.ID))
	return u, nil
}

// UpgradeToParent turns an adult into a parent. Paid accounts upgrade
// directly; free accounts need a verified identity first.
func (s *AccountService) UpgradeToParent(ctx context.Context, u domain.User) (domain.User, error) {
	log := slogx.FromContext(ctx).With(slog.String("user_id", u.ID))
	now := clock(s.Now)

	switch u.Role {
	case domain.RoleParent:
		return u, nil
	case domain.RoleChild:
		log.Warn("child account attempted upgrade to parent")
		return domain.User{}, ErrWrongRole
	}
	if u.Plan != domain.PlanPaid && !u.IdentityVerified() {
		return domain.User{}, ErrVerificationRequired
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateRole(ctx, u.ID, domain.RoleParent); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, domain.AuditEntry{
			ID:         idx.NewAt(now).String(),
			ActorID:    u.ID,
			Action:     domain.EventAccountUpgraded,
			TargetType: "user",
			TargetID:   u.ID,
			Metadata:   map[string]any{"from": string(u.Role), "to": string(domain.RoleParent), "plan": string(u.Plan)},
			CreatedAt:  now,
		})
	})
	if err != nil {
		log.Error("failed to upgrade account", slog.Any("error", err))
		return domain.User{}, fmt.Errorf("upgrade account: %w", err)
	}

	log.Info("account upgraded to parent", slog.String("plan", string(u.Plan)))
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventAccountUpgraded,
		ActorID:  u.ID,
		TargetID: u.ID,
		At:       now,
	})

	u.Role = domain.RoleParent
	u.UpdatedAt = now
	return u, nil
}

// RoutingCaller is the view of u the routing table reads.
func RoutingCaller(u domain.User) *routing.Caller {
	return &routing.Caller{
		ID:               u.ID,
		Role:             u.Role,
		Plan:             u.Plan,
		IdentityVerified: u.IdentityVerified(),
	}
}

func planFromClaim(p string) domain.Plan {
	if domain.Plan(p) == domain.PlanPaid {
		return domain.PlanPaid
	}
	return domain.PlanFree
}
