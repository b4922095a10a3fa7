package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

const MaxCliqNameLength = 80

// CliqService creates the groups invites point at.
type CliqService struct {
	Store store.Store
	Now   func() time.Time
}

// Create makes a cliq with owner as its first member.
func (s *CliqService) Create(ctx context.Context, owner domain.User, name string) (domain.Cliq, error) {
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxCliqNameLength {
		return domain.Cliq{}, invalid(fmt.Sprintf("name must be 1-%d characters", MaxCliqNameLength))
	}
	if owner.Role == domain.RoleChild {
		return domain.Cliq{}, ErrWrongRole
	}

	c := domain.Cliq{ID: idx.NewAt(now).String(), Name: name, OwnerID: owner.ID, CreatedAt: now}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Cliqs().CreateCliq(ctx, c); err != nil {
			return err
		}
		_, err := tx.Memberships().AddMembership(ctx, domain.Membership{
			ID:       idx.NewAt(now).String(),
			UserID:   owner.ID,
			CliqID:   c.ID,
			Role:     domain.MemberOwner,
			JoinedAt: now,
		})
		return err
	})
	if err != nil {
		log.Error("failed to create cliq", slog.Any("error", err))
		return domain.Cliq{}, fmt.Errorf("create cliq: %w", err)
	}

	log.Info("cliq created", slog.String("cliq_id", c.ID), slog.String("owner_id", owner.ID))
	return c, nil
}
