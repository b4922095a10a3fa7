package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/routing"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
)

// NextStepService loads stored state for routing.Decide. It is the one
// place entry points go to learn where a visitor belongs.
type NextStepService struct {
	Store store.Store
	Now   func() time.Time
}

// NextQuery names what the visitor is resuming. InviteKey is a token, code
// or join code; InviteID comes from the pending-invite cookie.
type NextQuery struct {
	InviteKey  string
	InviteID   string
	ApprovalID string
}

type NextResult struct {
	Decision routing.Decision
	Invite   *domain.Invite
	Approval *domain.ParentApproval
}

// Resolve decides the next step for caller, which is nil when signed out.
// Unknown references decide to invalid rather than failing.
func (s *NextStepService) Resolve(ctx context.Context, q NextQuery, caller *domain.User) (NextResult, error) {
	var res NextResult
	in := routing.Input{Now: clock(s.Now)}
	if caller != nil {
		in.Caller = RoutingCaller(*caller)
	}

	inv, err := s.invite(ctx, q)
	if err != nil {
		return NextResult{}, err
	}
	if inv != nil {
		res.Invite = inv
		in.Invite = inv
	}

	if id := strings.TrimSpace(q.ApprovalID); id != "" {
		a, err := s.Store.Approvals().GetApprovalByID(ctx, id)
		switch {
		case err == nil:
			if inv == nil || a.InviteID == inv.ID {
				res.Approval = &a
				in.Approval = &a
			}
		case !errors.Is(err, store.ErrNotFound):
			return NextResult{}, fmt.Errorf("get approval: %w", err)
		}
	}

	res.Decision = routing.Decide(in)
	return res, nil
}

func (s *NextStepService) invite(ctx context.Context, q NextQuery) (*domain.Invite, error) {
	if key := strings.TrimSpace(q.InviteKey); key != "" {
		inv, err := lookupInvite(ctx, s.Store, key)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &inv, nil
	}

	if id := strings.TrimSpace(q.InviteID); id != "" {
		inv, err := s.Store.Invites().GetInviteByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get invite: %w", err)
		}
		return &inv, nil
	}
	return nil, nil
}
