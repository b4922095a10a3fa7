package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// Key lengths for the human-typed aliases.
const (
	CodeLength     = 8
	JoinCodeLength = 6

	MaxInviteUses = 50

	// aliasAttempts bounds regeneration when a fresh code collides.
	aliasAttempts = 3
)

type InviteService struct {
	Store   store.Store
	Events  Publisher
	Metrics *telemetry.Metrics
	Now     func() time.Time

	// DefaultTTL applies when neither an expiry nor NeverExpires is given.
	// Zero means domain.DefaultInviteTTL.
	DefaultTTL time.Duration
}

type CreateInviteParams struct {
	CliqID       string
	InviteeEmail string
	InvitedRole  domain.InvitedRole
	InviteType   domain.InviteType

	FriendFirstName     string
	FriendLastName      string
	TrustedAdultContact string
	InviteNote          string

	ExpiresAt    *time.Time
	NeverExpires bool
	MaxUses      int
}

// CreatedInvite holds the only copy of the raw token that ever exists.
type CreatedInvite struct {
	Invite domain.Invite
	Token  string
}

type AcceptResult struct {
	Invite     domain.Invite
	Membership domain.Membership
	// AlreadyMember is set when the call was an idempotent repeat.
	AlreadyMember bool
}

// CreateInvite validates p, classifies the recipient and stores the invite
// together with its three aliases.
func (s *InviteService) CreateInvite(ctx context.Context, inviter domain.User, p CreateInviteParams) (CreatedInvite, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "InviteService.CreateInvite")
	defer span.End()
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	// 1. Validate input before touching the store.
	if err := normalizeInviteParams(&p, now, s.defaultTTL()); err != nil {
		log.Warn("invite creation rejected", slog.Any("error", err))
		return CreatedInvite{}, err
	}

	// 2. A child may only invite when a parent has turned invites on.
	if inviter.Role == domain.RoleChild {
		settings, err := s.Store.Children().GetSettings(ctx, inviter.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to load child settings", slog.Any("error", err))
			return CreatedInvite{}, fmt.Errorf("load child settings: %w", err)
		}
		if err != nil || !settings.InvitesEnabled {
			log.Warn("child attempted to invite with invites disabled",
				slog.String("user_id", inviter.ID),
			)
			return CreatedInvite{}, forbidden("invites are disabled for this account")
		}
	}

	// 3. The inviter must belong to the cliq.
	var cliq domain.Cliq
	if p.CliqID != "" {
		var err error
		cliq, err = s.Store.Cliqs().GetCliq(ctx, p.CliqID)
		if errors.Is(err, store.ErrNotFound) {
			return CreatedInvite{}, ErrNotFound
		}
		if err != nil {
			log.Error("failed to fetch cliq", slog.Any("error", err))
			return CreatedInvite{}, fmt.Errorf("get cliq: %w", err)
		}

		if _, err := s.Store.Memberships().GetMembership(ctx, inviter.ID, cliq.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("non-member attempted to invite",
					slog.String("user_id", inviter.ID),
					slog.String("cliq_id", cliq.ID),
				)
				return CreatedInvite{}, forbidden("only members can invite to this cliq")
			}
			log.Error("failed to fetch membership", slog.Any("error", err))
			return CreatedInvite{}, fmt.Errorf("get membership: %w", err)
		}
	}

	// 4. Classify the recipient once; routing reads the snapshot.
	contact := p.InviteeEmail
	if p.InvitedRole == domain.InvitedRoleChild {
		contact = p.TrustedAdultContact
	}
	target, err := classifyTarget(ctx, s.Store, contact)
	if err != nil {
		log.Error("failed to classify invite target", slog.Any("error", err))
		return CreatedInvite{}, err
	}

	inv := domain.Invite{
		ID:                    idx.NewAt(now).String(),
		InviterID:             inviter.ID,
		CliqID:                cliq.ID,
		InviteeEmail:          p.InviteeEmail,
		TargetEmailNormalized: domain.NormalizeEmail(contact),
		InvitedRole:           p.InvitedRole,
		InviteType:            p.InviteType,
		TargetState:           target,
		Status:                domain.InviteStatusPending,
		MaxUses:               p.MaxUses,
		FriendFirstName:       p.FriendFirstName,
		FriendLastName:        p.FriendLastName,
		TrustedAdultContact:   p.TrustedAdultContact,
		InviteNote:            p.InviteNote,
		ParentAccountExists:   p.InvitedRole == domain.InvitedRoleChild && target == domain.TargetExistingParent,
		ExpiresAt:             p.ExpiresAt,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// 5. Mint aliases and persist. A code collision retries with new codes;
	// the token is 256 bits and never collides in practice.
	var token string
	for attempt := 1; ; attempt++ {
		var aliases []domain.InviteAlias
		token, aliases, err = mintAliases(&inv)
		if err != nil {
			log.Error("failed to generate invite keys", slog.Any("error", err))
			return CreatedInvite{}, err
		}

		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Invites().CreateInvite(ctx, inv, aliases); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, domain.AuditEntry{
				ID:         idx.NewAt(now).String(),
				ActorID:    inviter.ID,
				Action:     domain.EventInviteCreated,
				TargetType: "invite",
				TargetID:   inv.ID,
				Metadata: map[string]any{
					"cliq_id":      inv.CliqID,
					"invited_role": string(inv.InvitedRole),
					"target_state": string(inv.TargetState),
					"max_uses":     inv.MaxUses,
				},
				CreatedAt: now,
			})
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < aliasAttempts {
			log.Warn("invite alias collision, regenerating", slog.Int("attempt", attempt))
			continue
		}
		log.Error("failed to create invite", slog.String("invite_id", inv.ID), slog.Any("error", err))
		return CreatedInvite{}, fmt.Errorf("create invite: %w", err)
	}

	log.Info("invite created",
		slog.String("invite_id", inv.ID),
		slog.String("cliq_id", inv.CliqID),
		slog.String("invited_role", string(inv.InvitedRole)),
		slog.String("target_state", string(inv.TargetState)),
	)
	s.Metrics.InviteTransition(string(domain.InviteStatusPending))
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventInviteCreated,
		ActorID:  inviter.ID,
		TargetID: inv.ID,
		CliqID:   inv.CliqID,
		Data:     map[string]any{"invited_role": string(inv.InvitedRole)},
		At:       now,
	})

	return CreatedInvite{Invite: inv, Token: token}, nil
}

// Lookup resolves a token, code or join code with one alias query.
func (s *InviteService) Lookup(ctx context.Context, key string) (domain.Invite, error) {
	return lookupInvite(ctx, s.Store, key)
}

func lookupInvite(ctx context.Context, st store.Store, key string) (domain.Invite, error) {
	hashes := aliasHashes(key)
	if len(hashes) == 0 {
		return domain.Invite{}, ErrNotFound
	}

	found, err := st.Invites().FindByAliases(ctx, hashes)
	if err != nil {
		return domain.Invite{}, fmt.Errorf("find invite: %w", err)
	}

	switch len(found) {
	case 0:
		return domain.Invite{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		ids := make([]string, 0, len(found))
		for _, inv := range found {
			ids = append(ids, inv.ID)
		}
		slogx.FromContext(ctx).Error("invite key matched several invites",
			slog.Any("invite_ids", ids),
		)
		return domain.Invite{}, ErrAmbiguousInviteKey
	}
}

// AcceptInvite grants caller membership of an adult invite's cliq. Repeating
// the call as the same caller succeeds without further writes.
func (s *InviteService) AcceptInvite(ctx context.Context, key string, caller domain.User) (AcceptResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "InviteService.AcceptInvite")
	defer span.End()
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	// 1. Resolve.
	inv, err := lookupInvite(ctx, s.Store, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("accept attempted with unknown invite key")
		}
		return AcceptResult{}, err
	}
	log = log.With(slog.String("invite_id", inv.ID))

	// 2. Child invites only complete through provisioning, and children
	// only join cliqs that way.
	if inv.IsChild() {
		log.Warn("direct accept of child invite refused")
		return AcceptResult{}, ErrWrongRole
	}
	if caller.Role == domain.RoleChild {
		log.Warn("child account attempted to accept adult invite", slog.String("user_id", caller.ID))
		return AcceptResult{}, ErrWrongRole
	}
	if inv.CliqID == "" {
		return AcceptResult{}, ErrMissingCliq
	}

	// 3. Consumed invites are an idempotent success for existing members.
	if inv.Consumed() {
		m, err := s.Store.Memberships().GetMembership(ctx, caller.ID, inv.CliqID)
		if err == nil {
			return AcceptResult{Invite: inv, Membership: m, AlreadyMember: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to fetch membership", slog.Any("error", err))
			return AcceptResult{}, fmt.Errorf("get membership: %w", err)
		}
		if inv.Status == domain.InviteStatusCanceled {
			return AcceptResult{}, ErrNotFound
		}
		if inv.InvitedUserID != "" && inv.InvitedUserID != caller.ID {
			log.Warn("invite already bound to another user", slog.String("user_id", caller.ID))
			return AcceptResult{}, ErrInviteAlreadyUsed
		}
	}

	// 4. Expiry.
	if inv.IsExpired(now) {
		log.Info("accept attempted on expired invite")
		return AcceptResult{}, ErrExpired
	}

	// 5. Membership, invite transition and contact verification commit
	// together. The transaction holds the write lock, so the conditional
	// update decides races.
	var res AcceptResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if m, err := tx.Memberships().GetMembership(ctx, caller.ID, inv.CliqID); err == nil {
			res = AcceptResult{Invite: inv, Membership: m, AlreadyMember: true}
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		current, err := tx.Invites().GetInviteByID(ctx, inv.ID)
		if err != nil {
			return err
		}
		ok, err := tx.Invites().AcceptInvite(ctx, store.AcceptInviteParams{
			InviteID: current.ID,
			UserID:   caller.ID,
			At:       now,
			Final:    current.FinalUse(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInviteAlreadyUsed
		}

		m := domain.Membership{
			ID:       idx.NewAt(now).String(),
			UserID:   caller.ID,
			CliqID:   current.CliqID,
			Role:     domain.MembershipRoleFor(caller.Role),
			JoinedAt: now,
		}
		if _, err := tx.Memberships().AddMembership(ctx, m); err != nil {
			return err
		}
		if err := tx.Users().MarkContactVerified(ctx, caller.ID, now); err != nil {
			return err
		}
		if err := tx.Audit().Record(ctx, domain.AuditEntry{
			ID:         idx.NewAt(now).String(),
			ActorID:    caller.ID,
			Action:     domain.EventInviteAccepted,
			TargetType: "invite",
			TargetID:   current.ID,
			Metadata:   map[string]any{"cliq_id": current.CliqID, "membership_id": m.ID},
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if current, err = tx.Invites().GetInviteByID(ctx, current.ID); err != nil {
			return err
		}
		res = AcceptResult{Invite: current, Membership: m}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyUsed) {
			log.Warn("invite consumed concurrently", slog.String("user_id", caller.ID))
			return AcceptResult{}, err
		}
		log.Error("failed to accept invite", slog.Any("error", err))
		return AcceptResult{}, fmt.Errorf("accept invite: %w", err)
	}

	if res.AlreadyMember {
		log.Debug("invite accept repeated by member", slog.String("user_id", caller.ID))
		return res, nil
	}

	log.Info("invite accepted",
		slog.String("user_id", caller.ID),
		slog.String("membership_id", res.Membership.ID),
		slog.Int("use_count", res.Invite.UseCount),
	)
	s.Metrics.InviteTransition(string(res.Invite.Status))
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventInviteAccepted,
		ActorID:  caller.ID,
		TargetID: res.Invite.ID,
		CliqID:   res.Invite.CliqID,
		Data:     map[string]any{"membership_id": res.Membership.ID},
		At:       now,
	})
	return res, nil
}

// CancelInvite withdraws a pending invite. The inviter and the addressed
// invitee may cancel; cancelling twice is a no-op.
func (s *InviteService) CancelInvite(ctx context.Context, inviteID string, caller domain.User) (domain.Invite, error) {
	log := slogx.FromContext(ctx).With(slog.String("invite_id", inviteID))
	now := clock(s.Now)

	inv, err := s.Store.Invites().GetInviteByID(ctx, inviteID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, ErrNotFound
	}
	if err != nil {
		log.Error("failed to fetch invite", slog.Any("error", err))
		return domain.Invite{}, fmt.Errorf("get invite: %w", err)
	}

	if !canCancel(inv, caller) {
		log.Warn("cancel attempted by unrelated user", slog.String("user_id", caller.ID))
		return domain.Invite{}, forbidden("only the inviter or invitee can cancel this invite")
	}

	switch {
	case inv.Status == domain.InviteStatusCanceled:
		return inv, nil
	case inv.Consumed():
		return domain.Invite{}, ErrInviteAlreadyUsed
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Invites().CancelInvite(ctx, inv.ID, now)
		if err != nil {
			return err
		}
		if inv, err = tx.Invites().GetInviteByID(ctx, inv.ID); err != nil {
			return err
		}
		if !ok {
			if inv.Status == domain.InviteStatusCanceled {
				return nil
			}
			return ErrInviteAlreadyUsed
		}
		return tx.Audit().Record(ctx, domain.AuditEntry{
			ID:         idx.NewAt(now).String(),
			ActorID:    caller.ID,
			Action:     domain.EventInviteCanceled,
			TargetType: "invite",
			TargetID:   inv.ID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyUsed) {
			return domain.Invite{}, err
		}
		log.Error("failed to cancel invite", slog.Any("error", err))
		return domain.Invite{}, fmt.Errorf("cancel invite: %w", err)
	}

	log.Info("invite canceled", slog.String("user_id", caller.ID))
	s.Metrics.InviteTransition(string(domain.InviteStatusCanceled))
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventInviteCanceled,
		ActorID:  caller.ID,
		TargetID: inv.ID,
		CliqID:   inv.CliqID,
		At:       now,
	})
	return inv, nil
}

// completeInTx finalizes a child invite for childID inside the caller's
// transaction. The stored invite is re-read and re-checked first. A
// multi-use invite with uses left only counts the use.
func completeInTx(ctx context.Context, tx store.Tx, inviteID, childID string, now time.Time) (domain.Invite, error) {
	inv, err := tx.Invites().GetInviteByID(ctx, inviteID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, ErrNotFound
	}
	if err != nil {
		return domain.Invite{}, err
	}

	if !inv.IsChild() {
		return domain.Invite{}, ErrWrongRole
	}
	switch inv.Status {
	case domain.InviteStatusPending, domain.InviteStatusAccepted:
	case domain.InviteStatusCanceled:
		return domain.Invite{}, ErrNotFound
	default:
		return domain.Invite{}, ErrInviteAlreadyUsed
	}
	if inv.IsExpired(now) {
		return domain.Invite{}, ErrExpired
	}

	var ok bool
	if inv.Status == domain.InviteStatusPending && !inv.FinalUse() {
		ok, err = tx.Invites().AcceptInvite(ctx, store.AcceptInviteParams{InviteID: inv.ID, UserID: childID, At: now})
	} else {
		ok, err = tx.Invites().CompleteInvite(ctx, inv.ID, childID, now)
	}
	if err != nil {
		return domain.Invite{}, err
	}
	if !ok {
		return domain.Invite{}, ErrInviteAlreadyUsed
	}

	return tx.Invites().GetInviteByID(ctx, inv.ID)
}

func (s *InviteService) defaultTTL() time.Duration {
	if s.DefaultTTL > 0 {
		return s.DefaultTTL
	}
	return domain.DefaultInviteTTL
}

func normalizeInviteParams(p *CreateInviteParams, now time.Time, ttl time.Duration) error {
	p.CliqID = strings.TrimSpace(p.CliqID)
	p.InviteeEmail = strings.TrimSpace(p.InviteeEmail)
	p.TrustedAdultContact = strings.TrimSpace(p.TrustedAdultContact)
	p.FriendFirstName = strings.TrimSpace(p.FriendFirstName)
	p.FriendLastName = strings.TrimSpace(p.FriendLastName)
	p.InviteNote = strings.TrimSpace(p.InviteNote)

	switch p.InvitedRole {
	case domain.InvitedRoleAdult:
		if p.InviteType == "" {
			p.InviteType = domain.InviteTypeAdult
		}
		if p.InviteType != domain.InviteTypeAdult {
			return invalid("adult invites must use invite_type adult")
		}
	case domain.InvitedRoleChild:
		if p.InviteType == "" {
			p.InviteType = domain.InviteTypeChild
		}
		if p.InviteType != domain.InviteTypeChild && p.InviteType != domain.InviteTypeParentApproval {
			return invalid("child invites must use invite_type child or parent_approval")
		}
		if p.TrustedAdultContact == "" {
			return invalid("trusted_adult_contact is required for child invites")
		}
		if !validEmail(p.TrustedAdultContact) {
			return invalid("trusted_adult_contact must be an email address")
		}
		if p.FriendFirstName == "" {
			return invalid("friend_first_name is required for child invites")
		}
	default:
		return invalid("invited_role must be adult or child")
	}

	if p.CliqID == "" && p.InviteType != domain.InviteTypeParentApproval {
		return ErrMissingCliq
	}
	if p.InviteeEmail != "" && !validEmail(p.InviteeEmail) {
		return invalid("invitee_email must be an email address")
	}

	if p.MaxUses == 0 {
		p.MaxUses = 1
	}
	if p.MaxUses < 1 || p.MaxUses > MaxInviteUses {
		return invalid(fmt.Sprintf("max_uses must be between 1 and %d", MaxInviteUses))
	}

	switch {
	case p.NeverExpires:
		if p.ExpiresAt != nil {
			return invalid("expires_at and never_expires are mutually exclusive")
		}
	case p.ExpiresAt != nil:
		if !p.ExpiresAt.After(now) {
			return invalid("expires_at must be in the future")
		}
		at := p.ExpiresAt.UTC()
		p.ExpiresAt = &at
	default:
		at := now.Add(ttl)
		p.ExpiresAt = &at
	}
	return nil
}

// classifyTarget snapshots what account, if any, an email belongs to.
func classifyTarget(ctx context.Context, st store.Store, email string) (domain.TargetState, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return domain.TargetNew, nil
	}

	u, err := st.Users().GetUserByEmail(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TargetNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("classify target: %w", err)
	}

	switch u.Role {
	case domain.RoleParent:
		return domain.TargetExistingParent, nil
	case domain.RoleChild:
		return domain.TargetInvalidChild, nil
	default:
		return domain.TargetExistingUserNonParent, nil
	}
}

func mintAliases(inv *domain.Invite) (string, []domain.InviteAlias, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", nil, err
	}
	code, err := idx.NewCode(CodeLength)
	if err != nil {
		return "", nil, err
	}
	joinCode, err := idx.NewCode(JoinCodeLength)
	if err != nil {
		return "", nil, err
	}

	inv.Code = code
	inv.JoinCode = joinCode
	return token, []domain.InviteAlias{
		{Hash: cryptox.FingerprintToken(token), Kind: domain.AliasToken},
		{Hash: cryptox.FingerprintToken(code), Kind: domain.AliasCode},
		{Hash: cryptox.FingerprintToken(joinCode), Kind: domain.AliasJoinCode},
	}, nil
}

// aliasHashes fingerprints a presented key as typed and in its normalized
// code form, so "abcd-2345" finds code ABCD2345.
func aliasHashes(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	hashes := []string{cryptox.FingerprintToken(key)}
	if code := idx.NormalizeCode(key); code != "" && code != key {
		hashes = append(hashes, cryptox.FingerprintToken(code))
	}
	return hashes
}

func canCancel(inv domain.Invite, caller domain.User) bool {
	if caller.ID == inv.InviterID {
		return true
	}
	if caller.ID != "" && caller.ID == inv.InvitedUserID {
		return true
	}
	return caller.EmailNormalized != "" && caller.EmailNormalized == inv.TargetEmailNormalized
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
