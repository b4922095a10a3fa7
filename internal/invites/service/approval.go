package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

const birthdateLayout = "2006-01-02"

type ApprovalService struct {
	Store    store.Store
	Notifier Notifier
	Events   Publisher
	Metrics  *telemetry.Metrics
	Now      func() time.Time

	// TTL is the approval window. Zero means domain.ApprovalTTL.
	TTL time.Duration
}

type ApprovalRequest struct {
	ChildFirstName string
	ChildLastName  string
	ChildBirthdate string
	ParentEmail    string
	Context        domain.ApprovalContext
	InviteID       string

	// RequestedBy is the signed-in user filing the request, if any.
	RequestedBy string
}

// RequestedApproval holds the only copy of the raw approval token.
type RequestedApproval struct {
	Approval domain.ParentApproval
	Token    string
}

// RequestApproval records a pending approval for a child and returns its
// token. Delivery is a separate step; see Deliver.
func (s *ApprovalService) RequestApproval(ctx context.Context, req ApprovalRequest) (RequestedApproval, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ApprovalService.RequestApproval")
	defer span.End()
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	// 1. Validate.
	if err := normalizeApprovalRequest(&req, now); err != nil {
		log.Warn("approval request rejected", slog.Any("error", err))
		return RequestedApproval{}, err
	}

	a := domain.ParentApproval{
		ID:                    idx.NewAt(now).String(),
		ChildFirstName:        req.ChildFirstName,
		ChildLastName:         req.ChildLastName,
		ChildBirthdate:        req.ChildBirthdate,
		ParentEmail:           req.ParentEmail,
		ParentEmailNormalized: domain.NormalizeEmail(req.ParentEmail),
		Context:               req.Context,
		Status:                domain.ApprovalPending,
		ExpiresAt:             now.Add(s.ttl()),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// 2. A child-invite approval is bound to a live child invite. The
	// inviter and cliq names are snapshotted for the parent's email.
	if req.Context == domain.ApprovalChildInvite {
		inv, err := s.Store.Invites().GetInviteByID(ctx, req.InviteID)
		if errors.Is(err, store.ErrNotFound) {
			return RequestedApproval{}, ErrNotFound
		}
		if err != nil {
			log.Error("failed to fetch invite", slog.Any("error", err))
			return RequestedApproval{}, fmt.Errorf("get invite: %w", err)
		}
		if err := approvableInvite(inv, now); err != nil {
			log.Warn("approval requested for unusable invite",
				slog.String("invite_id", inv.ID),
				slog.Any("error", err),
			)
			return RequestedApproval{}, err
		}
		if inv.TargetEmailNormalized != "" && inv.TargetEmailNormalized != a.ParentEmailNormalized {
			log.Warn("approval requested for a parent the invite was not sent to",
				slog.String("invite_id", inv.ID),
			)
			return RequestedApproval{}, forbidden("invite was sent to a different parent")
		}

		cliq, err := s.Store.Cliqs().GetCliq(ctx, inv.CliqID)
		if err != nil {
			log.Error("failed to fetch cliq", slog.Any("error", err))
			return RequestedApproval{}, fmt.Errorf("get cliq: %w", err)
		}
		inviter, err := s.Store.Users().GetUserByID(ctx, inv.InviterID)
		if err != nil {
			log.Error("failed to fetch inviter", slog.Any("error", err))
			return RequestedApproval{}, fmt.Errorf("get inviter: %w", err)
		}

		a.InviteID = inv.ID
		a.CliqID = cliq.ID
		a.CliqName = cliq.Name
		a.InviterName = inviter.DisplayName
	}

	// 3. Classify the parent email once.
	state, err := classifyParent(ctx, s.Store, a.ParentEmailNormalized)
	if err != nil {
		if !errors.Is(err, ErrWrongRole) {
			log.Error("failed to classify parent email", slog.Any("error", err))
		}
		return RequestedApproval{}, err
	}
	a.ParentState = state

	// 4. A fresh token, never shared with invites.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate approval token", slog.Any("error", err))
		return RequestedApproval{}, err
	}
	a.TokenHash = cryptox.FingerprintToken(token)

	// 5. Persist.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Approvals().CreateApproval(ctx, a); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, domain.AuditEntry{
			ID:         idx.NewAt(now).String(),
			ActorID:    req.RequestedBy,
			Action:     domain.EventApprovalRequested,
			TargetType: "parent_approval",
			TargetID:   a.ID,
			Metadata: map[string]any{
				"context":      string(a.Context),
				"invite_id":    a.InviteID,
				"parent_state": string(a.ParentState),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		log.Error("failed to create approval", slog.Any("error", err))
		return RequestedApproval{}, fmt.Errorf("create approval: %w", err)
	}

	log.Info("parent approval requested",
		slog.String("approval_id", a.ID),
		slog.String("context", string(a.Context)),
		slog.String("parent_state", string(a.ParentState)),
		slog.Time("expires_at", a.ExpiresAt),
	)
	s.Metrics.ApprovalTransition(string(domain.ApprovalPending))
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventApprovalRequested,
		ActorID:  req.RequestedBy,
		TargetID: a.ID,
		CliqID:   a.CliqID,
		Data:     map[string]any{"context": string(a.Context), "parent_state": string(a.ParentState)},
		At:       now,
	})

	return RequestedApproval{Approval: a, Token: token}, nil
}

// Deliver sends the approval email once and records the attempt. A failed
// send leaves the approval pending; Resend can try again.
func (s *ApprovalService) Deliver(ctx context.Context, a domain.ParentApproval, token string) bool {
	log := slogx.FromContext(ctx).With(slog.String("approval_id", a.ID))

	sent := true
	if s.Notifier == nil {
		sent = false
		log.Warn("no notifier configured, approval email not sent")
	} else if err := s.Notifier.SendParentApproval(ctx, domain.ApprovalNotice{
		ApprovalID:     a.ID,
		Token:          token,
		ParentEmail:    a.ParentEmail,
		ParentState:    a.ParentState,
		Context:        a.Context,
		ChildFirstName: a.ChildFirstName,
		ChildLastName:  a.ChildLastName,
		InviterName:    a.InviterName,
		CliqName:       a.CliqName,
		ExpiresAt:      a.ExpiresAt,
	}); err != nil {
		sent = false
		log.Error("failed to send parent approval email", slog.Any("error", err))
	}

	if err := s.Store.Approvals().RecordNotification(ctx, a.ID, sent, clock(s.Now)); err != nil {
		log.Error("failed to record approval notification", slog.Any("error", err))
	}
	s.Metrics.Notification("parent_approval", sent)
	return sent
}

// Resend re-delivers the email for an approval that can still be answered.
func (s *ApprovalService) Resend(ctx context.Context, token string) (bool, error) {
	a, err := s.GetByToken(ctx, token)
	if err != nil {
		return false, err
	}
	return s.Deliver(ctx, a, token), nil
}

// GetByToken is the read path: it returns only approvals that are pending
// and inside their window, and never writes. An expired pending row is
// reported as not found.
func (s *ApprovalService) GetByToken(ctx context.Context, token string) (domain.ParentApproval, error) {
	return activeApproval(ctx, s.Store, token, clock(s.Now))
}

func activeApproval(ctx context.Context, st store.Store, token string, now time.Time) (domain.ParentApproval, error) {
	a, err := approvalByToken(ctx, st, token)
	if err != nil {
		return domain.ParentApproval{}, err
	}
	if !a.Active(now) {
		return domain.ParentApproval{}, ErrNotFound
	}
	return a, nil
}

// Approve records the parent's consent.
func (s *ApprovalService) Approve(ctx context.Context, token string) (domain.ParentApproval, error) {
	return s.respond(ctx, token, domain.ApprovalApproved)
}

// Decline records the parent's refusal.
func (s *ApprovalService) Decline(ctx context.Context, token string) (domain.ParentApproval, error) {
	return s.respond(ctx, token, domain.ApprovalDeclined)
}

func (s *ApprovalService) respond(ctx context.Context, token string, status domain.ApprovalStatus) (domain.ParentApproval, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ApprovalService.respond")
	defer span.End()
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	// 1. Resolve.
	a, err := approvalByToken(ctx, s.Store, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("approval response with unknown token")
		}
		return domain.ParentApproval{}, err
	}
	log = log.With(slog.String("approval_id", a.ID))

	// 2. Terminal states never move again.
	if a.Terminal() {
		log.Info("approval response on processed approval", slog.String("status", string(a.Status)))
		return domain.ParentApproval{}, ErrAlreadyProcessed
	}

	// 3. The write path settles expiry before failing.
	expired, err := s.expireIfDue(ctx, a, now)
	if err != nil {
		return domain.ParentApproval{}, err
	}
	if expired {
		return domain.ParentApproval{}, ErrExpired
	}

	// 4. Conditional transition; the first terminal writer wins.
	ok, err := s.Store.Approvals().Transition(ctx, a.ID, status, now)
	if err != nil {
		log.Error("failed to transition approval", slog.Any("error", err))
		return domain.ParentApproval{}, fmt.Errorf("transition approval: %w", err)
	}
	if !ok {
		log.Warn("approval processed concurrently")
		return domain.ParentApproval{}, ErrAlreadyProcessed
	}

	updated, err := s.Store.Approvals().GetApprovalByID(ctx, a.ID)
	if err != nil {
		log.Error("failed to reload approval", slog.Any("error", err))
		return domain.ParentApproval{}, fmt.Errorf("reload approval: %w", err)
	}

	s.audit(ctx, updated, status, now)
	log.Info("parent approval answered", slog.String("status", string(status)))
	return updated, nil
}

// expireIfDue writes status=expired when the window has closed. It reports
// whether the approval is now expired. Losing the write to another terminal
// transition reports already_processed.
func (s *ApprovalService) expireIfDue(ctx context.Context, a domain.ParentApproval, now time.Time) (bool, error) {
	if !a.IsExpired(now) {
		return false, nil
	}

	ok, err := s.Store.Approvals().Transition(ctx, a.ID, domain.ApprovalExpired, now)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to expire approval", slog.Any("error", err))
		return false, fmt.Errorf("expire approval: %w", err)
	}
	if ok {
		s.audit(ctx, a, domain.ApprovalExpired, now)
		return true, nil
	}

	current, err := s.Store.Approvals().GetApprovalByID(ctx, a.ID)
	if err != nil {
		return false, fmt.Errorf("reload approval: %w", err)
	}
	if current.Status == domain.ApprovalExpired {
		return true, nil
	}
	return false, ErrAlreadyProcessed
}

// BulkExpire forces each pending approval in ids to expired and returns how
// many moved. Approvals that already reached a terminal state are skipped.
func (s *ApprovalService) BulkExpire(ctx context.Context, ids []string) (int, error) {
	log := slogx.FromContext(ctx)
	now := clock(s.Now)

	n := 0
	for _, id := range ids {
		ok, err := s.Store.Approvals().Transition(ctx, id, domain.ApprovalExpired, now)
		if err != nil {
			log.Error("failed to expire approval", slog.String("approval_id", id), slog.Any("error", err))
			return n, fmt.Errorf("expire approval %s: %w", id, err)
		}
		if !ok {
			continue
		}
		n++
		s.Metrics.ApprovalTransition(string(domain.ApprovalExpired))
		publish(ctx, s.Events, domain.Event{Type: domain.EventApprovalExpired, TargetID: id, At: now})
	}

	if n > 0 {
		log.Info("approvals expired", slog.Int("count", n))
	}
	return n, nil
}

func (s *ApprovalService) audit(ctx context.Context, a domain.ParentApproval, status domain.ApprovalStatus, now time.Time) {
	action := map[domain.ApprovalStatus]string{
		domain.ApprovalApproved: domain.EventApprovalApproved,
		domain.ApprovalDeclined: domain.EventApprovalDeclined,
		domain.ApprovalExpired:  domain.EventApprovalExpired,
	}[status]

	// The parent answers by token, not as a signed-in user.
	actor := "parent:" + a.ParentEmailNormalized
	if status == domain.ApprovalExpired {
		actor = "system"
	}

	if err := s.Store.Audit().Record(ctx, domain.AuditEntry{
		ID:         idx.NewAt(now).String(),
		ActorID:    actor,
		Action:     action,
		TargetType: "parent_approval",
		TargetID:   a.ID,
		CreatedAt:  now,
	}); err != nil {
		slogx.FromContext(ctx).Warn("failed to audit approval transition", slog.Any("error", err))
	}

	s.Metrics.ApprovalTransition(string(status))
	publish(ctx, s.Events, domain.Event{
		Type:     action,
		TargetID: a.ID,
		CliqID:   a.CliqID,
		Data:     map[string]any{"context": string(a.Context)},
		At:       now,
	})
}

func (s *ApprovalService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.ApprovalTTL
}

func approvalByToken(ctx context.Context, st store.Store, token string) (domain.ParentApproval, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ParentApproval{}, ErrNotFound
	}
	a, err := st.Approvals().GetApprovalByTokenHash(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.ParentApproval{}, ErrNotFound
	}
	if err != nil {
		return domain.ParentApproval{}, fmt.Errorf("get approval: %w", err)
	}
	return a, nil
}

// approvableInvite checks that a child invite can still take an approval.
func approvableInvite(inv domain.Invite, now time.Time) error {
	switch {
	case !inv.IsChild():
		return ErrWrongRole
	case inv.Status == domain.InviteStatusCanceled:
		return ErrNotFound
	case inv.Consumed():
		return ErrInviteAlreadyUsed
	case inv.IsExpired(now):
		return ErrExpired
	case inv.CliqID == "":
		return ErrMissingCliq
	}
	return nil
}

// classifyParent snapshots the parent email's account. A child account
// cannot act as a parent.
func classifyParent(ctx context.Context, st store.Store, normalized string) (domain.ParentState, error) {
	u, err := st.Users().GetUserByEmail(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ParentNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("classify parent: %w", err)
	}

	switch u.Role {
	case domain.RoleParent:
		return domain.ParentExisting, nil
	case domain.RoleChild:
		return "", ErrWrongRole
	default:
		return domain.ParentExistingAdult, nil
	}
}

func normalizeApprovalRequest(req *ApprovalRequest, now time.Time) error {
	req.ChildFirstName = strings.TrimSpace(req.ChildFirstName)
	req.ChildLastName = strings.TrimSpace(req.ChildLastName)
	req.ChildBirthdate = strings.TrimSpace(req.ChildBirthdate)
	req.ParentEmail = strings.TrimSpace(req.ParentEmail)
	req.InviteID = strings.TrimSpace(req.InviteID)

	if req.ChildFirstName == "" || req.ChildLastName == "" {
		return invalid("child first and last name are required")
	}
	if err := validBirthdate(req.ChildBirthdate, now); err != nil {
		return err
	}
	if !validEmail(req.ParentEmail) {
		return invalid("parent_email must be an email address")
	}

	if req.Context == "" {
		req.Context = domain.ApprovalDirectSignup
		if req.InviteID != "" {
			req.Context = domain.ApprovalChildInvite
		}
	}
	switch req.Context {
	case domain.ApprovalDirectSignup:
		if req.InviteID != "" {
			return invalid("invite_id is only valid for child_invite approvals")
		}
	case domain.ApprovalChildInvite:
		if req.InviteID == "" {
			return invalid("invite_id is required for child_invite approvals")
		}
	default:
		return invalid("context must be direct_signup or child_invite")
	}
	return nil
}

func validBirthdate(s string, now time.Time) error {
	t, err := time.Parse(birthdateLayout, s)
	if err != nil {
		return invalid("birthdate must be YYYY-MM-DD")
	}
	if !t.Before(now) {
		return invalid("birthdate must be in the past")
	}
	return nil
}
