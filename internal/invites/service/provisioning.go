package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// Provisioning origins, recorded in the audit log and metrics.
const (
	OriginApproval   = "approval"
	OriginInviteCode = "invite_code"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._]{2,31}$`)

type ProvisioningService struct {
	Store   store.Store
	Hasher  *cryptox.Hasher
	Events  Publisher
	Metrics *telemetry.Metrics
	Now     func() time.Time

	// TTL stamps the consent record written for the invite-code origin.
	// Zero means domain.ApprovalTTL.
	TTL time.Duration
}

type ProvisionRequest struct {
	Username string
	Password string

	// Child identity. Ignored for the approval origin, where the approved
	// identity is used.
	FirstName string
	LastName  string
	Birthdate string

	Permissions domain.ChildPermissions

	// Exactly one origin.
	InviteCode    string
	ApprovalToken string
}

type ProvisionedChild struct {
	Child      domain.User
	Profile    domain.ChildProfile
	Settings   domain.ChildSettings
	Approval   domain.ParentApproval
	Invite     *domain.Invite
	Membership *domain.Membership
}

// origin is the resolved consent behind a provisioning request.
type origin struct {
	kind        string
	approval    domain.ParentApproval
	hasApproval bool
	invite      *domain.Invite
}

// ProvisionChild creates a child account for parent in one transaction:
// identity, profile, safety settings, parent link, then membership and
// invite completion when the origin carries an invite. Nothing survives a
// failure at any step.
func (s *ProvisioningService) ProvisionChild(ctx context.Context, parent domain.User, req ProvisionRequest) (ProvisionedChild, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ProvisioningService.ProvisionChild")
	defer span.End()
	log := slogx.FromContext(ctx).With(slog.String("parent_id", parent.ID))
	now := clock(s.Now)

	// 1. Validate input before touching the store.
	if err := normalizeProvisionRequest(&req); err != nil {
		log.Warn("provision request rejected", slog.Any("error", err))
		return ProvisionedChild{}, err
	}
	if parent.Role != domain.RoleParent {
		log.Warn("provisioning attempted by non-parent", slog.String("role", string(parent.Role)))
		return ProvisionedChild{}, ErrWrongRole
	}

	// 2. Resolve the origin and the child identity it vouches for.
	src, err := s.resolveOrigin(ctx, parent, &req, now)
	if err != nil {
		return ProvisionedChild{}, err
	}
	if err := validBirthdate(req.Birthdate, now); err != nil {
		return ProvisionedChild{}, err
	}

	// 3. Hash outside the transaction; argon2 is slow on purpose.
	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		log.Error("failed to hash child password", slog.Any("error", err))
		return ProvisionedChild{}, fmt.Errorf("hash password: %w", err)
	}

	out := ProvisionedChild{
		Child: domain.User{
			ID:           idx.NewAt(now).String(),
			Username:     req.Username,
			PasswordHash: hash,
			DisplayName:  req.FirstName,
			Role:         domain.RoleChild,
			Plan:         domain.PlanFree,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	out.Profile = domain.ChildProfile{
		UserID:    out.Child.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthdate: req.Birthdate,
	}
	out.Settings = domain.DefaultChildSettings(out.Child.ID).Apply(req.Permissions)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 4. Username uniqueness is the insert itself.
		if err := tx.Users().CreateUser(ctx, out.Child); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameTaken
			}
			return err
		}

		// 5. Profile and safety settings with the identity.
		if err := tx.Children().CreateProfile(ctx, out.Profile); err != nil {
			return err
		}
		if err := tx.Children().CreateSettings(ctx, out.Settings); err != nil {
			return err
		}

		// 6. Parent link.
		if err := tx.Children().LinkParent(ctx, parent.ID, out.Child.ID, now); err != nil {
			return err
		}

		// 7. Consent. A parent entering a child invite code consents here.
		approval := src.approval
		if !src.hasApproval {
			consent, err := s.consentFor(ctx, tx, parent, req, src.invite, now)
			if err != nil {
				return err
			}
			approval = consent
		}
		ok, err := tx.Approvals().MarkProvisioned(ctx, approval.ID, out.Child.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		if out.Approval, err = tx.Approvals().GetApprovalByID(ctx, approval.ID); err != nil {
			return err
		}

		// 8. Membership and invite completion. The child joins strictly
		// after the consent it rests on was recorded.
		if src.invite != nil {
			if src.invite.CliqID != "" {
				m := domain.Membership{
					ID:       idx.NewAt(now).String(),
					UserID:   out.Child.ID,
					CliqID:   src.invite.CliqID,
					Role:     domain.MemberChild,
					JoinedAt: joinedAfter(out.Approval.CreatedAt, now),
				}
				if _, err := tx.Memberships().AddMembership(ctx, m); err != nil {
					return err
				}
				out.Membership = &m
			}

			inv, err := completeInTx(ctx, tx, src.invite.ID, out.Child.ID, now)
			if err != nil {
				return err
			}
			out.Invite = &inv
		}

		// 9. Audit.
		meta := map[string]any{
			"origin":      src.kind,
			"approval_id": out.Approval.ID,
			"username":    out.Child.Username,
			"settings": map[string]any{
				"invites_enabled":          out.Settings.InvitesEnabled,
				"require_approval_invites": out.Settings.RequireApprovalInvites,
				"require_approval_posts":   out.Settings.RequireApprovalPosts,
				"moderation_level":         out.Settings.ModerationLevel,
			},
		}
		if out.Invite != nil {
			meta["invite_id"] = out.Invite.ID
			meta["cliq_id"] = out.Invite.CliqID
		}
		return tx.Audit().Record(ctx, domain.AuditEntry{
			ID:         idx.NewAt(now).String(),
			ActorID:    parent.ID,
			Action:     domain.EventChildProvisioned,
			TargetType: "user",
			TargetID:   out.Child.ID,
			Metadata:   meta,
			CreatedAt:  now,
		})
	})
	if err != nil {
		var reason *Error
		if errors.As(err, &reason) {
			log.Warn("child provisioning refused", slog.String("reason", string(reason.Reason)))
			return ProvisionedChild{}, err
		}
		log.Error("child provisioning failed", slog.Any("error", err))
		return ProvisionedChild{}, fmt.Errorf("provision child: %w", err)
	}

	log.Info("child provisioned",
		slog.String("child_id", out.Child.ID),
		slog.String("origin", src.kind),
		slog.String("approval_id", out.Approval.ID),
	)
	s.Metrics.ChildProvisioned(src.kind)
	data := map[string]any{"origin": src.kind, "approval_id": out.Approval.ID}
	var cliqID string
	if out.Invite != nil {
		s.Metrics.InviteTransition(string(out.Invite.Status))
		cliqID = out.Invite.CliqID
		data["invite_id"] = out.Invite.ID
		if out.Invite.Status == domain.InviteStatusCompleted {
			publish(ctx, s.Events, domain.Event{
				Type:     domain.EventInviteCompleted,
				ActorID:  parent.ID,
				TargetID: out.Invite.ID,
				CliqID:   cliqID,
				At:       now,
			})
		}
	}
	publish(ctx, s.Events, domain.Event{
		Type:     domain.EventChildProvisioned,
		ActorID:  parent.ID,
		TargetID: out.Child.ID,
		CliqID:   cliqID,
		Data:     data,
		At:       now,
	})

	return out, nil
}

// resolveOrigin loads the approval or invite named by req and fills in the
// child identity it covers.
func (s *ProvisioningService) resolveOrigin(ctx context.Context, parent domain.User, req *ProvisionRequest, now time.Time) (origin, error) {
	log := slogx.FromContext(ctx)

	if req.ApprovalToken != "" {
		a, err := approvalByToken(ctx, s.Store, req.ApprovalToken)
		if err != nil {
			return origin{}, err
		}

		switch a.Status {
		case domain.ApprovalPending:
			if a.IsExpired(now) {
				return origin{}, ErrExpired
			}
			return origin{}, forbidden("approval has not been granted")
		case domain.ApprovalExpired:
			return origin{}, ErrExpired
		case domain.ApprovalDeclined:
			return origin{}, ErrAlreadyProcessed
		}
		if a.ProvisionedChildID != "" {
			return origin{}, ErrAlreadyProcessed
		}
		if parent.EmailNormalized == "" || parent.EmailNormalized != a.ParentEmailNormalized {
			log.Warn("approval used by a different parent", slog.String("approval_id", a.ID))
			return origin{}, forbidden("approval was granted to a different parent")
		}

		req.FirstName = a.ChildFirstName
		req.LastName = a.ChildLastName
		req.Birthdate = a.ChildBirthdate

		src := origin{kind: OriginApproval, approval: a, hasApproval: true}
		if a.InviteID != "" {
			inv, err := s.Store.Invites().GetInviteByID(ctx, a.InviteID)
			if err != nil {
				log.Error("failed to fetch approval invite", slog.Any("error", err))
				return origin{}, fmt.Errorf("get invite: %w", err)
			}
			if inv.TargetEmailNormalized != "" && inv.TargetEmailNormalized != parent.EmailNormalized {
				log.Warn("approval invite was sent to a different parent", slog.String("invite_id", inv.ID))
				return origin{}, forbidden("invite was sent to a different parent")
			}
			src.invite = &inv
		}
		return src, nil
	}

	inv, err := lookupInvite(ctx, s.Store, req.InviteCode)
	if err != nil {
		return origin{}, err
	}
	if err := approvableInvite(inv, now); err != nil {
		if !errors.Is(err, ErrMissingCliq) || inv.InviteType != domain.InviteTypeParentApproval {
			return origin{}, err
		}
	}
	if inv.TargetEmailNormalized != "" && inv.TargetEmailNormalized != parent.EmailNormalized {
		log.Warn("child invite code used by a different adult", slog.String("invite_id", inv.ID))
		return origin{}, forbidden("invite was sent to a different parent")
	}

	if req.FirstName == "" {
		req.FirstName = inv.FriendFirstName
	}
	if req.LastName == "" {
		req.LastName = inv.FriendLastName
	}
	if req.FirstName == "" || req.LastName == "" {
		return origin{}, invalid("child first and last name are required")
	}
	return origin{kind: OriginInviteCode, invite: &inv}, nil
}

// joinedAfter returns now, or the earliest instant after consentAt when the
// consent was recorded at the same clock reading.
func joinedAfter(consentAt, now time.Time) time.Time {
	if consentAt.Before(now) {
		return now
	}
	return consentAt.Add(time.Millisecond)
}

// consentFor writes the approved record for a parent provisioning straight
// from a child invite code.
func (s *ProvisioningService) consentFor(ctx context.Context, tx store.Tx, parent domain.User, req ProvisionRequest, inv *domain.Invite, now time.Time) (domain.ParentApproval, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.ParentApproval{}, err
	}

	a := domain.ParentApproval{
		ID:                    idx.NewAt(now).String(),
		TokenHash:             cryptox.FingerprintToken(token),
		ChildFirstName:        req.FirstName,
		ChildLastName:         req.LastName,
		ChildBirthdate:        req.Birthdate,
		ParentEmail:           parent.EmailNormalized,
		ParentEmailNormalized: parent.EmailNormalized,
		ParentState:           domain.ParentExisting,
		Context:               domain.ApprovalDirectSignup,
		Status:                domain.ApprovalApproved,
		ApprovedAt:            &now,
		ExpiresAt:             now.Add(s.ttl()),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if inv.CliqID != "" {
		a.Context = domain.ApprovalChildInvite
		a.InviteID = inv.ID
		a.CliqID = inv.CliqID
		if cliq, err := tx.Cliqs().GetCliq(ctx, inv.CliqID); err == nil {
			a.CliqName = cliq.Name
		}
		if inviter, err := tx.Users().GetUserByID(ctx, inv.InviterID); err == nil {
			a.InviterName = inviter.DisplayName
		}
	}

	if err := tx.Approvals().CreateApproval(ctx, a); err != nil {
		return domain.ParentApproval{}, err
	}
	return a, nil
}

func (s *ProvisioningService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.ApprovalTTL
}

func normalizeProvisionRequest(req *ProvisionRequest) error {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Birthdate = strings.TrimSpace(req.Birthdate)
	req.InviteCode = strings.TrimSpace(req.InviteCode)
	req.ApprovalToken = strings.TrimSpace(req.ApprovalToken)

	if (req.InviteCode == "") == (req.ApprovalToken == "") {
		return invalid("exactly one of invite_code and approval_token is required")
	}
	if req.Username == "" || req.Password == "" {
		return ErrMissingChildCredentials
	}
	if !usernamePattern.MatchString(req.Username) {
		return invalid("username must be 3-32 characters of a-z, 0-9, '.' or '_'")
	}
	if err := cryptox.ValidatePassword(req.Password); err != nil {
		return invalid(err.Error())
	}
	return nil
}
