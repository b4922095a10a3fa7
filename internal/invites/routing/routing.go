// Package routing decides the next step for anyone arriving at an
// invite-bearing entry point. Decide is pure: every entry point (link
// redemption, a resumed session, the approval dashboard) loads the stored
// invite/approval and the caller, then asks Decide. Client-supplied "current
// step" values are never consulted.
package routing

import (
	"net/url"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
)

type Step string

const (
	StepSignup                   Step = "signup"
	StepAccept                   Step = "accept"
	StepParentSignup             Step = "parent_signup"
	StepChildCreation            Step = "child_creation"
	StepUpgradeThenChildCreation Step = "upgrade_then_child_creation"
	StepVerifyIdentity           Step = "verify_identity"
	StepRefuse                   Step = "refuse"
	StepInvalid                  Step = "invalid"
	StepExpired                  Step = "expired"
	StepApprovalDashboard        Step = "approval_dashboard"
)

// Fixed destinations.
const (
	PathInvalid   = "/invite/invalid"
	PathExpired   = "/invite/expired"
	PathRefused   = "/invite/refused"
	PathDashboard = "/dashboard"
)

// Caller is the signed-in identity as stored, not as claimed by a token.
type Caller struct {
	ID               string
	Role             domain.UserRole
	Plan             domain.Plan
	IdentityVerified bool
}

// Input is everything Decide looks at. A nil Caller is a signed-out visitor.
// Invite, Approval or both may be set.
type Input struct {
	Invite   *domain.Invite
	Approval *domain.ParentApproval
	Caller   *Caller
	Now      time.Time
}

type Decision struct {
	Step Step
	// Next is the path the visitor should be sent to.
	Next string

	InviteID   string
	ApprovalID string
}

// Decide maps stored state onto the next step.
func Decide(in Input) Decision {
	switch {
	case in.Invite != nil:
		return decideInvite(in)
	case in.Approval != nil:
		return decideApproval(in, "approval", in.Approval.ID)
	default:
		return Decision{Step: StepInvalid, Next: PathInvalid}
	}
}

func decideInvite(in Input) Decision {
	inv := in.Invite
	d := Decision{InviteID: inv.ID}

	if inv.Status == domain.InviteStatusCanceled {
		return d.to(StepInvalid, PathInvalid)
	}

	// A consumed invite only leads somewhere for the identity that consumed
	// it; accepting again is an idempotent success.
	if inv.Consumed() {
		if !inv.IsChild() && in.Caller != nil && in.Caller.ID == inv.InvitedUserID {
			return d.to(StepAccept, acceptPath(inv.ID))
		}
		return d.to(StepInvalid, PathInvalid)
	}

	if inv.IsExpired(in.Now) {
		return d.to(StepExpired, PathExpired)
	}

	if inv.TargetState == domain.TargetInvalidChild {
		return d.to(StepRefuse, PathRefused)
	}

	if !inv.IsChild() {
		if in.Caller == nil {
			q := url.Values{}
			if inv.InviteeEmail != "" {
				q.Set("email", inv.InviteeEmail)
			}
			q.Set("invite", inv.ID)
			return d.to(StepSignup, "/signup?"+q.Encode())
		}
		return d.to(StepAccept, acceptPath(inv.ID))
	}

	if in.Approval != nil {
		ad := decideApproval(in, "invite", inv.ID)
		ad.InviteID = inv.ID
		return ad
	}
	return childTable(d, in.Caller, "invite", inv.ID)
}

func decideApproval(in Input, param, id string) Decision {
	a := in.Approval
	d := Decision{ApprovalID: a.ID}

	switch a.Status {
	case domain.ApprovalExpired:
		return d.to(StepExpired, PathExpired)
	case domain.ApprovalDeclined:
		return d.to(StepInvalid, PathInvalid)
	case domain.ApprovalPending:
		if a.IsExpired(in.Now) {
			return d.to(StepExpired, PathExpired)
		}
		return d.to(StepApprovalDashboard, "/parent-approval?approval="+url.QueryEscape(a.ID))
	case domain.ApprovalApproved:
		if a.ProvisionedChildID != "" {
			return d.to(StepInvalid, PathInvalid)
		}
		return childTable(d, in.Caller, param, id)
	default:
		return d.to(StepInvalid, PathInvalid)
	}
}

// childTable is the child-invite half of the routing table.
func childTable(d Decision, c *Caller, param, id string) Decision {
	create := "/children/new?" + param + "=" + url.QueryEscape(id)

	if c == nil {
		return d.to(StepParentSignup, "/signup/parent?"+param+"="+url.QueryEscape(id))
	}

	switch c.Role {
	case domain.RoleParent:
		return d.to(StepChildCreation, create)
	case domain.RoleAdult:
		upgrade := "/account/upgrade?next=" + url.QueryEscape(create)
		if c.Plan == domain.PlanPaid || c.IdentityVerified {
			return d.to(StepUpgradeThenChildCreation, upgrade)
		}
		return d.to(StepVerifyIdentity, "/verify?next="+url.QueryEscape(upgrade))
	default:
		// A minor cannot approve another minor.
		return d.to(StepRefuse, PathRefused)
	}
}

func acceptPath(inviteID string) string {
	return "/invite/accept?invite=" + url.QueryEscape(inviteID)
}

func (d Decision) to(step Step, next string) Decision {
	d.Step = step
	d.Next = next
	return d
}
