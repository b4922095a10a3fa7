package routing_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/routing"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func adultInvite() *domain.Invite {
	return &domain.Invite{
		ID:           "inv-adult",
		CliqID:       "cliq-1",
		InviteeEmail: "friend@example.com",
		InvitedRole:  domain.InvitedRoleAdult,
		InviteType:   domain.InviteTypeAdult,
		TargetState:  domain.TargetNew,
		Status:       domain.InviteStatusPending,
		MaxUses:      1,
	}
}

func childInvite() *domain.Invite {
	return &domain.Invite{
		ID:          "inv-child",
		CliqID:      "cliq-1",
		InvitedRole: domain.InvitedRoleChild,
		InviteType:  domain.InviteTypeChild,
		TargetState: domain.TargetExistingParent,
		Status:      domain.InviteStatusPending,
		MaxUses:     1,
	}
}

func caller(role domain.UserRole, plan domain.Plan, verified bool) *routing.Caller {
	return &routing.Caller{ID: "user-1", Role: role, Plan: plan, IdentityVerified: verified}
}

func TestDecideTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		invite *domain.Invite
		caller *routing.Caller
		want   routing.Step
	}{
		{"adult invite, signed out", adultInvite(), nil, routing.StepSignup},
		{"adult invite, adult", adultInvite(), caller(domain.RoleAdult, domain.PlanFree, false), routing.StepAccept},
		{"adult invite, parent", adultInvite(), caller(domain.RoleParent, domain.PlanPaid, false), routing.StepAccept},
		{"adult invite, child", adultInvite(), caller(domain.RoleChild, domain.PlanFree, false), routing.StepAccept},

		{"child invite, signed out", childInvite(), nil, routing.StepParentSignup},
		{"child invite, parent", childInvite(), caller(domain.RoleParent, domain.PlanFree, false), routing.StepChildCreation},
		{"child invite, paid adult", childInvite(), caller(domain.RoleAdult, domain.PlanPaid, false), routing.StepUpgradeThenChildCreation},
		{"child invite, verified free adult", childInvite(), caller(domain.RoleAdult, domain.PlanFree, true), routing.StepUpgradeThenChildCreation},
		{"child invite, free adult", childInvite(), caller(domain.RoleAdult, domain.PlanFree, false), routing.StepVerifyIdentity},
		{"child invite, child", childInvite(), caller(domain.RoleChild, domain.PlanFree, false), routing.StepRefuse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := routing.Decide(routing.Input{Invite: tt.invite, Caller: tt.caller, Now: now})
			require.Equal(t, tt.want, d.Step)
			require.Equal(t, tt.invite.ID, d.InviteID)
			require.NotEmpty(t, d.Next)
		})
	}
}

func TestDecideInviteState(t *testing.T) {
	t.Parallel()

	adult := caller(domain.RoleAdult, domain.PlanFree, false)

	t.Run("nothing to resume", func(t *testing.T) {
		d := routing.Decide(routing.Input{Now: now})
		require.Equal(t, routing.StepInvalid, d.Step)
		require.Equal(t, routing.PathInvalid, d.Next)
	})

	t.Run("canceled", func(t *testing.T) {
		inv := adultInvite()
		inv.Status = domain.InviteStatusCanceled
		d := routing.Decide(routing.Input{Invite: inv, Caller: adult, Now: now})
		require.Equal(t, routing.StepInvalid, d.Step)
	})

	t.Run("expired", func(t *testing.T) {
		inv := adultInvite()
		past := now.Add(-time.Second)
		inv.ExpiresAt = &past
		d := routing.Decide(routing.Input{Invite: inv, Caller: adult, Now: now})
		require.Equal(t, routing.StepExpired, d.Step)
		require.Equal(t, routing.PathExpired, d.Next)
	})

	t.Run("expiry is exclusive of now", func(t *testing.T) {
		inv := adultInvite()
		inv.ExpiresAt = &now
		d := routing.Decide(routing.Input{Invite: inv, Caller: adult, Now: now})
		require.Equal(t, routing.StepExpired, d.Step)
	})

	t.Run("consumed by caller", func(t *testing.T) {
		inv := adultInvite()
		inv.Status = domain.InviteStatusAccepted
		inv.Used = true
		inv.InvitedUserID = adult.ID
		d := routing.Decide(routing.Input{Invite: inv, Caller: adult, Now: now})
		require.Equal(t, routing.StepAccept, d.Step)
	})

	t.Run("consumed by someone else", func(t *testing.T) {
		inv := adultInvite()
		inv.Status = domain.InviteStatusAccepted
		inv.Used = true
		inv.InvitedUserID = "other"
		d := routing.Decide(routing.Input{Invite: inv, Caller: adult, Now: now})
		require.Equal(t, routing.StepInvalid, d.Step)
	})

	t.Run("completed child invite", func(t *testing.T) {
		inv := childInvite()
		inv.Status = domain.InviteStatusCompleted
		inv.Used = true
		d := routing.Decide(routing.Input{Invite: inv, Caller: caller(domain.RoleParent, domain.PlanFree, false), Now: now})
		require.Equal(t, routing.StepInvalid, d.Step)
	})

	t.Run("recipient is a child account", func(t *testing.T) {
		inv := childInvite()
		inv.TargetState = domain.TargetInvalidChild
		d := routing.Decide(routing.Input{Invite: inv, Now: now})
		require.Equal(t, routing.StepRefuse, d.Step)
		require.Equal(t, routing.PathRefused, d.Next)
	})

	t.Run("parent approval invite routes like a child invite", func(t *testing.T) {
		inv := childInvite()
		inv.InviteType = domain.InviteTypeParentApproval
		inv.CliqID = ""
		d := routing.Decide(routing.Input{Invite: inv, Now: now})
		require.Equal(t, routing.StepParentSignup, d.Step)
	})
}

func TestDecideNextPaths(t *testing.T) {
	t.Parallel()

	t.Run("signup is prefilled", func(t *testing.T) {
		d := routing.Decide(routing.Input{Invite: adultInvite(), Now: now})
		u, err := url.Parse(d.Next)
		require.NoError(t, err)
		require.Equal(t, "/signup", u.Path)
		require.Equal(t, "friend@example.com", u.Query().Get("email"))
		require.Equal(t, "inv-adult", u.Query().Get("invite"))
	})

	t.Run("parent signup is the dedicated form", func(t *testing.T) {
		d := routing.Decide(routing.Input{Invite: childInvite(), Now: now})
		require.Equal(t, "/signup/parent?invite=inv-child", d.Next)
	})

	t.Run("verify leads to upgrade then child creation", func(t *testing.T) {
		d := routing.Decide(routing.Input{
			Invite: childInvite(),
			Caller: caller(domain.RoleAdult, domain.PlanFree, false),
			Now:    now,
		})
		u, err := url.Parse(d.Next)
		require.NoError(t, err)
		require.Equal(t, "/verify", u.Path)

		upgrade, err := url.Parse(u.Query().Get("next"))
		require.NoError(t, err)
		require.Equal(t, "/account/upgrade", upgrade.Path)
		require.Equal(t, "/children/new?invite=inv-child", upgrade.Query().Get("next"))
	})
}

func TestDecideApproval(t *testing.T) {
	t.Parallel()

	approval := func(status domain.ApprovalStatus, expires time.Time) *domain.ParentApproval {
		return &domain.ParentApproval{ID: "appr-1", Status: status, ExpiresAt: expires}
	}
	parent := caller(domain.RoleParent, domain.PlanFree, false)
	later := now.Add(time.Hour)

	tests := []struct {
		name     string
		approval *domain.ParentApproval
		caller   *routing.Caller
		want     routing.Step
	}{
		{"pending", approval(domain.ApprovalPending, later), parent, routing.StepApprovalDashboard},
		{"pending past expiry", approval(domain.ApprovalPending, now.Add(-time.Second)), parent, routing.StepExpired},
		{"expired", approval(domain.ApprovalExpired, later), parent, routing.StepExpired},
		{"declined", approval(domain.ApprovalDeclined, later), parent, routing.StepInvalid},
		{"approved, parent", approval(domain.ApprovalApproved, later), parent, routing.StepChildCreation},
		{"approved, signed out", approval(domain.ApprovalApproved, later), nil, routing.StepParentSignup},
		{"approved, free adult", approval(domain.ApprovalApproved, later), caller(domain.RoleAdult, domain.PlanFree, false), routing.StepVerifyIdentity},
		{"approved, child", approval(domain.ApprovalApproved, later), caller(domain.RoleChild, domain.PlanFree, false), routing.StepRefuse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := routing.Decide(routing.Input{Approval: tt.approval, Caller: tt.caller, Now: now})
			require.Equal(t, tt.want, d.Step)
			require.Equal(t, "appr-1", d.ApprovalID)
		})
	}

	t.Run("approved and already provisioned", func(t *testing.T) {
		a := approval(domain.ApprovalApproved, later)
		a.ProvisionedChildID = "child-1"
		d := routing.Decide(routing.Input{Approval: a, Caller: parent, Now: now})
		require.Equal(t, routing.StepInvalid, d.Step)
	})

	t.Run("child creation carries the approval", func(t *testing.T) {
		d := routing.Decide(routing.Input{Approval: approval(domain.ApprovalApproved, later), Caller: parent, Now: now})
		require.Equal(t, "/children/new?approval=appr-1", d.Next)
	})

	t.Run("child invite with a pending approval", func(t *testing.T) {
		d := routing.Decide(routing.Input{
			Invite:   childInvite(),
			Approval: approval(domain.ApprovalPending, later),
			Caller:   parent,
			Now:      now,
		})
		require.Equal(t, routing.StepApprovalDashboard, d.Step)
		require.Equal(t, "inv-child", d.InviteID)
	})

	t.Run("child invite with an approved approval", func(t *testing.T) {
		d := routing.Decide(routing.Input{
			Invite:   childInvite(),
			Approval: approval(domain.ApprovalApproved, later),
			Caller:   parent,
			Now:      now,
		})
		require.Equal(t, routing.StepChildCreation, d.Step)
		require.Equal(t, "/children/new?invite=inv-child", d.Next)
	})
}

func TestDecideIsDeterministic(t *testing.T) {
	t.Parallel()

	in := routing.Input{Invite: childInvite(), Caller: caller(domain.RoleAdult, domain.PlanPaid, false), Now: now}
	first := routing.Decide(in)
	for range 50 {
		require.Equal(t, first, routing.Decide(in))
	}
}
