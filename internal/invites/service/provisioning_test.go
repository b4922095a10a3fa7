package service_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestProvisionFromApprovedInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	parent := e.user("mum@example.com", domain.RoleParent, domain.PlanPaid)

	inv := e.childInvite(owner, cliq, "mum@example.com")
	req := e.requestApproval(inv.Invite.ID, "mum@example.com")
	_, err := e.approvals.Approve(e.ctx, req.Token)
	require.NoError(t, err)

	on := true
	out, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
		Username:      "  Mia.Lee ",
		Password:      "correct horse",
		FirstName:     "Ignored",
		Permissions:   domain.ChildPermissions{InvitesEnabled: &on},
		ApprovalToken: req.Token,
	})
	require.NoError(t, err)

	// Identity from the approval, not the request.
	require.Equal(t, "mia.lee", out.Child.Username)
	require.Equal(t, domain.RoleChild, out.Child.Role)
	require.Equal(t, "Mia", out.Profile.FirstName)
	require.Equal(t, "2015-06-01", out.Profile.Birthdate)

	settings, err := e.store.Children().GetSettings(e.ctx, out.Child.ID)
	require.NoError(t, err)
	require.True(t, settings.InvitesEnabled)
	require.True(t, settings.RequireApprovalInvites)
	require.True(t, settings.RequireApprovalPosts)
	require.Equal(t, domain.ModerationStrict, settings.ModerationLevel)

	linked, err := e.store.Children().IsParentOf(e.ctx, parent.ID, out.Child.ID)
	require.NoError(t, err)
	require.True(t, linked)

	require.NotNil(t, out.Membership)
	require.Equal(t, domain.MemberChild, out.Membership.Role)
	require.Equal(t, domain.InviteStatusCompleted, e.invite(inv.Invite.ID).Status)
	require.Equal(t, out.Child.ID, e.approval(req.Approval.ID).ProvisionedChildID)

	entries, err := e.store.Audit().ListByTarget(e.ctx, "user", out.Child.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, parent.ID, entries[0].ActorID)
	require.Equal(t, service.OriginApproval, entries[0].Metadata["origin"])

	e.requireChildSafety(cliq.ID)
	require.Contains(t, e.events.types(), domain.EventInviteCompleted)
	require.Contains(t, e.events.types(), domain.EventChildProvisioned)

	t.Run("an approval provisions once", func(t *testing.T) {
		_, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
			Username: "mia2", Password: "correct horse", ApprovalToken: req.Token,
		})
		require.ErrorIs(t, err, service.ErrAlreadyProcessed)
	})
}

func TestProvisionDirectSignup(t *testing.T) {
	e := newEnv(t)
	parent := e.user("dad@example.com", domain.RoleParent, domain.PlanFree)
	req := e.requestApproval("", "dad@example.com")

	t.Run("pending approval is not consent", func(t *testing.T) {
		_, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
			Username: "mia", Password: "correct horse", ApprovalToken: req.Token,
		})
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	_, err := e.approvals.Approve(e.ctx, req.Token)
	require.NoError(t, err)

	t.Run("only the approving parent", func(t *testing.T) {
		other := e.user("other@example.com", domain.RoleParent, domain.PlanFree)
		_, err := e.provisioning.ProvisionChild(e.ctx, other, service.ProvisionRequest{
			Username: "mia", Password: "correct horse", ApprovalToken: req.Token,
		})
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	out, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
		Username: "mia", Password: "correct horse", ApprovalToken: req.Token,
	})
	require.NoError(t, err)
	require.Nil(t, out.Membership)
	require.Nil(t, out.Invite)
	require.False(t, out.Settings.InvitesEnabled)
}

func TestProvisionFromInviteCode(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	parent := e.user("mum@example.com", domain.RoleParent, domain.PlanFree)
	inv := e.childInvite(owner, cliq, "mum@example.com")

	out, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
		Username:   "mia",
		Password:   "correct horse",
		Birthdate:  "2015-06-01",
		InviteCode: inv.Invite.Code,
	})
	require.NoError(t, err)
	require.Equal(t, "Mia", out.Profile.FirstName)
	require.Equal(t, "Lee", out.Profile.LastName)

	// The parent's direct consent is on record.
	require.Equal(t, domain.ApprovalApproved, out.Approval.Status)
	require.Equal(t, domain.ApprovalChildInvite, out.Approval.Context)
	require.Equal(t, inv.Invite.ID, out.Approval.InviteID)
	require.Equal(t, out.Child.ID, out.Approval.ProvisionedChildID)

	require.Equal(t, domain.InviteStatusCompleted, e.invite(inv.Invite.ID).Status)
	require.NotNil(t, out.Membership)
	require.True(t, out.Approval.CreatedAt.Before(out.Membership.JoinedAt))
	e.requireChildSafety(cliq.ID)

	t.Run("completed invite cannot provision again", func(t *testing.T) {
		_, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
			Username: "mia2", Password: "correct horse", Birthdate: "2015-06-01", InviteCode: inv.Invite.Code,
		})
		require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
	})

	t.Run("invite sent to another parent", func(t *testing.T) {
		other := e.user("other@example.com", domain.RoleParent, domain.PlanFree)
		fresh := e.childInvite(owner, cliq, "mum@example.com")
		_, err := e.provisioning.ProvisionChild(e.ctx, other, service.ProvisionRequest{
			Username: "zoe", Password: "correct horse", Birthdate: "2015-06-01", InviteCode: fresh.Invite.Code,
		})
		require.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestProvisionApprovalForAnotherFamilysInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	stranger := e.user("stranger@example.com", domain.RoleParent, domain.PlanFree)
	inv := e.childInvite(owner, cliq, "mum@example.com")

	// An approved record for a parent the invite was not sent to.
	approvedAt := e.now
	require.NoError(t, e.store.Approvals().CreateApproval(e.ctx, domain.ParentApproval{
		ID:                    idx.NewAt(e.now).String(),
		TokenHash:             cryptox.FingerprintToken("stale-approval-token"),
		ChildFirstName:        "Mia",
		ChildLastName:         "Lee",
		ChildBirthdate:        "2015-06-01",
		ParentEmail:           stranger.EmailNormalized,
		ParentEmailNormalized: stranger.EmailNormalized,
		ParentState:           domain.ParentExisting,
		Context:               domain.ApprovalChildInvite,
		InviteID:              inv.Invite.ID,
		CliqID:                cliq.ID,
		Status:                domain.ApprovalApproved,
		ApprovedAt:            &approvedAt,
		ExpiresAt:             e.now.Add(domain.ApprovalTTL),
		CreatedAt:             e.now,
		UpdatedAt:             e.now,
	}))
	e.advance(time.Minute)

	_, err := e.provisioning.ProvisionChild(e.ctx, stranger, service.ProvisionRequest{
		Username: "mia", Password: "correct horse", ApprovalToken: "stale-approval-token",
	})
	require.ErrorIs(t, err, service.ErrForbidden)

	for _, m := range e.members(cliq.ID) {
		require.NotEqual(t, domain.MemberChild, m.Role)
	}
	require.Equal(t, domain.InviteStatusPending, e.invite(inv.Invite.ID).Status)
}

func TestProvisionUsernameTakenRollsBack(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	parent := e.user("mum@example.com", domain.RoleParent, domain.PlanFree)
	inv := e.childInvite(owner, cliq, "mum@example.com")

	taken := domain.User{ID: "01JTAKEN0000000000000000000", Username: "mia", Role: domain.RoleChild, CreatedAt: e.now}
	require.NoError(t, e.store.Users().CreateUser(e.ctx, taken))

	_, err := e.provisioning.ProvisionChild(e.ctx, parent, service.ProvisionRequest{
		Username:   "mia",
		Password:   "correct horse",
		Birthdate:  "2015-06-01",
		InviteCode: inv.Invite.JoinCode,
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)

	require.Equal(t, domain.InviteStatusPending, e.invite(inv.Invite.ID).Status)
	require.Len(t, e.members(cliq.ID), 1)

	approved, err := e.store.Approvals().FindApproved(e.ctx, "Mia", "Lee", "2015-06-01")
	require.NoError(t, err)
	require.Empty(t, approved)

	_, err = e.store.Children().GetProfile(e.ctx, taken.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProvisionValidation(t *testing.T) {
	e := newEnv(t)
	parent := e.user("mum@example.com", domain.RoleParent, domain.PlanFree)
	adult := e.user("adult@example.com", domain.RoleAdult, domain.PlanPaid)

	tests := []struct {
		name   string
		caller domain.User
		req    service.ProvisionRequest
		want   error
	}{
		{"no origin", parent, service.ProvisionRequest{Username: "mia", Password: "correct horse"}, service.ErrInvalidRequest},
		{"both origins", parent, service.ProvisionRequest{Username: "mia", Password: "correct horse", InviteCode: "X", ApprovalToken: "Y"}, service.ErrInvalidRequest},
		{"no credentials", parent, service.ProvisionRequest{ApprovalToken: "Y"}, service.ErrMissingChildCredentials},
		{"bad username", parent, service.ProvisionRequest{Username: "m!", Password: "correct horse", ApprovalToken: "Y"}, service.ErrInvalidRequest},
		{"short password", parent, service.ProvisionRequest{Username: "mia", Password: "short", ApprovalToken: "Y"}, service.ErrInvalidRequest},
		{"not a parent", adult, service.ProvisionRequest{Username: "mia", Password: "correct horse", ApprovalToken: "Y"}, service.ErrWrongRole},
		{"unknown approval", parent, service.ProvisionRequest{Username: "mia", Password: "correct horse", ApprovalToken: "Y"}, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.provisioning.ProvisionChild(e.ctx, tt.caller, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
