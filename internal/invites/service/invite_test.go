package service_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/stretchr/testify/require"
)

func TestCreateInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)

	t.Run("adult invite resolves by every alias", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		inv := created.Invite

		require.Len(t, inv.Code, service.CodeLength)
		require.Len(t, inv.JoinCode, service.JoinCodeLength)
		require.Equal(t, domain.TargetNew, inv.TargetState)
		require.Equal(t, domain.InviteStatusPending, inv.Status)
		require.NotNil(t, inv.ExpiresAt)
		require.Equal(t, e.now.Add(domain.DefaultInviteTTL), *inv.ExpiresAt)

		lowered := strings.ToLower(inv.Code[:4]) + "-" + strings.ToLower(inv.Code[4:])
		for _, key := range []string{created.Token, inv.Code, inv.JoinCode, lowered, "  " + inv.JoinCode + " "} {
			got, err := e.invites.Lookup(e.ctx, key)
			require.NoError(t, err, key)
			require.Equal(t, inv.ID, got.ID)
		}

		_, err := e.invites.Lookup(e.ctx, "ZZZZZZZZ")
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("classifies the recipient", func(t *testing.T) {
		e.user("adult@example.com", domain.RoleAdult, domain.PlanFree)
		e.user("parent@example.com", domain.RoleParent, domain.PlanFree)
		e.user("kid@example.com", domain.RoleChild, domain.PlanFree)

		adult, err := e.invites.CreateInvite(e.ctx, owner, service.CreateInviteParams{
			CliqID: cliq.ID, InviteeEmail: "Adult@Example.com", InvitedRole: domain.InvitedRoleAdult,
		})
		require.NoError(t, err)
		require.Equal(t, domain.TargetExistingUserNonParent, adult.Invite.TargetState)
		require.Equal(t, "adult@example.com", adult.Invite.TargetEmailNormalized)

		child := e.childInvite(owner, cliq, "parent@example.com")
		require.Equal(t, domain.TargetExistingParent, child.Invite.TargetState)
		require.True(t, child.Invite.ParentAccountExists)

		refused := e.childInvite(owner, cliq, "kid@example.com")
		require.Equal(t, domain.TargetInvalidChild, refused.Invite.TargetState)
	})

	t.Run("validation", func(t *testing.T) {
		past := e.now.Add(-time.Minute)
		tests := []struct {
			name string
			p    service.CreateInviteParams
			want error
		}{
			{"unknown role", service.CreateInviteParams{CliqID: cliq.ID, InvitedRole: "admin"}, service.ErrInvalidRequest},
			{"no cliq", service.CreateInviteParams{InvitedRole: domain.InvitedRoleAdult}, service.ErrMissingCliq},
			{"past expiry", service.CreateInviteParams{CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult, ExpiresAt: &past}, service.ErrInvalidRequest},
			{"too many uses", service.CreateInviteParams{CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult, MaxUses: 1000}, service.ErrInvalidRequest},
			{"child without contact", service.CreateInviteParams{CliqID: cliq.ID, InvitedRole: domain.InvitedRoleChild, FriendFirstName: "Mia"}, service.ErrInvalidRequest},
			{"bad email", service.CreateInviteParams{CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult, InviteeEmail: "nope"}, service.ErrInvalidRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.invites.CreateInvite(e.ctx, owner, tt.p)
				require.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("never expires", func(t *testing.T) {
		created, err := e.invites.CreateInvite(e.ctx, owner, service.CreateInviteParams{
			CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult, NeverExpires: true,
		})
		require.NoError(t, err)
		require.Nil(t, created.Invite.ExpiresAt)
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		stranger := e.user("stranger@example.com", domain.RoleAdult, domain.PlanFree)
		_, err := e.invites.CreateInvite(e.ctx, stranger, service.CreateInviteParams{
			CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult,
		})
		require.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestAcceptInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)

	t.Run("accept then repeat", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		friend := e.user("friend1@example.com", domain.RoleAdult, domain.PlanFree)

		res, err := e.invites.AcceptInvite(e.ctx, created.Invite.Code, friend)
		require.NoError(t, err)
		require.False(t, res.AlreadyMember)
		require.Equal(t, domain.MemberAdult, res.Membership.Role)
		require.Equal(t, domain.InviteStatusAccepted, res.Invite.Status)
		require.True(t, res.Invite.Used)
		require.Equal(t, friend.ID, res.Invite.InvitedUserID)
		require.NotNil(t, e.reload(friend).ContactVerifiedAt)

		again, err := e.invites.AcceptInvite(e.ctx, created.Token, friend)
		require.NoError(t, err)
		require.True(t, again.AlreadyMember)
		require.Equal(t, res.Membership.ID, again.Membership.ID)
	})

	t.Run("another user after consumption", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		first := e.user("first@example.com", domain.RoleAdult, domain.PlanFree)
		second := e.user("second@example.com", domain.RoleParent, domain.PlanFree)

		_, err := e.invites.AcceptInvite(e.ctx, created.Invite.JoinCode, first)
		require.NoError(t, err)

		_, err = e.invites.AcceptInvite(e.ctx, created.Invite.JoinCode, second)
		require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
	})

	t.Run("expired", func(t *testing.T) {
		expires := e.now.Add(time.Hour)
		created, err := e.invites.CreateInvite(e.ctx, owner, service.CreateInviteParams{
			CliqID: cliq.ID, InvitedRole: domain.InvitedRoleAdult, ExpiresAt: &expires,
		})
		require.NoError(t, err)
		friend := e.user("late@example.com", domain.RoleAdult, domain.PlanFree)

		e.advance(time.Hour + time.Second)
		_, err = e.invites.AcceptInvite(e.ctx, created.Token, friend)
		require.ErrorIs(t, err, service.ErrExpired)
		require.Equal(t, domain.InviteStatusPending, e.invite(created.Invite.ID).Status)
	})

	t.Run("child invite is never accepted directly", func(t *testing.T) {
		created := e.childInvite(owner, cliq, "mum@example.com")
		parent := e.user("mum@example.com", domain.RoleParent, domain.PlanPaid)

		_, err := e.invites.AcceptInvite(e.ctx, created.Token, parent)
		require.ErrorIs(t, err, service.ErrWrongRole)
		require.Equal(t, domain.InviteStatusPending, e.invite(created.Invite.ID).Status)
	})

	t.Run("child account cannot accept adult invite", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		kid := e.user("", domain.RoleChild, domain.PlanFree)

		_, err := e.invites.AcceptInvite(e.ctx, created.Token, kid)
		require.ErrorIs(t, err, service.ErrWrongRole)
	})

	t.Run("canceled", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		_, err := e.invites.CancelInvite(e.ctx, created.Invite.ID, owner)
		require.NoError(t, err)

		friend := e.user("canceled@example.com", domain.RoleAdult, domain.PlanFree)
		_, err = e.invites.AcceptInvite(e.ctx, created.Token, friend)
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := e.invites.AcceptInvite(e.ctx, "nope", owner)
		require.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestAcceptInviteConcurrentSameUser(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	created := e.adultInvite(owner, cliq, 1)
	friend := e.user("friend@example.com", domain.RoleAdult, domain.PlanFree)

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.invites.AcceptInvite(e.ctx, created.Token, friend)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	count := 0
	for _, m := range e.members(cliq.ID) {
		if m.UserID == friend.ID {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestAcceptInviteConcurrentDifferentUsers(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	created := e.adultInvite(owner, cliq, 1)
	u1 := e.user("u1@example.com", domain.RoleAdult, domain.PlanFree)
	u2 := e.user("u2@example.com", domain.RoleAdult, domain.PlanFree)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, u := range []domain.User{u1, u2} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.invites.AcceptInvite(e.ctx, created.Token, u)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
	}
	require.Equal(t, 1, wins)
	// Owner plus the winner.
	require.Len(t, e.members(cliq.ID), 2)
}

func TestMultiUseInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)
	created := e.adultInvite(owner, cliq, 3)

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := e.user(email, domain.RoleAdult, domain.PlanFree)
		res, err := e.invites.AcceptInvite(e.ctx, created.Invite.Code, u)
		require.NoError(t, err)
		require.Equal(t, i+1, res.Invite.UseCount)
		require.Equal(t, i == 2, res.Invite.Used)
	}

	late := e.user("d@example.com", domain.RoleAdult, domain.PlanFree)
	_, err := e.invites.AcceptInvite(e.ctx, created.Invite.Code, late)
	require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
	require.Len(t, e.members(cliq.ID), 4)
}

func TestCancelInvite(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com", domain.RoleAdult, domain.PlanFree)
	cliq := e.cliq(owner)

	t.Run("inviter cancels twice", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)

		inv, err := e.invites.CancelInvite(e.ctx, created.Invite.ID, owner)
		require.NoError(t, err)
		require.Equal(t, domain.InviteStatusCanceled, inv.Status)
		require.NotNil(t, inv.CanceledAt)

		_, err = e.invites.CancelInvite(e.ctx, created.Invite.ID, owner)
		require.NoError(t, err)
	})

	t.Run("invitee may decline", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		invitee := e.user("friend@example.com", domain.RoleAdult, domain.PlanFree)

		inv, err := e.invites.CancelInvite(e.ctx, created.Invite.ID, invitee)
		require.NoError(t, err)
		require.Equal(t, domain.InviteStatusCanceled, inv.Status)
	})

	t.Run("unrelated user", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		stranger := e.user("stranger@example.com", domain.RoleAdult, domain.PlanFree)

		_, err := e.invites.CancelInvite(e.ctx, created.Invite.ID, stranger)
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("accepted invite", func(t *testing.T) {
		created := e.adultInvite(owner, cliq, 1)
		friend := e.user("accepted@example.com", domain.RoleAdult, domain.PlanFree)
		_, err := e.invites.AcceptInvite(e.ctx, created.Token, friend)
		require.NoError(t, err)

		_, err = e.invites.CancelInvite(e.ctx, created.Invite.ID, owner)
		require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := e.invites.CancelInvite(e.ctx, "01J00000000000000000000000", owner)
		require.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestReasonOf(t *testing.T) {
	require.Equal(t, service.ReasonExpired, service.ReasonOf(service.ErrExpired))
	require.Equal(t, service.ReasonServerError, service.ReasonOf(service.ErrAmbiguousInviteKey))
	require.Equal(t, service.Reason(""), service.ReasonOf(nil))
}
