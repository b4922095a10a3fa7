package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu        sync.Mutex
	fail      bool
	approvals []domain.ApprovalNotice
	codes     []domain.VerificationNotice
}

func (f *fakeNotifier) SendParentApproval(_ context.Context, n domain.ApprovalNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp down")
	}
	f.approvals = append(f.approvals, n)
	return nil
}

func (f *fakeNotifier) SendVerificationCode(_ context.Context, n domain.VerificationNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp down")
	}
	f.codes = append(f.codes, n)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakePublisher) Publish(_ context.Context, e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	t     *testing.T
	ctx   context.Context
	store *sqlite.Store
	now   time.Time

	notifier *fakeNotifier
	events   *fakePublisher

	invites      *service.InviteService
	approvals    *service.ApprovalService
	provisioning *service.ProvisioningService
	accounts     *service.AccountService
	cliqs        *service.CliqService
	verification *service.VerificationService
	next         *service.NextStepService
	sweep        *service.SweepService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "cliq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	e := &env{
		t:        t,
		ctx:      context.Background(),
		store:    st,
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		notifier: &fakeNotifier{},
		events:   &fakePublisher{},
	}
	clock := func() time.Time { return e.now }

	e.invites = &service.InviteService{Store: st, Events: e.events, Now: clock}
	e.approvals = &service.ApprovalService{Store: st, Notifier: e.notifier, Events: e.events, Now: clock}
	e.provisioning = &service.ProvisioningService{Store: st, Hasher: cryptox.NewHasher("pepper"), Events: e.events, Now: clock}
	e.accounts = &service.AccountService{Store: st, Events: e.events, Now: clock}
	e.cliqs = &service.CliqService{Store: st, Now: clock}
	e.verification = &service.VerificationService{Store: st, Notifier: e.notifier, Now: clock}
	e.next = &service.NextStepService{Store: st, Now: clock}
	e.sweep = &service.SweepService{Store: st, Approvals: e.approvals, Now: clock, Batch: 2}
	return e
}

func (e *env) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *env) user(email string, role domain.UserRole, plan domain.Plan) domain.User {
	e.t.Helper()
	u := domain.User{
		ID:              idx.New().String(),
		EmailNormalized: email,
		DisplayName:     "User " + email,
		Role:            role,
		Plan:            plan,
		CreatedAt:       e.now,
	}
	require.NoError(e.t, e.store.Users().CreateUser(e.ctx, u))
	return u
}

func (e *env) reload(u domain.User) domain.User {
	e.t.Helper()
	got, err := e.store.Users().GetUserByID(e.ctx, u.ID)
	require.NoError(e.t, err)
	return got
}

func (e *env) cliq(owner domain.User) domain.Cliq {
	e.t.Helper()
	c, err := e.cliqs.Create(e.ctx, owner, "Saturday Soccer")
	require.NoError(e.t, err)
	return c
}

func (e *env) adultInvite(inviter domain.User, cliq domain.Cliq, maxUses int) service.CreatedInvite {
	e.t.Helper()
	created, err := e.invites.CreateInvite(e.ctx, inviter, service.CreateInviteParams{
		CliqID:       cliq.ID,
		InviteeEmail: "friend@example.com",
		InvitedRole:  domain.InvitedRoleAdult,
		MaxUses:      maxUses,
	})
	require.NoError(e.t, err)
	return created
}

func (e *env) childInvite(inviter domain.User, cliq domain.Cliq, parentEmail string) service.CreatedInvite {
	e.t.Helper()
	created, err := e.invites.CreateInvite(e.ctx, inviter, service.CreateInviteParams{
		CliqID:              cliq.ID,
		InvitedRole:         domain.InvitedRoleChild,
		FriendFirstName:     "Mia",
		FriendLastName:      "Lee",
		TrustedAdultContact: parentEmail,
		InviteNote:          "Join our team",
	})
	require.NoError(e.t, err)
	return created
}

func (e *env) invite(id string) domain.Invite {
	e.t.Helper()
	inv, err := e.store.Invites().GetInviteByID(e.ctx, id)
	require.NoError(e.t, err)
	return inv
}

func (e *env) approval(id string) domain.ParentApproval {
	e.t.Helper()
	a, err := e.store.Approvals().GetApprovalByID(e.ctx, id)
	require.NoError(e.t, err)
	return a
}

func (e *env) requestApproval(inviteID, parentEmail string) service.RequestedApproval {
	e.t.Helper()
	req, err := e.approvals.RequestApproval(e.ctx, service.ApprovalRequest{
		ChildFirstName: "Mia",
		ChildLastName:  "Lee",
		ChildBirthdate: "2015-06-01",
		ParentEmail:    parentEmail,
		InviteID:       inviteID,
	})
	require.NoError(e.t, err)
	return req
}

func (e *env) members(cliqID string) []domain.Membership {
	e.t.Helper()
	ms, err := e.store.Memberships().ListByCliq(e.ctx, cliqID)
	require.NoError(e.t, err)
	return ms
}

// requireChildSafety checks that every child membership in cliqID is backed
// by an approved approval for the same child identity, created strictly
// before the membership.
func (e *env) requireChildSafety(cliqID string) {
	e.t.Helper()
	for _, m := range e.members(cliqID) {
		if m.Role != domain.MemberChild {
			continue
		}
		p, err := e.store.Children().GetProfile(e.ctx, m.UserID)
		require.NoError(e.t, err)

		approved, err := e.store.Approvals().FindApproved(e.ctx, p.FirstName, p.LastName, p.Birthdate)
		require.NoError(e.t, err)

		backed := false
		for _, a := range approved {
			if a.ProvisionedChildID == m.UserID && a.CreatedAt.Before(m.JoinedAt) {
				backed = true
			}
		}
		require.True(e.t, backed, "child membership %s has no approval behind it", m.ID)
	}
}
