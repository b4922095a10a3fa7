package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx can hand out the same repos bound to the
// transaction, and nobody opens a transaction inside another.
type Store interface {
	Invites() Invites
	Approvals() Approvals
	Users() Users
	Children() Children
	Cliqs() Cliqs
	Memberships() Memberships
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// AcceptInviteParams describes one acceptance of an invite.
type AcceptInviteParams struct {
	InviteID string
	UserID   string
	At       time.Time
	// Final flips status/used/invited_user_id. Otherwise only use_count moves.
	Final bool
}

type Invites interface {
	// CreateInvite writes the invite and its aliases. An alias already held
	// by another invite returns ErrAlreadyExists.
	CreateInvite(ctx context.Context, inv domain.Invite, aliases []domain.InviteAlias) error

	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)

	// FindByAliases returns every distinct invite owning any of the hashes.
	FindByAliases(ctx context.Context, hashes []string) ([]domain.Invite, error)

	// AcceptInvite applies an acceptance only while the invite is pending,
	// unused and below max_uses. It reports whether a row changed.
	AcceptInvite(ctx context.Context, p AcceptInviteParams) (bool, error)

	// CancelInvite moves pending to canceled. It reports whether a row changed.
	CancelInvite(ctx context.Context, id string, at time.Time) (bool, error)

	// CompleteInvite moves a pending or accepted invite to completed and
	// binds it to userID. It reports whether a row changed.
	CompleteInvite(ctx context.Context, id, userID string, at time.Time) (bool, error)
}

type Approvals interface {
	CreateApproval(ctx context.Context, a domain.ParentApproval) error
	GetApprovalByID(ctx context.Context, id string) (domain.ParentApproval, error)
	GetApprovalByTokenHash(ctx context.Context, hash string) (domain.ParentApproval, error)

	// Transition moves a pending approval to status. It reports whether a
	// row changed; any other writer that got there first wins.
	Transition(ctx context.Context, id string, status domain.ApprovalStatus, at time.Time) (bool, error)

	// MarkProvisioned binds an approved approval to the child it produced,
	// once. It reports whether a row changed.
	MarkProvisioned(ctx context.Context, id, childID string, at time.Time) (bool, error)

	// RecordNotification bumps notify_attempts and, when sent, notified_at.
	RecordNotification(ctx context.Context, id string, sent bool, at time.Time) error

	// ListExpiredPending returns ids of pending approvals past expiry.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error)

	// FindApproved returns approved approvals for the child identity, used
	// to check that a child membership is backed by consent.
	FindApproved(ctx context.Context, firstName, lastName, birthdate string) ([]domain.ParentApproval, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, normalized string) (domain.User, error)

	// CreateUser inserts u. A taken username or email returns
	// ErrAlreadyExists and writes nothing.
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePlan(ctx context.Context, id string, plan domain.Plan) error
	UpdateRole(ctx context.Context, id string, role domain.UserRole) error
	MarkContactVerified(ctx context.Context, id string, at time.Time) error
	SetIdentitySecret(ctx context.Context, id, secret string) error
	MarkIdentityVerified(ctx context.Context, id string, at time.Time) error
}

type Children interface {
	CreateProfile(ctx context.Context, p domain.ChildProfile) error
	GetProfile(ctx context.Context, userID string) (domain.ChildProfile, error)
	CreateSettings(ctx context.Context, s domain.ChildSettings) error
	GetSettings(ctx context.Context, userID string) (domain.ChildSettings, error)

	// LinkParent is a no-op when the link already exists.
	LinkParent(ctx context.Context, parentID, childID string, at time.Time) error
	IsParentOf(ctx context.Context, parentID, childID string) (bool, error)
}

type Cliqs interface {
	CreateCliq(ctx context.Context, c domain.Cliq) error
	GetCliq(ctx context.Context, id string) (domain.Cliq, error)
}

type Memberships interface {
	// AddMembership is a no-op on an existing (user, cliq) pair. It reports
	// whether a row was created.
	AddMembership(ctx context.Context, m domain.Membership) (bool, error)
	GetMembership(ctx context.Context, userID, cliqID string) (domain.Membership, error)
	ListByCliq(ctx context.Context, cliqID string) ([]domain.Membership, error)
}

type Audit interface {
	Record(ctx context.Context, e domain.AuditEntry) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]domain.AuditEntry, error)
}
