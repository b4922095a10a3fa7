package domain

import "time"

// DefaultInviteTTL applies when the inviter does not pick an expiry.
const DefaultInviteTTL = 7 * 24 * time.Hour

// InvitedRole determines which acceptance sub-flow applies.
type InvitedRole string

const (
	InvitedRoleAdult InvitedRole = "adult"
	InvitedRoleChild InvitedRole = "child"
)

// InviteType mirrors InvitedRole, plus the pre-cliq parent invite created
// during a child's sign-up.
type InviteType string

const (
	InviteTypeAdult          InviteType = "adult"
	InviteTypeChild          InviteType = "child"
	InviteTypeParentApproval InviteType = "parent_approval"
)

// TargetState classifies the recipient's account at creation time.
type TargetState string

const (
	TargetNew                   TargetState = "new"
	TargetExistingParent        TargetState = "existing_parent"
	TargetExistingUserNonParent TargetState = "existing_user_non_parent"
	TargetInvalidChild          TargetState = "invalid_child"
)

type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusCompleted InviteStatus = "completed"
	InviteStatusCanceled  InviteStatus = "canceled"
)

// AliasKind names the key space an alias belongs to.
type AliasKind string

const (
	AliasToken    AliasKind = "token"
	AliasCode     AliasKind = "code"
	AliasJoinCode AliasKind = "join_code"
)

// InviteAlias is one lookup key of an invite, stored as a fingerprint.
type InviteAlias struct {
	Hash string
	Kind AliasKind
}

type Invite struct {
	ID       string
	Code     string
	JoinCode string

	InviterID             string
	CliqID                string // empty only for InviteTypeParentApproval
	InviteeEmail          string
	TargetEmailNormalized string

	InvitedRole InvitedRole
	InviteType  InviteType
	TargetState TargetState

	Status        InviteStatus
	Used          bool
	InvitedUserID string
	MaxUses       int
	UseCount      int

	// Child invites only.
	FriendFirstName     string
	FriendLastName      string
	TrustedAdultContact string
	InviteNote          string
	ParentAccountExists bool

	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	CompletedAt *time.Time
	CanceledAt  *time.Time
}

// IsExpired reports whether the invite has a past expiry at now. An invite
// with no expiry never expires.
func (i Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// IsChild reports whether the invite goes through the parent approval flow.
func (i Invite) IsChild() bool {
	return i.InvitedRole == InvitedRoleChild
}

// Consumed reports whether the invite can no longer be accepted by a new
// identity.
func (i Invite) Consumed() bool {
	return i.Used || i.Status != InviteStatusPending
}

// FinalUse reports whether one more acceptance exhausts the invite.
func (i Invite) FinalUse() bool {
	return i.UseCount+1 >= i.MaxUses
}
