package domain

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdult  UserRole = "adult"
	RoleParent UserRole = "parent"
	RoleChild  UserRole = "child"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

type User struct {
	ID              string
	EmailNormalized string // empty for children
	Username        string // only set for accounts created with credentials
	PasswordHash    string
	DisplayName     string
	Role            UserRole
	Plan            Plan

	ContactVerifiedAt  *time.Time
	IdentitySecret     string
	IdentityVerifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IdentityVerified() bool { return u.IdentityVerifiedAt != nil }

// ChildProfile is never created without its user row.
type ChildProfile struct {
	UserID    string
	FirstName string
	LastName  string
	Birthdate string
}

// ModerationStrict is the only moderation level a child account gets.
const ModerationStrict = "strict"

type ChildSettings struct {
	UserID                 string
	InvitesEnabled         bool
	RequireApprovalInvites bool
	RequireApprovalPosts   bool
	ModerationLevel        string
}

// ChildPermissions are the selections a parent may make at provisioning.
// Nil leaves the default in place.
type ChildPermissions struct {
	InvitesEnabled         *bool `json:"invites_enabled,omitempty"`
	RequireApprovalInvites *bool `json:"require_approval_invites,omitempty"`
	RequireApprovalPosts   *bool `json:"require_approval_posts,omitempty"`
}

// DefaultChildSettings returns the safety settings every child starts with.
func DefaultChildSettings(userID string) ChildSettings {
	return ChildSettings{
		UserID:                 userID,
		InvitesEnabled:         false,
		RequireApprovalInvites: true,
		RequireApprovalPosts:   true,
		ModerationLevel:        ModerationStrict,
	}
}

// Apply overlays the parent's selections. Moderation stays strict.
func (s ChildSettings) Apply(p ChildPermissions) ChildSettings {
	if p.InvitesEnabled != nil {
		s.InvitesEnabled = *p.InvitesEnabled
	}
	if p.RequireApprovalInvites != nil {
		s.RequireApprovalInvites = *p.RequireApprovalInvites
	}
	if p.RequireApprovalPosts != nil {
		s.RequireApprovalPosts = *p.RequireApprovalPosts
	}
	s.ModerationLevel = ModerationStrict
	return s
}

// NormalizeEmail lower-cases and trims an address for identity matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
