package domain

import "time"

type Cliq struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

type MembershipRole string

const (
	MemberOwner  MembershipRole = "owner"
	MemberAdult  MembershipRole = "adult"
	MemberParent MembershipRole = "parent"
	MemberChild  MembershipRole = "child"
)

// MembershipRoleFor maps an account role onto the role it holds in a cliq.
func MembershipRoleFor(r UserRole) MembershipRole {
	switch r {
	case RoleParent:
		return MemberParent
	case RoleChild:
		return MemberChild
	default:
		return MemberAdult
	}
}

type Membership struct {
	ID       string
	UserID   string
	CliqID   string
	Role     MembershipRole
	JoinedAt time.Time
}

// AuditEntry records who changed what. Metadata is stored as JSON.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	CreatedAt  time.Time
}
