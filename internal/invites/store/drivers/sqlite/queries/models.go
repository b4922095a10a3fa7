package queries

import (
	"database/sql"
	"time"
)

type User struct {
	ID                 string
	EmailNormalized    sql.NullString
	Username           sql.NullString
	PasswordHash       sql.NullString
	DisplayName        string
	Role               string
	Plan               string
	ContactVerifiedAt  sql.NullTime
	IdentitySecret     sql.NullString
	IdentityVerifiedAt sql.NullTime
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Cliq struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

type Membership struct {
	ID       string
	UserID   string
	CliqID   string
	Role     string
	JoinedAt time.Time
}

type Invite struct {
	ID                    string
	Code                  string
	JoinCode              string
	InviterID             string
	CliqID                sql.NullString
	InviteeEmail          string
	TargetEmailNormalized string
	InvitedRole           string
	InviteType            string
	TargetState           string
	Status                string
	Used                  bool
	InvitedUserID         sql.NullString
	MaxUses               int64
	UseCount              int64
	FriendFirstName       string
	FriendLastName        string
	TrustedAdultContact   string
	InviteNote            string
	ParentAccountExists   bool
	ExpiresAt             sql.NullTime
	CreatedAt             time.Time
	UpdatedAt             time.Time
	AcceptedAt            sql.NullTime
	CompletedAt           sql.NullTime
	CanceledAt            sql.NullTime
}

type ParentApproval struct {
	ID                    string
	TokenHash             string
	ChildFirstName        string
	ChildLastName         string
	ChildBirthdate        string
	ParentEmail           string
	ParentEmailNormalized string
	ParentState           string
	Context               string
	InviteID              sql.NullString
	CliqID                sql.NullString
	InviterName           string
	CliqName              string
	Status                string
	ExpiresAt             time.Time
	ApprovedAt            sql.NullTime
	DeclinedAt            sql.NullTime
	ExpiredAt             sql.NullTime
	ProvisionedChildID    sql.NullString
	ProvisionedAt         sql.NullTime
	NotifiedAt            sql.NullTime
	NotifyAttempts        int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type ChildProfile struct {
	UserID    string
	FirstName string
	LastName  string
	Birthdate string
}

type ChildSetting struct {
	UserID                 string
	InvitesEnabled         bool
	RequireApprovalInvites bool
	RequireApprovalPosts   bool
	ModerationLevel        string
}

type AuditLog struct {
	ID         string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   string
	CreatedAt  time.Time
}
