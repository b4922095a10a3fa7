package invitesdk

import "time"

// ErrorResponse is the body of every failed request except accept.
type ErrorResponse struct {
	// Error is the reason code, e.g. "not_found" or "expired"
	Error string `json:"error" example:"not_found"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description" example:"invite not found"`
}

// ============================================================================
// Cliq Types
// ============================================================================

type CreateCliqRequest struct {
	Name string `json:"name" example:"Book Club"`
}

type CliqResponse struct {
	ID      string `json:"id" example:"01JA2Z4C8Q6N2V8X0Y3K5M7P9R"`
	Name    string `json:"name" example:"Book Club"`
	OwnerID string `json:"owner_id"`
}

// ============================================================================
// Invite Types
// ============================================================================

// Invited roles.
const (
	RoleAdult = "adult"
	RoleChild = "child"
)

type CreateInviteRequest struct {
	// CliqID may be empty only for parent_approval invites.
	CliqID       string `json:"cliq_id"`
	InviteeEmail string `json:"invitee_email,omitempty" example:"friend@example.com"`

	// InvitedRole is "adult" or "child".
	InvitedRole string `json:"invited_role" example:"adult"`

	// InviteType defaults to InvitedRole. "parent_approval" invites a parent
	// before any cliq exists.
	InviteType string `json:"invite_type,omitempty"`

	// Child invites only.
	FriendFirstName     string `json:"friend_first_name,omitempty"`
	FriendLastName      string `json:"friend_last_name,omitempty"`
	TrustedAdultContact string `json:"trusted_adult_contact,omitempty" example:"parent@example.com"`
	InviteNote          string `json:"invite_note,omitempty"`

	// ExpiresAt defaults to seven days from now. Use NeverExpires for none.
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	NeverExpires bool       `json:"never_expires,omitempty"`

	// MaxUses defaults to 1.
	MaxUses int `json:"max_uses,omitempty" example:"1"`
}

type CreateInviteResponse struct {
	InviteID    string     `json:"invite_id"`
	Token       string     `json:"token"`
	Code        string     `json:"code" example:"7KQ2M9XD"`
	JoinCode    string     `json:"join_code" example:"K7M2X9"`
	InviteURL   string     `json:"invite_url"`
	TargetState string     `json:"target_state" example:"new"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AcceptInviteRequest names the invite by exactly one of its keys.
type AcceptInviteRequest struct {
	Code     string `json:"code,omitempty"`
	Token    string `json:"token,omitempty"`
	JoinCode string `json:"join_code,omitempty"`
}

type AcceptInviteResponse struct {
	OK           bool   `json:"ok"`
	Reason       string `json:"reason,omitempty" example:"invite_already_used"`
	MembershipID string `json:"membership_id,omitempty"`
	CliqID       string `json:"cliq_id,omitempty"`
}

type CancelInviteResponse struct {
	InviteID string `json:"invite_id"`
	Status   string `json:"status" example:"canceled"`
}

// Routing steps returned by NextStep and used for redemption redirects.
const (
	StepSignup                   = "signup"
	StepAccept                   = "accept"
	StepParentSignup             = "parent_signup"
	StepChildCreation            = "child_creation"
	StepUpgradeThenChildCreation = "upgrade_then_child_creation"
	StepVerifyIdentity           = "verify_identity"
	StepRefuse                   = "refuse"
	StepInvalid                  = "invalid"
	StepExpired                  = "expired"
	StepApprovalDashboard        = "approval_dashboard"
)

// NextStepResponse is the routing decision for the invite being resumed.
type NextStepResponse struct {
	Step       string `json:"step" example:"child_creation"`
	Next       string `json:"next" example:"/children/new?invite=01JA2Z4C8Q6N2V8X0Y3K5M7P9R"`
	InviteID   string `json:"invite_id,omitempty"`
	CliqID     string `json:"cliq_id,omitempty"`
	InviteType string `json:"invite_type,omitempty"`
	ApprovalID string `json:"approval_id,omitempty"`
}

// ============================================================================
// Parent Approval Types
// ============================================================================

// Approval contexts.
const (
	ContextDirectSignup = "direct_signup"
	ContextChildInvite  = "child_invite"
)

// Approval actions.
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
)

type RequestApprovalRequest struct {
	ChildFirstName string `json:"child_first_name" example:"Sam"`
	ChildLastName  string `json:"child_last_name" example:"Lee"`
	ChildBirthdate string `json:"child_birthdate" example:"2014-05-01"`
	ParentEmail    string `json:"parent_email" example:"parent@example.com"`

	// Context defaults to direct_signup, or child_invite when InviteID is set.
	Context  string `json:"context,omitempty"`
	InviteID string `json:"invite_id,omitempty"`
}

type RequestApprovalResponse struct {
	ApprovalID       string    `json:"approval_id"`
	ApprovalToken    string    `json:"approval_token"`
	ParentState      string    `json:"parent_state" example:"new"`
	ExpiresAt        time.Time `json:"expires_at"`
	NotificationSent bool      `json:"notification_sent"`
}

type ApprovalResponse struct {
	ApprovalID     string    `json:"approval_id"`
	Status         string    `json:"status" example:"pending"`
	Context        string    `json:"context" example:"child_invite"`
	ParentState    string    `json:"parent_state" example:"existing_parent"`
	ChildFirstName string    `json:"child_first_name"`
	ChildLastName  string    `json:"child_last_name"`
	ChildBirthdate string    `json:"child_birthdate"`
	InviterName    string    `json:"inviter_name,omitempty"`
	CliqName       string    `json:"cliq_name,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type RespondApprovalRequest struct {
	Token  string `json:"token"`
	Action string `json:"action" example:"approve"`
}

type RespondApprovalResponse struct {
	ApprovalID string `json:"approval_id"`
	Status     string `json:"status" example:"approved"`
	Redirect   string `json:"redirect" example:"/dashboard"`
}

type ResendApprovalRequest struct {
	Token string `json:"token"`
}

type ResendApprovalResponse struct {
	NotificationSent bool `json:"notification_sent"`
}

// ============================================================================
// Child Provisioning Types
// ============================================================================

// ChildPermissions are the parent's selections. Omitted fields keep the
// safe defaults (invites off, approvals required).
type ChildPermissions struct {
	InvitesEnabled         *bool `json:"invites_enabled,omitempty"`
	RequireApprovalInvites *bool `json:"require_approval_invites,omitempty"`
	RequireApprovalPosts   *bool `json:"require_approval_posts,omitempty"`
}

// ProvisionChildRequest carries exactly one of InviteCode or ApprovalToken.
type ProvisionChildRequest struct {
	Username string `json:"username" example:"sam"`
	Password string `json:"password"`

	// Identity fields. With an approval token they default to the approved
	// child's details and must match when given.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Birthdate string `json:"birthdate,omitempty" example:"2014-05-01"`

	Permissions ChildPermissions `json:"permissions"`

	InviteCode    string `json:"invite_code,omitempty"`
	ApprovalToken string `json:"approval_token,omitempty"`
}

type ProvisionChildResponse struct {
	ChildID      string `json:"child_id"`
	Username     string `json:"username"`
	ApprovalID   string `json:"approval_id"`
	InviteID     string `json:"invite_id,omitempty"`
	CliqID       string `json:"cliq_id,omitempty"`
	MembershipID string `json:"membership_id,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

type UpgradeResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role" example:"parent"`
}

type StartVerificationResponse struct {
	Sent      bool      `json:"sent"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ConfirmVerificationRequest struct {
	Code string `json:"code" example:"492039"`
}

type ConfirmVerificationResponse struct {
	Verified bool `json:"verified"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`

	// Checks is only set by /readyz.
	Checks *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}
