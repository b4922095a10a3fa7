package domain

import "time"

// ApprovalTTL is how long a parent has to answer an approval request.
//
// Help text elsewhere in the product has said 36 hours; 72 is the value the
// system has always enforced. Override with APPROVAL_TTL, not here.
const ApprovalTTL = 72 * time.Hour

type ApprovalContext string

const (
	ApprovalDirectSignup ApprovalContext = "direct_signup"
	ApprovalChildInvite  ApprovalContext = "child_invite"
)

// ParentState snapshots the parent email's account at request time.
type ParentState string

const (
	ParentNew           ParentState = "new"
	ParentExisting      ParentState = "existing_parent"
	ParentExistingAdult ParentState = "existing_adult"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDeclined ApprovalStatus = "declined"
	ApprovalExpired  ApprovalStatus = "expired"
)

type ParentApproval struct {
	ID        string
	TokenHash string

	ChildFirstName string
	ChildLastName  string
	ChildBirthdate string // YYYY-MM-DD

	ParentEmail           string
	ParentEmailNormalized string
	ParentState           ParentState

	Context     ApprovalContext
	InviteID    string
	CliqID      string
	InviterName string
	CliqName    string

	Status     ApprovalStatus
	ExpiresAt  time.Time
	ApprovedAt *time.Time
	DeclinedAt *time.Time
	ExpiredAt  *time.Time

	ProvisionedChildID string
	ProvisionedAt      *time.Time

	NotifiedAt     *time.Time
	NotifyAttempts int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the approval window has closed at now. It does
// not look at the stored status.
func (a ParentApproval) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Active reports whether the approval can still be answered.
func (a ParentApproval) Active(now time.Time) bool {
	return a.Status == ApprovalPending && !a.IsExpired(now)
}

// Terminal reports whether the status can no longer change.
func (a ParentApproval) Terminal() bool {
	return a.Status != ApprovalPending
}
