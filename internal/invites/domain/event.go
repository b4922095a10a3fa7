package domain

import "time"

// Event types published after a transition commits.
const (
	EventInviteCreated     = "invite.created"
	EventInviteAccepted    = "invite.accepted"
	EventInviteCanceled    = "invite.canceled"
	EventInviteCompleted   = "invite.completed"
	EventApprovalRequested = "approval.requested"
	EventApprovalApproved  = "approval.approved"
	EventApprovalDeclined  = "approval.declined"
	EventApprovalExpired   = "approval.expired"
	EventChildProvisioned  = "child.provisioned"
	EventAccountUpgraded   = "account.upgraded"
)

// Event is a committed state change. Consumers must treat delivery as at
// most once; the database stays the source of truth.
type Event struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	ActorID  string         `json:"actor_id,omitempty"`
	TargetID string         `json:"target_id"`
	CliqID   string         `json:"cliq_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	At       time.Time      `json:"at"`
}
