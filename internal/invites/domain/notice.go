package domain

import "time"

// ApprovalNotice is what a parent is told about a pending approval. Token is
// the raw approval token and only ever leaves the process inside the link.
type ApprovalNotice struct {
	ApprovalID     string
	Token          string
	ParentEmail    string
	ParentState    ParentState
	Context        ApprovalContext
	ChildFirstName string
	ChildLastName  string
	InviterName    string
	CliqName       string
	ExpiresAt      time.Time
}

// VerificationNotice delivers an identity verification code.
type VerificationNotice struct {
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
}
