package service

import (
	"errors"
)

// Reason is the stable code reported to clients for a failed operation.
type Reason string

const (
	ReasonNotFound                Reason = "not_found"
	ReasonExpired                 Reason = "expired"
	ReasonWrongRole               Reason = "wrong_role"
	ReasonInviteAlreadyUsed       Reason = "invite_already_used"
	ReasonAlreadyProcessed        Reason = "already_processed"
	ReasonMissingCliq             Reason = "missing_cliq"
	ReasonUsernameTaken           Reason = "username_taken"
	ReasonMissingChildCredentials Reason = "missing_child_credentials"
	ReasonServerError             Reason = "server_error"

	ReasonInvalidRequest       Reason = "invalid_request"
	ReasonUnauthorized         Reason = "unauthorized"
	ReasonForbidden            Reason = "forbidden"
	ReasonVerificationRequired Reason = "verification_required"
	ReasonInvalidCode          Reason = "invalid_code"
)

// Error carries a Reason and a human readable message. Two Errors match under
// errors.Is when their reasons are equal, so callers compare against the
// sentinels below regardless of the message.
type Error struct {
	Reason Reason
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Reason)
	}
	return e.Msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

var (
	ErrNotFound                = &Error{Reason: ReasonNotFound, Msg: "not found"}
	ErrExpired                 = &Error{Reason: ReasonExpired, Msg: "link has expired"}
	ErrWrongRole               = &Error{Reason: ReasonWrongRole, Msg: "not allowed for this account role"}
	ErrInviteAlreadyUsed       = &Error{Reason: ReasonInviteAlreadyUsed, Msg: "invite has already been used"}
	ErrAlreadyProcessed        = &Error{Reason: ReasonAlreadyProcessed, Msg: "approval has already been processed"}
	ErrMissingCliq             = &Error{Reason: ReasonMissingCliq, Msg: "invite is not bound to a cliq"}
	ErrUsernameTaken           = &Error{Reason: ReasonUsernameTaken, Msg: "username already taken"}
	ErrMissingChildCredentials = &Error{Reason: ReasonMissingChildCredentials, Msg: "child username and password are required"}
	ErrServerError             = &Error{Reason: ReasonServerError, Msg: "internal error"}

	ErrInvalidRequest       = &Error{Reason: ReasonInvalidRequest, Msg: "invalid request"}
	ErrUnauthorized         = &Error{Reason: ReasonUnauthorized, Msg: "authentication required"}
	ErrForbidden            = &Error{Reason: ReasonForbidden, Msg: "not authorized"}
	ErrVerificationRequired = &Error{Reason: ReasonVerificationRequired, Msg: "identity verification required"}
	ErrInvalidCode          = &Error{Reason: ReasonInvalidCode, Msg: "verification code is invalid or expired"}
)

// ErrAmbiguousInviteKey means one lookup key resolved to more than one
// invite. The alias table makes this impossible unless the data was edited
// by hand; it surfaces as server_error.
var ErrAmbiguousInviteKey = errors.New("invite key resolves to more than one invite")

func invalid(msg string) error {
	return &Error{Reason: ReasonInvalidRequest, Msg: msg}
}

func forbidden(msg string) error {
	return &Error{Reason: ReasonForbidden, Msg: msg}
}

// ReasonOf extracts the reason from err. Anything that is not an *Error is a
// server_error.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonServerError
}
