package invitesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Reason codes returned in the "error" field of every failure.
const (
	CodeNotFound                = "not_found"
	CodeExpired                 = "expired"
	CodeWrongRole               = "wrong_role"
	CodeInviteAlreadyUsed       = "invite_already_used"
	CodeAlreadyProcessed        = "already_processed"
	CodeMissingCliq             = "missing_cliq"
	CodeUsernameTaken           = "username_taken"
	CodeMissingChildCredentials = "missing_child_credentials"
	CodeServerError             = "server_error"

	CodeInvalidRequest       = "invalid_request"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeVerificationRequired = "verification_required"
	CodeInvalidCode          = "invalid_code"
)

// APIError is a failed response from the invite service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("invitesdk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("invitesdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// parseErrorResponse turns a non-2xx response into *APIError. The accept
// endpoint reports failures as {ok:false, reason}, everything else as
// ErrorResponse.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	var accept AcceptInviteResponse
	if err := json.Unmarshal(body, &accept); err == nil && accept.Reason != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: accept.Reason}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        CodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
