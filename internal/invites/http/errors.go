package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// statusByReason is the single reason -> HTTP status table.
var statusByReason = map[service.Reason]int{
	service.ReasonUnauthorized: http.StatusUnauthorized,

	service.ReasonWrongRole:            http.StatusForbidden,
	service.ReasonForbidden:            http.StatusForbidden,
	service.ReasonVerificationRequired: http.StatusForbidden,

	service.ReasonNotFound: http.StatusNotFound,

	service.ReasonInviteAlreadyUsed: http.StatusConflict,
	service.ReasonUsernameTaken:     http.StatusConflict,
	service.ReasonAlreadyProcessed:  http.StatusConflict,

	service.ReasonExpired: http.StatusGone,

	service.ReasonInvalidRequest:          http.StatusBadRequest,
	service.ReasonMissingCliq:             http.StatusBadRequest,
	service.ReasonMissingChildCredentials: http.StatusBadRequest,
	service.ReasonInvalidCode:             http.StatusBadRequest,
}

// statusFor maps a reason to its HTTP status. Unknown reasons are 500.
func statusFor(reason service.Reason) int {
	if code, ok := statusByReason[reason]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Server errors are logged and
// never leak their cause to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reason := service.ReasonOf(err)
	status := statusFor(reason)

	desc := string(reason)
	var se *service.Error
	if errors.As(err, &se) && se.Msg != "" {
		desc = se.Msg
	}

	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		reason = service.ReasonServerError
		desc = "internal error"
		if id := slogx.RequestID(r.Context()); id != "" {
			desc += " (request " + id + ")"
		}
	}

	httpx.WriteJSON(w, status, invitesdk.ErrorResponse{
		Error:            string(reason),
		ErrorDescription: desc,
	})
}

func badRequest(w http.ResponseWriter, desc string) {
	httpx.WriteJSON(w, http.StatusBadRequest, invitesdk.ErrorResponse{
		Error:            string(service.ReasonInvalidRequest),
		ErrorDescription: desc,
	})
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
