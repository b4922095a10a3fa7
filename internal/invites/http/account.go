package http

import (
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
)

type AccountHandler struct {
	AccountService      *service.AccountService
	VerificationService *service.VerificationService
}

// HandleUpgrade godoc
//
//	@Summary		Upgrade to Parent
//	@Description	Turn an adult account into a parent account. Free accounts must verify their identity first.
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	invitesdk.UpgradeResponse
//	@Failure		401	{object}	invitesdk.ErrorResponse	"unauthorized"
//	@Failure		403	{object}	invitesdk.ErrorResponse	"wrong_role, verification_required"
//	@Router			/v1/account/upgrade [post].
func (h *AccountHandler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.AccountService.UpgradeToParent(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.UpgradeResponse{
		UserID: u.ID,
		Role:   string(u.Role),
	})
}

// HandleStartVerification godoc
//
//	@Summary		Start Identity Verification
//	@Description	Email a short-lived verification code to the caller.
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	invitesdk.StartVerificationResponse
//	@Failure		401	{object}	invitesdk.ErrorResponse	"unauthorized"
//	@Failure		403	{object}	invitesdk.ErrorResponse	"wrong_role"
//	@Failure		500	{object}	invitesdk.ErrorResponse	"server_error"
//	@Router			/v1/verification/start [post].
func (h *AccountHandler) HandleStartVerification(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expires, err := h.VerificationService.Start(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.StartVerificationResponse{
		Sent:      true,
		ExpiresAt: expires,
	})
}

// HandleConfirmVerification godoc
//
//	@Summary		Confirm Identity Verification
//	@Description	Check the emailed code and mark the caller's identity as verified.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		invitesdk.ConfirmVerificationRequest	true	"Verification code"
//	@Success		200		{object}	invitesdk.ConfirmVerificationResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request, invalid_code"
//	@Failure		401		{object}	invitesdk.ErrorResponse	"unauthorized"
//	@Router			/v1/verification/confirm [post].
func (h *AccountHandler) HandleConfirmVerification(w http.ResponseWriter, r *http.Request) {
	var req invitesdk.ConfirmVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.VerificationService.Confirm(r.Context(), caller, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.ConfirmVerificationResponse{Verified: true})
}
