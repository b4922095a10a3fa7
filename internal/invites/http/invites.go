package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

type InviteHandler struct {
	InviteService  *service.InviteService
	AccountService *service.AccountService

	// BaseURL prefixes the redemption link handed back to the inviter.
	BaseURL string
}

// HandleCreate godoc
//
//	@Summary		Create Invite
//	@Description	Create an adult or child invite for a cliq. The raw token is only ever returned here.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		invitesdk.CreateInviteRequest	true	"Invite details"
//	@Success		201		{object}	invitesdk.CreateInviteResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	invitesdk.ErrorResponse	"unauthorized"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"forbidden"
//	@Failure		500		{object}	invitesdk.ErrorResponse	"server_error"
//	@Router			/v1/invites [post].
func (h *InviteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req invitesdk.CreateInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.InviteService.CreateInvite(ctx, caller, service.CreateInviteParams{
		CliqID:              req.CliqID,
		InviteeEmail:        req.InviteeEmail,
		InvitedRole:         domain.InvitedRole(req.InvitedRole),
		InviteType:          domain.InviteType(req.InviteType),
		FriendFirstName:     req.FriendFirstName,
		FriendLastName:      req.FriendLastName,
		TrustedAdultContact: req.TrustedAdultContact,
		InviteNote:          req.InviteNote,
		ExpiresAt:           req.ExpiresAt,
		NeverExpires:        req.NeverExpires,
		MaxUses:             req.MaxUses,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	inv := created.Invite
	httpx.WriteJSON(w, http.StatusCreated, invitesdk.CreateInviteResponse{
		InviteID:    inv.ID,
		Token:       created.Token,
		Code:        inv.Code,
		JoinCode:    inv.JoinCode,
		InviteURL:   strings.TrimRight(h.BaseURL, "/") + "/v1/invites/redeem/" + created.Token,
		TargetState: string(inv.TargetState),
		ExpiresAt:   inv.ExpiresAt,
	})
}

// HandleAccept godoc
//
//	@Summary		Accept Invite
//	@Description	Accept an adult invite by exactly one of code, token or join_code. Form submissions are redirected to the dashboard on success.
//	@Tags			Invitations
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		invitesdk.AcceptInviteRequest	true	"Invite key"
//	@Success		200		{object}	invitesdk.AcceptInviteResponse	"ok"
//	@Success		303		"Redirect to /dashboard for form submissions"
//	@Failure		400		{object}	invitesdk.AcceptInviteResponse	"invalid_request, missing_cliq"
//	@Failure		403		{object}	invitesdk.AcceptInviteResponse	"wrong_role"
//	@Failure		404		{object}	invitesdk.AcceptInviteResponse	"not_found"
//	@Failure		409		{object}	invitesdk.AcceptInviteResponse	"invite_already_used"
//	@Failure		410		{object}	invitesdk.AcceptInviteResponse	"expired"
//	@Router			/v1/invites/accept [post].
func (h *InviteHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	key, ok := acceptKey(w, r)
	if !ok {
		writeAcceptFailure(w, service.ReasonInvalidRequest)
		return
	}

	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeAcceptFailure(w, service.ReasonOf(err))
		return
	}

	res, err := h.InviteService.AcceptInvite(ctx, key, caller)
	if err != nil {
		reason := service.ReasonOf(err)
		if reason == service.ReasonServerError {
			log.Error("failed to accept invite", slog.Any("error", err))
		}
		writeAcceptFailure(w, reason)
		return
	}

	if !httpx.WantsJSON(r) {
		httpx.SeeOther(w, r, "/dashboard")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.AcceptInviteResponse{
		OK:           true,
		MembershipID: res.Membership.ID,
		CliqID:       res.Invite.CliqID,
	})
}

// acceptKey extracts the single invite key from a JSON or form body.
func acceptKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req invitesdk.AcceptInviteRequest
	if httpx.IsJSONRequest(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			return "", false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return "", false
		}
		req.Code = r.FormValue("code")
		req.Token = r.FormValue("token")
		req.JoinCode = r.FormValue("join_code")
		if req.JoinCode == "" {
			req.JoinCode = r.FormValue("joinCode")
		}
	}

	var key string
	n := 0
	for _, k := range []string{req.Code, req.Token, req.JoinCode} {
		if k = strings.TrimSpace(k); k != "" {
			key = k
			n++
		}
	}
	return key, n == 1
}

func writeAcceptFailure(w http.ResponseWriter, reason service.Reason) {
	status := statusFor(reason)
	if status == http.StatusInternalServerError {
		reason = service.ReasonServerError
	}
	httpx.WriteJSON(w, status, invitesdk.AcceptInviteResponse{
		OK:     false,
		Reason: string(reason),
	})
}

// HandleCancel godoc
//
//	@Summary		Cancel Invite
//	@Description	Cancel a pending invite. Allowed for the inviter and for the invite's recipient, who uses it to decline.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Invite ID"
//	@Success		200	{object}	invitesdk.CancelInviteResponse
//	@Failure		403	{object}	invitesdk.ErrorResponse	"forbidden"
//	@Failure		404	{object}	invitesdk.ErrorResponse	"not_found"
//	@Failure		409	{object}	invitesdk.ErrorResponse	"invite_already_used"
//	@Router			/v1/invites/{id}/cancel [post].
func (h *InviteHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := h.InviteService.CancelInvite(ctx, r.PathValue("id"), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.CancelInviteResponse{
		InviteID: inv.ID,
		Status:   string(inv.Status),
	})
}
