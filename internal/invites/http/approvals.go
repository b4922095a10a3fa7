package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
)

// PathDeclined is where a parent lands after declining.
const PathDeclined = "/parent-approval/declined"

type ApprovalHandler struct {
	ApprovalService *service.ApprovalService
	AccountService  *service.AccountService
}

// HandleRequest godoc
//
//	@Summary		Request Parent Approval
//	@Description	Record a pending approval for a child and email the parent exactly once.
//	@Description	Signed-out children may call this; a bearer token, when sent, is recorded as the requester.
//	@Tags			Parent Approvals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invitesdk.RequestApprovalRequest	true	"Child and parent details"
//	@Success		201		{object}	invitesdk.RequestApprovalResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request, missing_cliq"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"wrong_role"
//	@Failure		404		{object}	invitesdk.ErrorResponse	"not_found"
//	@Failure		409		{object}	invitesdk.ErrorResponse	"invite_already_used"
//	@Failure		410		{object}	invitesdk.ErrorResponse	"expired"
//	@Router			/v1/approvals [post].
func (h *ApprovalHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req invitesdk.RequestApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	caller, err := optionalCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := service.ApprovalRequest{
		ChildFirstName: req.ChildFirstName,
		ChildLastName:  req.ChildLastName,
		ChildBirthdate: req.ChildBirthdate,
		ParentEmail:    req.ParentEmail,
		Context:        domain.ApprovalContext(req.Context),
		InviteID:       req.InviteID,
	}
	if caller != nil {
		in.RequestedBy = caller.ID
	}

	requested, err := h.ApprovalService.RequestApproval(ctx, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sent := h.ApprovalService.Deliver(ctx, requested.Approval, requested.Token)

	a := requested.Approval
	httpx.WriteJSON(w, http.StatusCreated, invitesdk.RequestApprovalResponse{
		ApprovalID:       a.ID,
		ApprovalToken:    requested.Token,
		ParentState:      string(a.ParentState),
		ExpiresAt:        a.ExpiresAt,
		NotificationSent: sent,
	})
}

// HandleGet godoc
//
//	@Summary		View Parent Approval
//	@Description	Read-only view of a pending approval for the parent's approval page.
//	@Tags			Parent Approvals
//	@Produce		json
//	@Param			token	path		string	true	"Approval token"
//	@Success		200		{object}	invitesdk.ApprovalResponse
//	@Failure		404		{object}	invitesdk.ErrorResponse	"not_found"
//	@Router			/v1/approvals/{token} [get].
func (h *ApprovalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.ApprovalService.GetByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.ApprovalResponse{
		ApprovalID:     a.ID,
		Status:         string(a.Status),
		Context:        string(a.Context),
		ParentState:    string(a.ParentState),
		ChildFirstName: a.ChildFirstName,
		ChildLastName:  a.ChildLastName,
		ChildBirthdate: a.ChildBirthdate,
		InviterName:    a.InviterName,
		CliqName:       a.CliqName,
		ExpiresAt:      a.ExpiresAt,
	})
}

// HandleRespond godoc
//
//	@Summary		Respond to Parent Approval
//	@Description	Approve or decline. The redirect depends on the parent's account: existing parents go to the
//	@Description	dashboard, everyone else to plan selection.
//	@Tags			Parent Approvals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invitesdk.RespondApprovalRequest	true	"Token and action"
//	@Success		200		{object}	invitesdk.RespondApprovalResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request"
//	@Failure		404		{object}	invitesdk.ErrorResponse	"not_found"
//	@Failure		409		{object}	invitesdk.ErrorResponse	"already_processed"
//	@Failure		410		{object}	invitesdk.ErrorResponse	"expired"
//	@Router			/v1/approvals/respond [post].
func (h *ApprovalHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req invitesdk.RespondApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		badRequest(w, "token is required")
		return
	}

	var (
		a   domain.ParentApproval
		err error
	)
	switch req.Action {
	case invitesdk.ActionApprove:
		a, err = h.ApprovalService.Approve(ctx, req.Token)
	case invitesdk.ActionDecline:
		a, err = h.ApprovalService.Decline(ctx, req.Token)
	default:
		badRequest(w, "action must be approve or decline")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.RespondApprovalResponse{
		ApprovalID: a.ID,
		Status:     string(a.Status),
		Redirect:   respondRedirect(a),
	})
}

func respondRedirect(a domain.ParentApproval) string {
	switch {
	case a.Status == domain.ApprovalDeclined:
		return PathDeclined
	case a.ParentState == domain.ParentExisting:
		return "/dashboard"
	default:
		return "/plans?approval=" + url.QueryEscape(a.ID)
	}
}

// HandleResend godoc
//
//	@Summary		Resend Parent Approval
//	@Description	Deliver the approval email again while the approval is still pending.
//	@Tags			Parent Approvals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invitesdk.ResendApprovalRequest	true	"Approval token"
//	@Success		200		{object}	invitesdk.ResendApprovalResponse
//	@Failure		404		{object}	invitesdk.ErrorResponse	"not_found"
//	@Router			/v1/approvals/resend [post].
func (h *ApprovalHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req invitesdk.ResendApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sent, err := h.ApprovalService.Resend(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.ResendApprovalResponse{NotificationSent: sent})
}
