package http

import (
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
)

type ChildrenHandler struct {
	ProvisioningService *service.ProvisioningService
	AccountService      *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Provision Child Account
//	@Description	Create a child account, its safety settings, the parent link and (for cliq invites) the membership
//	@Description	in one transaction. Requires exactly one of invite_code or approval_token.
//	@Tags			Children
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		invitesdk.ProvisionChildRequest	true	"Child credentials and consent reference"
//	@Success		201		{object}	invitesdk.ProvisionChildResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request, missing_child_credentials"
//	@Failure		401		{object}	invitesdk.ErrorResponse	"unauthorized"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"wrong_role, forbidden"
//	@Failure		404		{object}	invitesdk.ErrorResponse	"not_found"
//	@Failure		409		{object}	invitesdk.ErrorResponse	"username_taken, already_processed, invite_already_used"
//	@Failure		410		{object}	invitesdk.ErrorResponse	"expired"
//	@Router			/v1/children [post].
func (h *ChildrenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req invitesdk.ProvisionChildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	parent, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.ProvisioningService.ProvisionChild(ctx, parent, service.ProvisionRequest{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthdate: req.Birthdate,
		Permissions: domain.ChildPermissions{
			InvitesEnabled:         req.Permissions.InvitesEnabled,
			RequireApprovalInvites: req.Permissions.RequireApprovalInvites,
			RequireApprovalPosts:   req.Permissions.RequireApprovalPosts,
		},
		InviteCode:    req.InviteCode,
		ApprovalToken: req.ApprovalToken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := invitesdk.ProvisionChildResponse{
		ChildID:    out.Child.ID,
		Username:   out.Child.Username,
		ApprovalID: out.Approval.ID,
	}
	if out.Invite != nil {
		resp.InviteID = out.Invite.ID
	}
	if out.Membership != nil {
		resp.CliqID = out.Membership.CliqID
		resp.MembershipID = out.Membership.ID
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
