package http

import (
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
)

type CliqHandler struct {
	CliqService    *service.CliqService
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Create Cliq
//	@Description	Create a cliq owned by the caller.
//	@Tags			Cliqs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		invitesdk.CreateCliqRequest	true	"Cliq name"
//	@Success		201		{object}	invitesdk.CliqResponse
//	@Failure		400		{object}	invitesdk.ErrorResponse	"invalid_request"
//	@Failure		403		{object}	invitesdk.ErrorResponse	"wrong_role"
//	@Router			/v1/cliqs [post].
func (h *CliqHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req invitesdk.CreateCliqRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	caller, err := requireCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.CliqService.Create(r.Context(), caller, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, invitesdk.CliqResponse{
		ID:      c.ID,
		Name:    c.Name,
		OwnerID: c.OwnerID,
	})
}
