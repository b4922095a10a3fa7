package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/routing"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/aussiebroadwan/cliq/pkg/pendingcookie"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// RedeemHandler is the landing point of an invite link. It only ever
// redirects.
type RedeemHandler struct {
	NextStepService *service.NextStepService
	AccountService  *service.AccountService
	Cookies         *pendingcookie.Codec
}

// ServeHTTP godoc
//
//	@Summary		Redeem Invite Link
//	@Description	Validate an invite token, remember it in the cliq_pending_invite cookie and redirect to the next step.
//	@Description	Invalid and expired links redirect to /invite/invalid and /invite/expired.
//	@Tags			Invitations
//	@Param			token	path	string	true	"Invite token"
//	@Success		302		"Redirect to the routed step"
//	@Router			/v1/invites/redeem/{token} [get].
func (h *RedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	caller, err := optionalCaller(r, h.AccountService)
	if err != nil {
		// A stale session should not block the link; route as signed out.
		log.Warn("ignoring unresolvable caller on redeem", slog.Any("error", err))
		caller = nil
	}

	res, err := h.NextStepService.Resolve(ctx, service.NextQuery{InviteKey: r.PathValue("token")}, caller)
	if err != nil {
		log.Error("failed to resolve invite link", slog.Any("error", err))
		redirect(w, r, routing.PathInvalid)
		return
	}

	// A link lands on exactly one of two dead ends; refusals read as invalid.
	d := res.Decision
	switch d.Step {
	case routing.StepInvalid, routing.StepExpired:
		h.Cookies.Clear(w)
		redirect(w, r, d.Next)
		return
	case routing.StepRefuse:
		log.Info("invite link refused for this visitor")
		h.Cookies.Clear(w)
		redirect(w, r, routing.PathInvalid)
		return
	}

	inv := res.Invite
	if err := h.Cookies.Set(w, pendingcookie.Payload{
		InviteID:        inv.ID,
		CliqID:          inv.CliqID,
		InviteType:      string(inv.InviteType),
		FriendFirstName: inv.FriendFirstName,
		FriendLastName:  inv.FriendLastName,
	}); err != nil {
		log.Error("failed to set pending invite cookie", slog.Any("error", err))
	}

	log.Info("invite link redeemed",
		slog.String("invite_id", inv.ID),
		slog.String("step", string(d.Step)),
	)
	redirect(w, r, d.Next)
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	httpx.NoCache(w)
	http.Redirect(w, r, location, http.StatusFound)
}

// NextStepHandler tells a returning visitor where they belong.
type NextStepHandler struct {
	NextStepService *service.NextStepService
	AccountService  *service.AccountService
	Cookies         *pendingcookie.Codec
}

// ServeHTTP godoc
//
//	@Summary		Next Step
//	@Description	Decide the next step for the invite being resumed. The invite comes from ?key= (token, code or join code),
//	@Description	?invite= (invite ID) or the cliq_pending_invite cookie, in that order. ?approval= adds a parent approval.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key			query		string	false	"Invite token, code or join code"
//	@Param			invite		query		string	false	"Invite ID"
//	@Param			approval	query		string	false	"Parent approval ID"
//	@Success		200			{object}	invitesdk.NextStepResponse
//	@Failure		401			{object}	invitesdk.ErrorResponse	"invalid bearer token"
//	@Router			/v1/invites/next [get].
func (h *NextStepHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	caller, err := optionalCaller(r, h.AccountService)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := service.NextQuery{
		InviteKey:  r.URL.Query().Get("key"),
		InviteID:   r.URL.Query().Get("invite"),
		ApprovalID: r.URL.Query().Get("approval"),
	}
	fromCookie := false
	if q.InviteKey == "" && q.InviteID == "" {
		if p, err := h.Cookies.Read(r); err == nil {
			q.InviteID = p.InviteID
			fromCookie = true
		} else if !errors.Is(err, pendingcookie.ErrNotPresent) {
			log.Debug("ignoring unreadable pending invite cookie", slog.Any("error", err))
		}
	}

	res, err := h.NextStepService.Resolve(ctx, q, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d := res.Decision
	if fromCookie && (d.Step == routing.StepInvalid || d.Step == routing.StepExpired) {
		h.Cookies.Clear(w)
	}

	resp := invitesdk.NextStepResponse{
		Step:       string(d.Step),
		Next:       d.Next,
		InviteID:   d.InviteID,
		ApprovalID: d.ApprovalID,
	}
	if res.Invite != nil {
		resp.CliqID = res.Invite.CliqID
		resp.InviteType = string(res.Invite.InviteType)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
