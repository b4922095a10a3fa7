package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/aussiebroadwan/cliq/pkg/pendingcookie"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	live, err := s.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := s.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Keys)
}

func TestCreateInvite(t *testing.T) {
	s := newTestServer(t)
	owner := s.session("owner", "owner@example.com", "free")

	_, inv := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{
		InviteeEmail: "friend@example.com",
		InvitedRole:  invitesdk.RoleAdult,
	})
	require.NotEmpty(t, inv.Token)
	require.Len(t, inv.Code, 8)
	require.Len(t, inv.JoinCode, 6)
	require.Equal(t, "new", inv.TargetState)
	require.Equal(t, "https://cliq.test/v1/invites/redeem/"+inv.Token, inv.InviteURL)
	require.NotNil(t, inv.ExpiresAt)

	t.Run("requires a bearer token", func(t *testing.T) {
		anon := s.client.NewSession("")
		_, err := anon.CreateInvite(context.Background(), invitesdk.CreateInviteRequest{InvitedRole: invitesdk.RoleAdult})
		status, code := apiCode(t, err)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, invitesdk.CodeUnauthorized, code)
	})

	t.Run("non-members cannot invite", func(t *testing.T) {
		c, err := owner.CreateCliq(context.Background(), "Chess")
		require.NoError(t, err)

		stranger := s.session("stranger", "stranger@example.com", "free")
		_, err = stranger.CreateInvite(context.Background(), invitesdk.CreateInviteRequest{
			CliqID:      c.ID,
			InvitedRole: invitesdk.RoleAdult,
		})
		status, code := apiCode(t, err)
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, invitesdk.CodeForbidden, code)
	})
}

func TestRedeem(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner := s.session("owner", "owner@example.com", "free")

	c, inv := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{
		InviteeEmail: "friend@example.com",
		InvitedRole:  invitesdk.RoleAdult,
	})

	t.Run("signed out visitor is sent to signup with the cookie set", func(t *testing.T) {
		loc, ck, err := s.client.Redeem(ctx, inv.Token)
		require.NoError(t, err)

		u, err := url.Parse(loc)
		require.NoError(t, err)
		require.Equal(t, "/signup", u.Path)
		require.Equal(t, "friend@example.com", u.Query().Get("email"))
		require.Equal(t, inv.InviteID, u.Query().Get("invite"))

		require.NotNil(t, ck)
		require.True(t, ck.HttpOnly)
		require.Equal(t, int(pendingcookie.MaxAge.Seconds()), ck.MaxAge)

		p, err := s.cookies.Decode(ck.Value)
		require.NoError(t, err)
		require.Equal(t, inv.InviteID, p.InviteID)
		require.Equal(t, c.ID, p.CliqID)
		require.Equal(t, "adult", p.InviteType)
	})

	t.Run("codes redeem the same invite", func(t *testing.T) {
		loc, ck, err := s.client.Redeem(ctx, strings.ToLower(inv.Code))
		require.NoError(t, err)
		require.Contains(t, loc, "invite="+inv.InviteID)
		require.NotNil(t, ck)
	})

	t.Run("unknown token redirects to invalid", func(t *testing.T) {
		loc, ck, err := s.client.Redeem(ctx, "no-such-token")
		require.NoError(t, err)
		require.Equal(t, "/invite/invalid", loc)
		if ck != nil {
			require.Empty(t, ck.Value)
		}
	})

	t.Run("invite aimed at a child account redirects to invalid", func(t *testing.T) {
		require.NoError(t, s.store.Users().CreateUser(ctx, domain.User{
			ID:              idx.New().String(),
			EmailNormalized: "kid@example.com",
			DisplayName:     "Kid",
			Role:            domain.RoleChild,
			Plan:            domain.PlanFree,
			CreatedAt:       s.clock.Now(),
		}))
		refused, err := owner.CreateInvite(ctx, invitesdk.CreateInviteRequest{
			CliqID:       c.ID,
			InviteeEmail: "kid@example.com",
			InvitedRole:  invitesdk.RoleAdult,
		})
		require.NoError(t, err)

		loc, ck, err := s.client.Redeem(ctx, refused.Token)
		require.NoError(t, err)
		require.Equal(t, "/invite/invalid", loc)
		if ck != nil {
			require.Empty(t, ck.Value)
		}
	})

	t.Run("expired token redirects to expired", func(t *testing.T) {
		s.clock.advance(8 * 24 * time.Hour)

		loc, _, err := s.client.Redeem(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, "/invite/expired", loc)
	})
}

func TestNextStepResumesFromCookie(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner := s.session("owner", "owner@example.com", "free")

	_, inv := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{
		InviteeEmail: "friend@example.com",
		InvitedRole:  invitesdk.RoleAdult,
	})
	_, ck, err := s.client.Redeem(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, ck)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/v1/invites/next", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token("friend", "friend@example.com", "free"))
	req.AddCookie(ck)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var next invitesdk.NextStepResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&next))
	require.Equal(t, invitesdk.StepAccept, next.Step)
	require.Equal(t, inv.InviteID, next.InviteID)
	require.Equal(t, "adult", next.InviteType)

	t.Run("unknown keys decide invalid", func(t *testing.T) {
		out, err := owner.NextStep(ctx, "nothing")
		require.NoError(t, err)
		require.Equal(t, invitesdk.StepInvalid, out.Step)
		require.Equal(t, "/invite/invalid", out.Next)
	})
}

func TestAcceptInvite(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner := s.session("owner", "owner@example.com", "free")

	c, inv := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{
		InviteeEmail: "friend@example.com",
		InvitedRole:  invitesdk.RoleAdult,
	})
	friend := s.session("friend", "friend@example.com", "free")

	out, err := friend.AcceptInvite(ctx, invitesdk.AcceptInviteRequest{JoinCode: inv.JoinCode})
	require.NoError(t, err)
	require.True(t, out.OK)
	require.Equal(t, c.ID, out.CliqID)
	require.NotEmpty(t, out.MembershipID)

	t.Run("repeat by the same identity succeeds", func(t *testing.T) {
		again, err := friend.AcceptInvite(ctx, invitesdk.AcceptInviteRequest{Token: inv.Token})
		require.NoError(t, err)
		require.True(t, again.OK)
		require.Equal(t, out.MembershipID, again.MembershipID)
	})

	t.Run("another identity gets a conflict", func(t *testing.T) {
		other := s.session("other", "other@example.com", "free")
		_, err := other.AcceptInvite(ctx, invitesdk.AcceptInviteRequest{Code: inv.Code})
		status, code := apiCode(t, err)
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, invitesdk.CodeInviteAlreadyUsed, code)
	})

	t.Run("exactly one key is required", func(t *testing.T) {
		_, err := friend.AcceptInvite(ctx, invitesdk.AcceptInviteRequest{Code: inv.Code, Token: inv.Token})
		status, code := apiCode(t, err)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, invitesdk.CodeInvalidRequest, code)
	})

	t.Run("form submission redirects to the dashboard", func(t *testing.T) {
		_, second := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{InvitedRole: invitesdk.RoleAdult})

		form := url.Values{"code": {second.Code}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/v1/invites/accept", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+s.token("friend", "friend@example.com", "free"))

		resp, err := s.client.HTTPClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/dashboard", resp.Header.Get("Location"))
	})

	t.Run("failures report ok false with a reason", func(t *testing.T) {
		body := strings.NewReader(`{"code":"ZZZZZZZZ"}`)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/v1/invites/accept", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.token("friend", "friend@example.com", "free"))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var got invitesdk.AcceptInviteResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.False(t, got.OK)
		require.Equal(t, invitesdk.CodeNotFound, got.Reason)
	})
}

func TestCancelInvite(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner := s.session("owner", "owner@example.com", "free")

	_, inv := s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{
		InviteeEmail: "friend@example.com",
		InvitedRole:  invitesdk.RoleAdult,
	})

	stranger := s.session("stranger", "stranger@example.com", "free")
	_, err := stranger.CancelInvite(ctx, inv.InviteID)
	status, _ := apiCode(t, err)
	require.Equal(t, http.StatusForbidden, status)

	// The recipient declines.
	friend := s.session("friend", "friend@example.com", "free")
	out, err := friend.CancelInvite(ctx, inv.InviteID)
	require.NoError(t, err)
	require.Equal(t, "canceled", out.Status)

	_, err = friend.AcceptInvite(ctx, invitesdk.AcceptInviteRequest{Token: inv.Token})
	status, code := apiCode(t, err)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, invitesdk.CodeNotFound, code)

	loc, _, err := s.client.Redeem(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, "/invite/invalid", loc)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	owner := s.session("owner", "owner@example.com", "free")
	s.cliqWithInvite(owner, invitesdk.CreateInviteRequest{InvitedRole: invitesdk.RoleAdult})

	resp, err := http.Get(s.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `cliq_invite_transitions_total{status="pending"} 1`)
}
