package http_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/stretchr/testify/require"
)

func TestVerifyThenUpgrade(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sam := s.session("sam", "sam@example.com", "free")

	_, err := sam.UpgradeToParent(ctx)
	status, code := apiCode(t, err)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, invitesdk.CodeVerificationRequired, code)

	started, err := sam.StartVerification(ctx)
	require.NoError(t, err)
	require.True(t, started.Sent)
	require.True(t, started.ExpiresAt.After(s.clock.Now()))

	code6 := s.notifier.lastCode()
	require.Len(t, code6, 6)

	wrong := "000000"
	if code6 == wrong {
		wrong = "111111"
	}
	_, err = sam.ConfirmVerification(ctx, wrong)
	status, code = apiCode(t, err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, invitesdk.CodeInvalidCode, code)

	ok, err := sam.ConfirmVerification(ctx, code6)
	require.NoError(t, err)
	require.True(t, ok.Verified)

	up, err := sam.UpgradeToParent(ctx)
	require.NoError(t, err)
	require.Equal(t, "parent", up.Role)
	require.Equal(t, "sam", up.UserID)
}

func TestCreateCliq(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	c, err := s.session("owner", "owner@example.com", "free").CreateCliq(ctx, "Book Club")
	require.NoError(t, err)
	require.Equal(t, "Book Club", c.Name)
	require.Equal(t, "owner", c.OwnerID)

	_, err = s.session("owner", "owner@example.com", "free").CreateCliq(ctx, "   ")
	status, code := apiCode(t, err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, invitesdk.CodeInvalidRequest, code)
}

func TestProvisionChildValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.client.NewSession("").ProvisionChild(ctx, invitesdk.ProvisionChildRequest{})
	status, _ := apiCode(t, err)
	require.Equal(t, http.StatusUnauthorized, status)

	parent := s.session("dad", "dad@example.com", "paid")
	_, err = parent.UpgradeToParent(ctx)
	require.NoError(t, err)

	_, err = parent.ProvisionChild(ctx, invitesdk.ProvisionChildRequest{InviteCode: "ABCDEFGH", ApprovalToken: "x"})
	_, code := apiCode(t, err)
	require.Equal(t, invitesdk.CodeInvalidRequest, code)

	_, err = parent.ProvisionChild(ctx, invitesdk.ProvisionChildRequest{ApprovalToken: "x"})
	status, code = apiCode(t, err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, invitesdk.CodeMissingChildCredentials, code)

	_, err = parent.ProvisionChild(ctx, invitesdk.ProvisionChildRequest{Username: "mia", Password: "correct horse", ApprovalToken: "unknown"})
	status, code = apiCode(t, err)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, invitesdk.CodeNotFound, code)
}
