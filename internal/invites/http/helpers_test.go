package http_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	invitehttp "github.com/aussiebroadwan/cliq/internal/invites/http"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/invitesdk"
	"github.com/aussiebroadwan/cliq/pkg/jwtx"
	"github.com/aussiebroadwan/cliq/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/cliq/pkg/pendingcookie"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.cliq.test"

// clock is the service clock. Bearer tokens keep using wall time.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu        sync.Mutex
	approvals []domain.ApprovalNotice
	codes     []domain.VerificationNotice
}

func (n *recordingNotifier) SendParentApproval(_ context.Context, notice domain.ApprovalNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, notice)
	return nil
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, notice domain.VerificationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, notice)
	return nil
}

func (n *recordingNotifier) approvalCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.approvals)
}

func (n *recordingNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1].Code
}

type testServer struct {
	t        *testing.T
	url      string
	client   *invitesdk.SDKClient
	signer   *jwtxtest.Signer
	store    *sqlite.Store
	clock    *clock
	notifier *recordingNotifier
	cookies  *pendingcookie.Codec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// Tests replay requests from one address far faster than production
	// limits allow.
	for _, l := range []*httpx.RateLimitConfig{&httpx.StrictLimit, &httpx.ModerateLimit, &httpx.LenientLimit} {
		prev := *l
		*l = httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
		t.Cleanup(func() { *l = prev })
	}

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "cliq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtxtest.NewSigner("test-key")
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddJWK(signer.PublicJWK()))
	verifier := jwtx.NewVerifier(keys, jwtx.VerifyOptions{Issuer: testIssuer})

	clk := &clock{now: time.Now().UTC().Truncate(time.Second)}
	notifier := &recordingNotifier{}
	metrics := telemetry.NewMetrics()
	cookies := &pendingcookie.Codec{Secret: []byte("cookie-secret-for-tests")}

	approvals := &service.ApprovalService{Store: st, Notifier: notifier, Metrics: metrics, Now: clk.Now}

	router := invitehttp.NewRouter(verifier, keys, "test", st, slogx.Discard())
	router.BaseURL = "https://cliq.test"
	router.Cookies = cookies
	router.Metrics = metrics
	router.InviteService = &service.InviteService{Store: st, Metrics: metrics, Now: clk.Now}
	router.ApprovalService = approvals
	router.ProvisioningService = &service.ProvisioningService{Store: st, Hasher: cryptox.NewHasher("pepper"), Metrics: metrics, Now: clk.Now}
	router.AccountService = &service.AccountService{Store: st, Now: clk.Now}
	router.VerificationService = &service.VerificationService{Store: st, Notifier: notifier, Metrics: metrics, Now: clk.Now}
	router.CliqService = &service.CliqService{Store: st, Now: clk.Now}
	router.NextStepService = &service.NextStepService{Store: st, Now: clk.Now}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		t:        t,
		url:      srv.URL,
		client:   invitesdk.NewSDKClient(srv.URL),
		signer:   signer,
		store:    st,
		clock:    clk,
		notifier: notifier,
		cookies:  cookies,
	}
}

// token signs an access token for sub, who is seen by the service on first
// use.
func (s *testServer) token(sub, email, plan string) string {
	s.t.Helper()
	c := jwtx.NewAccessClaims(sub, testIssuer, nil, time.Hour, time.Now())
	c.Email = email
	c.Plan = plan
	c.PreferredName = sub
	raw, err := s.signer.Sign(c)
	require.NoError(s.t, err)
	return raw
}

func (s *testServer) session(sub, email, plan string) *invitesdk.Session {
	return s.client.NewSession(s.token(sub, email, plan))
}

// cliqWithInvite has owner create a cliq and an invite in it.
func (s *testServer) cliqWithInvite(owner *invitesdk.Session, req invitesdk.CreateInviteRequest) (*invitesdk.CliqResponse, *invitesdk.CreateInviteResponse) {
	s.t.Helper()
	ctx := context.Background()

	c, err := owner.CreateCliq(ctx, "Saturday Soccer")
	require.NoError(s.t, err)

	req.CliqID = c.ID
	inv, err := owner.CreateInvite(ctx, req)
	require.NoError(s.t, err)
	return c, inv
}

func apiCode(t *testing.T, err error) (int, string) {
	t.Helper()
	var apiErr *invitesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.StatusCode, apiErr.Code
}
