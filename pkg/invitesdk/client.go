package invitesdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient talks to the public endpoints of the invite service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient returns a client with a 10s timeout. Redirects are not
// followed so redemption responses can be inspected.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// NewSession returns a Session that authenticates with accessToken.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, token: accessToken}
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// Redeem opens an invite link and returns the redirect location and the
// pending-invite cookie, if one was set.
func (c *SDKClient) Redeem(ctx context.Context, token string) (string, *http.Cookie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/v1/invites/redeem/"+url.PathEscape(token)), nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var pending *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "cliq_pending_invite" {
			pending = ck
		}
	}
	return resp.Header.Get("Location"), pending, nil
}

// RequestApproval asks a parent to approve a child. Signed-out children use
// this directly; see Session.RequestApproval for the signed-in variant.
func (c *SDKClient) RequestApproval(ctx context.Context, req RequestApprovalRequest) (*RequestApprovalResponse, error) {
	return requestApproval(ctx, c, "", req)
}

func requestApproval(ctx context.Context, c *SDKClient, token string, req RequestApprovalRequest) (*RequestApprovalResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/approvals", token, req)
	if err != nil {
		return nil, err
	}
	var out RequestApprovalResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetApproval reads a pending approval by its token.
func (c *SDKClient) GetApproval(ctx context.Context, token string) (*ApprovalResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/approvals/"+url.PathEscape(token), "", nil)
	if err != nil {
		return nil, err
	}
	var out ApprovalResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RespondApproval approves or declines.
func (c *SDKClient) RespondApproval(ctx context.Context, req RespondApprovalRequest) (*RespondApprovalResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/approvals/respond", "", req)
	if err != nil {
		return nil, err
	}
	var out RespondApprovalResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendApproval re-delivers the approval email for the same record.
func (c *SDKClient) ResendApproval(ctx context.Context, token string) (*ResendApprovalResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/approvals/resend", "", ResendApprovalRequest{Token: token})
	if err != nil {
		return nil, err
	}
	var out ResendApprovalResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
