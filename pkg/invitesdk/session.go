package invitesdk

import (
	"context"
	"net/http"
	"net/url"
)

// Session performs requests as one signed-in account. It is safe for
// concurrent use.
type Session struct {
	client *SDKClient
	token  string
}

func (s *Session) CreateCliq(ctx context.Context, name string) (*CliqResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/cliqs", s.token, CreateCliqRequest{Name: name})
	if err != nil {
		return nil, err
	}
	var out CliqResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateInvite(ctx context.Context, req CreateInviteRequest) (*CreateInviteResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/invites", s.token, req)
	if err != nil {
		return nil, err
	}
	var out CreateInviteResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvite joins the invite's cliq as the session's account.
func (s *Session) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*AcceptInviteResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/invites/accept", s.token, req)
	if err != nil {
		return nil, err
	}
	var out AcceptInviteResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CancelInvite(ctx context.Context, inviteID string) (*CancelInviteResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/invites/"+url.PathEscape(inviteID)+"/cancel", s.token, nil)
	if err != nil {
		return nil, err
	}
	var out CancelInviteResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// NextStep returns the routing decision for an invite key.
func (s *Session) NextStep(ctx context.Context, key string) (*NextStepResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/invites/next?key="+url.QueryEscape(key), s.token, nil)
	if err != nil {
		return nil, err
	}
	var out NextStepResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestApproval asks a parent to approve a child while signed in.
func (s *Session) RequestApproval(ctx context.Context, req RequestApprovalRequest) (*RequestApprovalResponse, error) {
	return requestApproval(ctx, s.client, s.token, req)
}

func (s *Session) ProvisionChild(ctx context.Context, req ProvisionChildRequest) (*ProvisionChildResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/children", s.token, req)
	if err != nil {
		return nil, err
	}
	var out ProvisionChildResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpgradeToParent turns a paid or identity-verified adult into a parent.
func (s *Session) UpgradeToParent(ctx context.Context) (*UpgradeResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/account/upgrade", s.token, nil)
	if err != nil {
		return nil, err
	}
	var out UpgradeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) StartVerification(ctx context.Context) (*StartVerificationResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/verification/start", s.token, nil)
	if err != nil {
		return nil, err
	}
	var out StartVerificationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ConfirmVerification(ctx context.Context, code string) (*ConfirmVerificationResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/verification/confirm", s.token, ConfirmVerificationRequest{Code: code})
	if err != nil {
		return nil, err
	}
	var out ConfirmVerificationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
