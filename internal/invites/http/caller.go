package http

import (
	"net/http"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
)

// requireCaller loads the stored account behind the verified bearer token.
// Role and plan always come from the store, never from the token alone.
func requireCaller(r *http.Request, accounts *service.AccountService) (domain.User, error) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return domain.User{}, service.ErrUnauthorized
	}
	return accounts.Caller(r.Context(), claims)
}

// optionalCaller is requireCaller for endpoints open to signed-out visitors.
// It returns nil when no bearer token was sent.
func optionalCaller(r *http.Request, accounts *service.AccountService) (*domain.User, error) {
	if _, ok := httpx.ClaimsFromContext(r.Context()); !ok {
		return nil, nil
	}
	u, err := requireCaller(r, accounts)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
