package jwtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultMinRefresh bounds how often an unknown kid may trigger a refetch.
const DefaultMinRefresh = 30 * time.Second

// LoadJWKS decodes a JWKS document.
func LoadJWKS(data []byte) (JWKS, error) {
	var jwks JWKS
	if err := json.Unmarshal(data, &jwks); err != nil {
		return JWKS{}, fmt.Errorf("jwtx: decode jwks: %w", err)
	}
	if len(jwks.Keys) == 0 {
		return JWKS{}, errors.New("jwtx: jwks has no keys")
	}
	return jwks, nil
}

// RemoteKeySet resolves keys from a JWKS URL. Keys are fetched on first use
// and refetched when a token names a kid that is not loaded, at most once
// per MinRefresh. No background refresh runs.
type RemoteKeySet struct {
	URL        string
	Client     *http.Client
	MinRefresh time.Duration

	keys *KeySet

	mu        sync.Mutex
	lastFetch time.Time
}

// NewRemoteKeySet returns a RemoteKeySet for url.
func NewRemoteKeySet(url string, client *http.Client) *RemoteKeySet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteKeySet{
		URL:        url,
		Client:     client,
		MinRefresh: DefaultMinRefresh,
		keys:       NewKeySet(),
	}
}

// Key returns the key for kid, refetching the JWKS if kid is unknown.
func (r *RemoteKeySet) Key(ctx context.Context, kid string) (any, error) {
	if pk, err := r.keys.Get(kid); err == nil {
		return pk, nil
	}
	if err := r.refresh(ctx); err != nil {
		return nil, err
	}
	return r.keys.Get(kid)
}

// Ready reports whether at least one key is loaded, fetching if needed.
func (r *RemoteKeySet) Ready(ctx context.Context) error {
	if r.keys.Len() > 0 {
		return nil
	}
	return r.refresh(ctx)
}

func (r *RemoteKeySet) refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastFetch.IsZero() && time.Since(r.lastFetch) < r.MinRefresh {
		return nil
	}
	r.lastFetch = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("jwtx: build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("jwtx: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwtx: fetch jwks: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("jwtx: read jwks: %w", err)
	}
	jwks, err := LoadJWKS(body)
	if err != nil {
		return err
	}
	return r.keys.ResetFromJWKS(jwks)
}
