// Package jwtxtest mints tokens the way the auth service does, for tests
// that need a caller.
package jwtxtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/aussiebroadwan/cliq/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

// Signer signs tokens with a throwaway Ed25519 key.
type Signer struct {
	kid string
	key ed25519.PrivateKey
}

// NewSigner creates a signer with a fresh keypair.
func NewSigner(kid string) (*Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtxtest: generate Ed25519: %w", err)
	}
	return &Signer{kid: kid, key: key}, nil
}

// Sign turns claims into a compact JWS with the kid header set.
func (s *Signer) Sign(claims jwtx.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicJWK is the key a verifier needs to accept this signer's tokens.
func (s *Signer) PublicJWK() jwtx.JWK {
	return jwtx.NewEd25519JWK(s.kid, "sig", jwt.SigningMethodEdDSA.Alg(), s.key.Public().(ed25519.PublicKey))
}

// JWKS publishes the public key as a one-key set.
func (s *Signer) JWKS() jwtx.JWKS {
	return jwtx.JWKS{Keys: []jwtx.JWK{s.PublicJWK()}}
}
