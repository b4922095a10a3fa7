// Package pendingcookie carries "which invite am I resuming" across the
// redirect chain of an invite link. The payload is a hint for routing only
// and is never used to authorize anything.
package pendingcookie

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Name is the cookie name.
	Name = "cliq_pending_invite"

	// MaxAge is how long a pending invite survives in the browser.
	MaxAge = 7 * 24 * time.Hour

	// Version is the current payload schema. Version 1 was unsigned
	// base64url JSON.
	Version = 2

	issuer = "cliq"
)

var (
	ErrInvalid    = errors.New("pendingcookie: invalid payload")
	ErrNoSecret   = errors.New("pendingcookie: secret is required")
	ErrNotPresent = errors.New("pendingcookie: cookie not present")
)

// Payload is what the cookie remembers about the invite.
type Payload struct {
	InviteID        string `json:"inviteId"`
	CliqID          string `json:"cliqId,omitempty"`
	InviteType      string `json:"inviteType"`
	FriendFirstName string `json:"friendFirstName,omitempty"`
	FriendLastName  string `json:"friendLastName,omitempty"`
}

type claims struct {
	V int `json:"v"`
	Payload
	jwt.RegisteredClaims
}

// Codec signs and verifies cookie values with an HMAC secret.
type Codec struct {
	Secret []byte
	Secure bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Encode returns a signed cookie value for p.
func (c *Codec) Encode(p Payload) (string, error) {
	if len(c.Secret) == 0 {
		return "", ErrNoSecret
	}
	if p.InviteID == "" {
		return "", ErrInvalid
	}

	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		V:       Version,
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge)),
		},
	})
	return tok.SignedString(c.Secret)
}

// Decode verifies a cookie value. Legacy unsigned values are still read so
// links opened before the format change keep working; callers should
// re-issue them with Encode.
func (c *Codec) Decode(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrInvalid
	}
	if strings.Count(raw, ".") != 2 {
		return decodeLegacy(raw)
	}
	if len(c.Secret) == 0 {
		return Payload{}, ErrNoSecret
	}

	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl,
		func(*jwt.Token) (any, error) { return c.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if cl.V != Version || cl.InviteID == "" {
		return Payload{}, ErrInvalid
	}
	return cl.Payload, nil
}

func decodeLegacy(raw string) (Payload, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return Payload{}, ErrInvalid
	}
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil || p.InviteID == "" {
		return Payload{}, ErrInvalid
	}
	return p, nil
}

// Set writes the cookie for p.
func (c *Codec) Set(w http.ResponseWriter, p Payload) error {
	v, err := c.Encode(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    v,
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read decodes the cookie from r.
func (c *Codec) Read(r *http.Request) (Payload, error) {
	ck, err := r.Cookie(Name)
	if err != nil {
		return Payload{}, ErrNotPresent
	}
	return c.Decode(ck.Value)
}

// Clear expires the cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
