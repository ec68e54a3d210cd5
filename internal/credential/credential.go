// Package credential handles the access tokens handed to CreateCallAgent.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/callstate/internal/sdk"
)

var (
	ErrEmptyToken      = errors.New("empty access token")
	ErrMissingIdentity = errors.New("access token has no identity")
	ErrTokenExpired    = errors.New("access token expired")
)

// Claims are the access token claims the client cares about.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Token is a parsed access token.
type Token struct {
	Raw       string
	Identity  string
	Name      string
	ExpiresAt time.Time
}

// Identifier returns the communication identifier of the token owner.
func (t *Token) Identifier() sdk.Identifier {
	return sdk.CommunicationUser(t.Identity)
}

// Expired reports whether the token is expired at now. Tokens without an
// expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Parse decodes the token without verifying its signature. Clients never hold
// the signing secret; the service validates the signature.
func Parse(raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return tokenFromClaims(raw, claims)
}

// Verify parses the token and checks its HMAC signature and expiry.
func Verify(raw, secret string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyToken
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return tokenFromClaims(raw, claims)
}

func tokenFromClaims(raw string, claims *Claims) (*Token, error) {
	if claims.Subject == "" {
		return nil, ErrMissingIdentity
	}
	t := &Token{
		Raw:      raw,
		Identity: claims.Subject,
		Name:     claims.Name,
	}
	if claims.ExpiresAt != nil {
		t.ExpiresAt = claims.ExpiresAt.Time
	}
	return t, nil
}

// MintConfig describes a token to mint.
type MintConfig struct {
	APIKey      string
	APISecret   string
	Identity    string
	DisplayName string
	TTL         time.Duration
}

// Mint issues an HMAC-signed access token for the simulated service.
func Mint(cfg MintConfig) (string, error) {
	if cfg.Identity == "" {
		return "", ErrMissingIdentity
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	at := auth.NewAccessToken(cfg.APIKey, cfg.APISecret)
	at.SetVideoGrant(&auth.VideoGrant{RoomJoin: true}).
		SetIdentity(cfg.Identity).
		SetName(cfg.DisplayName).
		SetValidFor(ttl)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Static is a TokenCredential that always returns the same token.
type Static struct {
	token string
}

// NewStatic wraps a raw token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the wrapped token.
func (s *Static) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.token == "" {
		return "", ErrEmptyToken
	}
	return s.token, nil
}

var _ sdk.TokenCredential = (*Static)(nil)
