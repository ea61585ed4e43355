package apiclient

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from the access token without its signing key.
type TokenInfo struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID    any    `json:"user_id"`
	TokenType string `json:"token_type"`
}

// InspectToken decodes a JWT access token without verifying its signature.
// The result is informational only; the backend remains the authority.
func InspectToken(raw string) (TokenInfo, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("apiclient: inspect token: %w", err)
	}

	info := TokenInfo{TokenType: claims.TokenType}
	if claims.UserID != nil {
		info.UserID = fmt.Sprint(claims.UserID)
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Token inspects the client's current access token cookie.
func (c *Client) Token() (TokenInfo, bool) {
	raw := c.SessionToken()
	if raw == "" {
		return TokenInfo{}, false
	}
	info, err := InspectToken(raw)
	if err != nil {
		return TokenInfo{}, false
	}
	return info, true
}
