package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bekosirs/bekoctl/internal/client/auth"
)

// Claims are the display-only fields decoded from a JWT access token. The
// signature is not verified; the server remains the authority.
type Claims struct {
	UserID    string    `json:"user_id,omitempty"`
	TokenType string    `json:"token_type,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Expired   bool      `json:"expired"`
}

// Info describes the stored credentials
type Info struct {
	auth.TokenInfo
	Phase  string  `json:"phase"`
	Claims *Claims `json:"claims,omitempty"`
}

// Inspect reports stored token presence and, when the access token is a
// JWT, its claims.
func (m *Manager) Inspect(ctx context.Context) Info {
	info := Info{
		TokenInfo: m.store.TokenInfo(ctx),
		Phase:     m.State().Phase.String(),
	}
	if token, ok := m.store.GetToken(ctx); ok {
		if claims, err := DecodeClaims(token, time.Now()); err == nil {
			info.Claims = claims
		} else {
			m.logger.Debug("Access token is not a decodable JWT", "error", err)
		}
	}
	return info
}

// DecodeClaims parses token without verifying it
func DecodeClaims(token string, now time.Time) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	claims := &Claims{}
	if uid, ok := mapClaims["user_id"]; ok {
		claims.UserID = fmt.Sprint(uid)
	} else if sub, err := mapClaims.GetSubject(); err == nil {
		claims.UserID = sub
	}
	if tt, ok := mapClaims["token_type"].(string); ok {
		claims.TokenType = tt
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
		claims.Expired = !now.Before(exp.Time)
	}
	return claims, nil
}
