package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return token
}

func TestDecodeClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		claims      jwt.MapClaims
		wantUserID  string
		wantExpired bool
	}{
		{
			name:       "numeric user id",
			claims:     jwt.MapClaims{"user_id": 42, "token_type": "access", "exp": now.Add(time.Hour).Unix()},
			wantUserID: "42",
		},
		{
			name:        "expired",
			claims:      jwt.MapClaims{"user_id": 42, "exp": now.Add(-time.Minute).Unix()},
			wantUserID:  "42",
			wantExpired: true,
		},
		{
			name:       "subject fallback",
			claims:     jwt.MapClaims{"sub": "ayse"},
			wantUserID: "ayse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := DecodeClaims(signedToken(t, tt.claims), now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, claims.UserID)
			assert.Equal(t, tt.wantExpired, claims.Expired)
		})
	}
}

func TestDecodeClaims_OpaqueToken(t *testing.T) {
	_, err := DecodeClaims("opaque-token", time.Now())
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	f := newFixture(t, tokenResponse(`{}`), Options{})
	ctx := context.Background()

	info := f.manager.Inspect(ctx)
	assert.False(t, info.HasAccessToken)
	assert.Nil(t, info.Claims)
	assert.Equal(t, "unknown", info.Phase)

	token := signedToken(t, jwt.MapClaims{"user_id": 7, "token_type": "access", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, f.store.SaveTokens(ctx, token, "R1"))
	f.manager.Restore(ctx)

	info = f.manager.Inspect(ctx)
	assert.True(t, info.HasAccessToken)
	assert.True(t, info.HasRefreshToken)
	assert.Equal(t, "authenticated", info.Phase)
	require.NotNil(t, info.Claims)
	assert.Equal(t, "7", info.Claims.UserID)
	assert.Equal(t, "access", info.Claims.TokenType)
	assert.False(t, info.Claims.Expired)

	// Opaque tokens are reported without claims
	require.NoError(t, f.store.SaveToken(ctx, "opaque"))
	assert.Nil(t, f.manager.Inspect(ctx).Claims)
}
