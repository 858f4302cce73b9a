package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bekosirs/bekoctl/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Messages returned with 401 responses
const (
	MsgCredentialsMissing = "Authentication credentials were not provided."
	MsgTokenInvalid       = "Given token not valid for any token type"
)

// RequireBearer returns middleware that admits only requests carrying a
// valid access token. The token's user ID is stored in the request context.
func RequireBearer(issuer *auth.TokenIssuer, onFailure func(r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				unauthorized(w, r, MsgCredentialsMissing, onFailure)
				return
			}

			claims, err := issuer.Verify(token, auth.TokenTypeAccess)
			if err != nil {
				unauthorized(w, r, MsgTokenInvalid, onFailure)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user ID stored by RequireBearer
func UserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail string, onFailure func(r *http.Request)) {
	if onFailure != nil {
		onFailure(r)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
