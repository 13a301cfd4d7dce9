package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/deskforge/authkit/token"
)

// AccessVerifier validates a bearer access token. *authkit.Gateway
// satisfies it.
type AccessVerifier interface {
	VerifyAccess(tokenStr string) (*token.Claims, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the verified access claims Guard stored on the
// request context.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Guard returns middleware that rejects requests without a valid bearer
// access token and attaches the claims to the request context. The response
// is a bare 401 either way; the reason is not leaked to the caller.
func Guard(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyAccess(tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tokenStr := value[len(bearer):]
	if tokenStr == "" {
		return "", false
	}

	return tokenStr, true
}
