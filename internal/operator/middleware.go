package operator

import (
	"net/http"
	"strings"

	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
)

// RequireOperator gates a route behind a valid operator token.
// The operator ID from the token is placed on the request context.
func RequireOperator(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Error(w, errors.Unauthorized("malformed authorization header"))
				return
			}

			claims, err := tm.Validate(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithOperator(r.Context(), claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
