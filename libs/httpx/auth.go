package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/c-moralesv/lexagenda/libs/auth"
)

// StaffFromContext returns the verified staff claims, if any.
func StaffFromContext(ctx context.Context) *auth.Claims {
	v, _ := ctx.Value(ctxKeyStaff).(*auth.Claims)
	return v
}

// RequireStaff guards admin routes with a bearer token verified against
// the shared secret. Token issuance lives in the identity service.
func RequireStaff(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(raw, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAndVerifyHS256(strings.TrimPrefix(raw, "Bearer "), secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyStaff, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
