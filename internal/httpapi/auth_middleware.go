package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
)

type authCtxKey int

const authClaimsKey authCtxKey = iota

// requireAuth accepts a Bearer token issued for one of the given account
// kinds and stashes its claims in the request context.
func (a *api) requireAuth(next http.HandlerFunc, kinds ...domain.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		claims, err := a.tokens.Validate(raw)
		if err != nil {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		if len(kinds) > 0 && !kindAllowed(claims.Kind, kinds) {
			WriteDomainError(w, domain.ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func kindAllowed(kind domain.AccountKind, kinds []domain.AccountKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func CurrentClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(authClaimsKey).(auth.Claims)
	return c, ok
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
