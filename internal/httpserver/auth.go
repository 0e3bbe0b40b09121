// apps/solver/internal/httpserver/auth.go
//
// Admin authentication.
// Responsibilities:
//   - Signing HS256 admin tokens (used by the `token` command).
//   - Extracting a bearer token from the Authorization header or cookie.
//   - requireAuth middleware for /admin/* and /bench.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminAudience = "wordle-solver-admin"
	cookieName    = "solver_token"
)

// SignAdminToken creates an HS256 JWT for subject, valid for ttl.
func SignAdminToken(secret, subject string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{adminAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// ctxAdminKey is the context key type for the authenticated subject.
type ctxAdminKey struct{}

func adminFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxAdminKey{}).(string)
	return s
}

// requireAuth enforces a valid admin JWT and injects its subject into the
// request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	secret := []byte(s.cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithAudience(adminAudience),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid || claims.Subject == "" {
				writeError(w, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			ctx := context.WithValue(r.Context(), ctxAdminKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
