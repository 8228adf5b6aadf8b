// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// NewAuthMiddleware returns middleware that requires
//
//	Authorization: Bearer <token>
//
// on every request. The prefix is case-sensitive and followed by exactly one
// space. Rejected requests get a 401 with a WWW-Authenticate challenge and
// are logged at warn level. An empty token disables the check.
func NewAuthMiddleware(token string, logger zerolog.Logger) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !validBearer(r.Header.Get("Authorization"), want) {
				logger.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("rejected unauthenticated request")
				w.Header().Set("WWW-Authenticate", `Bearer realm="ridwell-mcp"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validBearer(header string, want []byte) bool {
	provided, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), want) == 1
}
