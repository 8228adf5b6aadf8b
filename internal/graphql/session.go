package graphql

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserIDClaim is the token claim holding the Ridwell user id.
const UserIDClaim = "ridwell/userId"

// Session holds the login credentials and the current bearer token. The token
// and the user id decoded from it live in a single cell that is replaced
// atomically, so readers always see a matching pair.
type Session struct {
	email    string
	password string

	current atomic.Pointer[sessionToken]
}

type sessionToken struct {
	token     string
	userID    string
	expiresAt time.Time
}

// NewSession returns an unauthenticated Session for the given credentials.
func NewSession(email, password string) *Session {
	return &Session{email: email, password: password}
}

// Set decodes token and installs it together with its user id. The token
// signature is not verified; the API that issued it is trusted.
func (s *Session) Set(token string) error {
	st, err := decodeToken(token)
	if err != nil {
		return err
	}
	s.current.Store(st)
	return nil
}

// Token returns the current bearer token, or "" before the first login.
func (s *Session) Token() string {
	if st := s.current.Load(); st != nil {
		return st.token
	}
	return ""
}

// UserID returns the user id of the current token, or "" before the first
// login.
func (s *Session) UserID() string {
	if st := s.current.Load(); st != nil {
		return st.userID
	}
	return ""
}

// ExpiresAt returns the expiry of the current token. The zero time means no
// token is installed or the token carries no exp claim.
func (s *Session) ExpiresAt() time.Time {
	if st := s.current.Load(); st != nil {
		return st.expiresAt
	}
	return time.Time{}
}

// Authenticated reports whether a token is installed.
func (s *Session) Authenticated() bool {
	return s.current.Load() != nil
}

func decodeToken(token string) (*sessionToken, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthDecode, err)
	}

	raw, ok := claims[UserIDClaim]
	if !ok {
		return nil, fmt.Errorf("%w: claim %q missing", ErrAuthDecode, UserIDClaim)
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: claim %q is not a non-empty string", ErrAuthDecode, UserIDClaim)
	}

	st := &sessionToken{token: token, userID: userID}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		st.expiresAt = exp.Time
	}
	return st, nil
}
