// Package session carries the authenticated identity of a request and the
// route rules that depend on it.
package session

import (
	"context"
	"strings"
	"time"
)

// Principal is the identity yielded by an auth provider.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Session is created by the auth middleware for every signed-in request and
// passed explicitly to whatever needs identity.
type Session struct {
	Principal Principal
	StartedAt time.Time
}

func New(p Principal) *Session {
	return &Session{Principal: p, StartedAt: time.Now().UTC()}
}

// UserID returns "" for a nil session.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.Principal.ID
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

var authPaths = []string{"/login", "/signup"}

// Allowed decides whether a path may be visited. Signed-in users are kept
// away from the login and signup pages; anonymous visitors may only reach
// those pages and the root.
func Allowed(path string, s *Session) bool {
	if s != nil {
		for _, p := range authPaths {
			if strings.HasSuffix(path, p) {
				return false
			}
		}
		return true
	}
	if path == "/" {
		return true
	}
	for _, p := range authPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}
