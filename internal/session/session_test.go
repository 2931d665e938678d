package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	signedIn := New(Principal{ID: "u1", Email: "a@b.io", DisplayName: "A"})

	tests := []struct {
		name string
		path string
		sess *Session
		want bool
	}{
		{"anonymous root", "/", nil, true},
		{"anonymous login", "/api/auth/login", nil, true},
		{"anonymous signup", "/api/auth/signup", nil, true},
		{"anonymous profile", "/profile", nil, false},
		{"anonymous api", "/api/cvs", nil, false},
		{"signed in login", "/api/auth/login", signedIn, false},
		{"signed in signup", "/signup", signedIn, false},
		{"signed in api", "/api/cvs", signedIn, true},
		{"signed in root", "/", signedIn, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.path, tt.sess))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := New(Principal{ID: "u1"})
	got, ok := FromContext(WithSession(context.Background(), s))
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID())

	var nilSession *Session
	assert.Equal(t, "", nilSession.UserID())
}
