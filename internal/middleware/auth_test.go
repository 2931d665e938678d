package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvbuilder/backend/internal/session"
)

var ada = session.Principal{ID: "u1", Email: "ada@example.com", DisplayName: "Ada"}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier("secret", time.Hour)
	tok, err := v.Issue(ada)
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, ada, *p)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier("secret", time.Hour)

	other, err := NewJWTVerifier("other", time.Hour).Issue(ada)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTVerifier("secret", -time.Minute).Issue(ada)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noName, err := v.Issue(session.Principal{ID: "u2", Email: "x@example.com"})
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noName)
	assert.ErrorIs(t, err, ErrIncompleteProfile)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(GetUserID(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	v := NewJWTVerifier("secret", time.Hour)
	tok, err := v.Issue(ada)
	require.NoError(t, err)
	h := Authenticate(v)(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid", "Bearer " + tok, http.StatusOK, "u1"},
		{"bad scheme", "Basic " + tok, http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cvs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestGuard(t *testing.T) {
	h := Guard()(http.HandlerFunc(echoUser))
	signedIn := session.New(ada)

	cases := []struct {
		path   string
		sess   *session.Session
		status int
	}{
		{"/api/cvs", nil, http.StatusUnauthorized},
		{"/api/auth/login", nil, http.StatusOK},
		{"/api/auth/signup", nil, http.StatusOK},
		{"/api/cvs", signedIn, http.StatusOK},
		{"/api/auth/login", signedIn, http.StatusSeeOther},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.sess != nil {
			req = req.WithContext(session.WithSession(req.Context(), tc.sess))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.path)
	}
}

func TestCurrentPrincipal(t *testing.T) {
	assert.Nil(t, CurrentPrincipal(context.Background()))

	ctx := session.WithSession(context.Background(), session.New(ada))
	require.NotNil(t, CurrentPrincipal(ctx))
	assert.Equal(t, "u1", CurrentPrincipal(ctx).ID)
}
