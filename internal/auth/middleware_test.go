package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gated(t *testing.T, s *TokenService) (http.Handler, *string, *bool) {
	t.Helper()
	var gotID string
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotID, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return Middleware(s, nil)(next), &gotID, &called
}

func TestGate_MissingHeader(t *testing.T) {
	h, _, called := gated(t, newTokens(t, 0))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Please authenticate."}`, rec.Body.String())
	assert.False(t, *called, "downstream handler must not run")
}

func TestGate_RejectsBadCredentials(t *testing.T) {
	s := newTokens(t, 0)
	other, err := NewTokenService("a-completely-different-secret", 0)
	require.NoError(t, err)
	foreign, err := other.Issue("u1")
	require.NoError(t, err)
	valid, err := s.Issue("u1")
	require.NoError(t, err)

	headers := []string{
		"Bearer ",
		"Bearer garbage",
		"Bearer " + foreign,
		"Basic dXNlcjpwYXNz",
		valid, // no scheme
	}
	for _, hdr := range headers {
		h, _, called := gated(t, s)
		req := httptest.NewRequest(http.MethodGet, "/posts/user", nil)
		req.Header.Set("Authorization", hdr)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, hdr)
		assert.False(t, *called, hdr)
	}
}

func TestGate_AttachesIdentity(t *testing.T) {
	s := newTokens(t, 0)
	tok, err := s.Issue("user-42")
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer ", "bearer "} {
		h, gotID, called := gated(t, s)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", scheme+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, *called)
		assert.Equal(t, "user-42", *gotID)
	}
}

func TestIdentityFrom_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := IdentityFrom(req.Context())
	assert.False(t, ok)

	_, ok = IdentityFrom(WithIdentity(req.Context(), ""))
	assert.False(t, ok)
}
