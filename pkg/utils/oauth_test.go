package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenServer(t *testing.T, status int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "credentials must use basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		if status != http.StatusOK {
			http.Error(w, `{"error":"invalid_client"}`, status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc123","token_type":"bearer","expires_in":86399}`))
	}))
}

func TestTokenCache_AccessToken(t *testing.T) {
	var calls int32
	server := newTokenServer(t, http.StatusOK, &calls)
	defer server.Close()

	cache := NewTokenCache(server.URL, "client-id", "client-secret", server.Client(), zap.NewNop())

	token, err := cache.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	// second call is served from the cache
	token, err = cache.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenCache_Non2xxIsError(t *testing.T) {
	var calls int32
	server := newTokenServer(t, http.StatusUnauthorized, &calls)
	defer server.Close()

	cache := NewTokenCache(server.URL, "client-id", "client-secret", server.Client(), zap.NewNop())

	token, err := cache.AccessToken(context.Background())
	require.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), "failed to get access token")
}

func TestTokenCache_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cache := NewTokenCache(url, "client-id", "client-secret", nil, zap.NewNop())

	_, err := cache.AccessToken(context.Background())
	assert.Error(t, err)
}
