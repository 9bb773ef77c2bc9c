package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fildor/atelier-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"auth0|123","email":"awa@atelier.test","name":"Awa"}`))
	}))
	defer server.Close()

	service := NewAuth0Service(&config.Config{Auth0Domain: server.URL})

	t.Run("valid token", func(t *testing.T) {
		info, err := service.GetUserInfo(context.Background(), "good-token")
		require.NoError(t, err)
		assert.Equal(t, "auth0|123", info.Sub)
		assert.Equal(t, "awa@atelier.test", info.Email)
		assert.Equal(t, "Awa", info.Name)
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := service.GetUserInfo(context.Background(), "bad-token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.GetUserInfo(ctx, "good-token")
		assert.Error(t, err)
	})
}
