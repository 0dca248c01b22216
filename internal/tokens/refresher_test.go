package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshExchangesToken(t *testing.T) {
	var gotGrantType, gotRefreshToken, gotClientID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrantType = r.FormValue("grant_type")
		gotRefreshToken = r.FormValue("refresh_token")
		gotClientID = r.FormValue("client_id")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-bearer","token_type":"Bearer","refresh_token":"rotated","expires_in":3600}`))
	}))
	defer server.Close()

	refresher := NewRefresher(server.URL, "uef-widget")
	token, err := refresher.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", gotGrantType)
	assert.Equal(t, "old-refresh", gotRefreshToken)
	assert.Equal(t, "uef-widget", gotClientID)

	assert.Equal(t, "new-bearer", token.AccessToken)
	assert.Equal(t, "rotated", token.RefreshToken)
	assert.False(t, token.Expiry.IsZero(), "expected expiry derived from expires_in")
}

func TestRefreshRetainsRefreshTokenWhenNotRotated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-bearer"}`))
	}))
	defer server.Close()

	refresher := NewRefresher(server.URL, "")
	token, err := refresher.Refresh(context.Background(), "keep-me")
	require.NoError(t, err)
	assert.Equal(t, "keep-me", token.RefreshToken)
	assert.True(t, token.Expiry.IsZero())
}

func TestRefreshRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	refresher := NewRefresher(server.URL, "uef-widget")
	_, err := refresher.Refresh(context.Background(), "revoked")
	assert.Error(t, err)
}

func TestRefreshRequiresInputs(t *testing.T) {
	refresher := NewRefresher("", "uef-widget")
	_, err := refresher.Refresh(context.Background(), "x")
	assert.Error(t, err, "missing endpoint must fail")

	refresher = NewRefresher("https://provider.example.com/refresh", "uef-widget")
	_, err = refresher.Refresh(context.Background(), "")
	assert.Error(t, err, "missing refresh token must fail")
}

func TestRefreshRejectsEmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	refresher := NewRefresher(server.URL, "")
	_, err := refresher.Refresh(context.Background(), "r")
	assert.Error(t, err)
}
