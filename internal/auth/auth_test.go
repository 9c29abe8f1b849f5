package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"longevity/internal/config"
	"longevity/internal/store"
)

func TestNewOAuthConfig(t *testing.T) {
	cfg := NewOAuthConfig(config.StravaConfig{ClientID: "123", ClientSecret: "s", CallbackPort: 9000})

	assert.Equal(t, "123", cfg.ClientID)
	assert.Equal(t, "http://localhost:9000/callback", cfg.RedirectURL)
	assert.Equal(t, TokenURL, cfg.Endpoint.TokenURL)
}

func TestExtractAthleteID(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]interface{}{
		"athlete": map[string]interface{}{"id": float64(4242)},
	})
	assert.Equal(t, int64(4242), ExtractAthleteID(tok))
	assert.Equal(t, int64(0), ExtractAthleteID(&oauth2.Token{}))
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
		status   int
	}{
		{"success", "?state=abc&code=xyz", "xyz", "", http.StatusOK},
		{"state mismatch", "?state=nope&code=xyz", "", "state mismatch", http.StatusBadRequest},
		{"denied", "?state=abc&error=access_denied", "", "access_denied", http.StatusBadRequest},
		{"missing code", "?state=abc", "", "no code", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			h := callbackHandler("abc", codeChan, errChan)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, <-codeChan)
				return
			}
			err := <-errChan
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func newTokenServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-access",
			"refresh_token": "fresh-refresh",
			"token_type":    "Bearer",
			"expires_in":    21600,
		})
	}))
}

func TestLoadTokenSourceRefreshesAndPersists(t *testing.T) {
	ctx := context.Background()
	db := store.NewTestDB(t)

	var calls int
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	cfg := &oauth2.Config{ClientID: "id", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: srv.URL}}

	require.NoError(t, SaveResult(ctx, db, &AuthResult{
		Token:     &oauth2.Token{AccessToken: "old", RefreshToken: "old-refresh", Expiry: time.Now().Add(30 * time.Second)},
		AthleteID: 7,
	}))

	src, err := LoadTokenSource(ctx, db, cfg)
	require.NoError(t, err)
	assert.True(t, src.IsExpired())

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.Equal(t, 1, calls)

	stored, err := db.GetAuth(ctx, Provider)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.Equal(t, "fresh-refresh", stored.RefreshToken)
	assert.Equal(t, int64(7), stored.AthleteID)

	// valid token is reused
	_, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, src.IsExpired())
}

func TestLoadTokenSourceWithoutAuth(t *testing.T) {
	db := store.NewTestDB(t)
	_, err := LoadTokenSource(context.Background(), db, &oauth2.Config{})
	assert.ErrorIs(t, err, store.ErrNoAuth)
}
