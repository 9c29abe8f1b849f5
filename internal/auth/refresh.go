package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"longevity/internal/store"
)

// refreshBuffer is how early a token is refreshed before it expires
const refreshBuffer = 60 * time.Second

// TokenStore persists provider tokens
type TokenStore interface {
	GetAuth(ctx context.Context, provider string) (*store.Auth, error)
	SaveAuth(ctx context.Context, auth *store.Auth) error
	UpdateTokens(ctx context.Context, provider, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenSource wraps oauth2.TokenSource with persistence
// It automatically refreshes tokens and calls onRefresh when a new token is obtained
type TokenSource struct {
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex

	ctx context.Context
}

// NewTokenSource creates a new TokenSource that will refresh tokens as needed
// and call onRefresh to persist new tokens
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
		ctx:       context.Background(),
	}
}

// LoadTokenSource builds a TokenSource from the tokens stored for Provider.
// Refreshed tokens are written back to the store.
// Returns store.ErrNoAuth when the user has not connected Strava yet.
func LoadTokenSource(ctx context.Context, ts TokenStore, cfg *oauth2.Config) (*TokenSource, error) {
	a, err := ts.GetAuth(ctx, Provider)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       a.ExpiresAt,
	}

	src := NewTokenSource(cfg, token, func(t *oauth2.Token) error {
		return ts.UpdateTokens(ctx, Provider, t.AccessToken, t.RefreshToken, t.Expiry)
	})
	src.ctx = ctx
	return src, nil
}

// SaveResult stores the tokens from a completed OAuth flow
func SaveResult(ctx context.Context, ts TokenStore, result *AuthResult) error {
	err := ts.SaveAuth(ctx, &store.Auth{
		Provider:     Provider,
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	})
	if err != nil {
		return fmt.Errorf("saving %s tokens: %w", Provider, err)
	}
	return nil
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}

	// Force a refresh; the embedded token is still "valid" to oauth2 inside the buffer
	stale := *ts.token
	stale.Expiry = time.Now().Add(-time.Second)
	newToken, err := ts.config.TokenSource(ts.ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	// Persist the new token if callback is set
	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, err
		}
	}

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or will expire within the buffer
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return time.Until(ts.token.Expiry) <= refreshBuffer
}

// CurrentToken returns the current token without refreshing
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}
