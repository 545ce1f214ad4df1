package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenCache_SaveAndLoad(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
	}{
		{
			name: "with refresh token",
			token: &oauth2.Token{
				AccessToken:  "access",
				TokenType:    "Bearer",
				RefreshToken: "refresh",
				Expiry:       time.Now().Add(time.Hour).Round(time.Second),
			},
		},
		{
			name:  "access only",
			token: &oauth2.Token{AccessToken: "access-only", TokenType: "Bearer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewTokenCache(filepath.Join(t.TempDir(), "nested", "token.json"))

			require.NoError(t, cache.Save(tt.token))
			loaded, err := cache.Load()
			require.NoError(t, err)
			require.NotNil(t, loaded)

			assert.Equal(t, tt.token.AccessToken, loaded.AccessToken)
			assert.Equal(t, tt.token.RefreshToken, loaded.RefreshToken)
			assert.Equal(t, tt.token.TokenType, loaded.TokenType)
			assert.True(t, tt.token.Expiry.Equal(loaded.Expiry))
		})
	}
}

func TestTokenCache_LoadMissing(t *testing.T) {
	cache := NewTokenCache(filepath.Join(t.TempDir(), "none", "token.json"))

	token, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestTokenCache_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewTokenCache(path).Load()
	assert.Error(t, err)
}

func TestTokenCache_SaveNil(t *testing.T) {
	assert.Error(t, NewTokenCache(filepath.Join(t.TempDir(), "token.json")).Save(nil))
}

func TestTokenCache_SaveReplacesAndRestricts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	cache := NewTokenCache(path)

	require.NoError(t, cache.Save(&oauth2.Token{AccessToken: "first"}))
	require.NoError(t, cache.Save(&oauth2.Token{AccessToken: "second"}))

	loaded, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077, "token must not be group or world readable")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestTokenCache_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	cache := NewTokenCache(path)

	require.NoError(t, cache.Delete(), "missing file is fine")
	require.NoError(t, cache.Save(&oauth2.Token{AccessToken: "x"}))
	require.NoError(t, cache.Delete())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewWithCache(t *testing.T) {
	cache := NewTokenCache(filepath.Join(t.TempDir(), "token.json"))

	_, err := NewWithCache(Config{ClientID: "id"}, cache, zerolog.Nop())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	a, err := NewWithCache(Config{ClientID: "id", ClientSecret: "secret"}, cache, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultRedirectURI, a.redirectURI)

	a, err = NewWithCache(Config{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:9000/cb"}, cache, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/cb", a.redirectURI)
}

func TestHandleCallback_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{name: "state mismatch", query: "state=wrong&code=abc", wantErr: ErrStateMismatch},
		{name: "spotify error", query: "state=expected&error=access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewWithCache(Config{ClientID: "id", ClientSecret: "secret"},
				NewTokenCache(filepath.Join(t.TempDir(), "token.json")), zerolog.Nop())
			require.NoError(t, err)

			tokenCh := make(chan *oauth2.Token, 1)
			errCh := make(chan error, 1)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)

			a.handleCallback(rec, req, "expected", tokenCh, errCh)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.Len(t, errCh, 1)
			got := <-errCh
			if tt.wantErr != nil {
				assert.ErrorIs(t, got, tt.wantErr)
			} else {
				assert.Contains(t, got.Error(), "access_denied")
			}
			assert.Empty(t, tokenCh)
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	require.NoError(t, err)
	b, err := generateState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
