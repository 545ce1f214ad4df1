package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// DefaultRedirectURI must be registered in the Spotify app settings.
	// Spotify requires an explicit loopback IP for local redirects.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
	callbackTimeout    = 2 * time.Minute
)

var (
	// ErrMissingCredentials is returned when the client ID or secret is empty.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Config holds the Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Authenticator handles Spotify OAuth2 authentication for export.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	cache       *TokenCache
	redirectURI string
	prompt      io.Writer
	logger      zerolog.Logger
}

// New creates an Authenticator with the default token cache. The
// authorization URL is printed to stderr when a login is needed.
func New(cfg Config, logger zerolog.Logger) (*Authenticator, error) {
	cache, err := DefaultTokenCache()
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}
	return NewWithCache(cfg, cache, logger)
}

// NewWithCache creates an Authenticator storing tokens in cache.
func NewWithCache(cfg Config, cache *TokenCache, logger zerolog.Logger) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = DefaultRedirectURI
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(redirect),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	return &Authenticator{
		auth:        auth,
		cache:       cache,
		redirectURI: redirect,
		prompt:      os.Stderr,
		logger:      logger,
	}, nil
}

// Authenticate returns an authenticated Spotify client, reusing the cached
// token when it still works and running the browser flow otherwise.
func (a *Authenticator) Authenticate(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("loading cached token: %w", err)
	}

	if token != nil {
		// oauth2 refreshes expired access tokens on first use.
		client := spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true))
		if _, err := client.CurrentUser(ctx); err == nil {
			if fresh, tokenErr := client.Token(); tokenErr == nil && fresh.AccessToken != token.AccessToken {
				if err := a.cache.Save(fresh); err != nil {
					a.logger.Warn().Err(err).Msg("saving refreshed token")
				}
			}
			return client, nil
		}
		a.logger.Info().Msg("cached Spotify token rejected, starting new authentication")
	}

	return a.runOAuthFlow(ctx)
}

// runOAuthFlow performs the authorization code flow with a local callback server.
func (a *Authenticator) runOAuthFlow(ctx context.Context) (*spotify.Client, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	redirect, err := url.Parse(a.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		a.handleCallback(w, r, state, tokenCh, errCh)
	})

	server := &http.Server{
		Addr:              redirect.Host,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errCh, fmt.Errorf("callback server error: %w", err))
		}
	}()

	fmt.Fprintln(a.prompt, "\nTo export to Spotify, open this URL in your browser:")
	fmt.Fprintln(a.prompt, a.auth.AuthURL(state))
	fmt.Fprintln(a.prompt, "\nWaiting for authentication...")

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}

	var token *oauth2.Token
	select {
	case token = <-tokenCh:
	case err := <-errCh:
		shutdown()
		return nil, err
	case <-time.After(callbackTimeout):
		shutdown()
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		shutdown()
		return nil, ctx.Err()
	}
	shutdown()

	if err := a.cache.Save(token); err != nil {
		a.logger.Warn().Err(err).Str("path", a.cache.Path()).Msg("caching token")
	}

	return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true)), nil
}

// handleCallback processes the OAuth callback from Spotify.
func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request, expectedState string, tokenCh chan<- *oauth2.Token, errCh chan<- error) {
	if r.URL.Query().Get("state") != expectedState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		sendErr(errCh, ErrStateMismatch)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
		sendErr(errCh, fmt.Errorf("spotify auth error: %s", errMsg))
		return
	}

	token, err := a.auth.Token(r.Context(), expectedState, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		sendErr(errCh, fmt.Errorf("exchanging code for token: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Connected to Spotify</title></head>
<body>
<h1>Connected to Spotify</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`)

	select {
	case tokenCh <- token:
	default:
	}
}

// sendErr delivers err without blocking when an error is already pending.
func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Logout removes the cached token.
func (a *Authenticator) Logout() error {
	return a.cache.Delete()
}
