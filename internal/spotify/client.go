// Package spotify exports generated playlists to a Spotify account.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// API is the subset of the Spotify Web API client used for export.
// *spotify.Client satisfies it.
type API interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
}

var _ API = (*spotify.Client)(nil)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api API
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api API) *Client {
	return &Client{api: api}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}
