// Package deezer provides a Deezer public API client used as the track catalogue.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

const (
	// DefaultBaseURL is the public Deezer API endpoint.
	DefaultBaseURL = "https://api.deezer.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "photo-playlist/1.0"
)

// Deezer API error codes.
const (
	errCodeQuota        = 4
	errCodeInvalidQuery = 600
	errCodeDataNotFound = 800
)

// Sentinel errors.
var (
	// ErrQuotaExceeded is returned when the request quota is still exceeded after retries.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("not found")

	// errUnavailable marks a 5xx response, which is retried.
	errUnavailable = errors.New("service unavailable")
)

// Config holds Deezer client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a Deezer API client with caching and retry on quota errors.
// It implements playlist.Catalogue.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration

	// In-memory cache of playlist tracks keyed by playlist ID.
	cache   map[string][]playlist.CandidateTrack
	cacheMu sync.RWMutex
}

var _ playlist.Catalogue = (*Client)(nil)

// NewClient creates a new Deezer API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		cache:       make(map[string][]playlist.CandidateTrack),
	}
}

// SearchPlaylists returns at most limit playlists matching query.
func (c *Client) SearchPlaylists(ctx context.Context, query string, limit int) ([]playlist.PlaylistSummary, error) {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	}

	body, err := c.doRequest(ctx, "/search/playlist", params)
	if err != nil {
		return nil, fmt.Errorf("searching playlists: %w", err)
	}

	var resp searchPlaylistResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing playlist search response: %w", err)
	}

	summaries := make([]playlist.PlaylistSummary, 0, len(resp.Data))
	for _, p := range resp.Data {
		summaries = append(summaries, playlist.PlaylistSummary{
			ID:         formatID(p.ID),
			Title:      p.Title,
			TrackCount: p.NbTracks,
		})
	}
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// PlaylistTracks returns the tracks of a playlist (with caching).
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]playlist.CandidateTrack, error) {
	c.cacheMu.RLock()
	if cached, ok := c.cache[playlistID]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	body, err := c.doRequest(ctx, "/playlist/"+url.PathEscape(playlistID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s: %w", playlistID, err)
	}

	var resp playlistResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing playlist response: %w", err)
	}

	tracks := make([]playlist.CandidateTrack, 0, len(resp.Tracks.Data))
	for _, t := range resp.Tracks.Data {
		tracks = append(tracks, convertTrack(t))
	}

	c.cacheMu.Lock()
	c.cache[playlistID] = tracks
	c.cacheMu.Unlock()

	return tracks, nil
}

// convertTrack maps a Deezer track onto a candidate. A zero or negative BPM
// means Deezer has no tempo for the track.
func convertTrack(t Track) playlist.CandidateTrack {
	var bpm *float64
	if t.BPM != nil && *t.BPM > 0 {
		v := *t.BPM
		bpm = &v
	}
	return playlist.CandidateTrack{
		ID:              formatID(t.ID),
		Title:           t.Title,
		ArtistName:      t.Artist.Name,
		ArtistID:        formatID(t.Artist.ID),
		AlbumTitle:      t.Album.Title,
		AlbumID:         formatID(t.Album.ID),
		BPM:             bpm,
		DurationSeconds: t.Duration,
		Rank:            t.Rank,
		PreviewURL:      t.Preview,
		ExternalLink:    t.Link,
	}
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// doRequest performs an HTTP GET request, retrying quota and 5xx errors with
// the configured backoff.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, errUnavailable) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrQuotaExceeded
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, errUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Deezer reports most errors with a 200 and an error envelope.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		switch apiErr.Error.Code {
		case errCodeQuota:
			return nil, ErrQuotaExceeded
		case errCodeDataNotFound:
			return nil, ErrNotFound
		case errCodeInvalidQuery:
			return nil, fmt.Errorf("invalid query: %s", apiErr.Error.Message)
		default:
			return nil, fmt.Errorf("API error %d (%s): %s", apiErr.Error.Code, apiErr.Error.Type, apiErr.Error.Message)
		}
	}

	return body, nil
}
