package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

// ErrNoTracks is returned when none of the tracks could be found on Spotify.
var ErrNoTracks = errors.New("no tracks found on spotify")

const playlistURLPrefix = "https://open.spotify.com/playlist/"

// ExportRequest describes the playlist to create.
type ExportRequest struct {
	Name        string
	Description string
	Public      bool
	Tracks      []playlist.ScoredTrack
}

// TrackMatch records how one source track was resolved.
type TrackMatch struct {
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	SpotifyID  spotify.ID `json:"spotify_id,omitempty"`
	Similarity float64    `json:"similarity,omitempty"`
	Found      bool       `json:"found"`
	Error      string     `json:"error,omitempty"`
}

// ExportResult is the outcome of an export.
type ExportResult struct {
	PlaylistID  string       `json:"playlist_id"`
	URL         string       `json:"playlist_url"`
	TracksAdded int          `json:"tracks_added"`
	Matches     []TrackMatch `json:"matches"`
	MatchRate   float64      `json:"match_rate"`
}

// Exporter writes generated playlists to Spotify.
type Exporter struct {
	client *Client
	logger zerolog.Logger
}

// NewExporter creates an Exporter using client.
func NewExporter(client *Client, logger zerolog.Logger) *Exporter {
	return &Exporter{client: client, logger: logger}
}

// Export resolves each track on Spotify, then creates the playlist with the
// tracks that were found. Lookup failures for single tracks are recorded in
// the result rather than aborting the export.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	matches, ids := e.Resolve(ctx, req.Tracks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ExportResult{Matches: matches}
	if len(req.Tracks) > 0 {
		result.MatchRate = float64(len(ids)) / float64(len(req.Tracks))
	}
	if len(ids) == 0 {
		return result, ErrNoTracks
	}

	playlistID, err := e.client.CreatePlaylist(ctx, req.Name, req.Description, req.Public)
	if err != nil {
		return result, err
	}
	result.PlaylistID = playlistID
	result.URL = playlistURLPrefix + playlistID

	if err := e.client.AddTracksToPlaylist(ctx, playlistID, ids); err != nil {
		return result, err
	}
	result.TracksAdded = len(ids)

	e.logger.Info().
		Str("playlist_id", playlistID).
		Int("tracks", len(ids)).
		Int("requested", len(req.Tracks)).
		Msg("exported playlist")

	return result, nil
}

// Resolve searches Spotify for every track, in order. The returned IDs skip
// tracks that were not found and repeat nothing.
func (e *Exporter) Resolve(ctx context.Context, tracks []playlist.ScoredTrack) ([]TrackMatch, []spotify.ID) {
	matches := make([]TrackMatch, 0, len(tracks))
	ids := make([]spotify.ID, 0, len(tracks))
	seen := make(map[spotify.ID]bool)

	for _, t := range tracks {
		if ctx.Err() != nil {
			break
		}

		m := TrackMatch{Title: t.Title, Artist: t.ArtistName}
		found, err := e.client.SearchTrack(ctx, t.Title, t.ArtistName)
		switch {
		case err != nil:
			m.Error = err.Error()
			e.logger.Warn().Err(err).Str("title", t.Title).Str("artist", t.ArtistName).Msg("spotify search failed")
		case found == nil:
			e.logger.Debug().Str("title", t.Title).Str("artist", t.ArtistName).Msg("no spotify match")
		default:
			m.Found = true
			m.SpotifyID = found.ID
			m.Similarity = found.Similarity
			if !seen[found.ID] {
				seen[found.ID] = true
				ids = append(ids, found.ID)
			}
		}
		matches = append(matches, m)
	}

	return matches, ids
}

// Describe builds a default playlist description from a generation result.
func Describe(result *playlist.PlaylistResult) string {
	md := result.Metadata
	return fmt.Sprintf("Generated for %q (tempo %.0f BPM, valence %.2f, energy %.2f)",
		md.SearchQuery, md.Parameters.TargetTempo, md.Parameters.TargetValence, md.Parameters.TargetEnergy)
}
