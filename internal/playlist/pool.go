package playlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultSearchQuery is used when neither a query nor genre seeds are given.
const DefaultSearchQuery = "pop music"

// MaxSourcePlaylists is the number of playlists requested from search.
const MaxSourcePlaylists = 3

// ErrNoPlaylists is returned when catalogue search finds nothing to draw from.
var ErrNoPlaylists = errors.New("no playlists found")

// Catalogue is the track source the pool is built from.
type Catalogue interface {
	SearchPlaylists(ctx context.Context, query string, limit int) ([]PlaylistSummary, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]CandidateTrack, error)
}

// Pool is the deduplicated set of candidates gathered for one run.
type Pool struct {
	Query               string
	Candidates          []CandidateTrack
	SourcePlaylistCount int
}

// ResolveQuery picks the search query for the given parameters: the explicit
// query, else the first two genre seeds, else DefaultSearchQuery.
func ResolveQuery(params TargetParameters) string {
	if q := strings.TrimSpace(params.SearchQuery); q != "" {
		return q
	}
	seeds := params.GenreSeeds
	if len(seeds) > 2 {
		seeds = seeds[:2]
	}
	if q := strings.TrimSpace(strings.Join(seeds, " ")); q != "" {
		return q
	}
	return DefaultSearchQuery
}

// BuildPool searches the catalogue for source playlists and merges their
// tracks into a single candidate pool.
//
// A search failure counts as no results and yields ErrNoPlaylists. A failed
// playlist fetch contributes zero tracks. Duplicate track IDs keep their first
// occurrence; tracks without an ID are dropped.
func (g *Generator) BuildPool(ctx context.Context, params TargetParameters) (*Pool, error) {
	query := ResolveQuery(params)
	pool := &Pool{Query: query, Candidates: []CandidateTrack{}}

	playlists, err := g.catalogue.SearchPlaylists(ctx, query, MaxSourcePlaylists)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pool, ctxErr
		}
		g.logger.Warn().Err(err).Str("query", query).Msg("playlist search failed")
		playlists = nil
	}
	if len(playlists) > MaxSourcePlaylists {
		playlists = playlists[:MaxSourcePlaylists]
	}
	pool.SourcePlaylistCount = len(playlists)

	if len(playlists) == 0 {
		return pool, fmt.Errorf("searching %q: %w", query, ErrNoPlaylists)
	}

	seen := make(map[string]struct{})
	for i, pl := range playlists {
		if strings.TrimSpace(pl.ID) == "" {
			g.logger.Warn().Int("index", i).Str("title", pl.Title).Msg("skipping playlist without ID")
			continue
		}

		tracks, err := g.catalogue.PlaylistTracks(ctx, pl.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pool, ctxErr
			}
			g.logger.Warn().Err(err).Str("playlist_id", pl.ID).Msg("fetching playlist tracks failed")
			continue
		}
		g.logger.Debug().
			Str("playlist_id", pl.ID).
			Str("title", pl.Title).
			Int("tracks", len(tracks)).
			Msg("fetched playlist")

		for _, t := range tracks {
			if t.ID == "" {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			pool.Candidates = append(pool.Candidates, t)
		}
	}

	return pool, nil
}
