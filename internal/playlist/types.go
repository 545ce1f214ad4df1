// Package playlist ranks catalogue tracks against target audio parameters.
package playlist

import (
	"encoding/json"
	"slices"
)

// Default parameter values applied when a field is absent.
const (
	DefaultResultCount   = 20
	DefaultTargetTempo   = 120.0
	DefaultTargetValence = 0.5
	DefaultTargetEnergy  = 0.5
)

// TargetParameters is the tuning vector for a single run. The zero value has
// no defaults applied; start from DefaultParameters.
type TargetParameters struct {
	SearchQuery   string   `json:"playlist_search_query,omitempty"`
	ResultCount   int      `json:"limit"`
	TargetTempo   float64  `json:"target_tempo"`
	TargetValence float64  `json:"target_valence"`
	TargetEnergy  float64  `json:"target_energy"`
	GenreSeeds    []string `json:"seed_genres,omitempty"`
}

// DefaultParameters returns parameters with every default applied.
func DefaultParameters() TargetParameters {
	return TargetParameters{
		ResultCount:   DefaultResultCount,
		TargetTempo:   DefaultTargetTempo,
		TargetValence: DefaultTargetValence,
		TargetEnergy:  DefaultTargetEnergy,
	}
}

// UnmarshalJSON decodes parameters on top of the defaults, so absent keys
// keep their default value while explicit zeros are preserved.
func (p *TargetParameters) UnmarshalJSON(data []byte) error {
	type plain TargetParameters
	decoded := plain(DefaultParameters())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = TargetParameters(decoded)
	return nil
}

// Clone returns a deep copy of the parameters.
func (p TargetParameters) Clone() TargetParameters {
	p.GenreSeeds = slices.Clone(p.GenreSeeds)
	return p
}

// CandidateTrack is a denormalized catalogue track gathered for scoring.
type CandidateTrack struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ArtistName      string   `json:"artist"`
	ArtistID        string   `json:"artist_id,omitempty"`
	AlbumTitle      string   `json:"album,omitempty"`
	AlbumID         string   `json:"album_id,omitempty"`
	BPM             *float64 `json:"bpm"` // nil when the catalogue has no tempo
	DurationSeconds int      `json:"duration_seconds"`
	Rank            int      `json:"rank"`
	PreviewURL      string   `json:"preview_url,omitempty"`
	ExternalLink    string   `json:"external_link,omitempty"`
}

// ScoredTrack is a candidate that made it into a playlist.
type ScoredTrack struct {
	CandidateTrack
	MatchScore        float64 `json:"match_score"`
	DurationFormatted string  `json:"duration_formatted"`
}

// PlaylistSummary is a source playlist returned by catalogue search.
type PlaylistSummary struct {
	ID         string
	Title      string
	TrackCount int
}

// Metadata summarises how a playlist was produced.
type Metadata struct {
	SearchQuery              string           `json:"search_query"`
	SourcePlaylistCount      int              `json:"source_playlist_count"`
	CandidatesAnalyzed       int              `json:"candidates_analyzed"`
	CandidatesAfterFiltering int              `json:"candidates_after_filtering"`
	TracksReturned           int              `json:"tracks_returned"`
	Parameters               TargetParameters `json:"parameters"`
}

// PlaylistResult is the output of a generation run.
type PlaylistResult struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Playlist []ScoredTrack `json:"playlist"`
	Metadata Metadata      `json:"metadata"`
}
