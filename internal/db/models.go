package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is a stored playlist generation run.
type Run struct {
	ID                       uuid.UUID
	SearchQuery              string
	Parameters               json.RawMessage
	Success                  bool
	Error                    *string // nullable
	SourcePlaylistCount      int
	CandidatesAnalyzed       int
	CandidatesAfterFiltering int
	TracksReturned           int
	ExportPlaylistID         *string // nullable, set after a Spotify export
	CreatedAt                time.Time
}

// RunTrack is one returned track of a run, in playlist order.
type RunTrack struct {
	RunID           uuid.UUID
	Position        int
	TrackID         string
	Title           string
	Artist          string
	ArtistID        *string  // nullable
	Album           *string  // nullable
	AlbumID         *string  // nullable
	BPM             *float64 // nullable
	DurationSeconds int
	Rank            int
	MatchScore      float64
	PreviewURL      *string // nullable
	Link            *string // nullable
	Section         *int    // index into the run's sections, nil when unsectioned
}
