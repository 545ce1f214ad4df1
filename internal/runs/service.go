// Package runs generates playlists and keeps a record of each generation.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/justestif/go-photo-playlist/internal/db"
	"github.com/justestif/go-photo-playlist/internal/playlist"
	"github.com/justestif/go-photo-playlist/internal/sections"
)

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 20

var (
	// ErrNoStore is returned by read operations when persistence is disabled.
	ErrNoStore = errors.New("run persistence is not configured")

	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("run not found")
)

// Generator produces playlists. *playlist.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, params playlist.TargetParameters) (*playlist.PlaylistResult, error)
}

// Store persists runs. *db.RunRepository satisfies it.
type Store interface {
	Create(ctx context.Context, run *db.Run, tracks []db.RunTrack) error
	Get(ctx context.Context, id uuid.UUID) (*db.Run, error)
	Tracks(ctx context.Context, runID uuid.UUID) ([]db.RunTrack, error)
	ListRecent(ctx context.Context, limit int) ([]db.Run, error)
	SetExportPlaylist(ctx context.Context, runID uuid.UUID, playlistID string) error
}

var _ Store = (*db.RunRepository)(nil)

// Run is a generated playlist with its identity and section breakdown.
type Run struct {
	ID               uuid.UUID                `json:"run_id"`
	CreatedAt        time.Time                `json:"created_at"`
	Persisted        bool                     `json:"persisted"`
	Result           *playlist.PlaylistResult `json:"result"`
	Sections         []sections.Section       `json:"sections,omitempty"`
	Unsectioned      []playlist.ScoredTrack   `json:"-"`
	ExportPlaylistID string                   `json:"export_playlist_id,omitempty"`
}

// Summary is a stored run without its tracks.
type Summary struct {
	ID               uuid.UUID `json:"run_id"`
	CreatedAt        time.Time `json:"created_at"`
	SearchQuery      string    `json:"search_query"`
	Success          bool      `json:"success"`
	TracksReturned   int       `json:"tracks_returned"`
	ExportPlaylistID string    `json:"export_playlist_id,omitempty"`
}

// Service handles playlist generation and run persistence.
type Service struct {
	generator Generator
	store     Store
	sections  sections.Config
	logger    zerolog.Logger
}

// New creates a run service. store may be nil, in which case runs are not
// persisted and read operations return ErrNoStore.
func New(generator Generator, store Store, logger zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		store:     store,
		sections:  sections.DefaultConfig(),
		logger:    logger,
	}
}

// Generate runs the generator and stores the outcome. A failed generation
// (no source playlists) is stored too. Storage errors are logged and leave
// Persisted false; only generator errors are returned.
func (s *Service) Generate(ctx context.Context, params playlist.TargetParameters) (*Run, error) {
	result, err := s.generator.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generating playlist: %w", err)
	}

	run := &Run{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	run.Sections, run.Unsectioned = sections.Detect(result.Playlist, s.sections)

	if s.store == nil {
		return run, nil
	}

	assignments := sections.Assignments(result.Playlist, run.Sections)
	record, tracks, err := toRecord(run.ID, result, assignments)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encoding run")
		return run, nil
	}
	if err := s.store.Create(ctx, record, tracks); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID.String()).Msg("persisting run")
		return run, nil
	}

	run.CreatedAt = record.CreatedAt
	run.Persisted = true
	return run, nil
}

// Get loads a stored run and rebuilds its result and sections.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	record, err := s.store.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}

	tracks, err := s.store.Tracks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading run tracks: %w", err)
	}

	result, assignments, err := fromRecord(record, tracks)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Persisted: true,
		Result:    result,
	}
	if record.ExportPlaylistID != nil {
		run.ExportPlaylistID = *record.ExportPlaylistID
	}
	run.Sections, run.Unsectioned = sections.Rebuild(result.Playlist, assignments)
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	summaries := make([]Summary, len(records))
	for i, r := range records {
		summaries[i] = Summary{
			ID:             r.ID,
			CreatedAt:      r.CreatedAt,
			SearchQuery:    r.SearchQuery,
			Success:        r.Success,
			TracksReturned: r.TracksReturned,
		}
		if r.ExportPlaylistID != nil {
			summaries[i].ExportPlaylistID = *r.ExportPlaylistID
		}
	}
	return summaries, nil
}

// RecordExport stores the Spotify playlist a persisted run was exported to.
// It is a no-op for runs that were not persisted.
func (s *Service) RecordExport(ctx context.Context, run *Run, playlistID string) error {
	run.ExportPlaylistID = playlistID
	if s.store == nil || !run.Persisted {
		return nil
	}
	if err := s.store.SetExportPlaylist(ctx, run.ID, playlistID); err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// toRecord converts a result into database rows. assignments holds the
// section index of each playlist track, -1 when unsectioned.
func toRecord(id uuid.UUID, result *playlist.PlaylistResult, assignments []int) (*db.Run, []db.RunTrack, error) {
	params, err := json.Marshal(result.Metadata.Parameters)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding parameters: %w", err)
	}

	md := result.Metadata
	record := &db.Run{
		ID:                       id,
		SearchQuery:              md.SearchQuery,
		Parameters:               params,
		Success:                  result.Success,
		SourcePlaylistCount:      md.SourcePlaylistCount,
		CandidatesAnalyzed:       md.CandidatesAnalyzed,
		CandidatesAfterFiltering: md.CandidatesAfterFiltering,
		TracksReturned:           md.TracksReturned,
	}
	if result.Error != "" {
		record.Error = &result.Error
	}

	tracks := make([]db.RunTrack, len(result.Playlist))
	for i, t := range result.Playlist {
		tracks[i] = db.RunTrack{
			RunID:           id,
			Position:        i,
			TrackID:         t.ID,
			Title:           t.Title,
			Artist:          t.ArtistName,
			ArtistID:        nullable(t.ArtistID),
			Album:           nullable(t.AlbumTitle),
			AlbumID:         nullable(t.AlbumID),
			BPM:             t.BPM,
			DurationSeconds: t.DurationSeconds,
			Rank:            t.Rank,
			MatchScore:      t.MatchScore,
			PreviewURL:      nullable(t.PreviewURL),
			Link:            nullable(t.ExternalLink),
		}
		if i < len(assignments) && assignments[i] >= 0 {
			section := assignments[i]
			tracks[i].Section = &section
		}
	}
	return record, tracks, nil
}

// fromRecord rebuilds a result and its section assignments from database rows.
func fromRecord(record *db.Run, tracks []db.RunTrack) (*playlist.PlaylistResult, []int, error) {
	var params playlist.TargetParameters
	if err := json.Unmarshal(record.Parameters, &params); err != nil {
		return nil, nil, fmt.Errorf("decoding parameters: %w", err)
	}

	result := &playlist.PlaylistResult{
		Success:  record.Success,
		Playlist: make([]playlist.ScoredTrack, len(tracks)),
		Metadata: playlist.Metadata{
			SearchQuery:              record.SearchQuery,
			SourcePlaylistCount:      record.SourcePlaylistCount,
			CandidatesAnalyzed:       record.CandidatesAnalyzed,
			CandidatesAfterFiltering: record.CandidatesAfterFiltering,
			TracksReturned:           record.TracksReturned,
			Parameters:               params,
		},
	}
	if record.Error != nil {
		result.Error = *record.Error
	}

	assignments := make([]int, len(tracks))
	for i, t := range tracks {
		assignments[i] = -1
		if t.Section != nil {
			assignments[i] = *t.Section
		}
		result.Playlist[i] = playlist.ScoredTrack{
			CandidateTrack: playlist.CandidateTrack{
				ID:              t.TrackID,
				Title:           t.Title,
				ArtistName:      t.Artist,
				ArtistID:        deref(t.ArtistID),
				AlbumTitle:      deref(t.Album),
				AlbumID:         deref(t.AlbumID),
				BPM:             t.BPM,
				DurationSeconds: t.DurationSeconds,
				Rank:            t.Rank,
				PreviewURL:      deref(t.PreviewURL),
				ExternalLink:    deref(t.Link),
			},
			MatchScore:        t.MatchScore,
			DurationFormatted: playlist.FormatDuration(t.DurationSeconds),
		}
	}
	return result, assignments, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
