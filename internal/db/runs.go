package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const runColumns = `id, search_query, parameters, success, error, source_playlist_count,
	candidates_analyzed, candidates_after_filtering, tracks_returned, export_playlist_id, created_at`

// RunRepository handles playlist run database operations.
type RunRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a run and its tracks in one transaction. A nil run ID is
// replaced with a new UUID; CreatedAt is filled from the database.
func (r *RunRepository) Create(ctx context.Context, run *Run, tracks []RunTrack) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	runQuery := `
		INSERT INTO playlist_runs (id, search_query, parameters, success, error, source_playlist_count,
			candidates_analyzed, candidates_after_filtering, tracks_returned, export_playlist_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, runQuery,
		run.ID,
		run.SearchQuery,
		run.Parameters,
		run.Success,
		run.Error,
		run.SourcePlaylistCount,
		run.CandidatesAnalyzed,
		run.CandidatesAfterFiltering,
		run.TracksReturned,
		run.ExportPlaylistID,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if len(tracks) > 0 {
		if err := insertRunTracks(ctx, tx, run.ID, tracks); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertRunTracks writes all tracks with a single unnest insert.
func insertRunTracks(ctx context.Context, tx pgx.Tx, runID uuid.UUID, tracks []RunTrack) error {
	query := `
		INSERT INTO playlist_run_tracks (run_id, position, track_id, title, artist, album, bpm,
			duration_seconds, rank, match_score, preview_url, link, artist_id, album_id, section)
		SELECT $1, * FROM unnest($2::int[], $3::text[], $4::text[], $5::text[], $6::text[],
			$7::float8[], $8::int[], $9::int[], $10::float8[], $11::text[], $12::text[],
			$13::text[], $14::text[], $15::int[])
	`

	n := len(tracks)
	positions := make([]int, n)
	trackIDs := make([]string, n)
	titles := make([]string, n)
	artists := make([]string, n)
	albums := make([]*string, n)
	bpms := make([]*float64, n)
	durations := make([]int, n)
	ranks := make([]int, n)
	scores := make([]float64, n)
	previews := make([]*string, n)
	links := make([]*string, n)
	artistIDs := make([]*string, n)
	albumIDs := make([]*string, n)
	sections := make([]*int, n)

	for i, t := range tracks {
		positions[i] = t.Position
		trackIDs[i] = t.TrackID
		titles[i] = t.Title
		artists[i] = t.Artist
		albums[i] = t.Album
		bpms[i] = t.BPM
		durations[i] = t.DurationSeconds
		ranks[i] = t.Rank
		scores[i] = t.MatchScore
		previews[i] = t.PreviewURL
		links[i] = t.Link
		artistIDs[i] = t.ArtistID
		albumIDs[i] = t.AlbumID
		sections[i] = t.Section
	}

	_, err := tx.Exec(ctx, query, runID,
		positions, trackIDs, titles, artists, albums, bpms, durations, ranks, scores, previews, links,
		artistIDs, albumIDs, sections)
	if err != nil {
		return fmt.Errorf("inserting run tracks: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM playlist_runs WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM playlist_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Tracks retrieves the tracks of a run in playlist order.
func (r *RunRepository) Tracks(ctx context.Context, runID uuid.UUID) ([]RunTrack, error) {
	query := `
		SELECT run_id, position, track_id, title, artist, album, bpm, duration_seconds, rank,
			match_score, preview_url, link, artist_id, album_id, section
		FROM playlist_run_tracks
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run tracks: %w", err)
	}
	defer rows.Close()

	var tracks []RunTrack
	for rows.Next() {
		var t RunTrack
		if err := rows.Scan(
			&t.RunID,
			&t.Position,
			&t.TrackID,
			&t.Title,
			&t.Artist,
			&t.Album,
			&t.BPM,
			&t.DurationSeconds,
			&t.Rank,
			&t.MatchScore,
			&t.PreviewURL,
			&t.Link,
			&t.ArtistID,
			&t.AlbumID,
			&t.Section,
		); err != nil {
			return nil, fmt.Errorf("scanning run track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// SetExportPlaylist records the Spotify playlist a run was exported to.
func (r *RunRepository) SetExportPlaylist(ctx context.Context, runID uuid.UUID, playlistID string) error {
	query := `UPDATE playlist_runs SET export_playlist_id = $2 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, runID, playlistID)
	if err != nil {
		return fmt.Errorf("updating export playlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.SearchQuery,
		&run.Parameters,
		&run.Success,
		&run.Error,
		&run.SourcePlaylistCount,
		&run.CandidatesAnalyzed,
		&run.CandidatesAfterFiltering,
		&run.TracksReturned,
		&run.ExportPlaylistID,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
