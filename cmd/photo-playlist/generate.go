package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/justestif/go-photo-playlist/internal/auth"
	"github.com/justestif/go-photo-playlist/internal/config"
	"github.com/justestif/go-photo-playlist/internal/playlist"
	"github.com/justestif/go-photo-playlist/internal/runs"
	"github.com/justestif/go-photo-playlist/internal/sections"
	"github.com/justestif/go-photo-playlist/internal/spotify"
)

func runGenerate(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	paramsPath := fs.String("params", "", "parameters JSON file, or - for stdin")
	exportName := fs.String("export", "", "export the playlist to Spotify under this name")
	public := fs.Bool("public", false, "make the exported Spotify playlist public")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *paramsPath == "" {
		return errors.New("-params is required")
	}
	if *exportName != "" && !cfg.HasSpotify() {
		return auth.ErrMissingCredentials
	}

	params, err := readParams(*paramsPath, os.Stdin)
	if err != nil {
		return err
	}

	svc, cleanup, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := svc.Generate(ctx, params)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, sections.FormatSummary(run.Result, run.Sections, run.Unsectioned))

	if *exportName != "" {
		if err := export(ctx, cfg, logger, svc, run, *exportName, *public); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// readParams decodes target parameters from path, or from stdin when path
// is "-". Absent fields take their defaults.
func readParams(path string, stdin io.Reader) (playlist.TargetParameters, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return playlist.TargetParameters{}, fmt.Errorf("reading parameters: %w", err)
	}

	params := playlist.DefaultParameters()
	if err := json.Unmarshal(data, &params); err != nil {
		return playlist.TargetParameters{}, fmt.Errorf("parsing parameters: %w", err)
	}
	return params, nil
}

func export(ctx context.Context, cfg *config.Config, logger zerolog.Logger, svc *runs.Service, run *runs.Run, name string, public bool) error {
	if len(run.Result.Playlist) == 0 {
		return errors.New("nothing to export: playlist is empty")
	}

	a, err := auth.New(auth.Config{ClientID: cfg.SpotifyID, ClientSecret: cfg.SpotifySecret}, logger)
	if err != nil {
		return err
	}
	client, err := a.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating with Spotify: %w", err)
	}

	exporter := spotify.NewExporter(spotify.New(client), logger)
	result, err := exporter.Export(ctx, spotify.ExportRequest{
		Name:        name,
		Description: spotify.Describe(run.Result),
		Public:      public,
		Tracks:      run.Result.Playlist,
	})
	if err != nil {
		return fmt.Errorf("exporting playlist: %w", err)
	}

	if err := svc.RecordExport(ctx, run, result.PlaylistID); err != nil {
		logger.Warn().Err(err).Msg("recording export")
	}

	fmt.Fprintf(os.Stderr, "\nExported %d of %d tracks (%.0f%% matched): %s\n",
		result.TracksAdded, len(run.Result.Playlist), result.MatchRate*100, result.URL)
	return nil
}
