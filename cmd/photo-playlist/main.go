// Command photo-playlist builds playlists that match a photo's mood.
//
// Usage:
//
//	photo-playlist generate -params params.json [-export NAME] [-public]
//	photo-playlist serve
//	photo-playlist logout
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/justestif/go-photo-playlist/internal/audit"
	"github.com/justestif/go-photo-playlist/internal/auth"
	"github.com/justestif/go-photo-playlist/internal/config"
	"github.com/justestif/go-photo-playlist/internal/db"
	"github.com/justestif/go-photo-playlist/internal/deezer"
	"github.com/justestif/go-photo-playlist/internal/playlist"
	"github.com/justestif/go-photo-playlist/internal/runs"
	"github.com/justestif/go-photo-playlist/internal/web"
)

const usage = `usage: photo-playlist <command> [flags]

commands:
  generate   generate a playlist from a parameters file
  serve      run the HTTP API
  logout     remove the cached Spotify token
`

var errUsage = errors.New("unknown command")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "generate":
		return runGenerate(ctx, cfg, logger, args[1:])
	case "serve":
		// The server installs its own signal handling for graceful shutdown.
		stop()
		return runServe(cfg, logger)
	case "logout":
		return runLogout(cfg, logger)
	default:
		return fmt.Errorf("%w: %q", errUsage, args[0])
	}
}

// newLogger writes human-readable logs to terminals and JSON otherwise.
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// newService wires the catalogue, audit log and optional database into a run
// service. The returned cleanup closes the database.
func newService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runs.Service, func(), error) {
	generator := playlist.NewGenerator(
		deezer.NewClient(cfg.Deezer()),
		playlist.WithConcurrency(cfg.ScoringConcurrency),
		playlist.WithAuditor(audit.NewWriter(cfg.AuditDir, logger)),
		playlist.WithLogger(logger),
	)

	if cfg.DatabaseURL == "" {
		logger.Debug().Msg("DATABASE_URL not set, runs will not be stored")
		return runs.New(generator, nil, logger), func() {}, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	return runs.New(generator, database.Runs(), logger), database.Close, nil
}

func runServe(cfg *config.Config, logger zerolog.Logger) error {
	svc, cleanup, err := newService(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := web.NewServer(web.ServerConfig{Addr: cfg.Addr, Logger: logger}, svc)
	return server.Run()
}

func runLogout(cfg *config.Config, logger zerolog.Logger) error {
	a, err := auth.New(auth.Config{ClientID: cfg.SpotifyID, ClientSecret: cfg.SpotifySecret}, logger)
	if err != nil {
		return err
	}
	if err := a.Logout(); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Logged out of Spotify")
	return nil
}
