// Package audit writes a per-run text log of every filtering decision.
package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

const (
	filePrefix      = "filtering_log_"
	fileTimeLayout  = "20060102_150405"
	headerTimeStamp = "2006-01-02 15:04:05"

	maxLogsPerSecond = 1000
)

var separator = strings.Repeat("=", 80)

// Writer creates one log file per run in a directory.
// A nil Writer or one with an empty directory records nothing.
type Writer struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

var _ playlist.Auditor = (*Writer)(nil)

// NewWriter returns a Writer storing logs in dir.
func NewWriter(dir string, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger, now: time.Now}
}

// Begin opens the log file for a run and writes its header. Failures are
// logged and yield a run that discards everything.
func (w *Writer) Begin(query string, params playlist.TargetParameters) playlist.AuditRun {
	if w == nil || w.dir == "" {
		return nopRun{}
	}

	started := w.now()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.dir).Msg("creating audit directory")
		return nopRun{}
	}
	f, path, err := createLog(w.dir, filePrefix+started.Format(fileTimeLayout))
	if err != nil {
		w.logger.Warn().Err(err).Str("dir", w.dir).Msg("opening audit log")
		return nopRun{}
	}

	r := &Run{path: path, file: f, buf: bufio.NewWriter(f), logger: w.logger}
	r.printf("Filtering Process Log - %s\n", started.Format(headerTimeStamp))
	r.printf("Search Query: %s\n", query)
	r.printf("Target Tempo: %s BPM\n", formatFloat(params.TargetTempo))
	r.printf("Target Valence: %s\n", formatFloat(params.TargetValence))
	r.printf("Target Energy: %s\n", formatFloat(params.TargetEnergy))
	r.printf("%s\n\n", separator)
	return r
}

// createLog creates a new file named base.txt in dir. Runs started within the
// same second get base_2.txt, base_3.txt and so on.
func createLog(dir, base string) (*os.File, string, error) {
	for n := 1; n <= maxLogsPerSecond; n++ {
		name := base
		if n > 1 {
			name += "_" + strconv.Itoa(n)
		}
		path := filepath.Join(dir, name+".txt")

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return f, path, err
	}
	return nil, "", fmt.Errorf("more than %d audit logs for %s", maxLogsPerSecond, base)
}

// Run is an open audit log. It is safe for concurrent use.
type Run struct {
	path   string
	logger zerolog.Logger

	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	err    error
	closed bool
}

// Path returns the file the run writes to.
func (r *Run) Path() string {
	return r.path
}

// Record appends one decision line.
func (r *Run) Record(track playlist.CandidateTrack, score float64, passed bool) {
	status := "FILTERED OUT"
	if passed {
		status = "PASSED"
	}
	r.printf("%s | Score: %.3f | %s - %s\n", status, score, orUnknown(track.Title), orUnknown(track.ArtistName))
}

// End writes the summary block and closes the file.
func (r *Run) End(summary playlist.AuditSummary) {
	r.printf("\n%s\n", separator)
	r.printf("SUMMARY:\n")
	r.printf("Total tracks analyzed: %d\n", summary.Analyzed)
	r.printf("Tracks passed filtering: %d\n", summary.Passed)
	r.printf("Tracks returned: %d\n", summary.Returned)
	r.printf("%s\n", separator)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if err := r.buf.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = err
	}
	if r.err != nil {
		r.logger.Warn().Err(r.err).Str("path", r.path).Msg("writing audit log")
	}
}

// printf writes to the buffer, remembering only the first error.
func (r *Run) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	if _, err := fmt.Fprintf(r.buf, format, args...); err != nil {
		r.err = err
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

type nopRun struct{}

func (nopRun) Record(playlist.CandidateTrack, float64, bool) {}
func (nopRun) End(playlist.AuditSummary)                     {}
