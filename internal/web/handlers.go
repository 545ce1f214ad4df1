package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/justestif/go-photo-playlist/internal/playlist"
	"github.com/justestif/go-photo-playlist/internal/runs"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// RunService is the subset of runs.Service the handlers use.
type RunService interface {
	Generate(ctx context.Context, params playlist.TargetParameters) (*runs.Run, error)
	Get(ctx context.Context, id uuid.UUID) (*runs.Run, error)
	List(ctx context.Context, limit int) ([]runs.Summary, error)
}

var _ RunService = (*runs.Service)(nil)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	runs RunService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(runs RunService) *Handlers {
	return &Handlers{runs: runs}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreatePlaylist generates a playlist from target parameters (POST /api/playlists).
// An empty body uses the default parameters. A run that found no playlists is
// still a 200 with success=false.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	params := playlist.DefaultParameters()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}

	run, err := h.runs.Generate(r.Context(), params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("generating playlist")
		writeError(w, http.StatusInternalServerError, "playlist generation failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// ListRuns lists recent runs (GET /api/runs?limit=N).
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	summaries, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetRun returns one stored run (GET /api/runs/{id}).
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, runs.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, runs.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("loading runs")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
