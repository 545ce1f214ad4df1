package playlist

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultConcurrency is the number of workers used to evaluate candidates.
const DefaultConcurrency = 4

// NoPlaylistsMessage is the error reported in a result when search found nothing.
const NoPlaylistsMessage = "No playlists found"

// AuditSummary holds the end-of-run totals written to an audit log.
type AuditSummary struct {
	Analyzed int
	Passed   int
	Returned int
}

// AuditRun receives the per-track decisions of a single run.
// Implementations must not fail the run; errors stay inside the sink.
type AuditRun interface {
	Record(track CandidateTrack, score float64, passed bool)
	End(summary AuditSummary)
}

// Auditor opens an AuditRun for each generation.
type Auditor interface {
	Begin(query string, params TargetParameters) AuditRun
}

// Generator builds ranked playlists from a catalogue.
type Generator struct {
	catalogue   Catalogue
	auditor     Auditor
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithConcurrency sets the number of workers evaluating candidates.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithAuditor records every filter decision to the given auditor.
func WithAuditor(a Auditor) Option {
	return func(g *Generator) {
		g.auditor = a
	}
}

// WithLogger sets the logger used for absorbed failures and progress.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator creates a Generator reading from catalogue.
func NewGenerator(catalogue Catalogue, opts ...Option) *Generator {
	g := &Generator{
		catalogue:   catalogue,
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// evaluation is the filter and score outcome for one candidate.
type evaluation struct {
	score  float64
	passed bool
}

// Generate builds the candidate pool, filters and scores it, and returns the
// top tracks in descending score order.
//
// params are used as given. Zero fields are not replaced by defaults, since a
// zero valence or result count is a legitimate request; build params from
// DefaultParameters or decode them from JSON to get defaults.
//
// Finding no source playlists is reported through PlaylistResult.Success and
// PlaylistResult.Error. The returned error is only non-nil when ctx ends.
func (g *Generator) Generate(ctx context.Context, params TargetParameters) (*PlaylistResult, error) {
	params = params.Clone()

	pool, err := g.BuildPool(ctx, params)
	if err != nil {
		if errors.Is(err, ErrNoPlaylists) {
			g.logger.Info().Str("query", pool.Query).Msg("no source playlists")
			return &PlaylistResult{
				Success:  false,
				Error:    NoPlaylistsMessage,
				Playlist: []ScoredTrack{},
				Metadata: Metadata{
					SearchQuery: pool.Query,
					Parameters:  params.Clone(),
				},
			}, nil
		}
		return nil, err
	}

	evals, err := g.evaluate(ctx, pool.Candidates, params)
	if err != nil {
		return nil, err
	}

	var audit AuditRun
	if g.auditor != nil {
		audit = g.auditor.Begin(pool.Query, params.Clone())
	}

	kept := make([]ScoredTrack, 0, len(pool.Candidates))
	for i, c := range pool.Candidates {
		ev := evals[i]
		if audit != nil {
			audit.Record(c, ev.score, ev.passed)
		}
		if !ev.passed {
			continue
		}
		kept = append(kept, ScoredTrack{
			CandidateTrack:    c,
			MatchScore:        RoundScore(ev.score),
			DurationFormatted: FormatDuration(c.DurationSeconds),
		})
	}
	afterFiltering := len(kept)

	slices.SortStableFunc(kept, func(a, b ScoredTrack) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})

	limit := max(params.ResultCount, 0)
	if len(kept) > limit {
		kept = kept[:limit]
	}

	if audit != nil {
		audit.End(AuditSummary{
			Analyzed: len(pool.Candidates),
			Passed:   afterFiltering,
			Returned: len(kept),
		})
	}

	g.logger.Info().
		Str("query", pool.Query).
		Int("source_playlists", pool.SourcePlaylistCount).
		Int("analyzed", len(pool.Candidates)).
		Int("passed", afterFiltering).
		Int("returned", len(kept)).
		Msg("playlist generated")

	return &PlaylistResult{
		Success:  true,
		Playlist: kept,
		Metadata: Metadata{
			SearchQuery:              pool.Query,
			SourcePlaylistCount:      pool.SourcePlaylistCount,
			CandidatesAnalyzed:       len(pool.Candidates),
			CandidatesAfterFiltering: afterFiltering,
			TracksReturned:           len(kept),
			Parameters:               params.Clone(),
		},
	}, nil
}

// evaluate runs the mood filter and scorer over all candidates with a worker
// pool. Results are indexed like the input, so scheduling never changes the
// outcome.
func (g *Generator) evaluate(ctx context.Context, candidates []CandidateTrack, params TargetParameters) ([]evaluation, error) {
	results := make([]evaluation, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	workCh := make(chan int, len(candidates))
	for i := range candidates {
		workCh <- i
	}
	close(workCh)

	workers := min(g.concurrency, len(candidates))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if ctx.Err() != nil {
					continue
				}
				results[i] = evaluateTrack(candidates[i], params)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluateTrack scores a track even when the mood filter rejects it, so the
// score is available for auditing.
func evaluateTrack(track CandidateTrack, params TargetParameters) evaluation {
	score := Score(track, params)
	return evaluation{
		score:  score,
		passed: PassesMoodFilter(track, params) && score >= MinMatchScore,
	}
}
