// Package sections groups a generated playlist into tempo and popularity
// sections using k-means clustering.
package sections

import (
	"cmp"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

// Feature scaling bounds.
const (
	maxTempo = 200.0
	maxRank  = 1000000.0
)

// Config holds section clustering parameters.
type Config struct {
	NumSections    int // Upper bound on sections (default: 3)
	MinSectionSize int // Smaller clusters become unsectioned
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumSections:    3,
		MinSectionSize: 2,
	}
}

// Section is a group of playlist tracks with similar tempo and popularity.
type Section struct {
	Name     string                 `json:"name"`
	Tracks   []playlist.ScoredTrack `json:"tracks"`
	AvgTempo float64                `json:"avg_tempo"`
	AvgRank  float64                `json:"avg_rank"`
}

// trackObservation wraps a playlist position to implement clusters.Observation.
type trackObservation struct {
	index  int
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Detect splits tracks into sections ordered by ascending tempo. Tracks
// without a BPM, and tracks in clusters below MinSectionSize, are returned as
// unsectioned. Within a section, and among the unsectioned, tracks keep their
// playlist order.
//
// Cluster seeding is random, so repeated calls may differ. Use Assignments and
// Rebuild to reproduce a result.
func Detect(tracks []playlist.ScoredTrack, cfg Config) ([]Section, []playlist.ScoredTrack) {
	if len(tracks) == 0 {
		return nil, nil
	}
	if cfg.NumSections <= 0 {
		cfg.NumSections = DefaultConfig().NumSections
	}

	var obs clusters.Observations
	for i, t := range tracks {
		if t.BPM == nil {
			continue
		}
		obs = append(obs, trackObservation{index: i, coords: features(t)})
	}

	// Each section needs at least two tracks to be worth naming.
	k := min(cfg.NumSections, len(obs)/2)
	if k < 1 {
		return nil, tracks
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, tracks
	}

	var sections []Section
	sectioned := make(map[int]bool)
	for _, cluster := range result {
		var indexes []int
		for _, o := range cluster.Observations {
			if to, ok := o.(trackObservation); ok {
				indexes = append(indexes, to.index)
			}
		}
		if len(indexes) < max(cfg.MinSectionSize, 1) {
			continue
		}
		slices.Sort(indexes)

		members := make([]playlist.ScoredTrack, len(indexes))
		for i, idx := range indexes {
			members[i] = tracks[idx]
			sectioned[idx] = true
		}
		sections = append(sections, newSection(members))
	}

	slices.SortFunc(sections, func(a, b Section) int {
		return cmp.Compare(a.AvgTempo, b.AvgTempo)
	})

	var unsectioned []playlist.ScoredTrack
	for i, t := range tracks {
		if !sectioned[i] {
			unsectioned = append(unsectioned, t)
		}
	}

	return sections, unsectioned
}

// Assignments returns the section index of every track, or -1 for tracks
// that belong to no section. Tracks are matched by ID.
func Assignments(tracks []playlist.ScoredTrack, sections []Section) []int {
	byID := make(map[string]int)
	for i, s := range sections {
		for _, t := range s.Tracks {
			byID[t.ID] = i
		}
	}

	out := make([]int, len(tracks))
	for i, t := range tracks {
		idx, ok := byID[t.ID]
		if !ok {
			idx = -1
		}
		out[i] = idx
	}
	return out
}

// Rebuild restores the sections recorded by Assignments. Missing or negative
// assignments, and tracks without a BPM, are unsectioned.
func Rebuild(tracks []playlist.ScoredTrack, assignments []int) ([]Section, []playlist.ScoredTrack) {
	if len(tracks) == 0 {
		return nil, nil
	}

	var groups [][]playlist.ScoredTrack
	var unsectioned []playlist.ScoredTrack
	for i, t := range tracks {
		idx := -1
		if i < len(assignments) {
			idx = assignments[i]
		}
		if idx < 0 || t.BPM == nil {
			unsectioned = append(unsectioned, t)
			continue
		}
		for len(groups) <= idx {
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], t)
	}

	var sections []Section
	for _, members := range groups {
		if len(members) > 0 {
			sections = append(sections, newSection(members))
		}
	}
	return sections, unsectioned
}

// newSection computes averages and the name for members, which must all have a BPM.
func newSection(members []playlist.ScoredTrack) Section {
	s := Section{Tracks: members}
	for _, m := range members {
		s.AvgTempo += *m.BPM
		s.AvgRank += float64(m.Rank)
	}
	s.AvgTempo /= float64(len(members))
	s.AvgRank /= float64(len(members))
	s.Name = sectionName(s.AvgTempo, s.AvgRank)
	return s
}

// features scales tempo and rank to [0, 1] so both axes weigh equally.
func features(t playlist.ScoredTrack) clusters.Coordinates {
	return clusters.Coordinates{
		clamp(*t.BPM / maxTempo),
		clamp(float64(t.Rank) / maxRank),
	}
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
