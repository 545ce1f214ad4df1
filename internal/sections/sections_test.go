package sections

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

func track(id string, bpm float64, rank int) playlist.ScoredTrack {
	st := playlist.ScoredTrack{CandidateTrack: playlist.CandidateTrack{
		ID:         id,
		Title:      "Song " + id,
		ArtistName: "Artist " + id,
		Rank:       rank,
	}}
	if bpm > 0 {
		st.BPM = &bpm
	}
	return st
}

func TestSectionName(t *testing.T) {
	tests := []struct {
		tempo float64
		rank  float64
		want  string
	}{
		{tempo: 80, rank: 900000, want: "Slow Hits"},
		{tempo: 94.9, rank: 100, want: "Slow Deep Cuts"},
		{tempo: 95, rank: 600000, want: "Mid-tempo Hits"},
		{tempo: 124, rank: 500000, want: "Mid-tempo Deep Cuts"},
		{tempo: 125, rank: 700000, want: "Up-tempo Hits"},
		{tempo: 170, rank: 0, want: "Up-tempo Deep Cuts"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sectionName(tt.tempo, tt.rank))
	}
}

func TestDetect_Empty(t *testing.T) {
	sections, unsectioned := Detect(nil, DefaultConfig())
	assert.Nil(t, sections)
	assert.Nil(t, unsectioned)
}

func TestDetect_TooFewTracks(t *testing.T) {
	tracks := []playlist.ScoredTrack{track("a", 120, 1), track("b", 0, 1)}

	sections, unsectioned := Detect(tracks, DefaultConfig())
	assert.Empty(t, sections)
	assert.Equal(t, tracks, unsectioned)
}

func TestDetect_AccountsForEveryTrack(t *testing.T) {
	var tracks []playlist.ScoredTrack
	for i := 0; i < 4; i++ {
		tracks = append(tracks, track(fmt.Sprintf("slow%d", i), 70+float64(i), 900000))
		tracks = append(tracks, track(fmt.Sprintf("fast%d", i), 170+float64(i), 50000))
	}
	tracks = append(tracks, track("nobpm", 0, 500000))

	sections, unsectioned := Detect(tracks, Config{NumSections: 2, MinSectionSize: 2})

	seen := make(map[string]int)
	for _, s := range sections {
		require.NotEmpty(t, s.Tracks)
		assert.GreaterOrEqual(t, len(s.Tracks), 2)
		for _, tr := range s.Tracks {
			seen[tr.ID]++
		}
	}
	for _, tr := range unsectioned {
		seen[tr.ID]++
	}
	assert.Len(t, seen, len(tracks))
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	assert.Contains(t, unsectioned, tracks[len(tracks)-1], "tracks without bpm are unsectioned")

	for i := 1; i < len(sections); i++ {
		assert.LessOrEqual(t, sections[i-1].AvgTempo, sections[i].AvgTempo)
	}
}

func TestDetect_KeepsPlaylistOrder(t *testing.T) {
	tracks := []playlist.ScoredTrack{
		track("1", 120, 600000),
		track("2", 121, 600000),
		track("3", 122, 600000),
		track("4", 119, 600000),
	}

	sections, _ := Detect(tracks, Config{NumSections: 1, MinSectionSize: 2})
	require.Len(t, sections, 1)

	var ids []string
	for _, tr := range sections[0].Tracks {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.InDelta(t, 120.5, sections[0].AvgTempo, 1e-9)
	assert.Equal(t, "Mid-tempo Hits", sections[0].Name)
}

func TestFormatSummary(t *testing.T) {
	tracks := []playlist.ScoredTrack{
		track("1", 120, 600000),
		track("2", 121, 600000),
		track("3", 0, 600000),
	}
	tracks[0].MatchScore = 0.9
	result := &playlist.PlaylistResult{
		Success:  true,
		Playlist: tracks,
		Metadata: playlist.Metadata{
			SearchQuery:              "chill",
			SourcePlaylistCount:      3,
			CandidatesAnalyzed:       25,
			CandidatesAfterFiltering: 12,
			TracksReturned:           3,
		},
	}
	section := Section{Name: "Mid-tempo Hits", Tracks: tracks[:2], AvgTempo: 120.4}

	got := FormatSummary(result, []Section{section}, tracks[2:])

	assert.True(t, strings.HasPrefix(got, `Generated 3 tracks for "chill" (25 candidates from 3 playlists, 12 passed filtering)`))
	assert.Contains(t, got, "  1. Song 1 - Artist 1\n     BPM: 120 | Score: 0.900\n")
	assert.Contains(t, got, "BPM: n/a")
	assert.Contains(t, got, "Mid-tempo Hits: 2 tracks, avg 120 BPM\n")
	assert.Contains(t, got, "  • \"Song 2\" - Artist 2\n")
	assert.Contains(t, got, "(1 track without a section)")
}

func TestFormatSummary_Failure(t *testing.T) {
	result := &playlist.PlaylistResult{
		Error:    playlist.NoPlaylistsMessage,
		Metadata: playlist.Metadata{SearchQuery: "nothing"},
	}

	assert.Equal(t, "Playlist generation failed for \"nothing\": No playlists found\n", FormatSummary(result, nil, nil))
}

func TestRebuild_ReproducesDetect(t *testing.T) {
	var tracks []playlist.ScoredTrack
	for i := 0; i < 10; i++ {
		tracks = append(tracks, track(fmt.Sprintf("t%d", i), 70+float64(i*11), 100000*(i+1)))
	}
	tracks = append(tracks, track("nobpm", 0, 500000))

	for n := 0; n < 20; n++ {
		sections, unsectioned := Detect(tracks, DefaultConfig())

		gotSections, gotUnsectioned := Rebuild(tracks, Assignments(tracks, sections))
		assert.Equal(t, sections, gotSections)
		assert.Equal(t, unsectioned, gotUnsectioned)
	}
}

func TestAssignments(t *testing.T) {
	tracks := []playlist.ScoredTrack{track("a", 90, 1), track("b", 0, 1), track("c", 140, 1), track("d", 92, 1)}
	sections := []Section{
		{Tracks: []playlist.ScoredTrack{tracks[0], tracks[3]}},
		{Tracks: []playlist.ScoredTrack{tracks[2]}},
	}

	assert.Equal(t, []int{0, -1, 1, 0}, Assignments(tracks, sections))
}

func TestRebuild_MissingAssignmentsAreUnsectioned(t *testing.T) {
	tracks := []playlist.ScoredTrack{track("a", 90, 1), track("b", 0, 1), track("c", 91, 1)}

	sections, unsectioned := Rebuild(tracks, []int{0, 0})
	require.Len(t, sections, 1)
	assert.Equal(t, []playlist.ScoredTrack{tracks[0]}, sections[0].Tracks)
	assert.Equal(t, "Slow Deep Cuts", sections[0].Name)
	assert.Equal(t, []playlist.ScoredTrack{tracks[1], tracks[2]}, unsectioned)

	sections, unsectioned = Rebuild(nil, nil)
	assert.Nil(t, sections)
	assert.Nil(t, unsectioned)
}
