package sections

import (
	"fmt"
	"strings"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

const (
	topTrackCount    = 5
	sampleTrackCount = 3
)

// FormatSummary returns a human-readable summary of a generated playlist:
// the headline counts, the top tracks and the detected sections.
func FormatSummary(result *playlist.PlaylistResult, sections []Section, unsectioned []playlist.ScoredTrack) string {
	var sb strings.Builder
	md := result.Metadata

	if !result.Success {
		fmt.Fprintf(&sb, "Playlist generation failed for %q: %s\n", md.SearchQuery, result.Error)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Generated %d %s for %q (%d candidates from %d playlists, %d passed filtering)\n",
		md.TracksReturned, plural(md.TracksReturned, "track"), md.SearchQuery,
		md.CandidatesAnalyzed, md.SourcePlaylistCount, md.CandidatesAfterFiltering)

	if len(result.Playlist) == 0 {
		return sb.String()
	}

	sb.WriteString("\nTop tracks:\n")
	for i, t := range result.Playlist[:min(topTrackCount, len(result.Playlist))] {
		fmt.Fprintf(&sb, "  %d. %s - %s\n", i+1, t.Title, t.ArtistName)
		fmt.Fprintf(&sb, "     BPM: %s | Score: %.3f\n", formatBPM(t.BPM), t.MatchScore)
	}

	for _, s := range sections {
		sb.WriteString("\n")
		sb.WriteString(formatSection(s))
	}

	if len(unsectioned) > 0 && len(sections) > 0 {
		fmt.Fprintf(&sb, "\n(%d %s without a section)\n", len(unsectioned), plural(len(unsectioned), "track"))
	}

	return sb.String()
}

// formatSection formats a single section with its sample tracks.
func formatSection(s Section) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %d %s, avg %.0f BPM\n", s.Name, len(s.Tracks), plural(len(s.Tracks), "track"), s.AvgTempo)
	for _, t := range s.Tracks[:min(sampleTrackCount, len(s.Tracks))] {
		fmt.Fprintf(&sb, "  • %q - %s\n", t.Title, t.ArtistName)
	}
	return sb.String()
}

func formatBPM(bpm *float64) string {
	if bpm == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *bpm)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
