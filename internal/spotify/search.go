package spotify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/zmb3/spotify/v2"
)

const (
	searchLimit = 5

	titleWeight  = 0.7
	artistWeight = 0.3

	// MinSimilarity is the lowest weighted similarity accepted as a match.
	MinSimilarity = 0.6
)

var (
	// Parenthesised or bracketed suffixes such as "(feat. X)" or "[Live]".
	bracketed = regexp.MustCompile(`[(\[][^)\]]*[)\]]`)
	// Trailing edition notes such as " - Remastered 2011".
	editionSuffix = regexp.MustCompile(`\s+-\s+.*$`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Match is the best Spotify candidate for a title and artist.
type Match struct {
	ID         spotify.ID
	URI        spotify.URI
	Title      string
	Artist     string
	Similarity float64
}

// SearchTrack looks up a track by title and artist and returns the closest
// result, or nil when nothing reaches MinSimilarity.
func (c *Client) SearchTrack(ctx context.Context, title, artist string) (*Match, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}

	var best *Match
	for _, t := range result.Tracks.Tracks {
		names := make([]string, len(t.Artists))
		for i, a := range t.Artists {
			names[i] = a.Name
		}

		sim := trackSimilarity(title, artist, t.Name, names)
		if best == nil || sim > best.Similarity {
			best = &Match{
				ID:         t.ID,
				URI:        t.URI,
				Title:      t.Name,
				Artist:     strings.Join(names, ", "),
				Similarity: sim,
			}
		}
	}

	if best == nil || best.Similarity < MinSimilarity {
		return nil, nil
	}
	return best, nil
}

// trackSimilarity weighs title similarity against the best artist similarity.
func trackSimilarity(wantTitle, wantArtist, gotTitle string, gotArtists []string) float64 {
	titleSim := similarity(normalize(wantTitle), normalize(gotTitle))

	artistSim := 0.0
	want := normalize(wantArtist)
	for _, a := range gotArtists {
		artistSim = max(artistSim, similarity(want, normalize(a)))
	}
	if len(gotArtists) > 1 {
		artistSim = max(artistSim, similarity(want, normalize(strings.Join(gotArtists, " "))))
	}

	return titleWeight*titleSim + artistWeight*artistSim
}

// similarity is 1 minus the edit distance relative to the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = bracketed.ReplaceAllString(s, " ")
	s = editionSuffix.ReplaceAllString(s, "")
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
