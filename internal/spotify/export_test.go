package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-photo-playlist/internal/playlist"
)

// fakeAPI implements API for testing.
type fakeAPI struct {
	// results maps a search query to its tracks.
	results   map[string][]spotify.FullTrack
	searchErr map[string]error
	createErr error
	addErr    error

	queries  []string
	created  []string
	batches  [][]spotify.ID
	limitSet bool
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	return &spotify.PrivateUser{User: spotify.User{ID: "user-1"}}, nil
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.queries = append(f.queries, query)
	f.limitSet = len(opts) > 0
	if err := f.searchErr[query]; err != nil {
		return nil, err
	}
	return &spotify.SearchResult{Tracks: &spotify.FullTrackPage{Tracks: f.results[query]}}, nil
}

func (f *fakeAPI) CreatePlaylistForUser(ctx context.Context, userID, name, description string, public, collaborative bool) (*spotify.FullPlaylist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, fmt.Sprintf("%s|%s|%s|%t", userID, name, description, public))
	return &spotify.FullPlaylist{SimplePlaylist: spotify.SimplePlaylist{ID: "pl-1"}}, nil
}

func (f *fakeAPI) AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, ids ...spotify.ID) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.batches = append(f.batches, ids)
	return "snap", nil
}

func fullTrack(id, name string, artists ...string) spotify.FullTrack {
	simple := make([]spotify.SimpleArtist, len(artists))
	for i, a := range artists {
		simple[i] = spotify.SimpleArtist{Name: a}
	}
	return spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{
		ID:      spotify.ID(id),
		Name:    name,
		Artists: simple,
		URI:     spotify.URI("spotify:track:" + id),
	}}
}

func scored(title, artist string) playlist.ScoredTrack {
	return playlist.ScoredTrack{CandidateTrack: playlist.CandidateTrack{Title: title, ArtistName: artist}}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 0.0, similarity("abc", ""))
	assert.InDelta(t, 0.75, similarity("abcd", "abce"), 1e-9)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Blinding Lights", want: "blinding lights"},
		{in: "Get Lucky (feat. Pharrell Williams)", want: "get lucky"},
		{in: "Heroes - 2017 Remaster", want: "heroes"},
		{in: "Don't Stop Me Now [Live]", want: "don t stop me now"},
		{in: "  Beyoncé  ", want: "beyoncé"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(tt.in), tt.in)
	}
}

func TestSearchTrack(t *testing.T) {
	api := &fakeAPI{results: map[string][]spotify.FullTrack{
		"track:Get Lucky artist:Daft Punk": {
			fullTrack("karaoke", "Get Lucky (Karaoke Version)", "Sing Along Band"),
			fullTrack("real", "Get Lucky (feat. Pharrell Williams)", "Daft Punk", "Pharrell Williams"),
		},
		"track:Unknown artist:Nobody": {
			fullTrack("x", "Something Else Entirely", "Other"),
		},
	}}
	client := New(api)

	m, err := client.SearchTrack(context.Background(), "Get Lucky", "Daft Punk")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, spotify.ID("real"), m.ID)
	assert.Equal(t, "Daft Punk, Pharrell Williams", m.Artist)
	assert.InDelta(t, 1.0, m.Similarity, 1e-9)
	assert.True(t, api.limitSet)

	m, err = client.SearchTrack(context.Background(), "Unknown", "Nobody")
	require.NoError(t, err)
	assert.Nil(t, m, "low similarity is not a match")

	m, err = client.SearchTrack(context.Background(), "Empty", "Result")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestExport(t *testing.T) {
	api := &fakeAPI{
		results: map[string][]spotify.FullTrack{
			"track:Blinding Lights artist:The Weeknd": {fullTrack("t1", "Blinding Lights", "The Weeknd")},
			"track:Levitating artist:Dua Lipa":        {fullTrack("t2", "Levitating", "Dua Lipa")},
			"track:Levitating (Remix) artist:Dua Lipa": {fullTrack("t2", "Levitating", "Dua Lipa")},
		},
		searchErr: map[string]error{"track:Broken artist:Net": errors.New("timeout")},
	}
	exporter := NewExporter(New(api), zerolog.Nop())

	result, err := exporter.Export(context.Background(), ExportRequest{
		Name:        "Sunset",
		Description: "from a photo",
		Public:      true,
		Tracks: []playlist.ScoredTrack{
			scored("Blinding Lights", "The Weeknd"),
			scored("Missing Song", "Ghost"),
			scored("Levitating", "Dua Lipa"),
			scored("Broken", "Net"),
			scored("Levitating (Remix)", "Dua Lipa"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "pl-1", result.PlaylistID)
	assert.Equal(t, "https://open.spotify.com/playlist/pl-1", result.URL)
	assert.Equal(t, 2, result.TracksAdded)
	assert.InDelta(t, 0.4, result.MatchRate, 1e-9)
	assert.Equal(t, []string{"user-1|Sunset|from a photo|true"}, api.created)
	assert.Equal(t, [][]spotify.ID{{"t1", "t2"}}, api.batches)

	require.Len(t, result.Matches, 5)
	assert.True(t, result.Matches[0].Found)
	assert.False(t, result.Matches[1].Found)
	assert.Equal(t, "timeout", strings.TrimPrefix(result.Matches[3].Error, `searching "track:Broken artist:Net": `))
	assert.True(t, result.Matches[4].Found)
}

func TestExport_NoMatches(t *testing.T) {
	api := &fakeAPI{}
	exporter := NewExporter(New(api), zerolog.Nop())

	result, err := exporter.Export(context.Background(), ExportRequest{
		Name:   "Empty",
		Tracks: []playlist.ScoredTrack{scored("Nothing", "Nobody")},
	})
	assert.ErrorIs(t, err, ErrNoTracks)
	require.NotNil(t, result)
	assert.Empty(t, api.created, "no playlist is created without tracks")
}

func TestExport_CreateFails(t *testing.T) {
	api := &fakeAPI{
		results:   map[string][]spotify.FullTrack{"track:A artist:B": {fullTrack("t1", "A", "B")}},
		createErr: errors.New("forbidden"),
	}
	exporter := NewExporter(New(api), zerolog.Nop())

	_, err := exporter.Export(context.Background(), ExportRequest{Tracks: []playlist.ScoredTrack{scored("A", "B")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating playlist")
}

func TestAddTracksToPlaylist_Batches(t *testing.T) {
	api := &fakeAPI{}
	ids := make([]spotify.ID, 250)
	for i := range ids {
		ids[i] = spotify.ID(fmt.Sprintf("t%d", i))
	}

	require.NoError(t, New(api).AddTracksToPlaylist(context.Background(), "pl", ids))

	require.Len(t, api.batches, 3)
	assert.Len(t, api.batches[0], 100)
	assert.Len(t, api.batches[1], 100)
	assert.Len(t, api.batches[2], 50)
	assert.Equal(t, spotify.ID("t249"), api.batches[2][49])
}

func TestDescribe(t *testing.T) {
	result := &playlist.PlaylistResult{Metadata: playlist.Metadata{
		SearchQuery: "beach sunset",
		Parameters:  playlist.TargetParameters{TargetTempo: 118, TargetValence: 0.8, TargetEnergy: 0.65},
	}}
	assert.Equal(t, `Generated for "beach sunset" (tempo 118 BPM, valence 0.80, energy 0.65)`, Describe(result))
}
