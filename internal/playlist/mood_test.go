package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassesMoodFilter(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		artist  string
		valence float64
		energy  float64
		want    bool
	}{
		{name: "sad title on happy run", title: "Tears in the Rain", artist: "Someone", valence: 0.9, energy: 0.5, want: false},
		{name: "miss you phrase", title: "I Miss You So", artist: "Band", valence: 0.8, energy: 0.5, want: false},
		{name: "keyword in artist", title: "Morning", artist: "Broken Bells", valence: 0.8, energy: 0.5, want: false},
		{name: "neutral title on happy run", title: "Sunshine Road", artist: "Band", valence: 0.9, energy: 0.5, want: true},
		{name: "happy title on sad run", title: "Party All Night", artist: "DJ", valence: 0.1, energy: 0.5, want: false},
		{name: "substring match", title: "Funky Town", artist: "Lipps", valence: 0.2, energy: 0.5, want: false},
		{name: "sad title on sad run", title: "Tears", artist: "Someone", valence: 0.1, energy: 0.5, want: true},
		{name: "sleep title on energetic run", title: "Sleeping Beauty", artist: "Orchestra", valence: 0.5, energy: 0.9, want: false},
		{name: "workout title on calm run", title: "Workout Mix", artist: "Gym", valence: 0.5, energy: 0.1, want: false},
		{name: "both rules apply", title: "Rage Against Goodbye", artist: "X", valence: 0.9, energy: 0.1, want: false},
		{name: "case insensitive", title: "HAPPY DAYS", artist: "X", valence: 0.2, energy: 0.5, want: false},
		{name: "neutral band passes everything", title: "Sad Party Sleep Workout", artist: "X", valence: 0.5, energy: 0.5, want: true},
		{name: "valence upper edge is neutral", title: "Sad Song", artist: "X", valence: 0.75, energy: 0.5, want: true},
		{name: "valence lower edge is neutral", title: "Happy Song", artist: "X", valence: 0.3, energy: 0.5, want: true},
		{name: "energy upper edge is neutral", title: "Sleep", artist: "X", valence: 0.5, energy: 0.7, want: true},
		{name: "energy lower edge is neutral", title: "Pump It", artist: "X", valence: 0.5, energy: 0.3, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParameters()
			params.TargetValence = tt.valence
			params.TargetEnergy = tt.energy
			track := CandidateTrack{ID: "1", Title: tt.title, ArtistName: tt.artist}

			assert.Equal(t, tt.want, PassesMoodFilter(track, params))
		})
	}
}
