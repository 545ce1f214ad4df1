package playlist

import "strings"

// Mood band thresholds. A track is only checked against a keyword list when
// the matching parameter is outside the neutral band.
const (
	highValence = 0.75
	lowValence  = 0.3
	highEnergy  = 0.7
	lowEnergy   = 0.3
)

var (
	sadKeywords        = []string{"sad", "cry", "tears", "hurt", "pain", "alone", "broken", "goodbye", "miss you"}
	happyKeywords      = []string{"party", "celebrate", "dance", "happy", "joy", "fun"}
	lowEnergyKeywords  = []string{"sleep", "lullaby", "meditation", "sleeping"}
	highEnergyKeywords = []string{"party", "workout", "pump", "rage", "hardcore"}
)

// PassesMoodFilter reports whether the track's title and artist text is
// compatible with the requested valence and energy.
//
// This is a keyword heuristic over metadata, not audio analysis: "Dancing
// Queen" fails a low-valence run and "Hurts So Good" fails a high-valence one.
func PassesMoodFilter(track CandidateTrack, params TargetParameters) bool {
	text := strings.ToLower(track.Title + " " + track.ArtistName)

	if params.TargetValence > highValence {
		if containsAny(text, sadKeywords) {
			return false
		}
	} else if params.TargetValence < lowValence {
		if containsAny(text, happyKeywords) {
			return false
		}
	}

	if params.TargetEnergy > highEnergy {
		if containsAny(text, lowEnergyKeywords) {
			return false
		}
	} else if params.TargetEnergy < lowEnergy {
		if containsAny(text, highEnergyKeywords) {
			return false
		}
	}

	return true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
