package playlist

import (
	"fmt"
	"math"
)

// Criterion weights.
const (
	tempoWeight    = 3.0
	durationWeight = 1.0
	rankWeight     = 2.0
)

// MinMatchScore is the lowest score a track may have and still be returned.
const MinMatchScore = 0.3

// Preferred duration window in seconds (2 to 6 minutes).
const (
	minPreferredDuration = 120
	maxPreferredDuration = 360
)

// Score computes how well a track matches the target parameters, in [0, 1].
// The value is unrounded; use RoundScore for presentation.
//
// Tempo only counts when the track has a positive BPM and duration only when
// it is positive. Rank always counts.
func Score(track CandidateTrack, params TargetParameters) float64 {
	var sum, totalWeight float64

	if track.BPM != nil && *track.BPM > 0 {
		sum += tempoScore(*track.BPM, params.TargetTempo) * tempoWeight
		totalWeight += tempoWeight
	}

	if track.DurationSeconds > 0 {
		sum += durationScore(track.DurationSeconds) * durationWeight
		totalWeight += durationWeight
	}

	sum += rankScore(track.Rank) * rankWeight
	totalWeight += rankWeight

	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

func tempoScore(bpm, target float64) float64 {
	diff := math.Abs(bpm - target)
	switch {
	case diff <= 20:
		return 1.0
	case diff <= 40:
		return 0.5
	default:
		return math.Max(0, 1-diff/100)
	}
}

func durationScore(seconds int) float64 {
	if seconds >= minPreferredDuration && seconds <= maxPreferredDuration {
		return 1.0
	}
	return 0.3
}

func rankScore(rank int) float64 {
	switch {
	case rank > 700000:
		return 1.0
	case rank > 500000:
		return 0.8
	case rank > 300000:
		return 0.6
	case rank > 100000:
		return 0.4
	default:
		return 0.2
	}
}

// RoundScore rounds a score to three decimal places.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
