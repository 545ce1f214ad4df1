package sections

// sectionName describes a section by its average tempo and popularity.
//
// Tempo bands:
//   - below 95 BPM   = "Slow"
//   - below 125 BPM  = "Mid-tempo"
//   - otherwise      = "Up-tempo"
//
// An average Deezer rank above 500000 adds "Hits", otherwise "Deep Cuts".
func sectionName(avgTempo, avgRank float64) string {
	var tempo string
	switch {
	case avgTempo < 95:
		tempo = "Slow"
	case avgTempo < 125:
		tempo = "Mid-tempo"
	default:
		tempo = "Up-tempo"
	}

	if avgRank > 500000 {
		return tempo + " Hits"
	}
	return tempo + " Deep Cuts"
}
