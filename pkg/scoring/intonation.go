package scoring

// IntonationScore rates intonation variation on [0,1] using the variance
// of per-word confidence values as a proxy, since no pitch data is
// available from the ASR provider. Fewer than four words returns the
// neutral 0.5.
//
// The result is a three-bucket step function: variance below 0.01 reads
// as monotone (0.4), above 0.2 as erratic (0.6), anything between as
// healthy variation (0.8). The boundaries are exclusive on both ends.
func IntonationScore(words []WordRecord) float64 {
	if len(words) < 4 {
		return 0.5
	}

	avg := 0.0
	for _, w := range words {
		avg += w.Confidence
	}
	avg /= float64(len(words))

	variance := 0.0
	for _, w := range words {
		variance += (w.Confidence - avg) * (w.Confidence - avg)
	}
	variance /= float64(len(words))

	switch {
	case variance < 0.01:
		return 0.4
	case variance > 0.2:
		return 0.6
	default:
		return 0.8
	}
}
