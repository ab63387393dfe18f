package scoring

import "math"

// RhythmScore rates the consistency and pacing of inter-word gaps on
// [0,1]. Fewer than four words is too little signal and returns the
// neutral 0.5.
func RhythmScore(words []WordRecord) float64 {
	if len(words) < 4 {
		return 0.5
	}

	// Gaps may be negative when words overlap; they are not clamped.
	gaps := make([]float64, 0, len(words)-1)
	for i := 0; i < len(words)-1; i++ {
		gaps = append(gaps, words[i+1].Start-words[i].End)
	}

	avgGap := 0.0
	for _, g := range gaps {
		avgGap += g
	}
	avgGap /= float64(len(gaps))

	variance := 0.0
	for _, g := range gaps {
		variance += (g - avgGap) * (g - avgGap)
	}
	variance /= float64(len(gaps))
	stdDev := math.Sqrt(variance)

	// Lower deviation relative to the mean gap means steadier rhythm.
	consistency := 0.0
	if avgGap > 0 {
		consistency = clamp01(1 - stdDev/avgGap)
	}

	pauseScore := 0.5
	if avgGap > 0.1 && avgGap < 0.8 {
		pauseScore = 0.8
	}

	return 0.7*consistency + 0.3*pauseScore
}
