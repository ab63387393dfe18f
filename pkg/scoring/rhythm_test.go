package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// wordsWithGaps builds a word sequence with the given uniform word length
// and inter-word gap, starting at zero.
func wordsWithGaps(count int, wordLen, gap float64) []WordRecord {
	words := make([]WordRecord, 0, count)
	start := 0.0
	for i := 0; i < count; i++ {
		words = append(words, WordRecord{
			Text:       "word",
			Confidence: 0.9,
			Start:      start,
			End:        start + wordLen,
		})
		start += wordLen + gap
	}
	return words
}

func TestRhythmScoreInsufficientWords(t *testing.T) {
	assert.Equal(t, 0.5, RhythmScore(nil))
	assert.Equal(t, 0.5, RhythmScore(wordsWithGaps(3, 0.3, 0.2)))
}

func TestRhythmScoreUniformGaps(t *testing.T) {
	// Five words with constant 0.2s gaps: zero deviation gives full
	// consistency, and the average gap lands in the good-pause band.
	score := RhythmScore(wordsWithGaps(5, 0.3, 0.2))
	assert.InDelta(t, 0.7*1.0+0.3*0.8, score, 1e-9)
}

func TestRhythmScoreLongPausesOutsideBand(t *testing.T) {
	// Uniform 1.0s gaps: perfect consistency but the pause band is
	// missed, so the pause component drops to 0.5.
	score := RhythmScore(wordsWithGaps(5, 0.3, 1.0))
	assert.InDelta(t, 0.7*1.0+0.3*0.5, score, 1e-9)
}

func TestRhythmScoreNonPositiveAverageGap(t *testing.T) {
	// Overlapping words produce negative gaps; consistency collapses to
	// zero and only the neutral pause component remains.
	words := []WordRecord{
		{Text: "a", Start: 0.0, End: 0.5},
		{Text: "b", Start: 0.3, End: 0.8},
		{Text: "c", Start: 0.6, End: 1.1},
		{Text: "d", Start: 0.9, End: 1.4},
	}
	score := RhythmScore(words)
	assert.InDelta(t, 0.3*0.5, score, 1e-9)
}

func TestRhythmScoreIrregularGaps(t *testing.T) {
	// Gaps 0.1, 0.5, 0.1, 0.5: avg 0.3, large deviation cuts consistency.
	words := []WordRecord{
		{Text: "a", Start: 0.0, End: 0.2},
		{Text: "b", Start: 0.3, End: 0.5},
		{Text: "c", Start: 1.0, End: 1.2},
		{Text: "d", Start: 1.3, End: 1.5},
		{Text: "e", Start: 2.0, End: 2.2},
	}
	score := RhythmScore(words)
	// std dev is 0.2 over an average of 0.3; consistency 1-0.2/0.3.
	expected := 0.7*(1-0.2/0.3) + 0.3*0.8
	assert.InDelta(t, expected, score, 1e-9)
}
