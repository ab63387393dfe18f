package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// spanWords builds a minimal word pair covering the given duration.
func spanWords(duration float64) []WordRecord {
	return []WordRecord{
		{Text: "first", Confidence: 0.9, Start: 0.0, End: 0.4},
		{Text: "last", Confidence: 0.9, Start: duration - 0.4, End: duration},
	}
}

func transcriptOf(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestSpeechRateScoreInsufficientWords(t *testing.T) {
	assert.Equal(t, 0.5, SpeechRateScore(nil, "one two three"))
	assert.Equal(t, 0.5, SpeechRateScore([]WordRecord{{Text: "one"}}, "one"))
}

func TestSpeechRateScoreNonPositiveDuration(t *testing.T) {
	words := []WordRecord{
		{Text: "a", Start: 1.0, End: 1.2},
		{Text: "b", Start: 0.9, End: 1.0},
	}
	assert.Equal(t, 0.5, SpeechRateScore(words, "a b"))
}

func TestSpeechRateScoreBuckets(t *testing.T) {
	tests := []struct {
		name     string
		tokens   int
		duration float64
		want     float64
	}{
		{"too slow", 10, 10.0, 0.4},           // 60 WPM
		{"lower boundary 80", 20, 15.0, 0.7},  // exactly 80 WPM
		{"slightly slow", 18, 10.0, 0.7},      // 108 WPM
		{"optimal lower edge", 20, 10.0, 0.9}, // exactly 120 WPM
		{"optimal", 24, 10.0, 0.9},            // 144 WPM
		{"optimal upper edge", 20, 7.5, 0.9},  // exactly 160 WPM
		{"slightly fast", 30, 10.0, 0.7},      // 180 WPM
		{"upper boundary 200", 20, 6.0, 0.7},  // exactly 200 WPM
		{"too fast", 40, 10.0, 0.4},           // 240 WPM
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := SpeechRateScore(spanWords(tt.duration), transcriptOf(tt.tokens))
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestSpeechRateScoreUsesTranscriptTokenCount(t *testing.T) {
	// The transcript tokenizes to twice as many words as the record list;
	// the transcript count is the contractual basis for the rate.
	words := spanWords(10.0) // 2 records over 10s
	score := SpeechRateScore(words, transcriptOf(20))
	assert.Equal(t, 0.9, score, "20 transcript tokens over 10s should hit the optimal bucket")
}
