package scoring

import "strings"

// SpeechRateScore buckets the speaking rate in words per minute on [0,1].
// Fewer than two words, or a non-positive utterance duration, returns the
// neutral 0.5.
//
// The word count is the transcript's whitespace token count, not the
// length of the word list; the two can diverge when the transcript and
// the word records tokenize differently, and the transcript count is the
// contractual basis for the rate.
func SpeechRateScore(words []WordRecord, transcript string) float64 {
	if len(words) < 2 {
		return 0.5
	}

	duration := words[len(words)-1].End - words[0].Start
	if duration <= 0 {
		return 0.5
	}

	wordCount := len(strings.Fields(transcript))
	wpm := (float64(wordCount) / duration) * 60

	// Typical English rates: 120-160 WPM reads as optimal.
	switch {
	case wpm < 80:
		return 0.4
	case wpm < 120:
		return 0.7
	case wpm <= 160:
		return 0.9
	case wpm <= 200:
		return 0.7
	default:
		return 0.4
	}
}
