package scoring

import (
	"math"

	"github.com/sirupsen/logrus"
)

// WordRecord is one recognized word with its confidence and time span,
// as produced by the ASR provider. Sequences are ordered by Start,
// non-decreasing; the engine trusts provider ordering and does not re-sort.
type WordRecord struct {
	Text       string  `json:"word"`
	Confidence float64 `json:"confidence"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// EvaluationInput is everything one evaluation pass needs. It is treated
// as immutable for the duration of scoring.
type EvaluationInput struct {
	Transcript    string
	Words         []WordRecord
	ReferenceText string
}

// SubScores holds the per-dimension scores on the raw [0,1] scale.
// Relevance is nil when no reference text was supplied; a nil relevance
// means "not evaluated" and must not be conflated with a measured 0.0.
type SubScores struct {
	Pronunciation float64
	Relevance     *float64
	Rhythm        float64
	Intonation    float64
	SpeechRate    float64
}

// EvaluationResult is the immutable output of one evaluation. Overall and
// SubScores keep full precision on [0,1]; OverallScore is the presentation
// value on [0,10], rounded to one decimal. The original word sequence is
// carried through so the feedback generator can cite specific words.
type EvaluationResult struct {
	Overall       float64
	OverallScore  float64
	SubScores     SubScores
	Transcript    string
	ReferenceText string
	Words         []WordRecord
}

// Scale converts a raw [0,1] score to the [0,10] presentation scale,
// rounded to one decimal place. Rounding happens here and nowhere else.
func Scale(v float64) float64 {
	return math.Round(v*100) / 10
}

// NormalizeWords validates an incoming word list. Confidence values are
// clamped to [0,1] and records whose end precedes their start are dropped;
// both cases are logged as data-quality problems rather than surfaced as
// scoring failures. The input slice is not modified.
func NormalizeWords(logger *logrus.Logger, words []WordRecord) []WordRecord {
	out := make([]WordRecord, 0, len(words))
	for _, w := range words {
		if w.End < w.Start {
			logger.WithFields(logrus.Fields{
				"word":  w.Text,
				"start": w.Start,
				"end":   w.End,
			}).Warn("Dropping word record with end before start")
			continue
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			logger.WithFields(logrus.Fields{
				"word":       w.Text,
				"confidence": w.Confidence,
			}).Warn("Clamping word confidence outside [0,1]")
			w.Confidence = clamp01(w.Confidence)
		}
		out = append(out, w)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
