package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationWords() []WordRecord {
	return []WordRecord{
		{Text: "the", Confidence: 0.95, Start: 0.0, End: 0.2},
		{Text: "quick", Confidence: 0.90, Start: 0.4, End: 0.7},
		{Text: "brown", Confidence: 0.85, Start: 0.9, End: 1.2},
		{Text: "fox", Confidence: 0.80, Start: 1.4, End: 1.7},
		{Text: "jumps", Confidence: 0.75, Start: 1.9, End: 2.2},
	}
}

func TestPronunciationScore(t *testing.T) {
	assert.Equal(t, 0.0, PronunciationScore(nil), "Empty word list should score zero")
	assert.InDelta(t, 0.85, PronunciationScore(evaluationWords()), 1e-9)
}

func TestEvaluateWithReference(t *testing.T) {
	input := EvaluationInput{
		Transcript:    "the quick brown fox jumps",
		Words:         evaluationWords(),
		ReferenceText: "the quick brown fox jumps",
	}
	result := Evaluate(input)

	require.NotNil(t, result.SubScores.Relevance, "Relevance must be present when a reference is supplied")
	assert.Equal(t, 1.0, *result.SubScores.Relevance)

	expected := 0.40*result.SubScores.Pronunciation +
		0.20**result.SubScores.Relevance +
		0.15*result.SubScores.Rhythm +
		0.15*result.SubScores.Intonation +
		0.10*result.SubScores.SpeechRate
	assert.InDelta(t, expected, result.Overall, 1e-9)
	assert.Equal(t, Scale(expected), result.OverallScore)
}

func TestEvaluateWithoutReference(t *testing.T) {
	input := EvaluationInput{
		Transcript: "the quick brown fox jumps",
		Words:      evaluationWords(),
	}
	result := Evaluate(input)

	assert.Nil(t, result.SubScores.Relevance, "Relevance must be absent without a reference, not a numeric zero")
	assert.Equal(t, "", result.ReferenceText)

	expected := 0.50*result.SubScores.Pronunciation +
		0.20*result.SubScores.Rhythm +
		0.20*result.SubScores.Intonation +
		0.10*result.SubScores.SpeechRate
	assert.InDelta(t, expected, result.Overall, 1e-9)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	input := EvaluationInput{
		Transcript:    "the quick brown fox jumps",
		Words:         evaluationWords(),
		ReferenceText: "a quick fox",
	}
	first := Evaluate(input)
	second := Evaluate(input)

	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.SubScores.Pronunciation, second.SubScores.Pronunciation)
	assert.Equal(t, *first.SubScores.Relevance, *second.SubScores.Relevance)
	assert.Equal(t, first.SubScores.Rhythm, second.SubScores.Rhythm)
	assert.Equal(t, first.SubScores.Intonation, second.SubScores.Intonation)
	assert.Equal(t, first.SubScores.SpeechRate, second.SubScores.SpeechRate)
}

func TestEvaluateEmptyInputStillProducesScore(t *testing.T) {
	result := Evaluate(EvaluationInput{})

	assert.Equal(t, 0.0, result.SubScores.Pronunciation)
	assert.Equal(t, 0.5, result.SubScores.Rhythm)
	assert.Equal(t, 0.5, result.SubScores.Intonation)
	assert.Equal(t, 0.5, result.SubScores.SpeechRate)
	assert.Nil(t, result.SubScores.Relevance)
	assert.GreaterOrEqual(t, result.OverallScore, 0.0)
	assert.LessOrEqual(t, result.OverallScore, 10.0)
}

func TestEvaluateInsufficientDataDefaults(t *testing.T) {
	// Three words: rhythm and intonation fall back to 0.5 while speech
	// rate still has enough signal.
	words := evaluationWords()[:3]
	result := Evaluate(EvaluationInput{Transcript: "the quick brown", Words: words})
	assert.Equal(t, 0.5, result.SubScores.Rhythm)
	assert.Equal(t, 0.5, result.SubScores.Intonation)

	// One word: speech rate joins the defaults.
	result = Evaluate(EvaluationInput{Transcript: "the", Words: words[:1]})
	assert.Equal(t, 0.5, result.SubScores.SpeechRate)
}

func TestBatchAverage(t *testing.T) {
	results := []EvaluationResult{
		{OverallScore: 6.0},
		{OverallScore: 8.0},
	}
	assert.Equal(t, 7.0, BatchAverage(results))
	assert.Equal(t, 0.0, BatchAverage(nil))
}

func TestScale(t *testing.T) {
	assert.Equal(t, 7.5, Scale(0.75))
	assert.Equal(t, 0.0, Scale(0.0))
	assert.Equal(t, 10.0, Scale(1.0))
	assert.Equal(t, 8.6, Scale(0.856))
}
