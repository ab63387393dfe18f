package scoring

// Weight profiles for combining sub-scores. The profile is selected by
// whether a reference text was supplied with the evaluation.
var (
	weightsWithReference = struct {
		Pronunciation, Relevance, Rhythm, Intonation, SpeechRate float64
	}{0.40, 0.20, 0.15, 0.15, 0.10}

	weightsWithoutReference = struct {
		Pronunciation, Rhythm, Intonation, SpeechRate float64
	}{0.50, 0.20, 0.20, 0.10}
)

// PronunciationScore is the mean word confidence, or 0.0 for an empty
// word list.
func PronunciationScore(words []WordRecord) float64 {
	if len(words) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

// Evaluate runs every scorer over the input and combines the sub-scores
// into one overall score. It is a pure function: identical input yields
// an identical result, it performs no I/O and touches no shared state,
// so it is safe to call concurrently over distinct inputs.
func Evaluate(input EvaluationInput) EvaluationResult {
	pronunciation := PronunciationScore(input.Words)
	rhythm := RhythmScore(input.Words)
	intonation := IntonationScore(input.Words)
	speechRate := SpeechRateScore(input.Words, input.Transcript)

	var relevance *float64
	if input.ReferenceText != "" {
		r := RelevanceScore(input.Transcript, input.ReferenceText)
		relevance = &r
	}

	var overall float64
	if relevance != nil {
		overall = weightsWithReference.Pronunciation*pronunciation +
			weightsWithReference.Relevance**relevance +
			weightsWithReference.Rhythm*rhythm +
			weightsWithReference.Intonation*intonation +
			weightsWithReference.SpeechRate*speechRate
	} else {
		overall = weightsWithoutReference.Pronunciation*pronunciation +
			weightsWithoutReference.Rhythm*rhythm +
			weightsWithoutReference.Intonation*intonation +
			weightsWithoutReference.SpeechRate*speechRate
	}

	return EvaluationResult{
		Overall:      overall,
		OverallScore: Scale(overall),
		SubScores: SubScores{
			Pronunciation: pronunciation,
			Relevance:     relevance,
			Rhythm:        rhythm,
			Intonation:    intonation,
			SpeechRate:    speechRate,
		},
		Transcript:    input.Transcript,
		ReferenceText: input.ReferenceText,
		Words:         input.Words,
	}
}

// BatchAverage is the arithmetic mean of the per-utterance presentation
// scores. Batch mode averages completed independent results; it never
// re-runs per-word analysis over concatenated inputs.
func BatchAverage(results []EvaluationResult) float64 {
	if len(results) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.OverallScore
	}
	return sum / float64(len(results))
}
