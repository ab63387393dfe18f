package scoring

import (
	"math"
	"sort"
	"strings"
)

// RelevanceScore compares the recognized transcript against a reference
// text and returns a score on [0,1]. Both strings are lower-cased and
// whitespace-tokenized; no punctuation stripping or stemming is applied.
//
// The base score is the number of distinct shared tokens divided by the
// reference token count including duplicates, which deliberately deflates
// the score when the reference repeats words. An order bonus of up to 0.2
// is added for shared tokens appearing in the same relative order in both
// texts. When a shared token occurs more than once, its last occurrence
// index decides the ordering; token pairs are enumerated in lexicographic
// order. Both choices are kept for output compatibility.
func RelevanceScore(transcript, referenceText string) float64 {
	if transcript == "" || referenceText == "" {
		return 0.0
	}

	transcriptTokens := strings.Fields(strings.ToLower(transcript))
	referenceTokens := strings.Fields(strings.ToLower(referenceText))
	if len(referenceTokens) == 0 {
		return 0.0
	}

	inTranscript := make(map[string]bool, len(transcriptTokens))
	for _, tok := range transcriptTokens {
		inTranscript[tok] = true
	}
	common := make(map[string]bool)
	for _, tok := range referenceTokens {
		if inTranscript[tok] {
			common[tok] = true
		}
	}

	baseScore := float64(len(common)) / float64(len(referenceTokens))

	orderBonus := 0.0
	if len(common) > 1 {
		referenceIndex := lastOccurrence(referenceTokens, common)
		transcriptIndex := lastOccurrence(transcriptTokens, common)

		sortedCommon := make([]string, 0, len(common))
		for tok := range common {
			sortedCommon = append(sortedCommon, tok)
		}
		sort.Strings(sortedCommon)

		consistentPairs := 0
		totalPairs := 0
		for i := 0; i < len(sortedCommon); i++ {
			for j := i + 1; j < len(sortedCommon); j++ {
				w1, w2 := sortedCommon[i], sortedCommon[j]
				totalPairs++
				if (referenceIndex[w1] < referenceIndex[w2]) == (transcriptIndex[w1] < transcriptIndex[w2]) {
					consistentPairs++
				}
			}
		}
		if totalPairs > 0 {
			orderBonus = 0.2 * float64(consistentPairs) / float64(totalPairs)
		}
	}

	return math.Min(1.0, baseScore+orderBonus)
}

// lastOccurrence maps each shared token to its final position in the token
// sequence, later occurrences overwriting earlier ones.
func lastOccurrence(tokens []string, common map[string]bool) map[string]int {
	idx := make(map[string]int, len(common))
	for i, tok := range tokens {
		if common[tok] {
			idx[tok] = i
		}
	}
	return idx
}
