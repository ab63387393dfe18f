package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speecheval-server/pkg/config"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/scoring"
)

func init() {
	metrics.EnableMetrics(false)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testScores() Scores {
	return Scores{Pronunciation: 0.85, Relevance: 0.7, Rhythm: 0.9, Intonation: 0.8, SpeechRate: 0.9}
}

// chatServer returns a test server answering every completion request
// with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func clientFor(url string) *Client {
	return NewClient(testLogger(), config.FeedbackConfig{
		Enabled: true,
		APIURL:  url,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	})
}

func TestGenerateParsesStrictJSON(t *testing.T) {
	srv := chatServer(t, `{"strengths": ["Clear articulation"], "area_to_improve": ["Pace"], "detailed_feedback": "Well done overall."}`)
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hello world", "hello world", testScores())

	assert.Equal(t, []string{"Clear articulation"}, fb.Strengths)
	assert.Equal(t, []string{"Pace"}, fb.AreasToImprove)
	assert.Equal(t, "Well done overall.", fb.Detailed)
}

func TestGenerateSalvagesWrappedJSON(t *testing.T) {
	srv := chatServer(t, "Here is my analysis:\n{\"strengths\": [\"Good rhythm\"], \"area_to_improve\": [\"Intonation\"], \"detailed_feedback\": \"Keep going.\"}\nHope that helps!")
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hi", "", testScores())

	assert.Equal(t, []string{"Good rhythm"}, fb.Strengths)
	assert.Equal(t, "Keep going.", fb.Detailed)
}

func TestGenerateCoercesScalarToList(t *testing.T) {
	srv := chatServer(t, `{"strengths": "Confident delivery", "area_to_improve": ["Pauses"], "detailed_feedback": "Solid work."}`)
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hi", "", testScores())

	assert.Equal(t, []string{"Confident delivery"}, fb.Strengths)
}

func TestGenerateFallbackOnGarbage(t *testing.T) {
	srv := chatServer(t, "I cannot produce JSON today, sorry.")
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hi", "", testScores())

	assert.Equal(t, Fallback(), fb)
}

func TestGenerateFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hi", "", testScores())

	assert.Equal(t, Fallback(), fb)
}

func TestGenerateFallbackWhenDisabled(t *testing.T) {
	client := NewClient(testLogger(), config.FeedbackConfig{Enabled: false})

	fb := client.Generate(context.Background(), nil, "hi", "", testScores())

	assert.Equal(t, Fallback(), fb)
}

func TestGenerateFillsEmptyLists(t *testing.T) {
	srv := chatServer(t, `{"strengths": [], "area_to_improve": [], "detailed_feedback": "Some text."}`)
	defer srv.Close()

	fb := clientFor(srv.URL).Generate(context.Background(), nil, "hi", "", testScores())

	require.NotEmpty(t, fb.Strengths)
	require.NotEmpty(t, fb.AreasToImprove)
	assert.Equal(t, "Some text.", fb.Detailed)
}

func TestBuildPromptWordDetails(t *testing.T) {
	words := []scoring.WordRecord{
		{Text: "mumbled", Confidence: 0.2},
		{Text: "excellent", Confidence: 0.95},
		{Text: "ok", Confidence: 0.95}, // too short for the good list
	}
	prompt := buildPrompt(words, "mumbled excellent ok", "", testScores())

	assert.Contains(t, prompt, "Words with pronunciation issues: mumbled")
	assert.Contains(t, prompt, "Well-pronounced words: excellent")
	assert.NotContains(t, prompt, "Well-pronounced words: excellent, ok")
	assert.Contains(t, prompt, "pronunciation-only evaluation")
}

func TestGeneratePronunciationOnlyPinsRelevance(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPrompt = string(body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"strengths\":[\"a\"],\"area_to_improve\":[\"b\"],\"detailed_feedback\":\"c\"}"}}]}`)
	}))
	defer srv.Close()

	scores := testScores()
	scores.Relevance = 0.1 // should be overridden
	fb := clientFor(srv.URL).GeneratePronunciationOnly(context.Background(), nil, "hi there", scores)

	assert.Equal(t, []string{"a"}, fb.Strengths)
	assert.Contains(t, gotPrompt, "Content Relevance Score: 0.50/1.0")
}
