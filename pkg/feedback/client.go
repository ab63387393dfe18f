package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/config"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/scoring"
)

// Scores carries the sub-scores handed to the feedback generator. A
// missing relevance is represented upstream; callers substitute the
// neutral 0.5 here, matching the collaborator contract.
type Scores struct {
	Pronunciation float64
	Relevance     float64
	Rhythm        float64
	Intonation    float64
	SpeechRate    float64
}

// Feedback is the generated coaching text. It is always populated: when
// the external service fails, the deterministic fallback is returned
// instead, so scoring results are never blocked on feedback generation.
type Feedback struct {
	Strengths      []string
	AreasToImprove []string
	Detailed       string
}

// Fallback returns the deterministic feedback served when the external
// generator is unavailable or returns an unusable response.
func Fallback() Feedback {
	return Feedback{
		Strengths:      []string{"Communication attempt noted"},
		AreasToImprove: []string{"Continue practicing English pronunciation"},
		Detailed:       "The speech was analyzed, but detailed feedback could not be generated due to a technical issue. Please try again later.",
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint to turn
// evaluation scores into coaching text.
type Client struct {
	logger     *logrus.Logger
	httpClient *http.Client
	cfg        config.FeedbackConfig
}

// NewClient creates a new feedback client
func NewClient(logger *logrus.Logger, cfg config.FeedbackConfig) *Client {
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// stringList tolerates a scalar string where a list was requested; the
// generator occasionally answers with one instead of the other.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}
	return fmt.Errorf("expected string or list of strings")
}

type feedbackPayload struct {
	Strengths        stringList `json:"strengths"`
	AreasToImprove   stringList `json:"area_to_improve"`
	DetailedFeedback string     `json:"detailed_feedback"`
}

// Generate produces coaching feedback for one evaluation. It never
// returns an error: any failure along the way yields the deterministic
// fallback so the caller's result is complete regardless.
func (c *Client) Generate(ctx context.Context, words []scoring.WordRecord, transcript, referenceText string, scores Scores) Feedback {
	if !c.cfg.Enabled {
		c.logger.Debug("Feedback generation disabled, serving fallback")
		metrics.RecordFeedback("disabled", true)
		return Fallback()
	}

	prompt := buildPrompt(words, transcript, referenceText, scores)

	payload, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.WithError(err).Warn("Feedback generation failed, serving fallback")
		metrics.RecordFeedback("error", true)
		return Fallback()
	}

	fb := Feedback{
		Strengths:      payload.Strengths,
		AreasToImprove: payload.AreasToImprove,
		Detailed:       payload.DetailedFeedback,
	}
	if len(fb.Strengths) == 0 {
		fb.Strengths = []string{"Good attempt at communication"}
	}
	if len(fb.AreasToImprove) == 0 {
		fb.AreasToImprove = []string{"Continue practicing to improve your speaking skills"}
	}

	metrics.RecordFeedback("success", false)
	return fb
}

// GeneratePronunciationOnly produces feedback for evaluations without a
// reference text; relevance is pinned to the neutral 0.5.
func (c *Client) GeneratePronunciationOnly(ctx context.Context, words []scoring.WordRecord, transcript string, scores Scores) Feedback {
	scores.Relevance = 0.5
	return c.Generate(ctx, words, transcript, "", scores)
}

func (c *Client) complete(ctx context.Context, prompt string) (*feedbackPayload, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert speech evaluation assistant. You provide feedback in JSON format only."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		MaxTokens:      800,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	req.Header.Set("X-Title", c.cfg.SiteName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feedback service %s: %s", resp.Status, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("chat response contained no choices")
	}

	return parseFeedback(chat.Choices[0].Message.Content)
}

// parseFeedback parses the model output, first as strict JSON, then by
// salvaging the outermost braces from responses wrapped in prose.
func parseFeedback(content string) (*feedbackPayload, error) {
	var payload feedbackPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return validatePayload(&payload)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in model response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("extracting JSON from model response: %w", err)
	}
	return validatePayload(&payload)
}

func validatePayload(payload *feedbackPayload) (*feedbackPayload, error) {
	if payload.Strengths == nil && payload.AreasToImprove == nil && payload.DetailedFeedback == "" {
		return nil, fmt.Errorf("model response missing required keys")
	}
	return payload, nil
}

// buildPrompt assembles the coaching prompt, including word-level detail
// for the generator to cite specific words.
func buildPrompt(words []scoring.WordRecord, transcript, referenceText string, scores Scores) string {
	expected := referenceText
	if expected == "" {
		expected = "(No specific topic provided - pronunciation-only evaluation)"
	}

	var wordDetails strings.Builder
	var problemWords, goodWords []string
	for _, w := range words {
		if w.Confidence < 0.4 {
			problemWords = append(problemWords, w.Text)
		} else if w.Confidence > 0.9 && len(w.Text) > 3 {
			goodWords = append(goodWords, w.Text)
		}
	}
	if len(problemWords) > 0 {
		wordDetails.WriteString(fmt.Sprintf("Words with pronunciation issues: %s\n", strings.Join(capList(problemWords, 5), ", ")))
	}
	if len(goodWords) > 0 {
		wordDetails.WriteString(fmt.Sprintf("Well-pronounced words: %s\n", strings.Join(capList(goodWords, 5), ", ")))
	}

	fluencyInfo := ""
	if len(words) > 10 {
		total := 0.0
		for i := 0; i < len(words)-1; i++ {
			total += words[i+1].Start - words[i].End
		}
		avgGap := total / float64(len(words)-1)
		fluencyInfo = fmt.Sprintf("Average time between words: %.2f seconds\n", avgGap)
	}

	return fmt.Sprintf(`You are an expert English pronunciation coach. Based on the following speech analysis data, provide an assessment of the speaker's strengths and areas for improvement. You must return your analysis ONLY in valid JSON format with no additional text before or after the JSON.

SPEECH ANALYSIS DATA:
- Transcript: "%s"
- Expected Content: "%s"
- Pronunciation Score: %.2f/1.0
- Content Relevance Score: %.2f/1.0
- Speech Rhythm Score: %.2f/1.0
- Intonation Score: %.2f/1.0
- Speaking Rate Score: %.2f/1.0
- Word Count: %d
%s%s
Your response must be ONLY a JSON object with this exact structure:
{
  "strengths": ["strength 1", "strength 2", "strength 3"],
  "area_to_improve": ["area 1", "area 2", "area 3"],
  "detailed_feedback": "Detailed paragraph of feedback with specific observations and recommendations."
}

Do not include any text, explanations, or markdown outside of this JSON structure. Ensure each array has at least one item. Keep strengths and area_to_improve concise (one sentence each). The detailed_feedback should be 2-3 paragraphs at most.`,
		transcript, expected,
		scores.Pronunciation, scores.Relevance, scores.Rhythm, scores.Intonation, scores.SpeechRate,
		len(strings.Fields(transcript)), wordDetails.String(), fluencyInfo)
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
