package stt

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/scoring"
)

// MockProvider implements a deterministic speech-to-text provider for
// tests and offline runs. It ignores the audio content and synthesizes a
// fixed transcript with evenly spaced word timings.
type MockProvider struct {
	logger     *logrus.Logger
	transcript string
}

const mockTranscript = "the quick brown fox jumps over the lazy dog"

// NewMockProvider creates a new mock provider
func NewMockProvider(logger *logrus.Logger) *MockProvider {
	return &MockProvider{
		logger:     logger,
		transcript: mockTranscript,
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Initialize initializes the mock provider
func (p *MockProvider) Initialize() error {
	p.logger.Info("Mock STT provider initialized")
	return nil
}

// Recognize returns the canned transcript with synthetic timings. The
// output depends only on the provider configuration, never on the input,
// so repeated calls are identical.
func (p *MockProvider) Recognize(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(p.transcript)
	words := make([]scoring.WordRecord, 0, len(tokens))
	start := 0.0
	for i, tok := range tokens {
		// Vary confidence a little so variance-based scorers see signal.
		conf := 0.85
		if i%3 == 0 {
			conf = 0.95
		} else if i%3 == 1 {
			conf = 0.70
		}
		words = append(words, scoring.WordRecord{
			Text:       tok,
			Confidence: conf,
			Start:      start,
			End:        start + 0.25,
		})
		start += 0.45
	}

	return &Result{
		Transcript: p.transcript,
		Words:      words,
	}, nil
}
