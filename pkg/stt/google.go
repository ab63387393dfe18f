package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/scoring"
)

// GoogleProvider uses Google Cloud Speech-to-Text batch recognition with
// word time offsets and per-word confidence enabled.
type GoogleProvider struct {
	logger       *logrus.Logger
	languageCode string
	client       *speech.Client
	initOnce     sync.Once
	initErr      error
}

// NewGoogleProvider creates a new Google Speech-to-Text provider
func NewGoogleProvider(logger *logrus.Logger, languageCode string) *GoogleProvider {
	return &GoogleProvider{
		logger:       logger,
		languageCode: languageCode,
	}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// Initialize constructs the API client exactly once, even when multiple
// callers race on first use.
func (p *GoogleProvider) Initialize() error {
	p.initOnce.Do(func() {
		client, err := speech.NewClient(context.Background())
		if err != nil {
			p.initErr = fmt.Errorf("creating google speech client: %w", err)
			return
		}
		p.client = client
		p.logger.WithField("language", p.languageCode).Info("Google STT provider initialized")
	})
	return p.initErr
}

// Recognize transcribes the PCM samples in one synchronous request.
func (p *GoogleProvider) Recognize(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	if p.client == nil {
		return nil, fmt.Errorf("google speech client not initialized")
	}

	resp, err := p.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(sampleRate),
			LanguageCode:          p.languageCode,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google recognize: %w", err)
	}

	var (
		words    []scoring.WordRecord
		segments []string
	)
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		segments = append(segments, alt.Transcript)
		for _, w := range alt.Words {
			words = append(words, scoring.WordRecord{
				Text:       w.Word,
				Confidence: float64(w.Confidence),
				Start:      w.StartTime.AsDuration().Seconds(),
				End:        w.EndTime.AsDuration().Seconds(),
			})
		}
	}

	return &Result{
		Transcript: strings.TrimSpace(strings.Join(segments, " ")),
		Words:      words,
	}, nil
}

// Close releases the underlying API client.
func (p *GoogleProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
