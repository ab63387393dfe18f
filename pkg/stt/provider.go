package stt

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/errors"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/scoring"
)

// Result is the output of one recognition pass over a complete utterance.
type Result struct {
	Transcript string
	Words      []scoring.WordRecord
}

// Provider defines the interface for speech-to-text providers. Recognize
// consumes mono 16-bit PCM samples; format conversion happens upstream.
type Provider interface {
	// Initialize initializes the provider with any required configuration.
	// It is safe to call more than once; the underlying setup runs once.
	Initialize() error

	// Name returns the provider name
	Name() string

	// Recognize transcribes a complete utterance and returns the
	// transcript together with per-word confidence and timing.
	Recognize(ctx context.Context, pcm []byte, sampleRate int) (*Result, error)
}

// ProviderManager manages all speech-to-text providers
type ProviderManager struct {
	logger          *logrus.Logger
	providers       map[string]Provider
	defaultProvider string
}

// NewProviderManager creates a new provider manager
func NewProviderManager(logger *logrus.Logger, defaultProvider string) *ProviderManager {
	return &ProviderManager{
		logger:          logger,
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// RegisterProvider registers a speech-to-text provider
func (m *ProviderManager) RegisterProvider(provider Provider) error {
	if err := provider.Initialize(); err != nil {
		m.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"error":    err,
		}).Error("Failed to initialize speech-to-text provider")
		return err
	}

	m.providers[provider.Name()] = provider
	m.logger.WithField("provider", provider.Name()).Info("Registered speech-to-text provider")

	return nil
}

// GetProvider returns a provider by name
func (m *ProviderManager) GetProvider(name string) (Provider, bool) {
	provider, exists := m.providers[name]
	return provider, exists
}

// GetDefaultProvider returns the default provider
func (m *ProviderManager) GetDefaultProvider() (Provider, bool) {
	return m.GetProvider(m.defaultProvider)
}

// Recognize routes one utterance to the named provider, falling back to
// the default provider when the name is unknown.
func (m *ProviderManager) Recognize(ctx context.Context, providerName string, pcm []byte, sampleRate int) (*Result, error) {
	startTime := time.Now()

	provider, exists := m.GetProvider(providerName)
	if !exists {
		m.logger.WithFields(logrus.Fields{
			"provider":         providerName,
			"default_provider": m.defaultProvider,
		}).Warn("Provider not found, falling back to default")

		provider, exists = m.GetDefaultProvider()
		if !exists {
			return nil, errors.ErrNoProviderAvailable
		}
	}

	result, err := provider.Recognize(ctx, pcm, sampleRate)

	elapsed := time.Since(startTime)
	status := "success"
	wordCount := 0
	if err != nil {
		status = "error"
	} else {
		wordCount = len(result.Words)
	}
	metrics.RecordSTTRequest(provider.Name(), status, elapsed.Seconds(), wordCount)

	m.logger.WithFields(logrus.Fields{
		"provider":    provider.Name(),
		"duration_ms": elapsed.Milliseconds(),
		"words":       wordCount,
		"error":       err != nil,
	}).Info("Recognition completed")

	if err != nil {
		return nil, errors.Wrap(errors.ErrRecognitionFailed, err.Error())
	}
	return result, nil
}
