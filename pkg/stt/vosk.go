package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/scoring"
)

const voskChunkSize = 8000

// VoskProvider talks to a vosk-server instance over its websocket
// protocol. Audio is sent in chunks; the server answers each chunk with
// either a partial hypothesis or a finalized segment carrying per-word
// confidence and timing.
type VoskProvider struct {
	logger   *logrus.Logger
	url      string
	initOnce sync.Once
	initErr  error
}

// NewVoskProvider creates a new Vosk websocket provider
func NewVoskProvider(logger *logrus.Logger, url string) *VoskProvider {
	return &VoskProvider{
		logger: logger,
		url:    url,
	}
}

// Name returns the provider name
func (p *VoskProvider) Name() string {
	return "vosk"
}

// Initialize validates the provider configuration. The guard keeps the
// check single-flight when multiple callers race on first use.
func (p *VoskProvider) Initialize() error {
	p.initOnce.Do(func() {
		if p.url == "" {
			p.initErr = fmt.Errorf("vosk websocket URL is not configured")
			return
		}
		p.logger.WithField("url", p.url).Info("Vosk STT provider initialized")
	})
	return p.initErr
}

// voskSegment is one finalized recognition segment from the server.
type voskSegment struct {
	Result []voskWord `json:"result"`
	Text   string     `json:"text"`
}

type voskWord struct {
	Word  string  `json:"word"`
	Conf  float64 `json:"conf"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Recognize streams the PCM samples to the vosk server and collects the
// finalized segments into a single transcript and word list.
func (p *VoskProvider) Recognize(ctx context.Context, pcm []byte, sampleRate int) (*Result, error) {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing vosk server: %w", err)
	}
	defer conn.Close()

	configMsg := fmt.Sprintf(`{"config": {"sample_rate": %d, "words": true}}`, sampleRate)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return nil, fmt.Errorf("sending vosk config: %w", err)
	}

	var (
		words    []scoring.WordRecord
		segments []string
	)

	collect := func(payload []byte) error {
		var seg voskSegment
		if err := json.Unmarshal(payload, &seg); err != nil {
			return fmt.Errorf("decoding vosk response: %w", err)
		}
		// Messages without a result array are partial hypotheses.
		if seg.Result == nil {
			return nil
		}
		for _, w := range seg.Result {
			words = append(words, scoring.WordRecord{
				Text:       w.Word,
				Confidence: w.Conf,
				Start:      w.Start,
				End:        w.End,
			})
		}
		if seg.Text != "" {
			segments = append(segments, seg.Text)
		}
		return nil
	}

	for offset := 0; offset < len(pcm); offset += voskChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := offset + voskChunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[offset:end]); err != nil {
			return nil, fmt.Errorf("sending audio chunk: %w", err)
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("reading vosk response: %w", err)
		}
		if err := collect(payload); err != nil {
			return nil, err
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return nil, fmt.Errorf("sending eof: %w", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading final vosk response: %w", err)
	}
	if err := collect(payload); err != nil {
		return nil, err
	}

	return &Result{
		Transcript: strings.Join(segments, " "),
		Words:      words,
	}, nil
}
