package messaging

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speecheval-server/pkg/metrics"
)

func init() {
	metrics.EnableMetrics(false)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConnectRequiresConfiguration(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{})

	err := client.Connect()
	assert.Error(t, err)
	assert.False(t, client.IsConnected())
}

func TestPublishWithoutConnection(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{})

	err := client.PublishEvaluation(EvaluationMessage{EvaluationID: "x"})
	assert.Error(t, err)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{URL: "amqp://unused", QueueName: "q"})

	client.Disconnect()
	client.Disconnect()
	assert.False(t, client.IsConnected())
}

func TestEvaluationMessageJSON(t *testing.T) {
	msg := EvaluationMessage{
		EvaluationID: "eval-1",
		OverallScore: 7.5,
		SubScores: map[string]float64{
			"pronunciation": 0.85,
			"rhythm":        0.94,
		},
		Transcript: "hello world",
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "eval-1", decoded["evaluation_id"])
	assert.Equal(t, 7.5, decoded["overall_score"])
	_, hasReference := decoded["reference_text"]
	assert.False(t, hasReference, "Empty reference text should be omitted")
}
