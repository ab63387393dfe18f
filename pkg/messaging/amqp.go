package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"speecheval-server/pkg/metrics"
)

// EvaluationMessage is the JSON document published for each completed
// evaluation.
type EvaluationMessage struct {
	EvaluationID  string             `json:"evaluation_id"`
	OverallScore  float64            `json:"overall_score"`
	SubScores     map[string]float64 `json:"sub_scores"`
	Transcript    string             `json:"transcript"`
	ReferenceText string             `json:"reference_text,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// AMQPConfig holds AMQP client configuration
type AMQPConfig struct {
	URL       string
	QueueName string
}

// AMQPClient publishes completed evaluation results to a message queue.
// Publishing is fire-and-forget from the caller's perspective: failures
// are logged and counted, never surfaced into the evaluation flow.
type AMQPClient struct {
	logger    *logrus.Logger
	config    AMQPConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
	connMutex sync.RWMutex
}

// NewAMQPClient creates a new AMQP client
func NewAMQPClient(logger *logrus.Logger, config AMQPConfig) *AMQPClient {
	return &AMQPClient{
		logger: logger,
		config: config,
	}
}

// Connect establishes a connection to the AMQP server
func (c *AMQPClient) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.connected {
		return nil
	}
	if c.config.URL == "" || c.config.QueueName == "" {
		return fmt.Errorf("AMQP URL or queue name not configured")
	}

	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		metrics.RecordAMQPConnectionError()
		return fmt.Errorf("connecting to AMQP server: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		metrics.RecordAMQPConnectionError()
		return fmt.Errorf("opening AMQP channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.config.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		metrics.RecordAMQPConnectionError()
		return fmt.Errorf("declaring AMQP queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	c.connected = true

	c.logger.WithField("queue", c.config.QueueName).Info("Connected to AMQP server")
	return nil
}

// Disconnect closes the AMQP connection
func (c *AMQPClient) Disconnect() {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// IsConnected reports whether the client currently holds a connection
func (c *AMQPClient) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.connected
}

// PublishEvaluation publishes one evaluation result. A broken connection
// is retried once before giving up.
func (c *AMQPClient) PublishEvaluation(msg EvaluationMessage) error {
	if !c.IsConnected() {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding evaluation message: %w", err)
	}

	c.connMutex.RLock()
	channel := c.channel
	c.connMutex.RUnlock()
	if channel == nil {
		return fmt.Errorf("AMQP channel not available")
	}

	err = channel.Publish(
		"", // default exchange
		c.config.QueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		// Connection may have dropped since the last publish.
		c.connMutex.Lock()
		c.connected = false
		c.connMutex.Unlock()
		return fmt.Errorf("publishing evaluation message: %w", err)
	}

	metrics.RecordAMQPPublish(c.config.QueueName)
	c.logger.WithFields(logrus.Fields{
		"evaluation_id": msg.EvaluationID,
		"queue":         c.config.QueueName,
	}).Debug("Published evaluation result")

	return nil
}
