package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the complete application configuration, loaded from
// environment variables with sensible defaults.
type Config struct {
	HTTP      HTTPConfig
	STT       STTConfig
	Feedback  FeedbackConfig
	Messaging MessagingConfig
	LogLevel  logrus.Level
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	EnableMetrics   bool
}

// STTConfig holds speech-to-text provider configuration
type STTConfig struct {
	DefaultVendor string
	VoskWSURL     string
	GoogleEnabled bool
	LanguageCode  string
}

// FeedbackConfig holds the feedback-text collaborator configuration
type FeedbackConfig struct {
	Enabled  bool
	APIURL   string
	APIKey   string
	Model    string
	SiteURL  string
	SiteName string
	Timeout  time.Duration
}

// MessagingConfig holds AMQP publishing configuration
type MessagingConfig struct {
	AMQPUrl   string
	QueueName string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file, and validates it.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables only")
	}

	config := &Config{}

	config.HTTP.Port = envInt("HTTP_PORT", 8085)
	config.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 30*time.Second)
	config.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 120*time.Second)
	config.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	config.HTTP.MaxUploadBytes = int64(envInt("HTTP_MAX_UPLOAD_MB", 25)) * 1024 * 1024
	config.HTTP.EnableMetrics = envBool("HTTP_ENABLE_METRICS", true)

	config.STT.DefaultVendor = strings.ToLower(envString("STT_DEFAULT_VENDOR", "mock"))
	config.STT.VoskWSURL = os.Getenv("VOSK_WS_URL")
	config.STT.GoogleEnabled = envBool("GOOGLE_STT_ENABLED", false)
	config.STT.LanguageCode = envString("STT_LANGUAGE_CODE", "en-US")

	config.Feedback.APIURL = envString("FEEDBACK_API_URL", "https://openrouter.ai/api/v1")
	config.Feedback.APIKey = os.Getenv("FEEDBACK_API_KEY")
	config.Feedback.Model = envString("FEEDBACK_MODEL", "deepseek/deepseek-chat-v3-0324:free")
	config.Feedback.SiteURL = envString("FEEDBACK_SITE_URL", "https://speech-evaluation-app.com")
	config.Feedback.SiteName = envString("FEEDBACK_SITE_NAME", "Speech Evaluation App")
	config.Feedback.Timeout = envDuration("FEEDBACK_TIMEOUT", 30*time.Second)
	config.Feedback.Enabled = config.Feedback.APIKey != ""

	config.Messaging.AMQPUrl = os.Getenv("AMQP_URL")
	config.Messaging.QueueName = envString("AMQP_QUEUE_NAME", "evaluation_results")

	levelStr := envString("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.WithField("log_level", levelStr).Warn("Invalid LOG_LEVEL, defaulting to info")
		level = logrus.InfoLevel
	}
	config.LogLevel = level

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"http_port":      config.HTTP.Port,
		"default_vendor": config.STT.DefaultVendor,
		"vosk_enabled":   config.STT.VoskWSURL != "",
		"google_enabled": config.STT.GoogleEnabled,
		"feedback":       config.Feedback.Enabled,
		"amqp":           config.Messaging.AMQPUrl != "",
	}).Info("Configuration loaded")

	return config, nil
}

// Validate checks the loaded configuration for inconsistencies
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d, must be between 1 and 65535", c.HTTP.Port)
	}
	switch c.STT.DefaultVendor {
	case "mock", "vosk", "google":
	default:
		return fmt.Errorf("unsupported STT_DEFAULT_VENDOR %q, must be one of mock, vosk, google", c.STT.DefaultVendor)
	}
	if c.STT.DefaultVendor == "vosk" && c.STT.VoskWSURL == "" {
		return fmt.Errorf("STT_DEFAULT_VENDOR is vosk but VOSK_WS_URL is not set")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
