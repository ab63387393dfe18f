package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/config"
	"speecheval-server/pkg/feedback"
	httpserver "speecheval-server/pkg/http"
	"speecheval-server/pkg/messaging"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/stt"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.HTTP.EnableMetrics {
		metrics.Init(logger)
	} else {
		metrics.EnableMetrics(false)
	}

	sttManager := stt.NewProviderManager(logger, cfg.STT.DefaultVendor)
	if err := sttManager.RegisterProvider(stt.NewMockProvider(logger)); err != nil {
		logger.WithError(err).Fatal("Failed to register mock speech-to-text provider")
	}
	if cfg.STT.VoskWSURL != "" {
		if err := sttManager.RegisterProvider(stt.NewVoskProvider(logger, cfg.STT.VoskWSURL)); err != nil {
			logger.WithError(err).Error("Failed to register Vosk speech-to-text provider")
		}
	}
	if cfg.STT.GoogleEnabled {
		if err := sttManager.RegisterProvider(stt.NewGoogleProvider(logger, cfg.STT.LanguageCode)); err != nil {
			logger.WithError(err).Error("Failed to register Google speech-to-text provider")
		}
	}

	feedbackClient := feedback.NewClient(logger, cfg.Feedback)

	var publisher *messaging.AMQPClient
	if cfg.Messaging.AMQPUrl != "" {
		publisher = messaging.NewAMQPClient(logger, messaging.AMQPConfig{
			URL:       cfg.Messaging.AMQPUrl,
			QueueName: cfg.Messaging.QueueName,
		})
		if err := publisher.Connect(); err != nil {
			// Publishing is best effort, evaluations still succeed without it.
			logger.WithError(err).Warn("AMQP connection failed, results will not be published")
		}
	}

	server := httpserver.NewServer(logger, cfg, sttManager, feedbackClient, publisher)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}

	if publisher != nil {
		publisher.Disconnect()
	}

	logger.Info("Speech evaluation service stopped")
}
