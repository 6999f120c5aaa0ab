package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/portfolio-pilot/config"
	"github.com/rzzdr/portfolio-pilot/internal/adapters"
	"github.com/rzzdr/portfolio-pilot/internal/app"
	"github.com/rzzdr/portfolio-pilot/internal/kafka"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.GetLogger("risk-engine.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("risk-engine.main")
	defer log.Sync()
	log.Info("Starting Portfolio Pilot risk engine")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	components := app.Build(cfg, recorder)

	if cfg.Metrics.Prometheus.Enabled {
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, prometheus.DefaultGatherer)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = metricsServer.Stop(stopCtx)
		}()
	}

	kafkaClient, err := kafka.NewClient(&kafka.Config{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		SessionTimeout:  cfg.Kafka.SessionTimeout,
		DefaultTimeout:  10 * time.Second,
		BatchTimeout:    10 * time.Millisecond,
		StartFromOldest: true,
		RetryBackoff:    200 * time.Millisecond,
		MaxRetryBackoff: 10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka client: %v", err)
	}

	for _, topic := range []string{cfg.Kafka.Topics.Requests, cfg.Kafka.Topics.Results} {
		if err := kafkaClient.EnsureTopicExists(ctx, topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			log.Warnf("Could not ensure topic %s: %v", topic, err)
		}
	}

	producer := kafkaClient.NewProducer(cfg.Kafka.Topics.Results)
	defer producer.Close()

	consumer := kafkaClient.NewConsumer(cfg.Kafka.Topics.Requests)
	defer consumer.Close()

	worker := kafka.NewWorker(components.Calculator, producer)
	requestsTopic := cfg.Kafka.Topics.Requests
	handler := func(ctx context.Context, msg *kafka.Message) error {
		err := worker.HandleMessage(ctx, msg)
		recorder.RecordKafkaMessage(requestsTopic, adapters.Status(err))
		return err
	}

	log.Infow("Consuming portfolio requests",
		"requests", cfg.Kafka.Topics.Requests,
		"results", cfg.Kafka.Topics.Results)
	if err := consumer.ConsumeMessages(ctx, handler); err != nil {
		log.Errorf("Consumer error: %v", err)
	}

	log.Info("Shutdown complete")
}
