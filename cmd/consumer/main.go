package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/trainerworkload/internal/app"
	"example.com/trainerworkload/internal/config"
	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/logging"
	"example.com/trainerworkload/internal/messaging"
	httptransport "example.com/trainerworkload/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := app.NewLogger(cfg, "trainer-workload-consumer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, closeService, err := app.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build ledger service", logging.Err(err))
		return
	}
	defer closeService()

	producer := messaging.NewProducer(messaging.ProducerConfig{Brokers: cfg.KafkaBrokers})
	defer producer.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           cfg.WorkloadTopic,
		MinBytes:        1,
		MaxBytes:        10e6,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	pipeline := consumer.NewPipeline(
		reader,
		service,
		messaging.NewResponseSender(producer, cfg.ResponseTopic),
		messaging.NewDeadLetterSender(producer, cfg.DeadLetterTopic),
		consumer.WithLogger(logger),
		consumer.WithConcurrency(cfg.ConsumerConcurrency),
	)

	metricsSrv := httptransport.NewMetricsServer(cfg.MetricsAddress)

	logger.Info("consumer started",
		logging.String("topic", cfg.WorkloadTopic),
		logging.String("group", cfg.ConsumerGroupID),
		logging.Int("concurrency", cfg.ConsumerConcurrency),
	)
	err = app.RunWorker(ctx, logger, metricsSrv, pipeline.Run)
	if err != nil {
		logger.Error("consumer stopped with error", logging.Err(err))
		return
	}
	logger.Info("consumer stopped")
}
