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
	"example.com/trainerworkload/internal/deadletter"
	"example.com/trainerworkload/internal/logging"
	httptransport "example.com/trainerworkload/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := app.NewLogger(cfg, "trainer-workload-deadletter")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []deadletter.Option{deadletter.WithLogger(logger)}
	if cfg.DeadLetterRecord {
		pool, err := app.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", logging.Err(err))
			return
		}
		defer pool.Close()
		opts = append(opts, deadletter.WithRecorder(deadletter.NewPostgresRecorder(pool)))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID + "-dead-letter",
		Topic:           cfg.DeadLetterTopic,
		MinBytes:        1,
		MaxBytes:        10e6,
		RetentionTime:   7 * 24 * time.Hour,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	monitor := deadletter.NewMonitor(reader, opts...)
	metricsSrv := httptransport.NewMetricsServer(cfg.MetricsAddress)

	logger.Info("dead-letter monitor started",
		logging.String("topic", cfg.DeadLetterTopic),
		logging.Bool("record", cfg.DeadLetterRecord),
	)
	err = app.RunWorker(ctx, logger, metricsSrv, monitor.Run)
	if err != nil {
		logger.Error("dead-letter monitor stopped with error", logging.Err(err))
		return
	}
	logger.Info("dead-letter monitor stopped")
}
