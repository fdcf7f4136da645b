// Package messaging publishes workload commands, responses and dead letters to Kafka.
package messaging

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultBatchTimeout = 10 * time.Millisecond
)

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "messaging",
		Name:      "published_total",
		Help:      "Records written to Kafka by topic and result.",
	}, []string{"topic", "result"})

	publishLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trainer_workload",
		Subsystem: "messaging",
		Name:      "publish_seconds",
		Help:      "Time spent writing a batch to Kafka.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishLatency)
}

// ProducerConfig tunes the shared Kafka writer.
type ProducerConfig struct {
	Brokers []string
	// WriteTimeout bounds a single write. Zero uses 10s.
	WriteTimeout time.Duration
	// BatchTimeout is how long the writer waits to fill a batch. Zero uses 10ms.
	BatchTimeout time.Duration
}

type batchWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes to any topic through one connection pool. Records are
// hash-partitioned by key, so one trainer's records stay on one partition.
type Producer struct {
	writer batchWriter
}

// NewProducer builds a Producer for cfg.
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}}
}

// WriteMessages stamps topic on msgs and writes them as one batch.
func (p *Producer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	for i := range msgs {
		msgs[i].Topic = topic
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, msgs...)
	publishLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedCounter.WithLabelValues(topic, result).Add(float64(len(msgs)))
	return err
}

// Close flushes pending batches and releases connections.
func (p *Producer) Close() error {
	return p.writer.Close()
}
