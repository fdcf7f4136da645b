//go:build integration

package consumer_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/messaging"
	"example.com/trainerworkload/internal/persistence/memory"
	"example.com/trainerworkload/internal/testsupport"
)

func TestKafkaPipelineRoutesOutcomes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	brokers := testsupport.StartKafka(ctx, t)
	const (
		workloadTopic   = "trainer-workload-queue"
		responseTopic   = "trainer-workload-response-queue"
		deadLetterTopic = "dead-letter-queue"
	)

	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(
		kafka.TopicConfig{Topic: workloadTopic, NumPartitions: 1, ReplicationFactor: 1},
		kafka.TopicConfig{Topic: responseTopic, NumPartitions: 1, ReplicationFactor: 1},
		kafka.TopicConfig{Topic: deadLetterTopic, NumPartitions: 1, ReplicationFactor: 1},
	))

	producer := messaging.NewProducer(messaging.ProducerConfig{Brokers: brokers})
	defer producer.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "workload-integration",
		Topic:       workloadTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	pipeline := consumer.NewPipeline(
		reader,
		domain.NewService(memory.NewRepository()),
		messaging.NewResponseSender(producer, responseTopic),
		messaging.NewDeadLetterSender(producer, deadLetterTopic),
		consumer.WithConcurrency(1),
	)
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = pipeline.Run(runCtx) }()

	for _, payload := range []string{
		`{"username":"alice","firstName":"Alice","lastName":"Smith","isActive":true,"trainingDate":"2024-03-15","trainingDuration":60,"actionType":"ADD","transactionId":"tx-add"}`,
		`{"username":"alice","actionType":"GET","year":2024,"month":3,"transactionId":"tx-get"}`,
		`{"actionType":"ADD","transactionId":"tx-bad"}`,
	} {
		require.NoError(t, producer.WriteMessages(ctx, workloadTopic, kafka.Message{Value: []byte(payload)}))
	}

	response := readOne(ctx, t, brokers, responseTopic)
	var resp consumer.Response
	require.NoError(t, json.Unmarshal(response.Value, &resp))
	require.False(t, resp.Error)
	require.Equal(t, 60, resp.SummaryDuration)
	require.Equal(t, "tx-get", resp.TransactionID)

	deadLetter := readOne(ctx, t, brokers, deadLetterTopic)
	require.True(t, strings.HasPrefix(string(deadLetter.Value), "Error: Validation error: Username is required, Original message: "))
	class, ok := messaging.HeaderValue(deadLetter, messaging.HeaderFailureClass)
	require.True(t, ok)
	require.Equal(t, "validation", class)
}

func readOne(ctx context.Context, t *testing.T, brokers []string, topic string) kafka.Message {
	t.Helper()
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer r.Close()

	readCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	msg, err := r.ReadMessage(readCtx)
	require.NoError(t, err)
	return msg
}
