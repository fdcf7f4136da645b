//go:build integration

package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRedis runs a Redis container and returns its host:port address.
func StartRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	return startGeneric(ctx, t, "redis:7-alpine", "6379/tcp", wait.ForLog("Ready to accept connections"))
}

// StartMongo runs a MongoDB container and returns a connection URI.
func StartMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	addr := startGeneric(ctx, t, "mongo:7", "27017/tcp", wait.ForListeningPort("27017/tcp"))
	return "mongodb://" + addr
}

// StartKafka runs a single-node Kafka cluster and returns its brokers.
func StartKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()

	kc, err := kafkacontainer.RunContainer(ctx, testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func startGeneric(ctx context.Context, t *testing.T, image, port string, strategy wait.Strategy) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   strategy,
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}
