//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/osikes/hemisphere/internal/adapter/kafka"
	"github.com/osikes/hemisphere/internal/adapter/tiles"
	"github.com/osikes/hemisphere/internal/compositor"
	"github.com/osikes/hemisphere/internal/config"
	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/generator"
	"github.com/osikes/hemisphere/internal/observability"
)

const testEventsTopic = "test-wallpaper-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka in a container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hemisphere-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type receivedEvent struct {
	Event   domain.GenerationEvent
	Key     string
	Headers map[string]string
}

func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) receivedEvent {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from events topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var ev domain.GenerationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev), "unmarshal event")

	return receivedEvent{Event: ev, Key: string(msg.Key), Headers: headers}
}

type staticFeed struct{}

func (staticFeed) Fetch(context.Context) domain.WeatherFrameSet {
	return domain.WeatherFrameSet{}
}

type noTiles struct{}

func (noTiles) FetchLayer(context.Context, []domain.TileCoordinate, tiles.URLFunc, domain.Layer) []domain.FetchedTile {
	return nil
}

type discardApplier struct{}

func (discardApplier) Apply(context.Context, image.Image, domain.GenerationRequest) error {
	return nil
}

// TestGenerationEventsReachKafka wires the coordinator to a real Kafka broker
// and verifies the lifecycle events of one generation arrive in order with
// serialized headers intact.
func TestGenerationEventsReachKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaEventsTopic: testEventsTopic,
		EventsEnabled:    true,
	}

	publisher := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	region, ok := domain.RegionByName("japan")
	require.True(t, ok)

	coordinator := generator.New(generator.Deps{
		Feed:       staticFeed{},
		Tiles:      noTiles{},
		Compositor: compositor.New(discardLogger()),
		Base:       compositor.SolidBase{},
		Applier:    discardApplier{},
		Events:     publisher,
		Templates: generator.Templates{
			Base:      "https://tiles.invalid/{z}/{x}/{y}.png",
			Radar:     "https://tiles.invalid{path}/{z}/{x}/{y}/{color}/1_1.png",
			Satellite: "https://tiles.invalid{path}/{z}/{x}/{y}/0/0_0.png",
			Color:     "4",
		},
		Logger:  discardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	})

	req := domain.GenerationRequest{
		Style:        domain.StyleDark,
		Region:       region,
		Size:         domain.TargetSize{Width: 320, Height: 180},
		ScaleFactor:  1,
		RadarEnabled: true, // feed offers no frame, so the layer degrades
	}
	require.NoError(t, coordinator.Render(ctx, req))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-events-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	started := readEvent(ctx, t, consumer)
	degraded := readEvent(ctx, t, consumer)
	finished := readEvent(ctx, t, consumer)

	assert.Equal(t, domain.EventStarted, started.Event.Kind)
	assert.Equal(t, domain.EventDegraded, degraded.Event.Kind)
	assert.Equal(t, domain.LayerRadar, degraded.Event.Layer)
	assert.Equal(t, domain.EventFinished, finished.Event.Kind)

	for _, re := range []receivedEvent{started, degraded, finished} {
		assert.Equal(t, "japan", re.Event.Region)
		assert.Equal(t, started.Key, re.Key, "events of one epoch share a key")
		assert.Equal(t, string(re.Event.Kind), re.Headers["kind"])
		_, err := time.Parse(time.RFC3339, re.Headers["emitted_at"])
		assert.NoError(t, err, "emitted_at should be valid RFC3339")
	}
	assert.Greater(t, finished.Event.Duration, 0.0)
}
