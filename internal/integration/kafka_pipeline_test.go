//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/quake-catalog/internal/adapter/jma"
	"github.com/couchcryptid/quake-catalog/internal/adapter/kafka"
	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
	"github.com/couchcryptid/quake-catalog/internal/pipeline"
)

const testTopic = "test-jma-earthquakes"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("quake-catalog-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", "daily_map_20251208.html"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/20251208.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestIngestPublishesToKafka runs a full ingest against a local listing
// server and reads the published records back from the topic.
func TestIngestPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	srv := listingServer(t)
	client := jma.NewClient(srv.URL, 10*time.Second, "Mozilla/5.0", discardLogger(), metrics)
	store := catalog.NewStore(t.TempDir())
	agg := catalog.NewAggregator(store, store, discardLogger(), metrics)
	p := pipeline.New(client, store, agg, discardLogger(), metrics, pipeline.WithPublisher(writer))

	date := time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST)
	report, err := p.Ingest(ctx, date)
	require.NoError(t, err)
	require.Equal(t, 5, report.Records)
	require.Equal(t, 5, report.Published)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = reader.Close() })

	var regions []string
	for i := 0; i < report.Published; i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read message %d", i)

		var decoded kafka.Message
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, domain.Fingerprint(decoded.Record), string(msg.Key))
		assert.Equal(t, decoded.ID, string(msg.Key))
		assert.Equal(t, "20251208", decoded.SourceDate)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, decoded.Record.Region, headers["region"])
		assert.Equal(t, "20251208", headers["source_date"])
		regions = append(regions, decoded.Record.Region)
	}

	assert.Equal(t, []string{"青森県東方沖", "青森県東方沖", "千葉県北西部", "青森県東方沖", "FIJI, ISLANDS"}, regions)
}

// TestIngestThenAnalyze checks that a published ingest also leaves a catalog
// the analysis stage can read.
func TestIngestThenAnalyze(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	srv := listingServer(t)
	client := jma.NewClient(srv.URL, 10*time.Second, "Mozilla/5.0", discardLogger(), metrics)
	store := catalog.NewStore(t.TempDir())
	agg := catalog.NewAggregator(store, catalog.NewCachedLoader(store, 4, metrics), discardLogger(), metrics)
	p := pipeline.New(client, store, agg, discardLogger(), metrics, pipeline.WithPublisher(writer))

	_, err := p.Ingest(ctx, time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST))
	require.NoError(t, err)

	a, err := p.Analyze(ctx, domain.DefaultProfiles(domain.DefaultRegion)[0])
	require.NoError(t, err)
	assert.Equal(t, 2, a.Summary.Count)
	assert.InDelta(t, 4.2, a.Summary.MaxMagnitude, 1e-12)
}
