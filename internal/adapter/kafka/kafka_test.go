package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
)

func testRecord() domain.Record {
	return domain.Record{
		Year: 2025, Month: 12, Day: 8, TimeHM: "09:12",
		Second:    domain.Float(34.5),
		Latitude:  40.87167,
		Longitude: 142.50167,
		DepthKm:   domain.Int(20),
		Magnitude: domain.Float(3.5),
		Region:    "青森県東方沖",
	}
}

func TestSerializeToMessage(t *testing.T) {
	date := time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST)
	r := testRecord()

	msg, err := serializeToMessage(date, r)
	require.NoError(t, err)

	assert.Equal(t, []byte(domain.Fingerprint(r)), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("青森県東方沖"), msg.Headers[0].Value)
	assert.Equal(t, "source_date", msg.Headers[1].Key)
	assert.Equal(t, []byte("20251208"), msg.Headers[1].Value)

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, domain.Fingerprint(r), decoded.ID)
	assert.Equal(t, "20251208", decoded.SourceDate)
	assert.Equal(t, r, decoded.Record)
}

func TestSerializeToMessage_UnknownFields(t *testing.T) {
	r := testRecord()
	r.DepthKm = nil
	r.Magnitude = nil

	msg, err := serializeToMessage(time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST), r)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"depth_km":null`)
	assert.Contains(t, string(msg.Value), `"magnitude":null`)
}

func TestSerializeToMessage_KeyIsDeterministic(t *testing.T) {
	date := time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST)
	a, err := serializeToMessage(date, testRecord())
	require.NoError(t, err)
	b, err := serializeToMessage(date, testRecord())
	require.NoError(t, err)
	assert.Equal(t, a.Key, b.Key)
}

func TestWriter_PublishEmpty(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "jma-earthquakes"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	require.NoError(t, w.Publish(context.Background(), time.Now(), nil))
}
