//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-globe-service/internal/config"
	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/globe"
	"github.com/couchcryptid/weather-globe-service/internal/loader"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/couchcryptid/weather-globe-service/internal/scene"
	"github.com/couchcryptid/weather-globe-service/internal/view/viewtest"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMarkerTopic = "test-globe-markers"

const threeRows = "location,temperature,weather_descriptions,wind_speed,wind_dir,humidity,pressure,feels_like,visibility,precipitation,cloudcover,latitude,longitude,timestamp\n" +
	"A,-5,light rain,10,N,80,1000,-8,10,1.2,90,1,1,2025-03-15 10:00:00\n" +
	"B,10,,5,S,50,1013,9,10,0,10,2,2,2025-03-15 10:00:00\n" +
	"C,20,storm,30,E,70,990,20,5,4,100,,3,2025-03-15 10:00:00\n"

type surfaceMessage struct {
	Frame   scene.Frame
	Key     string
	Headers map[string]string
}

func readFrame(ctx context.Context, t *testing.T, consumer *kafkago.Reader) surfaceMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from marker topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var f scene.Frame
	require.NoError(t, json.Unmarshal(msg.Value, &f), "unmarshal surface frame")
	return surfaceMessage{Frame: f, Key: string(msg.Key), Headers: headers}
}

// TestKafkaSurfaceEndToEnd loads a CSV file, renders it onto the Kafka map
// surface, toggles a category and checks the command stream a headless
// renderer would consume.
func TestKafkaSurfaceEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testMarkerTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaMarkerTopic: testMarkerTopic,
	}
	surface := kafka.NewSurface(cfg, discardLogger())
	t.Cleanup(func() { _ = surface.Close() })

	path := filepath.Join(t.TempDir(), "weatherdata.csv")
	require.NoError(t, os.WriteFile(path, []byte(threeRows), 0o600))

	metrics := observability.NewMetricsForTesting()
	l := loader.New(loader.FileSource{Path: path}, nil, discardLogger(), metrics)
	page := viewtest.New()
	ctrl := globe.New(l, globe.Surfaces{Map: surface, List: page, Detail: page}, nil, discardLogger(), metrics)

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(runCtx) }()

	<-surface.TilesSettled()
	require.NoError(t, ctrl.Load(ctx))
	_, err := ctrl.Toggle(ctx, domain.Rain)
	require.NoError(t, err)
	_, err = ctrl.Show(ctx, "location_1")
	require.NoError(t, err)

	stop()
	require.NoError(t, <-errCh)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testMarkerTopic,
		GroupID:     fmt.Sprintf("test-renderer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	// Load: two markers. Toggle: both removed, B re-added. Show: one flight.
	var received []surfaceMessage
	for len(received) < 6 {
		received = append(received, readFrame(ctx, t, consumer))
	}

	types := make([]string, len(received))
	for i, m := range received {
		types[i] = m.Frame.Type
		assert.Equal(t, m.Frame.Type, m.Headers["frame_type"])
		_, err := time.Parse(time.RFC3339, m.Headers["emitted_at"])
		assert.NoError(t, err, "emitted_at should be valid RFC3339")
	}
	assert.ElementsMatch(t, []string{
		scene.TypeMarkerAdd, scene.TypeMarkerAdd,
		scene.TypeMarkerRemove, scene.TypeMarkerRemove,
		scene.TypeMarkerAdd,
		scene.TypeFlyToMarker,
	}, types)

	// The scene rebuilt from the stream holds exactly B's marker.
	sc := scene.New()
	var bHandle string
	for _, m := range received {
		sc.Apply(m.Frame)
		assert.Equal(t, string(m.Frame.Marker), m.Key, "frames are keyed by marker handle")
		if m.Frame.Type == scene.TypeMarkerAdd && m.Frame.Spec.RecordID == "location_1" {
			bHandle = m.Key
		}
	}
	require.NotEmpty(t, bHandle)
	markers := 0
	for _, f := range sc.Replay() {
		if f.Type == scene.TypeMarkerAdd {
			markers++
			assert.Equal(t, "B", f.Spec.Title)
		}
	}
	assert.Equal(t, 1, markers)

	last := received[len(received)-1].Frame
	assert.Equal(t, scene.TypeFlyToMarker, last.Type)
	assert.Equal(t, bHandle, string(last.Marker))
}
