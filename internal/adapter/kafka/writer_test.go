package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/scene"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	writes int
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.writes++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestSurface() (*Surface, *fakeWriter) {
	w := &fakeWriter{}
	return newSurface(w, slog.New(slog.NewTextHandler(io.Discard, nil))), w
}

func TestSerializeToMessage(t *testing.T) {
	at := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	msg, err := serializeToMessage("m1", scene.MarkerRemove("m1"), at)
	require.NoError(t, err)

	assert.Equal(t, []byte("m1"), msg.Key)
	assert.JSONEq(t, `{"type":"marker_remove","marker":"m1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "frame_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("marker_remove"), msg.Headers[0].Value)
	assert.Equal(t, "emitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSurface_MarkerLifecycle(t *testing.T) {
	s, w := newTestSurface()
	ctx := context.Background()

	h, err := s.AddMarker(ctx, view.MarkerSpec{RecordID: "location_0", Title: "A"})
	require.NoError(t, err)
	require.NoError(t, s.FlyToMarker(ctx, h, view.MarkerOffset, view.MarkerFlightDuration))
	require.NoError(t, s.RemoveMarker(ctx, h))
	require.NoError(t, s.FlyTo(ctx, view.HomeView))

	require.Len(t, w.msgs, 4)
	for _, m := range w.msgs[:3] {
		assert.Equal(t, []byte(h), m.Key, "marker commands share the marker key")
	}
	assert.Equal(t, []byte(cameraKey), w.msgs[3].Key)
	assert.Contains(t, string(w.msgs[0].Value), `"title":"A"`)
	assert.Contains(t, string(w.msgs[3].Value), `"height":20000000`)
}

func TestSurface_RenderIsOneWrite(t *testing.T) {
	s, w := newTestSurface()
	ctx := context.Background()

	for range 50 {
		_, err := s.AddMarker(ctx, view.MarkerSpec{})
		require.NoError(t, err)
	}
	assert.Zero(t, w.writes, "adds are buffered")

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, w.writes)
	assert.Len(t, w.msgs, 50)

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, w.writes, "empty flush writes nothing")
}

func TestSurface_WriteError(t *testing.T) {
	s, w := newTestSurface()
	w.err = errors.New("broker unavailable")
	ctx := context.Background()

	h, err := s.AddMarker(ctx, view.MarkerSpec{})
	require.NoError(t, err)
	require.NotEmpty(t, h)

	err = s.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	w.err = nil
	require.NoError(t, s.Flush(ctx))
	assert.Empty(t, w.msgs, "frames of a failed write are dropped")
}

func TestSurface_TilesSettledImmediately(t *testing.T) {
	s, w := newTestSurface()

	select {
	case <-s.TilesSettled():
	default:
		t.Fatal("expected tiles to be settled")
	}

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}
