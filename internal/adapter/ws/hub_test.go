package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/couchcryptid/weather-globe-service/internal/scene"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommands struct {
	mu      sync.Mutex
	toggled []string
	shown   []domain.RecordID
	hides   int
	calls   chan struct{}
}

func newRecordingCommands() *recordingCommands {
	return &recordingCommands{calls: make(chan struct{}, 16)}
}

func (c *recordingCommands) ToggleTag(_ context.Context, tag string) (bool, error) {
	c.mu.Lock()
	c.toggled = append(c.toggled, tag)
	c.mu.Unlock()
	c.calls <- struct{}{}
	return true, nil
}

func (c *recordingCommands) Show(_ context.Context, id domain.RecordID) (bool, error) {
	c.mu.Lock()
	c.shown = append(c.shown, id)
	c.mu.Unlock()
	c.calls <- struct{}{}
	return true, nil
}

func (c *recordingCommands) Hide(_ context.Context) error {
	c.mu.Lock()
	c.hides++
	c.mu.Unlock()
	c.calls <- struct{}{}
	return nil
}

func startHub(t *testing.T) (*Hub, *httptest.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return hub, srv, metrics
}

// dial connects and consumes the initial scene replay.
func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, []scene.Frame) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	var frames []scene.Frame
	for {
		f := readFrame(t, conn)
		frames = append(frames, f)
		if f.Type == scene.TypeDetailVisible {
			return conn, frames
		}
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) scene.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f scene.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_InitialReplay(t *testing.T) {
	_, srv, metrics := startHub(t)

	_, frames := dial(t, srv)

	require.Len(t, frames, 3)
	assert.Equal(t, scene.TypeList, frames[0].Type)
	require.NotNil(t, frames[1].Visible)
	assert.True(t, *frames[1].Visible)
	require.NotNil(t, frames[2].Visible)
	assert.False(t, *frames[2].Visible)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.SurfaceClients) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastsSurfaceCalls(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn, _ := dial(t, srv)
	ctx := context.Background()

	h, err := hub.AddMarker(ctx, view.MarkerSpec{RecordID: "location_0", Title: "A"})
	require.NoError(t, err)
	require.NotEmpty(t, h)

	f := readFrame(t, conn)
	assert.Equal(t, scene.TypeMarkerAdd, f.Type)
	assert.Equal(t, h, f.Marker)
	require.NotNil(t, f.Spec)
	assert.Equal(t, "A", f.Spec.Title)

	require.NoError(t, hub.FlyToMarker(ctx, h, view.MarkerOffset, view.MarkerFlightDuration))
	f = readFrame(t, conn)
	assert.Equal(t, scene.TypeFlyToMarker, f.Type)
	assert.InDelta(t, 1.5, f.Duration, 1e-9)

	require.NoError(t, hub.RenderPlaceholder(ctx, view.PlaceholderText))
	f = readFrame(t, conn)
	assert.Equal(t, view.PlaceholderText, f.Text)
}

func TestHub_LateClientGetsScene(t *testing.T) {
	hub, srv, _ := startHub(t)
	first, _ := dial(t, srv)
	ctx := context.Background()

	h, err := hub.AddMarker(ctx, view.MarkerSpec{RecordID: "location_0"})
	require.NoError(t, err)
	require.NoError(t, hub.RenderList(ctx, []view.ListEntry{{ID: "location_0", Location: "A"}}))
	// Wait until the hub has processed both frames.
	readFrame(t, first)
	readFrame(t, first)

	_, frames := dial(t, srv)

	require.Len(t, frames, 4)
	assert.Equal(t, scene.TypeMarkerAdd, frames[0].Type)
	assert.Equal(t, h, frames[0].Marker)
	assert.Equal(t, scene.TypeList, frames[1].Type)
	require.Len(t, frames[1].Entries, 1)
	assert.Equal(t, "A", frames[1].Entries[0].Location)
}

func TestHub_InboundMessages(t *testing.T) {
	hub, srv, _ := startHub(t)
	cmds := newRecordingCommands()
	hub.SetCommands(cmds)
	conn, _ := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Message{Type: MsgTilesSettled}))
	select {
	case <-hub.TilesSettled():
	case <-time.After(2 * time.Second):
		t.Fatal("tiles_settled did not close the channel")
	}
	// A second signal must not panic on a closed channel.
	require.NoError(t, conn.WriteJSON(Message{Type: MsgTilesSettled}))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(Message{Type: MsgToggle, Category: "Rain"}))
	require.NoError(t, conn.WriteJSON(Message{Type: MsgShow, ID: "location_3"}))
	require.NoError(t, conn.WriteJSON(Message{Type: MsgHide}))

	for range 3 {
		select {
		case <-cmds.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("command not delivered")
		}
	}

	cmds.mu.Lock()
	defer cmds.mu.Unlock()
	assert.Equal(t, []string{"Rain"}, cmds.toggled)
	assert.Equal(t, []domain.RecordID{"location_3"}, cmds.shown)
	assert.Equal(t, 1, cmds.hides)
}

func TestHub_PublishAfterStop(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	// Fill the buffer so the send cannot succeed.
	for range cap(hub.broadcast) {
		hub.broadcast <- scene.Frame{}
	}
	err := hub.SetListVisible(context.Background(), true)
	assert.ErrorIs(t, err, ErrClosed)
}
