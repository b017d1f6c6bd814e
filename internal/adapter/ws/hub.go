// Package ws implements the globe surfaces over websocket connections to the
// browser page.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/couchcryptid/weather-globe-service/internal/scene"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	commandTimeout = 10 * time.Second
)

// ErrClosed is returned by surface calls after the hub has stopped.
var ErrClosed = errors.New("websocket hub closed")

// Commands is the controller side of inbound client messages.
type Commands interface {
	ToggleTag(ctx context.Context, tag string) (bool, error)
	Show(ctx context.Context, id domain.RecordID) (bool, error)
	Hide(ctx context.Context) error
}

// Inbound message types.
const (
	MsgTilesSettled = "tiles_settled"
	MsgToggle       = "toggle"
	MsgShow         = "show"
	MsgHide         = "hide"
)

// Message is a client-to-server frame.
type Message struct {
	Type     string          `json:"type"`
	Category string          `json:"category,omitempty"`
	ID       domain.RecordID `json:"id,omitempty"`
}

// Hub broadcasts surface frames to every connected page and replays the
// current scene to pages that connect later. It implements view.MapSurface,
// view.ListView and view.DetailView.
//
// All socket writes happen on the goroutine running Run.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *observability.Metrics
	commands Commands

	scene      *scene.Scene
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan scene.Frame
	done       chan struct{}

	settled     chan struct{}
	settledOnce sync.Once
}

// NewHub creates a hub. Call SetCommands before serving connections.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:     logger,
		metrics:    metrics,
		scene:      scene.New(),
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan scene.Frame, 256),
		done:       make(chan struct{}),
		settled:    make(chan struct{}),
	}
}

// SetCommands wires inbound toggle/show/hide messages to the controller.
func (h *Hub) SetCommands(c Commands) { h.commands = c }

// Run delivers frames until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				_ = conn.Close()
			}
			clear(h.clients)
			h.metrics.SurfaceClients.Set(0)
			return
		case conn := <-h.register:
			if err := h.replay(conn); err != nil {
				h.logger.Warn("websocket replay failed", "remote", conn.RemoteAddr().String(), "error", err)
				_ = conn.Close()
				continue
			}
			h.clients[conn] = struct{}{}
			h.metrics.SurfaceClients.Set(float64(len(h.clients)))
			h.logger.Info("websocket client connected", "clients", len(h.clients))
		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
				h.metrics.SurfaceClients.Set(float64(len(h.clients)))
				h.logger.Info("websocket client disconnected", "clients", len(h.clients))
			}
		case f := <-h.broadcast:
			h.scene.Apply(f)
			for conn := range h.clients {
				if err := h.write(conn, f); err != nil {
					h.logger.Warn("websocket write failed", "remote", conn.RemoteAddr().String(), "error", err)
					delete(h.clients, conn)
					_ = conn.Close()
					h.metrics.SurfaceClients.Set(float64(len(h.clients)))
				}
			}
		}
	}
}

func (h *Hub) replay(conn *websocket.Conn) error {
	for _, f := range h.scene.Replay() {
		if err := h.write(conn, f); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) write(conn *websocket.Conn, f scene.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}

// ServeHTTP upgrades the request and reads client messages until the socket closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.logger.Warn("ignoring malformed websocket message", "error", err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		h.handle(r.Context(), msg)
	}
}

func (h *Hub) handle(ctx context.Context, msg Message) {
	if msg.Type == MsgTilesSettled {
		h.settledOnce.Do(func() {
			h.logger.Info("map tiles settled")
			close(h.settled)
		})
		return
	}
	if h.commands == nil {
		h.logger.Warn("no controller attached, dropping message", "type", msg.Type)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MsgToggle:
		var ok bool
		if ok, err = h.commands.ToggleTag(ctx, msg.Category); err == nil && !ok {
			h.logger.Debug("ignoring unknown category", "category", msg.Category)
		}
	case MsgShow:
		_, err = h.commands.Show(ctx, msg.ID)
	case MsgHide:
		err = h.commands.Hide(ctx)
	default:
		h.logger.Debug("ignoring unknown websocket message", "type", msg.Type)
	}
	if err != nil {
		h.logger.Warn("websocket command failed", "type", msg.Type, "error", err)
	}
}

func (h *Hub) publish(ctx context.Context, f scene.Frame) error {
	select {
	case h.broadcast <- f:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) AddMarker(ctx context.Context, spec view.MarkerSpec) (view.MarkerHandle, error) {
	handle := view.MarkerHandle(uuid.NewString())
	if err := h.publish(ctx, scene.MarkerAdd(handle, spec)); err != nil {
		return "", err
	}
	return handle, nil
}

func (h *Hub) RemoveMarker(ctx context.Context, handle view.MarkerHandle) error {
	return h.publish(ctx, scene.MarkerRemove(handle))
}

func (h *Hub) FlyTo(ctx context.Context, v view.CameraView) error {
	return h.publish(ctx, scene.FlyTo(v))
}

func (h *Hub) FlyToMarker(ctx context.Context, handle view.MarkerHandle, offset view.Offset, d time.Duration) error {
	return h.publish(ctx, scene.FlyToMarker(handle, offset, d))
}

// TilesSettled is closed by the first tiles_settled message from any page.
func (h *Hub) TilesSettled() <-chan struct{} { return h.settled }

func (h *Hub) RenderList(ctx context.Context, entries []view.ListEntry) error {
	return h.publish(ctx, scene.List(entries))
}

func (h *Hub) RenderPlaceholder(ctx context.Context, text string) error {
	return h.publish(ctx, scene.Placeholder(text))
}

func (h *Hub) SetListVisible(ctx context.Context, visible bool) error {
	return h.publish(ctx, scene.ListVisible(visible))
}

func (h *Hub) RenderDetail(ctx context.Context, d view.Detail) error {
	return h.publish(ctx, scene.Detail(d))
}

func (h *Hub) SetDetailVisible(ctx context.Context, visible bool) error {
	return h.publish(ctx, scene.DetailVisible(visible))
}
