package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/config"
	"github.com/couchcryptid/weather-globe-service/internal/scene"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// cameraKey keys camera frames that do not target a marker.
const cameraKey = "camera"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Surface publishes map surface commands to a Kafka topic for headless
// renderers. It implements view.MapSurface.
//
// Messages are keyed by marker handle so every command for one marker lands
// on the same partition in order. Marker adds and removes are buffered until
// Flush; camera moves flush the buffer ahead of themselves.
type Surface struct {
	writer  messageWriter
	logger  *slog.Logger
	settled chan struct{}

	mu      sync.Mutex
	pending []kafkago.Message
}

// NewSurface creates a Kafka producer for the configured marker topic.
func NewSurface(cfg *config.Config, logger *slog.Logger) *Surface {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaMarkerTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		// Each Flush is one write; do not wait for more messages.
		BatchTimeout: 10 * time.Millisecond,
	}
	return newSurface(w, logger)
}

func newSurface(w messageWriter, logger *slog.Logger) *Surface {
	settled := make(chan struct{})
	// Headless renderers have no imagery to wait for.
	close(settled)
	return &Surface{writer: w, logger: logger, settled: settled}
}

func (s *Surface) AddMarker(_ context.Context, spec view.MarkerSpec) (view.MarkerHandle, error) {
	h := view.MarkerHandle(uuid.NewString())
	if err := s.enqueue(string(h), scene.MarkerAdd(h, spec)); err != nil {
		return "", err
	}
	return h, nil
}

func (s *Surface) RemoveMarker(_ context.Context, h view.MarkerHandle) error {
	return s.enqueue(string(h), scene.MarkerRemove(h))
}

func (s *Surface) FlyTo(ctx context.Context, v view.CameraView) error {
	if err := s.enqueue(cameraKey, scene.FlyTo(v)); err != nil {
		return err
	}
	return s.Flush(ctx)
}

func (s *Surface) FlyToMarker(ctx context.Context, h view.MarkerHandle, offset view.Offset, d time.Duration) error {
	if err := s.enqueue(string(h), scene.FlyToMarker(h, offset, d)); err != nil {
		return err
	}
	return s.Flush(ctx)
}

func (s *Surface) TilesSettled() <-chan struct{} { return s.settled }

// Flush publishes every buffered frame in a single write. Frames of a failed
// write are dropped.
func (s *Surface) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.writer.WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("publish %d surface frames: %w", len(batch), err)
	}
	s.logger.Debug("surface frames published", "count", len(batch))
	return nil
}

func (s *Surface) Close() error {
	return s.writer.Close()
}

func (s *Surface) enqueue(key string, f scene.Frame) error {
	msg, err := serializeToMessage(key, f, time.Now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = append(s.pending, msg)
	s.mu.Unlock()
	return nil
}

// serializeToMessage marshals a surface frame into a Kafka message.
func serializeToMessage(key string, f scene.Frame, at time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize surface frame: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "frame_type", Value: []byte(f.Type)},
			{Key: "emitted_at", Value: []byte(at.UTC().Format(time.RFC3339))},
		},
	}, nil
}
