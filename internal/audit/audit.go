package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a single audit record. Audit is best-effort observability:
// a failed write is logged and never rolls back the action it
// describes.
type Event struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Details   map[string]interface{} `json:"details"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and UTC timestamp
func NewEvent(action, actor string, details map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Recorder records audit events
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LogRecorder writes audit events to the structured log. It stands in
// when no broker is configured.
type LogRecorder struct {
	log *zap.Logger
}

// NewLogRecorder creates a log-backed recorder
func NewLogRecorder(log *zap.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

// Record logs the event
func (r *LogRecorder) Record(ctx context.Context, event Event) {
	r.log.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("action", event.Action),
		zap.String("actor", event.Actor),
		zap.Any("details", event.Details),
	)
}
