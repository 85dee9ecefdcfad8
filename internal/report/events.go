package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventIngest    EventType = "ingest"
	EventConflict  EventType = "conflict"
	EventMalformed EventType = "malformed"
	EventAccept    EventType = "accept"
	EventReject    EventType = "reject"
	EventNeighbor  EventType = "neighbor"
	EventGap       EventType = "gap"
	EventMissing   EventType = "missing"
	EventEmit      EventType = "emit"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

func (l EventLevel) rank() int {
	switch l {
	case LevelError:
		return 3
	case LevelWarning:
		return 2
	case LevelInfo:
		return 1
	}
	return 0
}

// Event is one audit record of the run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	RunID     string            `json:"run_id,omitempty"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SceneID   string            `json:"scene_id,omitempty"`
	ProductID string            `json:"product_id,omitempty"`
	Family    string            `json:"family,omitempty"`
	DateKey   string            `json:"date_key,omitempty"`
	Source    string            `json:"source,omitempty"` // accepted scene a neighbor was found from
	Reason    string            `json:"reason,omitempty"`
	Path      string            `json:"path,omitempty"`
	Count     int               `json:"count,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
	runID    string
}

// NewEventLogger opens the audit log for one command invocation in dir.
// Events below minLevel are dropped. A log reopened within the same second is
// appended to, not truncated.
func NewEventLogger(dir, command string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl", command, time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &EventLogger{file: file, encoder: json.NewEncoder(file), path: path, minLevel: minLevel}, nil
}

// SetRunID stamps every subsequent event with the run identifier
func (l *EventLogger) SetRunID(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runID = id
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil || event.Level.rank() < l.minLevel.rank() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}
	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("encode %s event: %w", event.Event, err)
	}
	return nil
}

// LogIngest logs the size of an ingested feed
func (l *EventLogger) LogIngest(source string, records, skipped int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventIngest,
		Path:  source,
		Count: records,
		Extra: map[string]string{
			"skipped": fmt.Sprintf("%d", skipped),
		},
	})
}

// LogConflict logs two feed records sharing a scene id
func (l *EventLogger) LogConflict(sceneID, reason string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventConflict,
		SceneID: sceneID,
		Reason:  reason,
	})
}

// LogMalformed logs a skipped feed record
func (l *EventLogger) LogMalformed(sceneID string, err error) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventMalformed,
		SceneID: sceneID,
		Error:   err.Error(),
	})
}

// LogSelection logs a scene added to a processing list. event is one of
// EventAccept, EventNeighbor or EventMissing.
func (l *EventLogger) LogSelection(event EventType, sceneID, productID, family, dateKey, source, reason string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     event,
		SceneID:   sceneID,
		ProductID: productID,
		Family:    family,
		DateKey:   dateKey,
		Source:    source,
		Reason:    reason,
	})
}

// LogReject logs why a scene failed selection
func (l *EventLogger) LogReject(sceneID, reason string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventReject,
		SceneID: sceneID,
		Reason:  reason,
	})
}

// LogGap logs a grid row with no catalog scene for a date
func (l *EventLogger) LogGap(source string, row int, dateKey string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventGap,
		Source:  source,
		DateKey: dateKey,
		Extra: map[string]string{
			"row": fmt.Sprintf("%d", row),
		},
	})
}

// LogEmit logs a written processing list
func (l *EventLogger) LogEmit(family, path string, count int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventEmit,
		Family: family,
		Path:   path,
		Count:  count,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, sceneID string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SceneID: sceneID,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
