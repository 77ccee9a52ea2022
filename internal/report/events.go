package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventFetch  EventType = "fetch"
	EventImport EventType = "import"
	EventSkip   EventType = "skip"
	EventMedia  EventType = "media"
	EventRetry  EventType = "retry"
	EventBatch  EventType = "batch"
	EventError  EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event represents a single event in an ingestion run
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	RunID      string            `json:"run_id"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	Category   string            `json:"category,omitempty"`
	UpstreamID int64             `json:"upstream_id,omitempty"`
	EntityID   int64             `json:"entity_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Status     string            `json:"status,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Attempt    int               `json:"attempt,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event carries a run id generated here.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogFetch logs a bulk upstream fetch such as a game list export
func (l *EventLogger) LogFetch(what string, count int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventFetch,
		Reason:   what,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"count": fmt.Sprintf("%d", count),
		},
	})
}

// LogImport logs a completed import
func (l *EventLogger) LogImport(category string, upstreamID, entityID int64, title, status string, duration time.Duration) error {
	level := LevelInfo
	if status == "exists" {
		level = LevelDebug
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventImport,
		Category:   category,
		UpstreamID: upstreamID,
		EntityID:   entityID,
		Title:      title,
		Status:     status,
		Duration:   duration.Milliseconds(),
	})
}

// LogSkip logs an item rejected by validation
func (l *EventLogger) LogSkip(category string, upstreamID int64, title, reason string) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventSkip,
		Category:   category,
		UpstreamID: upstreamID,
		Title:      title,
		Reason:     reason,
	})
}

// LogMedia logs the outcome of a media cache replacement
func (l *EventLogger) LogMedia(entityType string, entityID int64, kept, rejected, failed int) error {
	level := LevelDebug
	if failed > 0 {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventMedia,
		Category: entityType,
		EntityID: entityID,
		Extra: map[string]string{
			"kept":     fmt.Sprintf("%d", kept),
			"rejected": fmt.Sprintf("%d", rejected),
			"failed":   fmt.Sprintf("%d", failed),
		},
	})
}

// LogRetry logs a failed attempt that will be retried
func (l *EventLogger) LogRetry(category string, upstreamID int64, attempt int, err error) error {
	return l.Log(&Event{
		Level:      LevelWarning,
		Event:      EventRetry,
		Category:   category,
		UpstreamID: upstreamID,
		Attempt:    attempt,
		Error:      err.Error(),
	})
}

// LogBatch logs the start of a batch
func (l *EventLogger) LogBatch(index, total, size int) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventBatch,
		Extra: map[string]string{
			"batch":   fmt.Sprintf("%d", index),
			"batches": fmt.Sprintf("%d", total),
			"size":    fmt.Sprintf("%d", size),
		},
	})
}

// LogError logs an item failure
func (l *EventLogger) LogError(category string, upstreamID int64, title string, attempts int, err error) error {
	return l.Log(&Event{
		Level:      LevelError,
		Event:      EventError,
		Category:   category,
		UpstreamID: upstreamID,
		Title:      title,
		Attempt:    attempts,
		Error:      err.Error(),
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

// RunID returns the run id stamped on every event
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
