package report

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v\nLine: %s", lineNum, err, scanner.Text())
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}

	if len(logger.RunID()) != 36 {
		t.Errorf("Expected a uuid run id, got %q", logger.RunID())
	}
}

func TestEventLogger_StampsRunIDAndTimestamp(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.LogImport("games", 5, 1, "Sonic the Hedgehog", "created", 1500*time.Millisecond); err != nil {
		t.Fatalf("LogImport failed: %v", err)
	}
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.RunID != logger.RunID() {
		t.Errorf("Expected run id %s, got %s", logger.RunID(), e.RunID)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > 5*time.Second {
		t.Errorf("Unexpected timestamp %v", e.Timestamp)
	}
	if e.Event != EventImport || e.UpstreamID != 5 || e.Title != "Sonic the Hedgehog" || e.Duration != 1500 {
		t.Errorf("Unexpected event: %+v", e)
	}
}

func TestEventLogger_ItemEvents(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogSkip("games", 6, "Demo Disc", "not a game")
	logger.LogRetry("games", 7, 1, errors.New("unexpected status 503"))
	logger.LogError("games", 7, "", 3, errors.New("max retries exceeded"))
	logger.LogMedia("game", 1, 2, 1, 1)
	logger.LogFetch("system 1 game list", 120, time.Second, nil)
	logger.LogBatch(1, 4, 25)
	logger.Close()

	events := readEvents(t, logger.Path())
	want := []EventType{EventSkip, EventRetry, EventError, EventMedia, EventFetch, EventBatch}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.Event != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], e.Event)
		}
	}

	if events[0].Reason != "not a game" {
		t.Errorf("Skip reason not recorded: %+v", events[0])
	}
	if events[2].Level != LevelError || events[2].Attempt != 3 {
		t.Errorf("Unexpected error event: %+v", events[2])
	}
	if events[3].Level != LevelWarning || events[3].Extra["failed"] != "1" {
		t.Errorf("Media failures should be warnings: %+v", events[3])
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := logger.LogSkip("games", int64(id*100+j), "", "clone"); err != nil {
					t.Errorf("Log failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	if got := len(readEvents(t, logger.Path())); got != numGoroutines*eventsPerGoroutine {
		t.Errorf("Expected %d events, got %d", numGoroutines*eventsPerGoroutine, got)
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	// Should not panic
	if err := logger.Log(&Event{Level: LevelInfo, Event: EventImport}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogSkip("games", 1, "", "clone"); err != nil {
		t.Errorf("NullLogger.LogSkip should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if logger.Path() != "" || logger.RunID() != "" {
		t.Error("NullLogger should have no path or run id")
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	testCases := []struct {
		name     string
		minLevel EventLevel
		want     int
	}{
		{"debug keeps everything", LevelDebug, 4},
		{"info drops debug", LevelInfo, 3},
		{"warning keeps warning and error", LevelWarning, 2},
		{"error keeps error only", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewEventLogger(t.TempDir(), tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}
			for _, level := range []EventLevel{LevelDebug, LevelInfo, LevelWarning, LevelError} {
				logger.Log(&Event{Level: level, Event: EventImport})
			}
			logger.Close()

			if got := len(readEvents(t, logger.Path())); got != tc.want {
				t.Errorf("Expected %d events, got %d", tc.want, got)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != LevelWarning {
		t.Error("expected warning")
	}
	if ParseLevel("loud") != LevelInfo {
		t.Error("unknown levels should default to info")
	}
}
