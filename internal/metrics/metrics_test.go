package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Cannot use t.Parallel() - shared global metrics

func TestRecordUpstreamRequest(t *testing.T) {
	ok := UpstreamRequests.WithLabelValues("jeuInfos.php", "200")
	failed := UpstreamRequests.WithLabelValues("jeuInfos.php", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordUpstreamRequest("jeuInfos.php", 200, 120*time.Millisecond)
	RecordUpstreamRequest("jeuInfos.php", 0, time.Second)

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("200 counter increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("error counter increased by %v, want 1", got)
	}
}

func TestRecordImportAndRetry(t *testing.T) {
	created := ImportsTotal.WithLabelValues("games", "created")
	retries := ImportRetries.WithLabelValues("games")
	createdBefore, retriesBefore := testutil.ToFloat64(created), testutil.ToFloat64(retries)

	RecordImport("games", "created", 2*time.Second)
	RecordRetry("games")
	RecordRetry("games")

	if got := testutil.ToFloat64(created) - createdBefore; got != 1 {
		t.Errorf("created counter increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(retries) - retriesBefore; got != 2 {
		t.Errorf("retry counter increased by %v, want 2", got)
	}
}

func TestRecordMedia(t *testing.T) {
	kept := MediaItems.WithLabelValues("kept")
	before := testutil.ToFloat64(kept)

	RecordMedia(3, 1, 0)

	if got := testutil.ToFloat64(kept) - before; got != 3 {
		t.Errorf("kept counter increased by %v, want 3", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordRun(90 * time.Second)
	RecordImport("consoles", "exists", time.Millisecond)

	path := filepath.Join(t.TempDir(), "rcs.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	for _, want := range []string{"rcs_last_run_duration_seconds 90", `rcs_imports_total{category="consoles",outcome="exists"}`} {
		if !strings.Contains(string(content), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
