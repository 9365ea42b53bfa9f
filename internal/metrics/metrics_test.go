package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordAndSummarize(t *testing.T) {
	sink := NewSink()
	start := time.Now()
	sink.Record("basic", "line reset", start, nil)
	sink.Record("basic", "DP read", start, nil)
	sink.Record("basic", "AP write", start, errors.New("swd fault"))

	ms := sink.Metrics()
	if len(ms) != 3 {
		t.Fatalf("got %d metrics, want 3", len(ms))
	}
	if !ms[0].Success || ms[2].Success {
		t.Error("success flags wrong")
	}
	if ms[2].Error != "swd fault" {
		t.Errorf("Error = %q", ms[2].Error)
	}

	sum := sink.Summarize()
	if sum.Count != 3 || sum.Successes != 2 || sum.Failures != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.MinRTTMs > sum.MaxRTTMs {
		t.Errorf("min %f > max %f", sum.MinRTTMs, sum.MaxRTTMs)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := NewSink().Summarize()
	if sum.Count != 0 || sum.MaxRTTMs != 0 {
		t.Errorf("summary of empty sink = %+v", sum)
	}
}

func TestMetricsReturnsCopy(t *testing.T) {
	sink := NewSink()
	sink.Record("basic", "ping", time.Now(), nil)

	ms := sink.Metrics()
	ms[0].Operation = "mutated"
	if sink.Metrics()[0].Operation != "ping" {
		t.Error("Metrics() exposed internal slice")
	}
}

func TestWriteCSV(t *testing.T) {
	sink := NewSink()
	sink.Record("vector-catch", "DEMCR write", time.Now(), nil)
	sink.Record("vector-catch", "post-reset DHCSR probe", time.Now(), errors.New("timed, out"))

	path := filepath.Join(t.TempDir(), "metrics.csv")
	if err := WriteCSV(path, sink); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,scenario,operation") {
		t.Errorf("header = %q", lines[0])
	}
	// The error message contains a comma and must be quoted.
	if !strings.Contains(lines[2], `"timed, out"`) {
		t.Errorf("row = %q, comma in error not quoted", lines[2])
	}
}
