package metrics

// CSV output for collected metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// WriteCSV writes every metric in the sink to a CSV file.
func WriteCSV(path string, sink *Sink) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"timestamp",
		"scenario",
		"operation",
		"success",
		"rtt_ms",
		"status",
		"error",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, m := range sink.Metrics() {
		row := []string{
			m.Timestamp.Format(time.RFC3339Nano),
			m.Scenario,
			m.Operation,
			strconv.FormatBool(m.Success),
			fmt.Sprintf("%.3f", m.RTTMs),
			fmt.Sprintf("0x%02X", m.Status),
			m.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
