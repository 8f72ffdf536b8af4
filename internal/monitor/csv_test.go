package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nemsim/nemsim/internal/operator"
)

func TestWriteCSVProducesTradingAndDispatchSections(t *testing.T) {
	op := operator.New("AEMO-NSW1", "NSW1")
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "results.csv")

	start := time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)
	end := start.Add(35 * time.Minute)

	if err := WriteCSV(path, start, end, Operators([]*operator.Operator{op})); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty CSV output")
	}

	content := string(data)
	if !strings.Contains(content, "TRADING") || !strings.Contains(content, "DISPATCH") {
		t.Fatalf("expected both TRADING and DISPATCH sections, got:\n%s", content)
	}
	if !strings.Contains(content, "N/A") {
		t.Fatalf("expected N/A rows for intervals with no recorded data, got:\n%s", content)
	}
}
