package sampler

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/propcheck/internal/ir"
)

// headerLabels are first-cell values that mark a manifest header row.
var headerLabels = map[string]bool{
	"property":    true,
	"contract_id": true,
	"id":          true,
}

// LoadManifest reads a task manifest: CSV rows whose first two columns are
// property and version. A header row is skipped; short rows are skipped with
// a warning.
func LoadManifest(path string, logger *slog.Logger) ([]ir.Task, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task manifest: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	tasks := []ir.Task{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read task manifest %s: %w", path, err)
		}
		if len(row) == 0 || headerLabels[strings.ToLower(strings.TrimSpace(row[0]))] {
			continue
		}
		if len(row) < 2 {
			logger.Warn("malformed manifest line", "path", path, "row", row)
			continue
		}
		tasks = append(tasks, ir.Task{
			Property: strings.TrimSpace(row[0]),
			Version:  strings.TrimSpace(row[1]),
		})
	}
	return tasks, nil
}

// AppendManifest appends tasks to path in manifest format, creating the file
// and its directory as needed.
func AppendManifest(path string, tasks []ir.Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	w := csv.NewWriter(f)
	for _, t := range tasks {
		if err := w.Write([]string{t.Property, t.Version}); err != nil {
			f.Close()
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}
