// Package groundtruth loads the per-contract table of pre-established
// property verdicts.
//
// The file is comma-separated, one row per task:
//
//	property,version,truth
//
// where truth is "1" (property holds) or "0" (property violated). Rows with
// any other truth value are ignored, and a leading "v" on the version is
// stripped before keying. The loaded Index is read-only.
package groundtruth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/propcheck/internal/ir"
)

// FileName is the ground-truth file name inside a contract folder.
const FileName = "ground-truth.csv"

// ErrNotFound is returned when the ground-truth file does not exist.
var ErrNotFound = errors.New("ground truth file not found")

// Index maps tasks to their ground-truth label.
type Index struct {
	labels map[ir.Task]ir.Truth
}

// New builds an index from an explicit label map. Unknown labels are dropped.
func New(labels map[ir.Task]ir.Truth) *Index {
	idx := &Index{labels: make(map[ir.Task]ir.Truth, len(labels))}
	for task, truth := range labels {
		if truth.Known() {
			idx.labels[NormalizeTask(task)] = truth
		}
	}
	return idx
}

// Load reads a ground-truth file from disk.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer f.Close()

	idx, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read ground truth %s: %w", path, err)
	}
	return idx, nil
}

// Read parses ground-truth rows from r.
func Read(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	idx := &Index{labels: make(map[ir.Task]ir.Truth)}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 3 {
			continue
		}
		var truth ir.Truth
		switch strings.TrimSpace(row[2]) {
		case "1":
			truth = ir.Holds
		case "0":
			truth = ir.Violated
		default:
			continue
		}
		task := NormalizeTask(ir.Task{Property: row[0], Version: row[1]})
		idx.labels[task] = truth
	}
	return idx, nil
}

// NormalizeTask trims whitespace and strips a leading "v" from the version.
func NormalizeTask(t ir.Task) ir.Task {
	return ir.Task{
		Property: strings.TrimSpace(t.Property),
		Version:  NormalizeVersion(t.Version),
	}
}

// NormalizeVersion strips surrounding whitespace and one leading "v".
func NormalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Lookup returns the label for task, or ir.Unknown when the table has none.
func (idx *Index) Lookup(task ir.Task) ir.Truth {
	if idx == nil {
		return ir.Unknown
	}
	return idx.labels[NormalizeTask(task)]
}

// Has reports whether task has a usable label.
func (idx *Index) Has(task ir.Task) bool {
	return idx.Lookup(task).Known()
}

// Len returns the number of labelled tasks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.labels)
}

// Missing returns the tasks in tasks that have no usable label, in input order.
func (idx *Index) Missing(tasks []ir.Task) []ir.Task {
	var missing []ir.Task
	for _, t := range tasks {
		if !idx.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}
