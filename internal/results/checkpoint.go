package results

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/propcheck/internal/ir"
)

// Checkpoint is an append-only table file written one record at a time, so
// a crash loses at most the task in flight.
type Checkpoint struct {
	path string
}

// CheckpointName is the checkpoint file name for a run started at stamp.
func CheckpointName(stamp string) string {
	return fmt.Sprintf("results_temp_%s.csv", stamp)
}

// OpenCheckpoint prepares the checkpoint at path, writing the header when
// the file is new.
func OpenCheckpoint(path string) (*Checkpoint, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	switch {
	case err == nil:
		werr := WriteHeader(f)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return nil, fmt.Errorf("write checkpoint header: %w", werr)
		}
	case os.IsExist(err):
	default:
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}
	return &Checkpoint{path: path}, nil
}

// Path returns the checkpoint file path.
func (c *Checkpoint) Path() string {
	return c.path
}

// Append writes one record and syncs it to disk.
func (c *Checkpoint) Append(r ir.Record) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	if err := WriteRecords(f, []ir.Record{r}); err != nil {
		f.Close()
		return fmt.Errorf("append checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	return f.Close()
}

// Load reads back every record appended so far.
func (c *Checkpoint) Load() ([]ir.Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
