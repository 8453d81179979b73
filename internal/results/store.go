package results

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/propcheck/internal/ir"
)

// BackupDirName is the directory, next to the table, that receives backups.
const BackupDirName = "backup"

// backupStamp is the timestamp layout used in backup file names.
const backupStamp = "2006-01-02_15-04-05.000000"

// Identity names the result table of one experiment configuration.
type Identity struct {
	Model    string
	Prompt   string
	Contract string
	Tokens   int
}

// FileName is the table's file name for the identity.
func (id Identity) FileName() string {
	prompt := strings.TrimSuffix(id.Prompt, ".txt")
	return fmt.Sprintf("results_%s_%s_%s_%dtok.csv", id.Model, prompt, id.Contract, id.Tokens)
}

// Store reads and writes result tables under a directory.
type Store struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used for backup names.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the table path for id.
func (s *Store) Path(id Identity) string {
	return filepath.Join(s.dir, id.FileName())
}

// Load reads the table at path. A missing file is an empty table.
func (s *Store) Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(nil), nil
		}
		return nil, fmt.Errorf("read result table: %w", err)
	}
	records, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode result table %s: %w", path, err)
	}
	return NewTable(records), nil
}

// Commit merges records into the table at path and writes it back, backing
// up the previous file first. It returns the merged table.
func (s *Store) Commit(path string, records []ir.Record) (*Table, error) {
	table, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	added, replaced := table.Merge(records)
	s.logger.Info("merged results", "path", path, "added", added, "replaced", replaced, "rows", table.Len())

	if err := s.Write(path, table.Records()); err != nil {
		return nil, err
	}
	return table, nil
}

// Write replaces the table at path with records. An existing file is renamed
// to a timestamped backup, never deleted.
func (s *Store) Write(path string, records []ir.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		backup, err := s.backup(path)
		if err != nil {
			return err
		}
		s.logger.Info("backed up previous results", "backup", backup)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return fmt.Errorf("encode result table: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write result table: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install result table: %w", err)
	}
	return nil
}

// BackupPath is where the file at path is moved when it is replaced at t.
func BackupPath(path string, t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := fmt.Sprintf("%s_backup_%s.csv", base, t.Format(backupStamp))
	return filepath.Join(filepath.Dir(path), BackupDirName, name)
}

func (s *Store) backup(path string) (string, error) {
	dst := BackupPath(path, s.now())
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("back up result table: %w", err)
	}
	return dst, nil
}
