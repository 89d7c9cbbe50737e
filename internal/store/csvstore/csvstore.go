package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/idilsaglam/backlog/internal/model"
)

// CSV-backed storage. One file per table, header row first, UTF-8.
// Rows are keyed by column name; the header decides write order.

// File names inside the backlog data directory.
const (
	BacklogFile   = "backlog.csv"
	SprintsFile   = "sprints.csv"
	ChangelogFile = "changelog.csv"
)

// ErrNoHeader is returned for a file that has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// Table is a CSV file held in memory.
type Table struct {
	Header []string
	Rows   []model.Record
}

// NewTable returns an empty table with the given columns.
func NewTable(header ...string) *Table {
	return &Table{Header: slices.Clone(header)}
}

// Read parses CSV with a header row. Short rows leave trailing columns unset;
// extra cells beyond the header are dropped.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(model.Record, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write emits the header and every row in header order. Values for columns
// outside the header are ignored.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, col := range t.Header {
			rec[i] = row[col]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads a CSV file. A missing file yields an error matching fs.ErrNotExist.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Save writes the table through a temp file and renames it into place.
func Save(path string, t *Table) error {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Column returns the index of col in the header, or -1.
func (t *Table) Column(col string) int {
	return slices.Index(t.Header, col)
}

// HasColumn reports whether col is in the header.
func (t *Table) HasColumn(col string) bool {
	return t.Column(col) >= 0
}

// InsertAfter adds col right after the column named after, or at the end when
// after is missing. Existing columns are left where they are.
func (t *Table) InsertAfter(after, col string) {
	if t.HasColumn(col) {
		return
	}
	i := t.Column(after)
	if i < 0 {
		t.Header = append(t.Header, col)
		return
	}
	t.Header = slices.Insert(t.Header, i+1, col)
}

// Replace swaps col for cols in place, skipping any of cols already present.
// When col is missing the new columns are appended.
func (t *Table) Replace(col string, cols ...string) {
	var add []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			add = append(add, c)
		}
	}
	i := t.Column(col)
	if i < 0 {
		t.Header = append(t.Header, add...)
		return
	}
	t.Header = slices.Concat(t.Header[:i:i], add, t.Header[i+1:])
}

// Drop removes col from the header. Row values stay but are no longer written.
func (t *Table) Drop(col string) {
	t.Header = slices.DeleteFunc(t.Header, func(c string) bool { return c == col })
}

// Store locates the backlog tables inside a data directory.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the full path of a table file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Backlog loads backlog.csv.
func (s *Store) Backlog() (*Table, error) {
	return Load(s.Path(BacklogFile))
}

// Sprints loads sprints.csv.
func (s *Store) Sprints() (*Table, error) {
	return Load(s.Path(SprintsFile))
}

// Changelog loads changelog.csv. The changelog is optional: a missing file
// is an empty table.
func (s *Store) Changelog() (*Table, error) {
	t, err := Load(s.Path(ChangelogFile))
	if errors.Is(err, fs.ErrNotExist) {
		return NewTable("date", "action", "details"), nil
	}
	return t, err
}

// SaveBacklog writes backlog.csv.
func (s *Store) SaveBacklog(t *Table) error {
	return Save(s.Path(BacklogFile), t)
}
