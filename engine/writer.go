package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// Row is a record with a fixed column list.
type Row interface {
	Columns() []string
	Values() []string
}

// Writer appends rows to a delimited text file. The header is taken from the
// first row appended. In crash-safe mode every Append opens the file, writes,
// syncs and closes it, so a row survives a kill once Append has returned.
// Otherwise rows are buffered until Close.
type Writer struct {
	path      string
	comma     rune
	crashSafe bool
	header    []string

	f  *os.File
	cw *csv.Writer
}

func NewWriter(path string, delim rune, crashSafe bool) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	w := &Writer{path: path, comma: delim, crashSafe: crashSafe}
	if !crashSafe {
		f, err := openAppend(path)
		if err != nil {
			return nil, err
		}
		w.f = f
		w.cw = w.csvWriter(f)
	}
	return w, nil
}

func (w *Writer) Path() string { return w.path }

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (w *Writer) csvWriter(out io.Writer) *csv.Writer {
	cw := csv.NewWriter(out)
	cw.Comma = w.comma
	return cw
}

func (w *Writer) Append(row Row) error {
	var records [][]string
	if w.header == nil {
		w.header = slices.Clone(row.Columns())
		records = append(records, w.header)
	} else if !slices.Equal(w.header, row.Columns()) {
		return fmt.Errorf("row columns differ from header of %s", w.path)
	}
	records = append(records, row.Values())

	if !w.crashSafe {
		for _, rec := range records {
			if err := w.cw.Write(rec); err != nil {
				return fmt.Errorf("write %s: %w", w.path, err)
			}
		}
		return nil
	}

	f, err := openAppend(w.path)
	if err != nil {
		return err
	}
	cw := w.csvWriter(f)
	if err := cw.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	return f.Close()
}

// Close flushes buffered rows. It is a no-op in crash-safe mode.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	w.cw.Flush()
	err := w.cw.Error()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.f = nil
	return err
}

// ReadRows reads a file written by Writer. Rows whose width differs from the
// header, such as a line cut short by a crash, are dropped.
func ReadRows(path string, delim rune) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) != len(header) {
			continue
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// ReadTrials reads a data file back into trials.
func ReadTrials(path string, delim rune) ([]*Trial, error) {
	header, rows, err := ReadRows(path, delim)
	if err != nil {
		return nil, err
	}
	trials := make([]*Trial, 0, len(rows))
	for i, rec := range rows {
		m := make(map[string]string, len(header))
		for j, col := range header {
			m[col] = rec[j]
		}
		t, err := ParseTrial(m)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		trials = append(trials, t)
	}
	return trials, nil
}
