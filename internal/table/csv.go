package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a file format this package cannot read.
var ErrUnsupported = errors.New("unsupported file format: want .csv, .tsv or .xlsx")

// ReadFile loads a dataset, choosing the reader by file extension.
func ReadFile(path string, opt Options) (*Table, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return ReadCSVFile(path, opt)
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSXFile(path, opt)
	default:
		return nil, fmt.Errorf("%w (%s)", ErrUnsupported, filepath.Base(path))
	}
}

// ReadCSVFile loads a CSV/TSV file from disk.
func ReadCSVFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(bufio.NewReaderSize(f, 1<<20), opt)
}

// ReadCSV loads a CSV dataset from a reader. The first record is the header.
func ReadCSV(r io.Reader, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Cols: make([]Column, len(header))}
	for i, h := range header {
		t.Cols[i] = Column{Name: strings.TrimSpace(h)}
	}

	maxRows := opt.MaxRows
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+2, err)
		}
		if maxRows > 0 && len(t.Rows) >= maxRows {
			break
		}
		row := make([]string, len(t.Cols))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	t.infer(opt)
	return t, nil
}

// WriteCSV writes the table as comma-separated values with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	cw := csv.NewWriter(bw)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		rec := row
		if len(rec) != len(t.Cols) {
			rec = make([]string, len(t.Cols))
			copy(rec, row)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteCSVFile writes the table to disk.
func (t *Table) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
