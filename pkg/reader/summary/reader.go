// Package summary provides streaming readers for quantification summary
// files in CSV or XLSX format.
package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// ErrUnsupportedFormat is returned for summary files that are neither CSV
// nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported summary format")

// RequiredFields must be present in the header of every summary file.
var RequiredFields = append(slices.Clone(results.SummaryFields), results.FieldCharge)

// rowSource yields raw records, io.EOF at the end.
type rowSource interface {
	next() ([]string, error)
}

// Reader provides streaming access to summary rows
type Reader struct {
	src     rowSource
	closers []io.Closer
	header  []string
	lineNum int
	row     map[string]string
	err     error
}

// Open opens a summary file, choosing the format by extension.
func Open(path string) (*Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open summary file: %w", err)
		}
		r, err := NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.closers = append(r.closers, f)
		return r, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open summary file: %w", err)
		}
		r, err := newXLSXReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: extension %q of file %s", ErrUnsupportedFormat, ext, path)
}

// NewReader creates a reader over CSV data and reads its header.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return newReader(csvSource{cr})
}

// NewXLSXReader creates a reader over the first sheet of an XLSX workbook.
func NewXLSXReader(r io.Reader) (*Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	reader, err := newXLSXReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}

func newXLSXReader(f *excelize.File) (*Reader, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	r, err := newReader(xlsxSource{rows})
	if err != nil {
		rows.Close()
		return nil, err
	}
	r.closers = append(r.closers, rows, f)
	return r, nil
}

func newReader(src rowSource) (*Reader, error) {
	r := &Reader{src: src}

	header, err := src.next()
	if err == io.EOF {
		return nil, errors.New("summary file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	r.lineNum++

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}
	var missing []string
	for _, field := range RequiredFields {
		if !slices.Contains(header, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("summary header is missing fields: %s", strings.Join(missing, ", "))
	}

	r.header = header
	return r, nil
}

// Header returns the column names.
func (r *Reader) Header() []string {
	return slices.Clone(r.header)
}

// Next advances to the next row. Returns false when no more rows or error.
// Blank rows are skipped.
func (r *Reader) Next() bool {
	r.row = nil
	for {
		record, err := r.src.next()
		if err != nil {
			if err != io.EOF {
				r.err = fmt.Errorf("line %d: %w", r.lineNum+1, err)
			}
			return false
		}
		r.lineNum++

		if isBlank(record) {
			continue
		}

		row := make(map[string]string, len(r.header))
		for i, name := range r.header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		r.row = row
		return true
	}
}

// Row returns the current row keyed by column name.
func (r *Reader) Row() map[string]string {
	return r.row
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type csvSource struct {
	r *csv.Reader
}

func (s csvSource) next() ([]string, error) {
	return s.r.Read()
}

type xlsxSource struct {
	rows *excelize.Rows
}

func (s xlsxSource) next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.rows.Columns()
}
