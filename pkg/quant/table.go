package quant

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

// Match table columns
const (
	ColFileName      = "file_name"
	ColFormula       = "formula"
	ColCharge        = "charge"
	ColMolecule      = "molecule"
	ColSpecID        = "spec_id"
	ColRT            = "rt"
	ColScore         = "score"
	ColScalingFactor = "scaling_factor"
	ColPeaks         = "peaks"
)

var requiredColumns = []string{
	ColFileName, ColFormula, ColCharge, ColSpecID, ColRT, ColScore, ColScalingFactor,
}

// Table is an in-memory Source backed by a match table exported by the
// quantification engine.
type Table struct {
	hits   []Hit
	counts map[MatchKey]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{counts: make(map[MatchKey]int)}
}

// Add appends a match for key and returns its hit.
func (t *Table) Add(key MatchKey, rec core.MatchRecord) Hit {
	key.Charge = NormalizeCharge(key.Charge)
	h := Hit{Key: key, Index: t.counts[key], Record: rec}
	t.counts[key]++
	t.hits = append(t.hits, h)
	return h
}

// Len returns the number of matches in the table.
func (t *Table) Len() int {
	return len(t.hits)
}

// ExtractMatches returns every hit passing the filter in insertion order.
// Records are copies; callers may modify them.
func (t *Table) ExtractMatches(ctx context.Context, f Filter) ([]Hit, error) {
	var out []Hit
	for i, h := range t.hits {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if f.Matches(h.Key) {
			h.Record = h.Record.Clone()
			out = append(out, h)
		}
	}
	return out, nil
}

// OpenCSV loads a match table from a CSV file.
func OpenCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match table: %w", err)
	}
	defer f.Close()

	t, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadCSV reads a match table with a header row. Peaks are written as
// "mz:intensity" pairs separated by ';'.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	t := NewTable()
	lineNum := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		m := core.MatchRecord{SpecID: get(rec, ColSpecID)}
		for _, field := range []struct {
			col string
			dst *float64
		}{
			{ColRT, &m.RT},
			{ColScore, &m.Score},
			{ColScalingFactor, &m.ScalingFactor},
		} {
			v, err := strconv.ParseFloat(get(rec, field.col), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", lineNum, field.col, err)
			}
			*field.dst = v
		}

		m.Peaks, err = ParsePeaks(get(rec, ColPeaks))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		t.Add(MatchKey{
			FileName: get(rec, ColFileName),
			Formula:  get(rec, ColFormula),
			Charge:   get(rec, ColCharge),
			Molecule: get(rec, ColMolecule),
		}, m)
	}

	return t, nil
}

// ParsePeaks parses "mz:intensity;mz:intensity" peak lists.
func ParsePeaks(s string) ([]core.Peak, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var peaks []core.Peak
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mzStr, iStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid peak '%s', expected 'mz:intensity'", part)
		}
		mz, err := strconv.ParseFloat(strings.TrimSpace(mzStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid peak m/z '%s': %w", mzStr, err)
		}
		intensity, err := strconv.ParseFloat(strings.TrimSpace(iStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid peak intensity '%s': %w", iStr, err)
		}
		peaks = append(peaks, core.Peak{MZ: mz, Intensity: intensity})
	}
	return peaks, nil
}
