package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

var header = []string{
	"file_name", "trivial_name(s)", "evidences (min)", "formula", "molecule", "charge",
	"max I in window (rt)", "stop (min)", "start (min)", "auc in window",
	"max I in window", "sum I in window", "max I in window (score)", "extra",
}

var rows = [][]string{
	{"run1", "P1", "10.1", "C(10)", "AAAK#TEV_H:4", "2", "11", "12", "10", "1500", "300", "900", "0.9", "x"},
	{"run1", "no MS2;P1", "", "C(11)", "AAAK#TEV_L:4", "2", "11", "12", "10", "750", "150", "450", "0.8", ""},
}

func csvData(lines ...[]string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(strings.Join(l, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

func readAll(t *testing.T, r *Reader) []map[string]string {
	t.Helper()
	var got []map[string]string
	for r.Next() {
		got = append(got, r.Row())
	}
	require.NoError(t, r.Err())
	return got
}

func TestReaderCSV(t *testing.T) {
	data := "\ufeff" + csvData(append([][]string{header}, rows[0], []string{",,,"}, rows[1])...)

	r, err := NewReader(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, header, r.Header())

	got := readAll(t, r)
	require.Len(t, got, 2, "blank row skipped")
	assert.Equal(t, "AAAK#TEV_H:4", got[0][results.FieldMolecule])
	assert.Equal(t, "run1", got[0][results.FieldFileName], "BOM stripped from first column")
	assert.Equal(t, "no MS2;P1", got[1][results.FieldTrivialNames])
	assert.Equal(t, "x", got[0]["extra"])
}

func TestReaderShortRecord(t *testing.T) {
	r, err := NewReader(strings.NewReader(csvData(header, []string{"run1", "P1"})))
	require.NoError(t, err)

	got := readAll(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0][results.FieldCharge])
	assert.Len(t, got[0], len(header))
}

func TestReaderMissingHeaderFields(t *testing.T) {
	_, err := NewReader(strings.NewReader("file_name,molecule\nrun1,AAAK\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charge")

	_, err = NewReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReaderMalformedCSV(t *testing.T) {
	r, err := NewReader(strings.NewReader(csvData(header) + "\"unterminated\n"))
	require.NoError(t, err)
	assert.False(t, r.Next())
	assert.Error(t, r.Err())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "quant_summary.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvData(header, rows[0])), 0o644))

	r, err := Open(csvPath)
	require.NoError(t, err)
	assert.Len(t, readAll(t, r), 1)
	require.NoError(t, r.Close())

	xlsxPath := filepath.Join(dir, "quant_summary.xlsx")
	f := excelize.NewFile()
	for i, line := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &line))
	}
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	r, err = Open(xlsxPath)
	require.NoError(t, err)
	got := readAll(t, r)
	require.NoError(t, r.Close())
	require.Len(t, got, 2)
	assert.Equal(t, "AAAK#TEV_L:4", got[1][results.FieldMolecule])
	assert.Equal(t, "", got[1][results.FieldEvidences])
	assert.Equal(t, "", got[1]["extra"], "trailing empty cells padded")
}

func TestNewXLSXReader(t *testing.T) {
	f := excelize.NewFile()
	for i, line := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &line))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := NewXLSXReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, header, r.Header())
	got := readAll(t, r)
	require.NoError(t, r.Close())
	require.Len(t, got, 2)
	assert.Equal(t, "AAAK#TEV_H:4", got[0][results.FieldMolecule])
	assert.Equal(t, "no MS2;P1", got[1][results.FieldTrivialNames])

	_, err = NewXLSXReader(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "quant_summary.tsv"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}
