package results

import (
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

// Summary file fields
const (
	FieldFileName     = "file_name"
	FieldTrivialNames = "trivial_name(s)"
	FieldEvidences    = "evidences (min)"
	FieldFormula      = "formula"
	FieldMolecule     = "molecule"
	FieldCharge       = "charge"
	FieldMaxIRT       = "max I in window (rt)"
	FieldStop         = "stop (min)"
	FieldStart        = "start (min)"
	FieldAUC          = "auc in window"
	FieldMaxI         = "max I in window"
	FieldSumI         = "sum I in window"
	FieldMaxIScore    = "max I in window (score)"
)

// Numeric fields derived from the attached matches.
const (
	FieldLenData       = "len_data"
	FieldCalcMaxI      = "calc max I in window"
	FieldCalcMaxIRT    = "calc max I in window (rt)"
	FieldCalcMaxIScore = "calc max I in window (score)"
	FieldCalcSumI      = "calc sum I in window"
	FieldCalcAUC       = "calc auc in window"
)

// SummaryFields are copied from every summary row into its LabelInfo.
var SummaryFields = []string{
	FieldFileName,
	FieldTrivialNames,
	FieldEvidences,
	FieldFormula,
	FieldMolecule,
	FieldMaxIRT,
	FieldStop,
	FieldStart,
	FieldAUC,
	FieldMaxI,
	FieldSumI,
	FieldMaxIScore,
}

// noMS2Marker flags trivial names of partners that were not sequenced.
const noMS2Marker = "no MS2;"

// LabelInfo is the quantification info of one label of a MoleculeKey.
type LabelInfo struct {
	FileName     string
	TrivialNames string
	Formula      string
	Molecule     string
	HasMS2ID     bool

	// Fields holds the raw summary fields.
	Fields map[string]string

	Data    []core.MatchRecord
	LenData int

	// Amounts is nil until matches were attached inside the rt window.
	Amounts *WindowAmounts
}

// NewLabelInfo builds a LabelInfo from a summary row. A "no MS2;" marker
// in the trivial names clears HasMS2ID and is removed.
func NewLabelInfo(row map[string]string) *LabelInfo {
	info := &LabelInfo{
		Fields:   make(map[string]string, len(SummaryFields)),
		HasMS2ID: true,
	}
	for _, field := range SummaryFields {
		info.Fields[field] = row[field]
	}

	names := info.Fields[FieldTrivialNames]
	if strings.Contains(names, noMS2Marker) {
		info.HasMS2ID = false
		names = strings.ReplaceAll(names, noMS2Marker, "")
		info.Fields[FieldTrivialNames] = names
	}

	info.FileName = info.Fields[FieldFileName]
	info.TrivialNames = names
	info.Formula = info.Fields[FieldFormula]
	info.Molecule = info.Fields[FieldMolecule]
	return info
}

// Window returns the retention-time window of the summary row.
func (l *LabelInfo) Window() (start, stop float64, ok bool) {
	start, okStart := parseNumber(l.Fields[FieldStart])
	stop, okStop := parseNumber(l.Fields[FieldStop])
	return start, stop, okStart && okStop
}

// Value returns a numeric field. Missing or non-numeric values report
// false.
func (l *LabelInfo) Value(field string) (float64, bool) {
	switch field {
	case FieldLenData:
		return float64(l.LenData), true
	case FieldCalcMaxI, FieldCalcMaxIRT, FieldCalcMaxIScore, FieldCalcSumI, FieldCalcAUC:
		if l.Amounts == nil {
			return 0, false
		}
		return l.Amounts.value(field), true
	}

	raw, ok := l.Fields[field]
	if !ok {
		return 0, false
	}
	return parseNumber(raw)
}

// parseNumber parses finite numbers only.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
