package results

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/filter"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/quant"
)

var testLabels = []string{"L1", "L2"}

func summaryRow(mol, charge, file, formula, trivial string) map[string]string {
	return map[string]string{
		FieldFileName:     file,
		FieldTrivialNames: trivial,
		FieldEvidences:    "10.2",
		FieldFormula:      formula,
		FieldMolecule:     mol,
		FieldCharge:       charge,
		FieldStart:        "10",
		FieldStop:         "12",
		FieldAUC:          "1500.5",
		FieldMaxI:         "n/a",
	}
}

func matchTable(file, formula, charge string, scores ...float64) *quant.Table {
	table := quant.NewTable()
	for i, s := range scores {
		table.Add(quant.MatchKey{FileName: file, Formula: formula, Charge: charge}, core.MatchRecord{
			SpecID:        "scan=" + string(rune('a'+i)),
			RT:            10 + float64(i)*0.5,
			Score:         s,
			ScalingFactor: 100 * float64(i+1),
		})
	}
	return table
}

func TestUpsertKeepsInsertionOrder(t *testing.T) {
	res := New(testLabels)
	k1 := molecule.MoleculeKey{Sequence: "B", Charge: "2", LabelPosition: "1"}
	k2 := molecule.MoleculeKey{Sequence: "A", Charge: "2", LabelPosition: "1"}

	assert.True(t, res.Upsert(k1, "L2", &LabelInfo{FileName: "first"}))
	assert.True(t, res.Upsert(k2, "L1", &LabelInfo{}))
	assert.True(t, res.Upsert(k1, "L1", &LabelInfo{}))
	assert.False(t, res.Upsert(k1, "L2", &LabelInfo{FileName: "second"}), "existing label is kept")

	assert.Equal(t, []molecule.MoleculeKey{k1, k2}, res.Keys())
	assert.Equal(t, 2, res.Len())

	e, ok := res.Get(k1)
	require.True(t, ok)
	assert.Equal(t, []string{"L2", "L1"}, e.Labels())
	assert.True(t, e.HasLabels(testLabels))
	info, _ := e.Label("L2")
	assert.Equal(t, "first", info.FileName)

	e2, _ := res.Get(k2)
	assert.False(t, e2.HasLabels(testLabels))

	var seen []molecule.MoleculeKey
	for k := range res.All() {
		seen = append(seen, k)
		break
	}
	assert.Equal(t, []molecule.MoleculeKey{k1}, seen, "iteration stops early")
}

func TestNewLabelInfo(t *testing.T) {
	info := NewLabelInfo(summaryRow("AAAK#L1:4", "2", "run1", "C(1)", "no MS2;P12345"))
	assert.False(t, info.HasMS2ID)
	assert.Equal(t, "P12345", info.TrivialNames)
	assert.Equal(t, "P12345", info.Fields[FieldTrivialNames])
	assert.Equal(t, "run1", info.FileName)
	assert.Equal(t, "C(1)", info.Formula)
	assert.Equal(t, "AAAK#L1:4", info.Molecule)

	info = NewLabelInfo(summaryRow("AAAK#L1:4", "2", "run1", "C(1)", "P12345"))
	assert.True(t, info.HasMS2ID)
	assert.Equal(t, "P12345", info.TrivialNames)
}

func TestLabelInfoValue(t *testing.T) {
	info := NewLabelInfo(summaryRow("AAAK#L1:4", "2", "run1", "C(1)", ""))
	info.LenData = 4

	tests := []struct {
		field  string
		want   float64
		wantOK bool
	}{
		{FieldAUC, 1500.5, true},
		{FieldMaxI, 0, false},
		{FieldSumI, 0, false},
		{"not a field", 0, false},
		{FieldLenData, 4, true},
		{FieldCalcAUC, 0, false},
	}
	for _, tt := range tests {
		got, ok := info.Value(tt.field)
		assert.Equal(t, tt.wantOK, ok, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}

	info.Fields[FieldMaxI] = "NaN"
	_, ok := info.Value(FieldMaxI)
	assert.False(t, ok, "NaN is not numeric")

	info.Amounts = &WindowAmounts{AUC: 7}
	got, ok := info.Value(FieldCalcAUC)
	assert.True(t, ok)
	assert.Equal(t, 7.0, got)
}

func TestCalcAmounts(t *testing.T) {
	data := []core.MatchRecord{
		{RT: 11.0, Score: 0.9, ScalingFactor: 4},
		{RT: 10.0, Score: 0.8, ScalingFactor: 2},
		{RT: 12.0, Score: 0.7, ScalingFactor: 2},
		{RT: 20.0, Score: 0.9, ScalingFactor: 100},
	}

	w, ok := CalcAmounts(data, 10, 12, 0)
	require.True(t, ok)
	assert.Equal(t, 4.0, w.MaxI)
	assert.Equal(t, 11.0, w.MaxIRT)
	assert.Equal(t, 0.9, w.MaxIScore)
	assert.Equal(t, 8.0, w.SumI)
	assert.InDelta(t, 6.0, w.AUC, 1e-9)

	_, ok = CalcAmounts(data, 30, 40, 1)
	assert.False(t, ok)
}

func TestAggregate(t *testing.T) {
	table := matchTable("run1", "C(10)", "2", 0.9, 0.95, 0.99, 0.2)
	table.Add(quant.MatchKey{FileName: "run1", Formula: "C(11)", Charge: "2"}, core.MatchRecord{SpecID: "x", RT: 10, Score: 0.9, ScalingFactor: 5})

	rows := []map[string]string{
		summaryRow("AAAK#L1:4", "2", "run1", "C(10)", "P1"),
		summaryRow("AAAK#L2:4", "2", "run1", "C(11)", "no MS2;P1"),
		summaryRow("AAAK#Oxidation:1", "2", "run1", "C(12)", "P1"),
	}

	agg := NewAggregator(molecule.NewCodec(testLabels, 0), table, WithFilter(filter.Config{MinScore: 0.5}), WithRTTolerance(1))
	res, err := agg.Aggregate(context.Background(), SliceRows(rows))
	require.NoError(t, err)

	require.Equal(t, 1, res.Len(), "unlabeled row skipped, both labels share a key")
	key := molecule.MoleculeKey{Sequence: "AAAK", Charge: "2", LabelPosition: "4"}
	e, ok := res.Get(key)
	require.True(t, ok)
	assert.Equal(t, CurationRecord{}, e.Curation)

	l1, _ := e.Label("L1")
	assert.Equal(t, 3, l1.LenData, "low-score match rejected")
	assert.Len(t, l1.Data, 3)
	assert.True(t, l1.HasMS2ID)
	require.NotNil(t, l1.Amounts)
	assert.Equal(t, 600.0, l1.Amounts.SumI)

	l2, _ := e.Label("L2")
	assert.Equal(t, 1, l2.LenData)
	assert.False(t, l2.HasMS2ID)
}

func TestAggregateRecomputesData(t *testing.T) {
	table := matchTable("run1", "C(10)", "2", 0.9, 0.9)
	rows := []map[string]string{summaryRow("AAAK#L1:4", "2", "run1", "C(10)", "")}
	agg := NewAggregator(molecule.NewCodec(testLabels, 0), table)

	res, err := agg.Aggregate(context.Background(), SliceRows(rows))
	require.NoError(t, err)
	e, _ := res.Get(molecule.MoleculeKey{Sequence: "AAAK", Charge: "2", LabelPosition: "4"})
	info, _ := e.Label("L1")
	require.Equal(t, 2, info.LenData)

	// a second pass over the same entry replaces the data
	n, _, err := agg.attachMatches(context.Background(), e.Key, info)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, info.LenData)
	assert.Len(t, info.Data, 2)
}

func TestAggregateNormalizesCharge(t *testing.T) {
	table := matchTable("run1", "C(10)", "2", 0.9)
	table.Add(quant.MatchKey{FileName: "run1", Formula: "C(11)", Charge: "2"}, core.MatchRecord{SpecID: "x", RT: 10, Score: 0.9, ScalingFactor: 5})
	rows := []map[string]string{
		summaryRow("AAAK#L1:4", "2.0", "run1", "C(10)", ""),
		summaryRow("AAAK#L2:4", " 2", "run1", "C(11)", ""),
	}

	res, err := NewAggregator(molecule.NewCodec(testLabels, 0), table).Aggregate(context.Background(), SliceRows(rows))
	require.NoError(t, err)

	require.Equal(t, 1, res.Len(), "both spellings of the charge share a key")
	e, ok := res.Get(molecule.MoleculeKey{Sequence: "AAAK", Charge: "2", LabelPosition: "4"})
	require.True(t, ok)
	assert.True(t, e.HasLabels(testLabels))
	l1, _ := e.Label("L1")
	assert.Equal(t, 1, l1.LenData)
}

type failingSource struct{}

func (failingSource) ExtractMatches(context.Context, quant.Filter) ([]quant.Hit, error) {
	return nil, errors.New("engine unavailable")
}

type failingRows struct{}

func (failingRows) Next() bool { return false }
func (failingRows) Row() map[string]string { return nil }
func (failingRows) Err() error { return errors.New("broken file") }

func TestAggregateErrors(t *testing.T) {
	codec := molecule.NewCodec(testLabels, 0)
	rows := []map[string]string{summaryRow("AAAK#L1:4", "2", "run1", "C(10)", "")}

	_, err := NewAggregator(codec, failingSource{}).Aggregate(context.Background(), SliceRows(rows))
	assert.Error(t, err)

	_, err = NewAggregator(codec, quant.NewTable()).Aggregate(context.Background(), failingRows{})
	assert.Error(t, err)
}
