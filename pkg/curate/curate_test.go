package curate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/filter"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/quant"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

var labels = []string{"L1", "L2"}

func key(seq string) molecule.MoleculeKey {
	return molecule.MoleculeKey{Sequence: seq, Charge: "2", LabelPosition: "3"}
}

func withData(n int) *results.LabelInfo {
	info := results.NewLabelInfo(map[string]string{})
	info.Data = make([]core.MatchRecord, n)
	info.LenData = n
	return info
}

func TestHasRequiredMatches(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   bool
	}{
		{"both labels above threshold", map[string]int{"L1": 3, "L2": 5}, true},
		{"one label below threshold", map[string]int{"L1": 3, "L2": 2}, false},
		{"missing label", map[string]int{"L1": 10}, false},
		{"no matches", map[string]int{"L1": 0, "L2": 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := results.New(labels)
			for _, l := range labels {
				if n, ok := tt.counts[l]; ok {
					res.Upsert(key("A"), l, withData(n))
				}
			}
			e, _ := res.Get(key("A"))
			assert.Equal(t, tt.want, HasRequiredMatches(e, labels, 3))
		})
	}
}

func TestCurateIdempotentUnlessForced(t *testing.T) {
	res := results.New(labels)
	res.Upsert(key("A"), "L1", withData(3))
	l2 := withData(4)
	res.Upsert(key("A"), "L2", l2)

	c := New(nil)
	s := c.Curate(res, 3, nil, false)
	assert.Equal(t, Summary{Evaluated: 1, Passed: 1}, s)

	e, _ := res.Get(key("A"))
	assert.Equal(t, results.CurationRecord{RequiredMatches: 3, HasRequiredMatches: true, Curated: true}, e.Curation)

	// dropping one label's data below the threshold is ignored until forced
	l2.Data = l2.Data[:1]
	l2.LenData = 1
	s = c.Curate(res, 3, nil, false)
	assert.Equal(t, Summary{Skipped: 1}, s)
	assert.True(t, e.Curation.HasRequiredMatches)

	s = c.Curate(res, 3, nil, true)
	assert.Equal(t, Summary{Evaluated: 1}, s)
	assert.Equal(t, results.CurationRecord{RequiredMatches: 3, HasRequiredMatches: false, Curated: true}, e.Curation)

	s = c.Curate(res, 1, nil, true)
	assert.Equal(t, results.CurationRecord{RequiredMatches: 1, HasRequiredMatches: true, Curated: true}, e.Curation)
	assert.Equal(t, 1, s.Passed)
}

func TestCurateKeySubset(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	c := New(zap.New(obs))

	res := results.New(labels)
	for _, seq := range []string{"A", "B"} {
		res.Upsert(key(seq), "L1", withData(5))
		res.Upsert(key(seq), "L2", withData(5))
	}

	s := c.Curate(res, 3, []molecule.MoleculeKey{key("B"), key("Z")}, false)
	assert.Equal(t, Summary{Evaluated: 1, Passed: 1, Missing: 1}, s)

	a, _ := res.Get(key("A"))
	b, _ := res.Get(key("B"))
	assert.False(t, a.Curation.Curated, "keys outside the subset stay uncurated")
	assert.True(t, b.Curation.Curated)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Requested curation key not in results", logs.All()[0].Message)
}

func TestAggregateThenCurateMissingPartner(t *testing.T) {
	table := quant.NewTable()
	for i, score := range []float64{0.91, 0.93, 0.95, 0.97} {
		table.Add(quant.MatchKey{FileName: "run1.mzML", Formula: "C(40)", Charge: "2"}, core.MatchRecord{
			SpecID:        "scan=" + string(rune('1'+i)),
			RT:            10 + float64(i)*0.1,
			Score:         score,
			ScalingFactor: 1000,
		})
	}

	rows := []map[string]string{{
		results.FieldFileName:     "run1.mzML",
		results.FieldTrivialNames: "P1",
		results.FieldFormula:      "C(40)",
		results.FieldMolecule:     "PEPTIDE#L1:3",
		results.FieldCharge:       "2",
		results.FieldStart:        "9.5",
		results.FieldStop:         "11",
	}}

	agg := results.NewAggregator(molecule.NewCodec(labels, 0), table, results.WithFilter(filter.Config{MinScore: 0.9}))
	res, err := agg.Aggregate(context.Background(), results.SliceRows(rows))
	require.NoError(t, err)

	require.Equal(t, 1, res.Len())
	k := molecule.MoleculeKey{Sequence: "PEPTIDE", Charge: "2", LabelPosition: "3"}
	e, ok := res.Get(k)
	require.True(t, ok)
	assert.Equal(t, []string{"L1"}, e.Labels())
	l1, _ := e.Label("L1")
	assert.Equal(t, 4, l1.LenData)

	New(nil).Curate(res, 3, nil, false)
	assert.Equal(t, results.CurationRecord{RequiredMatches: 3, HasRequiredMatches: false, Curated: true}, e.Curation)
}
