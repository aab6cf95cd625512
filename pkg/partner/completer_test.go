package partner_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/partner"
)

var labels = []string{"TEV_H", "TEV_L"}

func newSigner() *molecule.Signer {
	db := core.DefaultModDatabase()
	db.AddLabels(core.DefaultLabels())
	return molecule.NewSigner(db)
}

func newCompleter(t *testing.T) *partner.Completer {
	t.Helper()
	c, err := partner.NewCompleter(labels, newSigner(), nil)
	require.NoError(t, err)
	return c
}

func signature(t *testing.T, m string) string {
	t.Helper()
	sig, err := newSigner().Signature(m)
	require.NoError(t, err)
	return sig
}

func TestNewCompleterLabelCount(t *testing.T) {
	for _, ls := range [][]string{nil, {"A"}, {"A", "B", "C"}, {"A", "A"}, {"", "B"}} {
		_, err := partner.NewCompleter(ls, nil, nil)
		assert.True(t, errors.Is(err, partner.ErrLabelCount), "labels %v", ls)
	}
}

func TestPartner(t *testing.T) {
	c := newCompleter(t)

	tests := []struct {
		molecule string
		want     string
		ok       bool
	}{
		{"PEPTIDEK#TEV_H:8", "PEPTIDEK#TEV_L:8", true},
		{"PEPTIDEK#Oxidation:1;TEV_L:8", "PEPTIDEK#Oxidation:1;TEV_H:8", true},
		{"PEPTIDEK#Oxidation:1", "", false},
		{"PEPTIDEKK#TEV_H:8;TEV_L:9", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Partner(tt.molecule)
		assert.Equal(t, tt.ok, ok, tt.molecule)
		assert.Equal(t, tt.want, got, tt.molecule)
	}
}

func TestCompleteFiltersAndSynthesizes(t *testing.T) {
	c := newCompleter(t)
	molecules := []string{
		"PEPTIDEK#TEV_H:8",
		"PEPTIDEK#TEV_L:8",
		"AAAK#TEV_L:4",
		"AAAK#Oxidation:1",         // unlabeled
		"AAKK#TEV_H:3;TEV_H:4",     // doubly labeled
		"MAAK#Oxidation:1;TEV_H:4", // needs a partner
	}

	got := c.Complete(molecules, nil)

	assert.Equal(t, []string{
		"PEPTIDEK#TEV_H:8",
		"PEPTIDEK#TEV_L:8",
		"AAAK#TEV_L:4",
		"MAAK#Oxidation:1;TEV_H:4",
		"AAAK#TEV_H:4",
		"MAAK#Oxidation:1;TEV_L:4",
	}, got)
}

func TestCompleteEveryMoleculeHasPartner(t *testing.T) {
	c := newCompleter(t)
	got := c.Complete([]string{"AAAK#TEV_L:4", "GGK#TEV_H:3", "CAK#TEV_H:3;Carbamidomethyl:1", "K"}, nil)

	for _, m := range got {
		assert.Equal(t, 1, c.LabelCount(m), m)
		p, ok := c.Partner(m)
		require.True(t, ok)
		assert.Contains(t, got, p, "partner of %s", m)
	}
	assert.Len(t, got, 6)
}

func TestCompleteIdempotent(t *testing.T) {
	c := newCompleter(t)
	input := []string{"AAAK#TEV_L:4", "GGK#TEV_H:3", "PEPTIDEK#TEV_H:8", "PEPTIDEK#TEV_L:8", "X"}

	once := c.Complete(slices.Clone(input), partner.EvidenceLookup{})
	twice := c.Complete(c.Complete(slices.Clone(input), partner.EvidenceLookup{}), partner.EvidenceLookup{})
	assert.Equal(t, once, twice)

	again := c.Complete(slices.Clone(once), nil)
	assert.Equal(t, once, again, "completing a completed list is a no-op")
}

func TestCompleteCopiesEvidence(t *testing.T) {
	c := newCompleter(t)
	heavy := "AAAK#TEV_H:4"
	light := "AAAK#TEV_L:4"

	lookup := partner.EvidenceLookup{}
	original := &partner.Evidence{
		Evidences:    []map[string]any{{"Spectrum ID": "101", "Retention Time (s)": 612.4, "PEP": 1e-5}},
		TrivialNames: []string{"P12345"},
	}
	lookup.Put(signature(t, heavy), heavy, original)

	got := c.Complete([]string{heavy}, lookup)
	assert.Equal(t, []string{heavy, light}, got)

	copied, ok := lookup.Get(signature(t, light), light)
	require.True(t, ok, "partner indexed under its own signature")
	assert.Equal(t, original.Evidences, copied.Evidences)
	assert.Equal(t, []string{"P12345", partner.NoMS2Marker}, copied.TrivialNames)
	assert.False(t, copied.HasMS2())

	// the original evidence is untouched
	assert.Equal(t, []string{"P12345"}, original.TrivialNames)
	assert.True(t, original.HasMS2())
	copied.Evidences[0]["Spectrum ID"] = "999"
	assert.Equal(t, "101", original.Evidences[0]["Spectrum ID"])
}

func TestEvidenceCloneIsDeep(t *testing.T) {
	original := &partner.Evidence{
		Evidences: []map[string]any{{
			"rt":     12.5,
			"scans":  []any{101, 102},
			"source": map[string]any{"file": "run1.mzML"},
		}},
	}
	copied := original.Clone()
	require.Equal(t, original, copied)

	copied.Evidences[0]["scans"].([]any)[0] = 999
	copied.Evidences[0]["source"].(map[string]any)["file"] = "other.mzML"
	assert.Equal(t, []any{101, 102}, original.Evidences[0]["scans"])
	assert.Equal(t, map[string]any{"file": "run1.mzML"}, original.Evidences[0]["source"])
}

func TestCompleteWithoutEvidence(t *testing.T) {
	c := newCompleter(t)
	lookup := partner.EvidenceLookup{}

	got := c.Complete([]string{"AAAK#TEV_H:4", "AAAK#TEV_H:4;Unknown:2"}, lookup)
	assert.Len(t, got, 4)
	assert.Empty(t, lookup, "no evidence to copy")
}

func TestEvidenceLookupMolecules(t *testing.T) {
	lookup := partner.EvidenceLookup{}
	lookup.Put("sig1", "B", &partner.Evidence{})
	lookup.Put("sig1", "A", &partner.Evidence{})
	lookup.Put("sig2", "C", &partner.Evidence{})

	assert.Equal(t, []string{"A", "B", "C"}, lookup.Molecules())
	assert.Len(t, lookup["sig1"], 2, "Put keeps siblings under the same signature")
}
