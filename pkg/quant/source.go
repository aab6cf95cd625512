// Package quant is the boundary to the isotopologue quantification engine.
// The engine produces match records; this package only selects them.
package quant

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

// Filter selects matches. An empty field matches everything.
type Filter struct {
	Charges   []string
	FileNames []string
	Formulas  []string
	Molecules []string
}

// MatchKey identifies the molecule and run a match belongs to.
type MatchKey struct {
	FileName string
	Formula  string
	Charge   string
	Molecule string
}

// Hit is one extracted match together with its key and its index among
// the matches of that key.
type Hit struct {
	Key    MatchKey
	Index  int
	Record core.MatchRecord
}

// Source is the read-only match-extraction capability of the
// quantification engine.
type Source interface {
	ExtractMatches(ctx context.Context, f Filter) ([]Hit, error)
}

// Matches reports whether key passes the filter.
func (f Filter) Matches(key MatchKey) bool {
	if len(f.Charges) > 0 && !slices.ContainsFunc(f.Charges, func(c string) bool {
		return NormalizeCharge(c) == NormalizeCharge(key.Charge)
	}) {
		return false
	}
	if len(f.FileNames) > 0 && !slices.Contains(f.FileNames, key.FileName) {
		return false
	}
	if len(f.Formulas) > 0 && !slices.Contains(f.Formulas, key.Formula) {
		return false
	}
	if len(f.Molecules) > 0 && !slices.Contains(f.Molecules, key.Molecule) {
		return false
	}
	return true
}

// NormalizeCharge renders integer-like charges ("2", " 2", "2.0") the same
// way. Other values are returned trimmed.
func NormalizeCharge(charge string) string {
	charge = strings.TrimSpace(charge)
	if n, err := strconv.Atoi(charge); err == nil {
		return strconv.Itoa(n)
	}
	if f, err := strconv.ParseFloat(charge, 64); err == nil && f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return charge
}
