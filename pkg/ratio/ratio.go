// Package ratio computes abundance ratios between the two labels of every
// aggregated MoleculeKey.
package ratio

import (
	"iter"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// Saturated is the ratio reported when only the numerator has signal.
const Saturated = 20.0

// Ratio divides num by den. Both zero gives 0; a zero denominator with a
// non-zero numerator gives Saturated.
func Ratio(num, den float64) float64 {
	switch {
	case num == 0 && den == 0:
		return 0
	case den == 0:
		return Saturated
	}
	return num / den
}

// Value reads field of label from an entry. A missing label, a missing
// field or a non-numeric value reads as 0.
func Value(e *results.Entry, label, field string) float64 {
	info, ok := e.Label(label)
	if !ok {
		return 0
	}
	v, ok := info.Value(field)
	if !ok {
		return 0
	}
	return v
}

// Ratios yields labelA/labelB of field for every key in insertion order.
// The sequence holds no state; every iteration recomputes from res.
func Ratios(res *results.Results, labelA, labelB, field string) iter.Seq2[molecule.MoleculeKey, float64] {
	return func(yield func(molecule.MoleculeKey, float64) bool) {
		for key, e := range res.All() {
			r := Ratio(Value(e, labelA, field), Value(e, labelB, field))
			if !yield(key, r) {
				return
			}
		}
	}
}
