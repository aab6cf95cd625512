// Package core provides chemistry calculations for labeled peptides:
// elemental compositions, Hill notation signatures and m/z values.
package core

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Atomic masses (monoisotopic)
const (
	MassH   = 1.0078250321
	MassC   = 12.0000000000
	MassN   = 14.0030740052
	MassO   = 15.9949146221
	MassS   = 31.9720706900
	MassP   = 30.9737615100
	Mass13C = 13.0033548378
	Mass15N = 15.0001088984
	Mass2H  = 2.0141017778
	Mass18O = 17.9991610000

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
)

// elementMasses maps element (or isotope) symbols to monoisotopic masses.
var elementMasses = map[string]float64{
	"H":   MassH,
	"C":   MassC,
	"N":   MassN,
	"O":   MassO,
	"S":   MassS,
	"P":   MassP,
	"13C": Mass13C,
	"15N": Mass15N,
	"2H":  Mass2H,
	"18O": Mass18O,
}

// Composition stores an elemental composition as symbol -> atom count.
// Isotopes are written with their mass number prefix ("13C", "15N").
type Composition map[string]int

// Water is added once per peptide.
var Water = Composition{"H": 2, "O": 1}

// AminoAcidCompositions maps amino acid one-letter codes to residue compositions
var AminoAcidCompositions = map[rune]Composition{
	'A': {"C": 3, "H": 5, "N": 1, "O": 1},
	'R': {"C": 6, "H": 12, "N": 4, "O": 1},
	'N': {"C": 4, "H": 6, "N": 2, "O": 2},
	'D': {"C": 4, "H": 5, "N": 1, "O": 3},
	'C': {"C": 3, "H": 5, "N": 1, "O": 1, "S": 1},
	'E': {"C": 5, "H": 7, "N": 1, "O": 3},
	'Q': {"C": 5, "H": 8, "N": 2, "O": 2},
	'G': {"C": 2, "H": 3, "N": 1, "O": 1},
	'H': {"C": 6, "H": 7, "N": 3, "O": 1},
	'I': {"C": 6, "H": 11, "N": 1, "O": 1},
	'L': {"C": 6, "H": 11, "N": 1, "O": 1},
	'K': {"C": 6, "H": 12, "N": 2, "O": 1},
	'M': {"C": 5, "H": 9, "N": 1, "O": 1, "S": 1},
	'F': {"C": 9, "H": 9, "N": 1, "O": 1},
	'P': {"C": 5, "H": 7, "N": 1, "O": 1},
	'S': {"C": 3, "H": 5, "N": 1, "O": 2},
	'T': {"C": 4, "H": 7, "N": 1, "O": 2},
	'W': {"C": 11, "H": 10, "N": 2, "O": 1},
	'Y': {"C": 9, "H": 9, "N": 1, "O": 2},
	'V': {"C": 5, "H": 9, "N": 1, "O": 1},
}

// Add adds every count of other to c, allocating c if needed.
func (c Composition) Add(other Composition) Composition {
	if c == nil {
		c = make(Composition, len(other))
	}
	for sym, n := range other {
		c[sym] += n
	}
	return c
}

// Clone returns an independent copy of c.
func (c Composition) Clone() Composition {
	return Composition(nil).Add(c)
}

// MonoisotopicMass returns the neutral monoisotopic mass of the composition.
// Unknown element symbols are reported as an error.
func (c Composition) MonoisotopicMass() (float64, error) {
	mass := 0.0
	for sym, n := range c {
		m, ok := elementMasses[sym]
		if !ok {
			return 0, fmt.Errorf("unknown element %q", sym)
		}
		mass += float64(n) * m
	}
	return mass, nil
}

// splitSymbol separates an isotope prefix from the element symbol,
// e.g. "13C" -> ("C", 13) and "N" -> ("N", 0).
func splitSymbol(sym string) (string, int) {
	i := 0
	for i < len(sym) && sym[i] >= '0' && sym[i] <= '9' {
		i++
	}
	if i == 0 {
		return sym, 0
	}
	n, _ := strconv.Atoi(sym[:i])
	return sym[i:], n
}

// HillNotation renders the composition in Hill order: carbon first,
// hydrogen second, then the remaining elements alphabetically. Isotopes
// follow their light element. Zero counts are omitted and every count is
// written in parentheses, e.g. "C(2)13C(1)H(5)N(1)O(2)".
func (c Composition) HillNotation() string {
	syms := make([]string, 0, len(c))
	hasCarbon := false
	for sym, n := range c {
		if n == 0 {
			continue
		}
		if base, _ := splitSymbol(sym); base == "C" {
			hasCarbon = true
		}
		syms = append(syms, sym)
	}

	rank := func(base string) int {
		if !hasCarbon {
			return 2
		}
		switch base {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}

	sort.Slice(syms, func(i, j int) bool {
		bi, ii := splitSymbol(syms[i])
		bj, ij := splitSymbol(syms[j])
		if ri, rj := rank(bi), rank(bj); ri != rj {
			return ri < rj
		}
		if bi != bj {
			return bi < bj
		}
		return ii < ij
	})

	var sb strings.Builder
	for _, sym := range syms {
		fmt.Fprintf(&sb, "%s(%d)", sym, c[sym])
	}
	return sb.String()
}

var compositionToken = regexp.MustCompile(`(\d*[A-Z][a-z]?)(?:\((-?\d+)\)|(-?\d+))?`)

// ParseComposition parses compositions such as "C(2)H(3)N(1)O(1)",
// "C2H3NO" or "H(-1)N(-1)O". A symbol without a count counts once.
// Isotope symbols need the parenthesized form ("C(5)13C(2)"), a bare
// count would absorb the mass number.
func ParseComposition(s string) (Composition, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	comp := Composition{}
	if s == "" {
		return comp, nil
	}

	rest := s
	for rest != "" {
		loc := compositionToken.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			return nil, fmt.Errorf("invalid composition %q near %q", s, rest)
		}
		sym := rest[loc[2]:loc[3]]
		if _, ok := elementMasses[sym]; !ok {
			return nil, fmt.Errorf("invalid composition %q: unknown element %q", s, sym)
		}

		count := 1
		var numStr string
		if loc[4] >= 0 {
			numStr = rest[loc[4]:loc[5]]
		} else if loc[6] >= 0 {
			numStr = rest[loc[6]:loc[7]]
		}
		if numStr != "" {
			n, err := strconv.Atoi(numStr)
			if err != nil {
				return nil, fmt.Errorf("invalid composition %q: %w", s, err)
			}
			count = n
		}

		comp[sym] += count
		rest = rest[loc[1]:]
	}
	return comp, nil
}

// PeptideComposition returns the composition of the unmodified peptide
// including one water. Unknown residues are an error.
func PeptideComposition(sequence string) (Composition, error) {
	comp := Water.Clone()
	for i, aa := range sequence {
		aaComp, ok := AminoAcidCompositions[aa]
		if !ok {
			return nil, fmt.Errorf("unknown residue %q at position %d in %s", aa, i, sequence)
		}
		comp.Add(aaComp)
	}
	return comp, nil
}

// CalculateMZ returns the m/z of a composition for a given charge state.
func CalculateMZ(comp Composition, charge int) (float64, error) {
	if charge <= 0 {
		return 0, fmt.Errorf("charge must be positive, got %d", charge)
	}
	mass, err := comp.MonoisotopicMass()
	if err != nil {
		return 0, err
	}

	// Calculate m/z: (mass + charge * proton) / charge
	return (mass + float64(charge)*ProtonMass) / float64(charge), nil
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
