// Package core provides modification parsing and management
package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ModSeparator separates entries of an encoded modification block.
const ModSeparator = ";"

// ModDef describes a modification (or label) by its mass shift and the
// elemental composition it adds to a peptide.
type ModDef struct {
	Name        string
	Mass        float64
	Composition Composition
}

// Label is a chemical tag attached to a peptide to build a label pair.
type Label struct {
	Name        string      `mapstructure:"name" yaml:"name" json:"name"`
	Mass        float64     `mapstructure:"mass" yaml:"mass" json:"mass"`
	Composition Composition `mapstructure:"composition" yaml:"composition" json:"composition"`
}

// Def returns the label as a modification definition.
func (l Label) Def() ModDef {
	return ModDef{Name: l.Name, Mass: l.Mass, Composition: l.Composition.Clone()}
}

// DefaultLabels returns the heavy/light TEV label pair.
func DefaultLabels() []Label {
	return []Label{
		{
			Name:        "TEV_H",
			Mass:        470.26338,
			Composition: Composition{"C": 15, "13C": 5, "H": 32, "N": 7, "15N": 1, "O": 5},
		},
		{
			Name:        "TEV_L",
			Mass:        464.24957,
			Composition: Composition{"C": 20, "H": 32, "N": 8, "O": 5},
		},
	}
}

// LabelNames returns the names of labels in order.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

// Modification is one "name:position" entry of an encoded molecule.
// Position is kept as written (numeric or symbolic).
type Modification struct {
	Name     string
	Position string
}

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]ModDef // name -> definition
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]ModDef),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift,composition)
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	if scanner.Scan() {
		// header line
	}

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			return fmt.Errorf("line %d: invalid format, expected 3 comma-separated fields (mod,massshift,composition)", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		comp, err := ParseComposition(parts[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		db.Add(ModDef{Name: modName, Mass: mass, Composition: comp})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// Get returns the definition for a modification name
func (db *ModDatabase) Get(name string) (ModDef, bool) {
	def, ok := db.mods[name]
	return def, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(def ModDef) {
	db.mods[def.Name] = def
}

// AddLabels registers every label as a modification.
func (db *ModDatabase) AddLabels(labels []Label) {
	for _, l := range labels {
		db.Add(l.Def())
	}
}

// Len returns the number of known modifications.
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// ParseModString parses a modification block like "Oxidation:2;TEV_H:8".
// The position is everything after the last ':' of an entry.
func ParseModString(modStr string) ([]Modification, error) {
	if modStr == "" {
		return nil, nil
	}

	var mods []Modification
	for _, part := range strings.Split(modStr, ModSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name:position'", part)
		}

		mods = append(mods, Modification{
			Name:     strings.TrimSpace(part[:idx]),
			Position: strings.TrimSpace(part[idx+1:]),
		})
	}

	return mods, nil
}

// Composition sums the compositions of the given modifications.
func (db *ModDatabase) Composition(mods []Modification) (Composition, error) {
	comp := Composition{}
	for _, mod := range mods {
		def, ok := db.Get(mod.Name)
		if !ok {
			return nil, fmt.Errorf("unknown modification '%s'", mod.Name)
		}
		comp.Add(def.Composition)
	}
	return comp, nil
}

func mustComposition(s string) Composition {
	comp, err := ParseComposition(s)
	if err != nil {
		panic(err)
	}
	return comp
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	for _, m := range []struct {
		name string
		mass float64
		comp string
	}{
		{"Acetyl", 42.010565, "C(2)H(2)O(1)"},
		{"Amidated", -0.984016, "H(1)N(1)O(-1)"},
		{"Carbamidomethyl", 57.021464, "C(2)H(3)N(1)O(1)"},
		{"Carbamyl", 43.005814, "C(1)H(1)N(1)O(1)"},
		{"Deamidated", 0.984016, "H(-1)N(-1)O(1)"},
		{"Dehydrated", -18.010565, "H(-2)O(-1)"},
		{"Glu->pyro-Glu", -18.010565, "H(-2)O(-1)"},
		{"Gln->pyro-Glu", -17.026549, "H(-3)N(-1)"},
		{"Methyl", 14.01565, "C(1)H(2)"},
		{"Dimethyl", 28.0313, "C(2)H(4)"},
		{"Trimethyl", 42.04695, "C(3)H(6)"},
		{"Oxidation", 15.994915, "O(1)"},
		{"Phospho", 79.966331, "H(1)O(3)P(1)"},
		{"Propionamide", 71.037114, "C(3)H(5)N(1)O(1)"},
		{"Sulfo", 79.956815, "O(3)S(1)"},
		{"Hex", 162.052824, "C(6)H(10)O(5)"},
		{"HexNAc", 203.079373, "C(8)H(13)N(1)O(5)"},
		{"TMT6plex", 229.162932, "C(8)13C(4)H(20)N(1)15N(1)O(2)"},
		{"iTRAQ4plex", 144.102063, "C(4)13C(3)H(12)N(1)15N(1)O(1)"},
	} {
		db.Add(ModDef{Name: m.name, Mass: m.mass, Composition: mustComposition(m.comp)})
	}

	return db
}
