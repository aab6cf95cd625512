package molecule

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

// Signer computes composition signatures of encoded molecules. Two
// molecules share a signature when they have the same elemental
// composition.
type Signer struct {
	mods *core.ModDatabase
}

// NewSigner creates a signer resolving modification names through db.
func NewSigner(db *core.ModDatabase) *Signer {
	if db == nil {
		db = core.DefaultModDatabase()
	}
	return &Signer{mods: db}
}

// Composition returns the elemental composition of an encoded molecule:
// residues, one water and every modification of the block.
func (s *Signer) Composition(molecule string) (core.Composition, error) {
	sequence, block := molecule, ""
	if idx := strings.Index(molecule, ModMarker); idx >= 0 {
		sequence, block = molecule[:idx], molecule[idx+len(ModMarker):]
	}

	comp, err := core.PeptideComposition(sequence)
	if err != nil {
		return nil, fmt.Errorf("molecule %s: %w", molecule, err)
	}

	mods, err := core.ParseModString(block)
	if err != nil {
		return nil, fmt.Errorf("molecule %s: %w", molecule, err)
	}
	modComp, err := s.mods.Composition(mods)
	if err != nil {
		return nil, fmt.Errorf("molecule %s: %w", molecule, err)
	}

	return comp.Add(modComp), nil
}

// Signature returns the Hill notation of the molecule's composition.
func (s *Signer) Signature(molecule string) (string, error) {
	comp, err := s.Composition(molecule)
	if err != nil {
		return "", err
	}
	return comp.HillNotation(), nil
}

// MZ returns the theoretical m/z of the molecule at the given charge.
func (s *Signer) MZ(molecule string, charge int) (float64, error) {
	comp, err := s.Composition(molecule)
	if err != nil {
		return 0, err
	}
	return core.CalculateMZ(comp, charge)
}
