// Package molecule reconstructs canonical peptide/label identities from
// encoded molecule strings such as "PEPTIDEK#TEV_H:8;Oxidation:2".
package molecule

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

const (
	// ModMarker starts the modification block of an encoded molecule.
	ModMarker = "#"

	// NoLabelPosition marks a molecule without a known label.
	NoLabelPosition = "-1"
)

// MoleculeKey identifies a peptide at a label site. The label itself is
// not part of the key.
type MoleculeKey struct {
	Sequence      string
	Charge        string
	LabelPosition string
	Mods          string
}

// String returns the key in format "Sequence/Charge@LabelPosition[Mods]".
func (k MoleculeKey) String() string {
	s := fmt.Sprintf("%s/%s@%s", k.Sequence, k.Charge, k.LabelPosition)
	if k.Mods != "" {
		s += "[" + k.Mods + "]"
	}
	return s
}

// Decoded holds the parts of an encoded molecule string. Label is empty
// when no known label was found.
type Decoded struct {
	Sequence      string
	Label         string
	LabelPosition string
	Mods          string
}

// Labeled reports whether a known label was found.
func (d Decoded) Labeled() bool {
	return d.Label != ""
}

// Key builds the MoleculeKey for the decoded molecule at a charge.
func (d Decoded) Key(charge string) MoleculeKey {
	return MoleculeKey{
		Sequence:      d.Sequence,
		Charge:        charge,
		LabelPosition: d.LabelPosition,
		Mods:          d.Mods,
	}
}

// Codec decodes and encodes molecule strings for a fixed set of labels.
type Codec struct {
	labels []string

	// PrefixOffset is the number of characters dropped between the end of
	// the sequence and the modification marker. Zero keeps everything
	// before the marker.
	PrefixOffset int
}

// NewCodec creates a codec for the given label names.
func NewCodec(labels []string, prefixOffset int) *Codec {
	return &Codec{
		labels:       append([]string(nil), labels...),
		PrefixOffset: prefixOffset,
	}
}

// Labels returns the label names known to the codec.
func (c *Codec) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Decode splits an encoded molecule into sequence, label, label position
// and remaining modifications. It never fails: a molecule without a known
// label decodes with an empty Label and NoLabelPosition.
func (c *Codec) Decode(molecule string) Decoded {
	d := Decoded{LabelPosition: NoLabelPosition}

	markerIdx := strings.Index(molecule, ModMarker)
	if markerIdx < 0 {
		d.Sequence = molecule
		return d
	}

	end := markerIdx - c.PrefixOffset
	if end < 0 {
		end = 0
	}
	if end > len(molecule) {
		end = len(molecule)
	}
	d.Sequence = molecule[:end]
	block := molecule[markerIdx+len(ModMarker):]

	for _, label := range c.labels {
		pos := strings.Index(block, label)
		if pos < 0 {
			continue
		}
		d.Label = label

		rest := block[pos+len(label):]
		token := label
		if strings.HasPrefix(rest, ":") {
			rest = rest[1:]
			token += ":"
		}
		if sep := strings.Index(rest, core.ModSeparator); sep >= 0 {
			rest = rest[:sep]
		}
		token += rest
		if rest != "" {
			d.LabelPosition = rest
		}

		block = strings.Replace(block, token, "", 1)
		break
	}

	d.Mods = NormalizeMods(block)
	return d
}

// Encode is the inverse of Decode for PrefixOffset 0.
func (c *Codec) Encode(d Decoded) string {
	var parts []string
	if d.Label != "" {
		parts = append(parts, d.Label+":"+d.LabelPosition)
	}
	if mods := NormalizeMods(d.Mods); mods != "" {
		parts = append(parts, mods)
	}
	if len(parts) == 0 {
		return d.Sequence
	}
	return d.Sequence + ModMarker + strings.Join(parts, core.ModSeparator)
}

// NormalizeMods collapses doubled separators and strips a leading and a
// trailing separator.
func NormalizeMods(mods string) string {
	doubled := core.ModSeparator + core.ModSeparator
	for strings.Contains(mods, doubled) {
		mods = strings.ReplaceAll(mods, doubled, core.ModSeparator)
	}
	mods = strings.TrimPrefix(mods, core.ModSeparator)
	mods = strings.TrimSuffix(mods, core.ModSeparator)
	return mods
}
