package partner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrLabelCount is returned when a completer is not configured with
// exactly two labels.
var ErrLabelCount = errors.New("partner completion requires exactly two labels")

// Signer computes the composition signature of an encoded molecule.
type Signer interface {
	Signature(molecule string) (string, error)
}

// Completer synthesizes missing complementary-label molecules.
type Completer struct {
	labels [2]string
	signer Signer
	logger *zap.Logger
}

// NewCompleter creates a completer for a binary label set.
func NewCompleter(labels []string, signer Signer, logger *zap.Logger) (*Completer, error) {
	if len(labels) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrLabelCount, len(labels))
	}
	if labels[0] == "" || labels[1] == "" || labels[0] == labels[1] {
		return nil, fmt.Errorf("%w: labels must be distinct and non-empty", ErrLabelCount)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		labels: [2]string{labels[0], labels[1]},
		signer: signer,
		logger: logger,
	}, nil
}

// LabelCount returns the number of label occurrences in molecule.
func (c *Completer) LabelCount(molecule string) int {
	n := 0
	for _, label := range c.labels {
		n += strings.Count(molecule, label)
	}
	return n
}

// Partner returns the complementary-label molecule. It reports false
// unless molecule carries exactly one label.
func (c *Completer) Partner(molecule string) (string, bool) {
	if c.LabelCount(molecule) != 1 {
		return "", false
	}
	current, partner := c.labels[0], c.labels[1]
	if !strings.Contains(molecule, current) {
		current, partner = partner, current
	}
	return strings.Replace(molecule, current, partner, 1), true
}

// Complete drops every molecule that does not carry exactly one label and
// appends the missing partner of every remaining molecule. Evidence of a
// molecule is copied to its synthesized partner, flagged with
// NoMS2Marker. The input slice is reused; callers must use the returned
// slice. Running Complete on its own output is a no-op.
func (c *Completer) Complete(molecules []string, lookup EvidenceLookup) []string {
	kept := molecules[:0]
	for _, m := range molecules {
		if c.LabelCount(m) == 1 {
			kept = append(kept, m)
		}
	}
	dropped := len(molecules) - len(kept)
	c.logger.Info("Filtered molecule list",
		zap.Int("kept", len(kept)),
		zap.Int("dropped", dropped))

	present := make(map[string]struct{}, len(kept)*2)
	for _, m := range kept {
		present[m] = struct{}{}
	}

	n := len(kept)
	synthesized := 0
	for i := 0; i < n; i++ {
		molecule := kept[i]
		partner, _ := c.Partner(molecule)
		if _, ok := present[partner]; ok {
			continue
		}

		kept = append(kept, partner)
		present[partner] = struct{}{}
		synthesized++

		if lookup != nil {
			c.copyEvidence(molecule, partner, lookup)
		}
	}

	c.logger.Info("Completed label pairs",
		zap.Int("molecules", len(kept)),
		zap.Int("synthesized", synthesized))

	return kept
}

// copyEvidence indexes the evidence of molecule for its partner under the
// partner's composition signature.
func (c *Completer) copyEvidence(molecule, partner string, lookup EvidenceLookup) {
	if c.signer == nil {
		return
	}

	sig, err := c.signer.Signature(molecule)
	if err != nil {
		c.logger.Warn("Cannot compute signature, partner has no evidence",
			zap.String("molecule", molecule), zap.Error(err))
		return
	}
	ev, ok := lookup.Get(sig, molecule)
	if !ok {
		c.logger.Debug("No evidence for molecule", zap.String("molecule", molecule))
		return
	}

	partnerSig, err := c.signer.Signature(partner)
	if err != nil {
		c.logger.Warn("Cannot compute partner signature",
			zap.String("partner", partner), zap.Error(err))
		return
	}

	copied := ev.Clone()
	copied.TrivialNames = append(copied.TrivialNames, NoMS2Marker)
	lookup.Put(partnerSig, partner, copied)
}
