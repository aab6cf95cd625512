// Package partner completes label pairs: for every molecule carrying
// exactly one label it makes sure the complementary-label molecule is
// present, copying MS2 evidence to partners that were never sequenced.
package partner

import (
	"maps"
	"slices"
)

// NoMS2Marker is appended to the trivial names of synthesized partners.
const NoMS2Marker = "no MS2"

// Evidence is the MS2 sequencing support recorded for a molecule.
type Evidence struct {
	Evidences    []map[string]any `yaml:"evidences" json:"evidences"`
	TrivialNames []string         `yaml:"trivial_names" json:"trivial_names"`
}

// Clone returns a deep copy of the evidence.
func (e *Evidence) Clone() *Evidence {
	c := &Evidence{
		TrivialNames: slices.Clone(e.TrivialNames),
	}
	if e.Evidences != nil {
		c.Evidences = make([]map[string]any, len(e.Evidences))
		for i, ev := range e.Evidences {
			c.Evidences[i] = cloneMap(ev)
		}
	}
	return c
}

// cloneMap deep-copies decoded YAML/JSON values.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	}
	return v
}

// HasMS2 reports whether the molecule was sequenced itself rather than
// inferred from its partner.
func (e *Evidence) HasMS2() bool {
	return !slices.Contains(e.TrivialNames, NoMS2Marker)
}

// EvidenceLookup maps a composition signature to the evidence of every
// molecule with that composition.
type EvidenceLookup map[string]map[string]*Evidence

// Get returns the evidence of molecule under signature.
func (l EvidenceLookup) Get(signature, molecule string) (*Evidence, bool) {
	ev, ok := l[signature][molecule]
	return ev, ok
}

// Put stores evidence for molecule under signature, keeping the other
// molecules indexed under the same signature.
func (l EvidenceLookup) Put(signature, molecule string, ev *Evidence) {
	inner, ok := l[signature]
	if !ok {
		inner = make(map[string]*Evidence)
		l[signature] = inner
	}
	inner[molecule] = ev
}

// Molecules returns every molecule of the lookup, sorted.
func (l EvidenceLookup) Molecules() []string {
	seen := make(map[string]struct{})
	for _, inner := range l {
		for m := range inner {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
