// Package results holds the aggregate mapping from MoleculeKey to the
// per-label quantification info of that key, and builds it from summary
// rows and quantification matches.
package results

import (
	"iter"
	"slices"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
)

// CurationRecord is the evidence-sufficiency judgment of a key.
type CurationRecord struct {
	RequiredMatches    int
	HasRequiredMatches bool
	Curated            bool
}

// Entry is the value stored for one MoleculeKey.
type Entry struct {
	Key      molecule.MoleculeKey
	Curation CurationRecord

	labels map[string]*LabelInfo
	order  []string
}

// Label returns the info of a label.
func (e *Entry) Label(name string) (*LabelInfo, bool) {
	info, ok := e.labels[name]
	return info, ok
}

// Labels returns the present label names in insertion order.
func (e *Entry) Labels() []string {
	return slices.Clone(e.order)
}

// HasLabels reports whether the present labels are exactly the given set.
func (e *Entry) HasLabels(labels []string) bool {
	if len(e.labels) != len(labels) {
		return false
	}
	for _, l := range labels {
		if _, ok := e.labels[l]; !ok {
			return false
		}
	}
	return true
}

// Results is an insertion-ordered store of entries keyed by MoleculeKey.
type Results struct {
	labels  []string
	keys    []molecule.MoleculeKey
	entries map[molecule.MoleculeKey]*Entry
}

// New creates an empty store for the configured labels.
func New(labels []string) *Results {
	return &Results{
		labels:  slices.Clone(labels),
		entries: make(map[molecule.MoleculeKey]*Entry),
	}
}

// Labels returns the configured label names.
func (r *Results) Labels() []string {
	return slices.Clone(r.labels)
}

// Len returns the number of keys.
func (r *Results) Len() int {
	return len(r.keys)
}

// Upsert stores info for label under key. An existing label info for the
// same key is kept and Upsert reports false.
func (r *Results) Upsert(key molecule.MoleculeKey, label string, info *LabelInfo) bool {
	e, ok := r.entries[key]
	if !ok {
		e = &Entry{Key: key, labels: make(map[string]*LabelInfo)}
		r.entries[key] = e
		r.keys = append(r.keys, key)
	}
	if _, exists := e.labels[label]; exists {
		return false
	}
	e.labels[label] = info
	e.order = append(e.order, label)
	return true
}

// Get returns the entry of key.
func (r *Results) Get(key molecule.MoleculeKey) (*Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Keys returns the keys in insertion order.
func (r *Results) Keys() []molecule.MoleculeKey {
	return slices.Clone(r.keys)
}

// All iterates over the entries in insertion order.
func (r *Results) All() iter.Seq2[molecule.MoleculeKey, *Entry] {
	return func(yield func(molecule.MoleculeKey, *Entry) bool) {
		for _, key := range r.keys {
			if !yield(key, r.entries[key]) {
				return
			}
		}
	}
}
