// Package curate judges whether every label of a pair has enough
// independent detections to be trusted.
package curate

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// Curator updates the CurationRecords of aggregated results.
type Curator struct {
	logger *zap.Logger
}

// New creates a curator.
func New(logger *zap.Logger) *Curator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Curator{logger: logger}
}

// Summary counts the outcome of a curation pass.
type Summary struct {
	Evaluated int
	Passed    int
	Skipped   int // already curated
	Missing   int // requested keys absent from the results
}

// HasRequiredMatches reports whether exactly the configured labels are
// present and each has at least minMatches matches.
func HasRequiredMatches(e *results.Entry, labels []string, minMatches int) bool {
	if !e.HasLabels(labels) {
		return false
	}
	for _, label := range labels {
		info, _ := e.Label(label)
		if info.LenData < minMatches {
			return false
		}
	}
	return true
}

// Curate evaluates the keys of res (all keys when keys is nil). Curated
// keys are left untouched unless force is set. Requested keys that are
// not in res are logged and skipped.
func (c *Curator) Curate(res *results.Results, minMatches int, keys []molecule.MoleculeKey, force bool) Summary {
	if keys == nil {
		keys = res.Keys()
	}
	labels := res.Labels()

	var s Summary
	for _, key := range keys {
		e, ok := res.Get(key)
		if !ok {
			c.logger.Warn("Requested curation key not in results", zap.String("key", key.String()))
			s.Missing++
			continue
		}
		if e.Curation.Curated && !force {
			s.Skipped++
			continue
		}

		ok = HasRequiredMatches(e, labels, minMatches)
		e.Curation = results.CurationRecord{
			RequiredMatches:    minMatches,
			HasRequiredMatches: ok,
			Curated:            true,
		}
		s.Evaluated++
		if ok {
			s.Passed++
		}
	}

	c.logger.Info("Curated label pairs",
		zap.Int("min_matches", minMatches),
		zap.Int("evaluated", s.Evaluated),
		zap.Int("passed", s.Passed),
		zap.Int("skipped", s.Skipped),
		zap.Int("missing", s.Missing))

	return s
}
