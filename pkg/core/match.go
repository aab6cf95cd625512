// Package core provides the records exchanged with the quantification
// engine and their validation logic.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MatchRecord is one detected occurrence of a molecule produced by the
// quantification engine.
type MatchRecord struct {
	SpecID        string  // Spectrum identifier
	RT            float64 // Retention time (min)
	Score         float64 // Isotope pattern match quality
	ScalingFactor float64 // Relative intensity
	Peaks         []Peak  // Raw matched peaks
}

// Peak represents a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// ValidationError represents an error found during match validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a match meets all requirements for aggregation.
func (m *MatchRecord) Validate() error {
	var errs []string

	if math.IsNaN(m.RT) || math.IsInf(m.RT, 0) || m.RT < 0 {
		errs = append(errs, "retention time must be a non-negative number")
	}
	if math.IsNaN(m.Score) || math.IsInf(m.Score, 0) {
		errs = append(errs, "score must be finite")
	}
	if math.IsNaN(m.ScalingFactor) || math.IsInf(m.ScalingFactor, 0) || m.ScalingFactor < 0 {
		errs = append(errs, "scaling factor must be a non-negative number")
	}

	// Validate peaks
	for i, peak := range m.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !m.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Match " + m.SpecID,
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (m *MatchRecord) ArePeaksSorted() bool {
	for i := 1; i < len(m.Peaks); i++ {
		if m.Peaks[i].MZ < m.Peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order.
func (m *MatchRecord) SortPeaks() {
	sort.Slice(m.Peaks, func(i, j int) bool {
		return m.Peaks[i].MZ < m.Peaks[j].MZ
	})
}

// Clone returns a copy of the match with its own peak slice.
func (m MatchRecord) Clone() MatchRecord {
	if m.Peaks != nil {
		m.Peaks = append([]Peak(nil), m.Peaks...)
	}
	return m
}
