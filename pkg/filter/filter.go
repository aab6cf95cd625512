// Package filter provides match filtering and peak clean-up applied before
// matches are attached to aggregated results.
package filter

import (
	"sort"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	MinScore        float64 // Drop matches scoring below this value
	TopN            int     // Keep only top N most intense peaks per match (0 = no limit)
	IntensityCutoff float64 // Keep only peaks above this % of the base peak (0 = no cutoff)
}

// Accept cleans up the peaks of a match in place. A non-nil error means
// the match must be dropped.
func (c *Config) Accept(m *core.MatchRecord) error {
	if m.Score < c.MinScore {
		return &core.ValidationError{Field: "Score", Message: "below minimum score"}
	}

	RemoveZeroIntensityPeaks(m)

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(m)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		c.filterTopN(m)
	}

	// Ensure peaks are sorted after all filtering
	m.SortPeaks()

	return m.Validate()
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(m *core.MatchRecord) {
	if len(m.Peaks) == 0 {
		return
	}

	// Find maximum intensity
	maxIntensity := 0.0
	for _, peak := range m.Peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	var filtered []core.Peak
	for _, peak := range m.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	m.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(m *core.MatchRecord) {
	if len(m.Peaks) <= c.TopN {
		return
	}

	// Create a copy and sort by intensity descending
	peaks := make([]core.Peak, len(m.Peaks))
	copy(peaks, m.Peaks)

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	m.Peaks = peaks[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(m *core.MatchRecord) {
	var filtered []core.Peak
	for _, peak := range m.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	m.Peaks = filtered
}

// InWindow reports whether rt lies in [start-tolerance, stop+tolerance].
func InWindow(rt, start, stop, tolerance float64) bool {
	return rt >= start-tolerance && rt <= stop+tolerance
}
