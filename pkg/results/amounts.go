package results

import (
	"sort"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/filter"
)

// WindowAmounts summarizes the matches inside a retention-time window.
// Intensities are match scaling factors.
type WindowAmounts struct {
	MaxI      float64
	MaxIRT    float64
	MaxIScore float64
	SumI      float64
	AUC       float64
}

func (w *WindowAmounts) value(field string) float64 {
	switch field {
	case FieldCalcMaxI:
		return w.MaxI
	case FieldCalcMaxIRT:
		return w.MaxIRT
	case FieldCalcMaxIScore:
		return w.MaxIScore
	case FieldCalcSumI:
		return w.SumI
	case FieldCalcAUC:
		return w.AUC
	}
	return 0
}

// CalcAmounts computes window amounts over the matches whose retention
// time lies in [start-tolerance, stop+tolerance]. The AUC is the
// trapezoid integral over retention time. It reports false when no match
// falls in the window.
func CalcAmounts(data []core.MatchRecord, start, stop, tolerance float64) (WindowAmounts, bool) {
	var in []core.MatchRecord
	for _, m := range data {
		if filter.InWindow(m.RT, start, stop, tolerance) {
			in = append(in, m)
		}
	}
	if len(in) == 0 {
		return WindowAmounts{}, false
	}

	sort.SliceStable(in, func(i, j int) bool { return in[i].RT < in[j].RT })

	var w WindowAmounts
	maxIdx := 0
	for i, m := range in {
		w.SumI += m.ScalingFactor
		if m.ScalingFactor > in[maxIdx].ScalingFactor {
			maxIdx = i
		}
		if i > 0 {
			prev := in[i-1]
			w.AUC += (m.RT - prev.RT) * (m.ScalingFactor + prev.ScalingFactor) / 2
		}
	}
	w.MaxI = in[maxIdx].ScalingFactor
	w.MaxIRT = in[maxIdx].RT
	w.MaxIScore = in[maxIdx].Score

	return w, true
}
