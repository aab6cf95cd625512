// Package colorize maps scalar scores such as ratios onto a color
// gradient for visualization.
package colorize

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// eps is the smallest threshold distance treated as a real bracket.
const eps = 1e-12

// RGB is an 8-bit color.
type RGB struct {
	R, G, B int
}

// Hex returns the lowercase #rrggbb form of c. Channels are clamped to
// [0, 255].
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.R), clamp(c.G), clamp(c.B))
}

func clamp(v int) int {
	return max(0, min(255, v))
}

// Stop is one color of a gradient.
type Stop struct {
	Threshold float64
	Color     RGB
}

// Gradient is a list of stops sorted ascending by threshold.
type Gradient []Stop

// Validate checks that g is non-empty and sorted by threshold.
func (g Gradient) Validate() error {
	if len(g) == 0 {
		return errors.New("gradient has no stops")
	}
	for i := 1; i < len(g); i++ {
		if g[i].Threshold < g[i-1].Threshold {
			return fmt.Errorf("gradient thresholds not sorted at stop %d (%g < %g)", i, g[i].Threshold, g[i-1].Threshold)
		}
	}
	return nil
}

// Default returns the blue to white to red gradient over ratios 0, 1
// and 2.
func Default() Gradient {
	return Gradient{
		{Threshold: 0, Color: RGB{0, 0, 255}},
		{Threshold: 1, Color: RGB{255, 255, 255}},
		{Threshold: 2, Color: RGB{255, 0, 0}},
	}
}

// Colorize returns the color of score on g along with its hex string.
// Scores outside the gradient clamp to the first or last color; scores
// between two stops are interpolated per channel.
func Colorize(score float64, g Gradient) (RGB, string) {
	if len(g) == 0 {
		return RGB{}, RGB{}.Hex()
	}

	i := sort.Search(len(g), func(i int) bool { return g[i].Threshold >= score })

	var c RGB
	switch {
	case i == 0:
		c = g[0].Color
	case i == len(g):
		c = g[len(g)-1].Color
	case g[i].Threshold == score:
		c = g[i].Color
	default:
		c = interpolate(score, g[i-1], g[i])
	}
	return c, c.Hex()
}

func interpolate(score float64, lower, upper Stop) RGB {
	width := upper.Threshold - lower.Threshold
	if math.Abs(width) < eps {
		return lower.Color
	}
	f := (score - lower.Threshold) / width
	channel := func(a, b int) int {
		return int(math.Round(float64(a) + f*float64(b-a)))
	}
	return RGB{
		R: channel(lower.Color.R, upper.Color.R),
		G: channel(lower.Color.G, upper.Color.G),
		B: channel(lower.Color.B, upper.Color.B),
	}
}
