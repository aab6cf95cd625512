package colorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorize(t *testing.T) {
	g := Gradient{
		{Threshold: 0, Color: RGB{0, 0, 0}},
		{Threshold: 1, Color: RGB{100, 100, 100}},
		{Threshold: 3, Color: RGB{10, 200, 30}},
	}

	tests := []struct {
		name    string
		score   float64
		want    RGB
		wantHex string
	}{
		{"below first threshold", -5, RGB{0, 0, 0}, "#000000"},
		{"at first threshold", 0, RGB{0, 0, 0}, "#000000"},
		{"midpoint", 0.5, RGB{50, 50, 50}, "#323232"},
		{"exact inner threshold", 1, RGB{100, 100, 100}, "#646464"},
		{"quarter of second bracket", 1.5, RGB{78, 125, 83}, "#4e7d53"},
		{"exact last threshold", 3, RGB{10, 200, 30}, "#0ac81e"},
		{"above last threshold", 20, RGB{10, 200, 30}, "#0ac81e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hex := Colorize(tt.score, g)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantHex, hex)
		})
	}
}

func TestColorizeDegenerateBracket(t *testing.T) {
	lower := Stop{Threshold: 1, Color: RGB{1, 2, 3}}
	upper := Stop{Threshold: 1 + 1e-15, Color: RGB{200, 200, 200}}
	assert.Equal(t, lower.Color, interpolate(1+5e-16, lower, upper))
}

func TestColorizeEmptyGradient(t *testing.T) {
	c, hex := Colorize(1, nil)
	assert.Equal(t, RGB{}, c)
	assert.Equal(t, "#000000", hex)
}

func TestHexClamps(t *testing.T) {
	assert.Equal(t, "#ff00ff", RGB{300, -4, 255}.Hex())
}

func TestGradientValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Error(t, Gradient{}.Validate())
	assert.Error(t, Gradient{{Threshold: 2}, {Threshold: 1}}.Validate())
}
