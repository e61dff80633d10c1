package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateColor(t *testing.T) {
	tests := []struct {
		name string
		pos  float64
		want string
	}{
		{"start", 0, "#000000"},
		{"middle", 0.5, "#7f7f7f"},
		{"end", 1, "#ffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpolateColor("#000000", "#ffffff", tt.pos))
		})
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b := ParseHexColor("#f9e2af")
	assert.Equal(t, []uint8{0xf9, 0xe2, 0xaf}, []uint8{r, g, b})

	r, g, b = ParseHexColor("bogus")
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{r, g, b})
}

func TestApplyGradient_KeepsText(t *testing.T) {
	assert.Empty(t, ApplyGradient("", "#000000", "#ffffff"))
	assert.Contains(t, ApplyGradient("ab", "#000000", "#ffffff"), "a")
}

func TestCurrent_BuildsStyles(t *testing.T) {
	th := Current()
	assert.Same(t, th, Current())
	assert.NotNil(t, th.S())
	assert.Equal(t, th.Primary, NewCatppuccinMocha().Primary)
}
