package report

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ffa500")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, c)

	for _, bad := range []string{"", "ffa500", "#ffa50", "#ffa5000", "#gggggg", "#+fa500"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, "%q should be rejected", bad)
	}
}

func TestNewPalette(t *testing.T) {
	p, err := NewPalette([]string{"Maize", "Soy", "Barley", "Oats"}, map[string]string{"Soy": "#123456"})
	require.NoError(t, err)

	assert.Equal(t, "#ff0000", p.Hex("Maize"))
	assert.Equal(t, "#123456", p.Hex("Soy"), "override wins over default")

	barley, oats := p.Color("Barley"), p.Color("Oats")
	assert.NotEqual(t, barley, oats, "generated colours are distinct")
	assert.Equal(t, uint8(255), barley.A)

	assert.Equal(t, color.RGBA{A: 255}, p.Color("Rice"))
}

func TestNewPalette_BadOverride(t *testing.T) {
	_, err := NewPalette([]string{"Maize"}, map[string]string{"Maize": "red"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crop Maize")
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	cs := generateColors(3)
	require.Len(t, cs, 3)
	assert.Equal(t, color.RGBA{R: 216, G: 38, B: 38, A: 255}, cs[0])
}
