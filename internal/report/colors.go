package report

import (
	"fmt"
	"image/color"
	"slices"
	"strconv"
)

// DefaultCropColors is the palette used for the crops of the reference
// dataset. Crops not listed get a generated colour.
var DefaultCropColors = map[string]string{
	"Maize":      "#ff0000",
	"Soy":        "#0000ff",
	"Sunflower":  "#008000",
	"Wheat":      "#ffa500",
	"Lucern":     "#800080",
	"Pasture":    "#ffff00",
	"Tree":       "#808080",
	"Fallow":     "#a52a2a",
	"Groundnuts": "#ffc0cb",
	"Sorghum":    "#00ffff",
}

// Palette assigns a colour to each crop.
type Palette struct {
	colors map[string]color.RGBA
}

// NewPalette builds a palette for crops. Entries in overrides win over
// DefaultCropColors; crops found in neither get evenly spaced hues.
func NewPalette(crops []string, overrides map[string]string) (*Palette, error) {
	known := make(map[string]string, len(DefaultCropColors)+len(overrides))
	for k, v := range DefaultCropColors {
		known[k] = v
	}
	for k, v := range overrides {
		known[k] = v
	}

	p := &Palette{colors: make(map[string]color.RGBA, len(crops))}
	var unknown []string
	for _, crop := range crops {
		hex, ok := known[crop]
		if !ok {
			unknown = append(unknown, crop)
			continue
		}
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("crop %s: %w", crop, err)
		}
		p.colors[crop] = c
	}

	slices.Sort(unknown)
	for i, c := range generateColors(len(unknown)) {
		p.colors[unknown[i]] = c
	}
	return p, nil
}

// Color returns the colour of crop, or black when the crop was not part
// of the palette.
func (p *Palette) Color(crop string) color.RGBA {
	c, ok := p.colors[crop]
	if !ok {
		return color.RGBA{A: 255}
	}
	return c
}

// Hex returns the colour of crop as #rrggbb.
func (p *Palette) Hex(crop string) string {
	c := p.Color(crop)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses a #rrggbb colour.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid colour %q, want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q, want #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// generateColors spreads n hues evenly around the colour wheel.
func generateColors(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	colors := make([]color.RGBA, n)
	for i := range n {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
