package flowscene

import (
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor parses the CSS color syntaxes diagram renderers emit: #rgb,
// #rrggbb, #rrggbbaa, rgb()/rgba() and named colors. "none", "transparent"
// and anything unrecognized report ok=false.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return Color{}, false
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s)
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	}
	if rgba, ok := colornames.Map[s]; ok {
		c, _ := colorful.MakeColor(rgba)
		return fromColorful(c, 1), true
	}
	return Color{}, false
}

// MustParseColor is ParseColor for compile-time constants. Panics on failure.
func MustParseColor(s string) Color {
	c, ok := ParseColor(s)
	if !ok {
		panic("flowscene: invalid color " + strconv.Quote(s))
	}
	return c
}

func parseHexColor(s string) (Color, bool) {
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, false
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, false
	}
	return fromColorful(c, alpha), true
}

func parseRGBFunc(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, false
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 {
		return Color{}, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, ok := cssChannel(parts[i], 255)
		if !ok {
			return Color{}, false
		}
		ch[i] = v
	}
	alpha := 1.0
	if len(parts) >= 4 {
		v, ok := cssChannel(parts[3], 1)
		if !ok {
			return Color{}, false
		}
		alpha = v
	}
	return Color{ch[0], ch[1], ch[2], alpha}, true
}

// cssChannel parses a number or percentage and normalizes it to [0, 1]
// given the channel's full-scale value.
func cssChannel(s string, scale float64) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v / scale), true
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

func fromColorful(c colorful.Color, alpha float64) Color {
	c = c.Clamped()
	return Color{c.R, c.G, c.B, alpha}
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Hex formats the color's RGB channels as #rrggbb.
func (c Color) Hex() string {
	return toColorful(c).Hex()
}

// Blend mixes c toward other by t in HCL space, keeping c's alpha.
func (c Color) Blend(other Color, t float64) Color {
	return fromColorful(toColorful(c).BlendHcl(toColorful(other), t), c.A)
}
