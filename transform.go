package flowscene

import (
	"strings"
)

// ParseTranslate returns the summed translate() terms of an SVG transform
// attribute. Only axis-aligned translation is supported: rotate, scale,
// skew and matrix terms are ignored. Missing or malformed input yields (0, 0).
//
//	"translate(10, 20)"        -> (10, 20)
//	"translate(10 20)"         -> (10, 20)
//	"translate(-4.5e1)"        -> (-45, 0)
//	"translate(5,5) scale(2)"  -> (5, 5)
func ParseTranslate(transform string) Vec2 {
	var out Vec2
	rest := transform
	for {
		i := strings.Index(rest, "translate")
		if i < 0 {
			return out
		}
		rest = rest[i+len("translate"):]
		open := strings.IndexByte(rest, '(')
		if open < 0 || strings.TrimSpace(rest[:open]) != "" {
			continue
		}
		end := strings.IndexByte(rest, ')')
		if end < open {
			return out
		}
		args, ok := parseNumbers(rest[open+1 : end])
		rest = rest[end+1:]
		if !ok {
			// A malformed term contributes nothing.
			continue
		}
		switch len(args) {
		case 1:
			out.X += args[0]
		case 2:
			out.X += args[0]
			out.Y += args[1]
		}
	}
}

// CumulativeTranslation returns the translation mapping el's local coordinate
// space into root's: the vector sum of the translate terms of el and each of
// its ancestors, stopping at (and excluding) root. If root is not an ancestor
// the walk ends at the top of the tree. Never fails; the default is (0, 0).
func CumulativeTranslation(el, root *Element) Vec2 {
	var out Vec2
	for e := el; e != nil && e != root; e = e.Parent {
		if e.Attrs == nil {
			continue
		}
		if t, ok := e.Attrs["transform"]; ok {
			out = out.Add(ParseTranslate(t))
		}
	}
	return out
}
