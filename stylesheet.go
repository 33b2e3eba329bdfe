package flowscene

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// sheetDecl is a stylesheet value resolved for one element and property.
type sheetDecl struct {
	value     string
	important bool
	spec      int
	order     int
}

// outranks reports whether d wins over o in the cascade.
func (d sheetDecl) outranks(o sheetDecl) bool {
	if d.important != o.important {
		return d.important
	}
	if d.spec != o.spec {
		return d.spec > o.spec
	}
	return d.order > o.order
}

// compound is one simple-selector sequence such as "g.node#a".
type compound struct {
	tag     string
	id      string
	classes []string
	child   bool // joined to the previous compound by '>'
}

type styleRule struct {
	chain []compound // rightmost last
	spec  int
	decls []*css.Declaration
}

// applyStylesheets parses every <style> element under root and records the
// winning declarations on each matched element.
func applyStylesheets(root *Element) {
	var rules []styleRule
	root.Walk(func(e *Element) bool {
		if e.Tag != "style" {
			return true
		}
		var text strings.Builder
		for _, c := range e.Children {
			text.WriteString(c.Text)
		}
		sheet, err := parser.Parse(text.String())
		if err != nil {
			return false
		}
		rules = appendRules(rules, sheet.Rules)
		return false
	})
	if len(rules) == 0 {
		return
	}
	root.Walk(func(e *Element) bool {
		if e.Primitive == PrimTextNode {
			return false
		}
		for i, r := range rules {
			if !r.matches(e) {
				continue
			}
			for _, d := range r.decls {
				prop := strings.ToLower(strings.TrimSpace(d.Property))
				val := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(d.Value), "!important"))
				if prop == "" || val == "" {
					continue
				}
				cand := sheetDecl{value: val, important: d.Important, spec: r.spec, order: i}
				if cur, ok := e.sheet[prop]; ok && !cand.outranks(cur) {
					continue
				}
				if e.sheet == nil {
					e.sheet = make(map[string]sheetDecl)
				}
				e.sheet[prop] = cand
			}
		}
		return true
	})
}

// appendRules flattens qualified rules, descending into @media blocks.
// Other at-rules (keyframes, font-face) carry no element styles.
func appendRules(dst []styleRule, rules []*css.Rule) []styleRule {
	for _, r := range rules {
		if r.Kind == css.AtRule {
			if r.Name == "@media" {
				dst = appendRules(dst, r.Rules)
			}
			continue
		}
		for _, sel := range r.Selectors {
			chain, spec, ok := parseSelector(sel)
			if !ok {
				continue
			}
			dst = append(dst, styleRule{chain: chain, spec: spec, decls: r.Declarations})
		}
	}
	return dst
}

// parseSelector handles type, class and id selectors joined by descendant
// or child combinators. Pseudo-classes, attribute selectors and sibling
// combinators are unsupported and reject the selector.
func parseSelector(sel string) ([]compound, int, bool) {
	sel = strings.TrimSpace(sel)
	if sel == "" || strings.ContainsAny(sel, ":[]+~()") {
		return nil, 0, false
	}
	sel = strings.ReplaceAll(sel, ">", " > ")
	var chain []compound
	var ids, classes, tags int
	child := false
	for _, tok := range strings.Fields(sel) {
		if tok == ">" {
			if len(chain) == 0 || child {
				return nil, 0, false
			}
			child = true
			continue
		}
		c, ok := parseCompound(tok)
		if !ok {
			return nil, 0, false
		}
		c.child = child
		child = false
		if c.id != "" {
			ids++
		}
		classes += len(c.classes)
		if c.tag != "" {
			tags++
		}
		chain = append(chain, c)
	}
	if len(chain) == 0 || child {
		return nil, 0, false
	}
	return chain, ids*10000 + classes*100 + tags, true
}

func parseCompound(tok string) (compound, bool) {
	var c compound
	// Split before every '.' and '#' while keeping the marker.
	i := strings.IndexAny(tok, ".#")
	if i < 0 {
		i = len(tok)
	}
	c.tag = strings.ToLower(tok[:i])
	if c.tag == "*" {
		c.tag = ""
	}
	rest := tok[i:]
	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		j := strings.IndexAny(rest, ".#")
		if j < 0 {
			j = len(rest)
		}
		name := rest[:j]
		rest = rest[j:]
		if name == "" {
			return compound{}, false
		}
		if marker == '#' {
			c.id = name
		} else {
			c.classes = append(c.classes, name)
		}
	}
	return c, true
}

func (c compound) matches(e *Element) bool {
	if e.Attrs == nil {
		return false
	}
	if c.tag != "" && c.tag != e.Tag {
		return false
	}
	if c.id != "" && e.Attrs["id"] != c.id {
		return false
	}
	for _, cl := range c.classes {
		if !e.HasClass(cl) {
			return false
		}
	}
	return true
}

func (r styleRule) matches(e *Element) bool {
	last := len(r.chain) - 1
	if !r.chain[last].matches(e) {
		return false
	}
	return matchAncestors(r.chain[:last], r.chain[last].child, e.Parent)
}

// matchAncestors matches the remaining chain right to left against the
// ancestors starting at anc. direct requires the next compound to match anc
// itself.
func matchAncestors(chain []compound, direct bool, anc *Element) bool {
	if len(chain) == 0 {
		return true
	}
	last := len(chain) - 1
	for ; anc != nil; anc = anc.Parent {
		if chain[last].matches(anc) && matchAncestors(chain[:last], chain[last].child, anc.Parent) {
			return true
		}
		if direct {
			return false
		}
	}
	return false
}
