package flowscene

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// ErrNoSVGRoot is returned by ParseVectorTree when the document contains no
// <svg> element.
var ErrNoSVGRoot = errors.New("flowscene: no <svg> root element")

// Role is the typed discriminator for grouping elements, computed once at
// ingestion from marker classes and marker children.
type Role uint8

const (
	RoleNone Role = iota
	RoleStandalone
	RoleContainer
	RoleActor
	RoleAnnotation
)

// NodeKind maps a role to the node kind it produces. RoleNone maps to
// KindStandalone but never reaches extraction.
func (r Role) NodeKind() NodeKind {
	switch r {
	case RoleContainer:
		return KindContainer
	case RoleActor:
		return KindActor
	case RoleAnnotation:
		return KindAnnotation
	default:
		return KindStandalone
	}
}

// Primitive identifies an element's drawing primitive.
type Primitive uint8

const (
	PrimOther Primitive = iota
	PrimGroup
	PrimRect
	PrimCircle
	PrimEllipse
	PrimPolygon
	PrimPath
	PrimLine
	PrimText
	PrimTSpan
	PrimForeignObject
	PrimTextNode // character data
)

// Drawable reports whether the primitive can serve as a node's shape.
func (p Primitive) Drawable() bool {
	switch p {
	case PrimRect, PrimCircle, PrimEllipse, PrimPolygon, PrimPath:
		return true
	}
	return false
}

// ConnectorClass is the marker-based connector classification of an element.
type ConnectorClass uint8

const (
	ConnectorNone ConnectorClass = iota
	ConnectorMessage
	ConnectorStructural
)

// Element is one node of the ingested vector tree. Tag names and attribute
// keys are lowercased.
type Element struct {
	Tag       string
	Attrs     map[string]string
	Classes   []string
	Text      string // character data, PrimTextNode only
	Parent    *Element
	Children  []*Element
	Primitive Primitive
	Role      Role
	Connector ConnectorClass

	raw   *html.Node
	sheet map[string]sheetDecl // winning <style> declarations by property
}

var primitiveByTag = map[string]Primitive{
	"g":             PrimGroup,
	"rect":          PrimRect,
	"circle":        PrimCircle,
	"ellipse":       PrimEllipse,
	"polygon":       PrimPolygon,
	"path":          PrimPath,
	"line":          PrimLine,
	"text":          PrimText,
	"tspan":         PrimTSpan,
	"foreignobject": PrimForeignObject,
}

// Marker classes emitted by common diagram renderers.
var (
	messageMarkers = []string{
		"flowchart-link", "edgePath", "messageLine0", "messageLine1",
		"relation", "transition", "edge-pattern-solid", "edge-pattern-dotted",
	}
	messageMarkerPrefixes = []string{"edge-thickness-"}
	structuralMarkers     = []string{"actor-line", "lifeline"}
)

// ParseVectorTree parses an SVG document (optionally embedded in HTML) and
// returns its <svg> element with roles and connector classes computed.
func ParseVectorTree(r io.Reader) (*Element, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("flowscene: parse vector tree: %w", err)
	}
	svg := findSVG(doc)
	if svg == nil {
		return nil, ErrNoSVGRoot
	}
	root := convertNode(svg, nil)
	applyStylesheets(root)
	classify(root)
	return root, nil
}

// ParseVectorTreeString is a convenience wrapper around ParseVectorTree.
func ParseVectorTreeString(s string) (*Element, error) {
	return ParseVectorTree(strings.NewReader(s))
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "svg") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

func convertNode(n *html.Node, parent *Element) *Element {
	if n.Type == html.TextNode {
		return &Element{Tag: "#text", Text: n.Data, Parent: parent, Primitive: PrimTextNode, raw: n}
	}
	e := &Element{
		Tag:    strings.ToLower(n.Data),
		Attrs:  make(map[string]string, len(n.Attr)),
		Parent: parent,
		raw:    n,
	}
	for _, a := range n.Attr {
		e.Attrs[strings.ToLower(a.Key)] = a.Val
	}
	e.Classes = strings.Fields(e.Attrs["class"])
	e.Primitive = primitiveByTag[e.Tag]
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		e.Children = append(e.Children, convertNode(c, e))
	}
	return e
}

// classify assigns Role and Connector to every element in the subtree.
func classify(e *Element) {
	switch e.Primitive {
	case PrimGroup:
		e.Role = groupRole(e)
	case PrimPath, PrimLine:
		e.Connector = connectorClass(e)
	}
	for _, c := range e.Children {
		classify(c)
	}
}

func groupRole(g *Element) Role {
	switch {
	case g.HasClass("cluster"):
		return RoleContainer
	case g.HasClass("note") || hasMarkerChild(g, "note"):
		return RoleAnnotation
	case g.HasClass("actor") || hasMarkerChild(g, "actor"):
		return RoleActor
	case g.HasClass("node"):
		return RoleStandalone
	}
	return RoleNone
}

// hasMarkerChild reports whether a direct drawable child carries class.
func hasMarkerChild(g *Element, class string) bool {
	for _, c := range g.Children {
		if c.Primitive.Drawable() && c.HasClass(class) {
			return true
		}
	}
	return false
}

func connectorClass(e *Element) ConnectorClass {
	for _, m := range structuralMarkers {
		if e.HasClass(m) {
			return ConnectorStructural
		}
	}
	for _, m := range messageMarkers {
		if e.HasClass(m) {
			return ConnectorMessage
		}
	}
	for _, c := range e.Classes {
		for _, p := range messageMarkerPrefixes {
			if strings.HasPrefix(c, p) {
				return ConnectorMessage
			}
		}
	}
	// Edge paths nested in a marked group (e.g. <g class="edgePath"><path/></g>).
	if e.Primitive == PrimPath && e.Parent != nil && e.Parent.HasClass("edgePath") {
		return ConnectorMessage
	}
	return ConnectorNone
}

// HasClass reports whether the element's class list contains class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Attr returns the attribute value for key (lowercase) and whether it exists.
func (e *Element) Attr(key string) (string, bool) {
	v, ok := e.Attrs[key]
	return v, ok
}

// Float returns the attribute parsed as a float, or 0 when absent/malformed.
// Trailing "px" units are accepted.
func (e *Element) Float(key string) float64 {
	v, ok := e.Attrs[key]
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}

// Walk visits e and its descendants depth-first in document order. Returning
// false from fn skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// FirstDescendant returns the first descendant (excluding e) matching pred.
func (e *Element) FirstDescendant(pred func(*Element) bool) *Element {
	for _, c := range e.Children {
		if pred(c) {
			return c
		}
		if found := c.FirstDescendant(pred); found != nil {
			return found
		}
	}
	return nil
}

// Style resolves a presentation property the way a computed style would for
// the subset that matters here. Per element the order is inline !important,
// stylesheet !important, inline, stylesheet, then the presentation
// attribute. Inherited properties fall back to ancestors.
func (e *Element) Style(prop string) string {
	for el := e; el != nil; el = el.Parent {
		if el.Attrs == nil {
			continue
		}
		inline, important, hasInline := styleDeclaration(el.Attrs["style"], prop)
		sheet, hasSheet := el.sheet[prop]
		switch {
		case hasInline && important:
			return inline
		case hasSheet && sheet.important:
			return sheet.value
		case hasInline:
			return inline
		case hasSheet:
			return sheet.value
		}
		if v, ok := el.Attrs[prop]; ok && v != "" {
			return v
		}
		if !inheritedProperty(prop) {
			return ""
		}
	}
	return ""
}

func inheritedProperty(prop string) bool {
	switch prop {
	case "fill", "stroke", "stroke-dasharray", "stroke-width", "fill-opacity", "stroke-opacity":
		return true
	}
	return false
}

// styleDeclaration extracts prop from a CSS declaration list such as
// "fill:#fff;stroke:#333 !important". The last non-empty declaration wins.
func styleDeclaration(style, prop string) (val string, important, ok bool) {
	if style == "" {
		return "", false, false
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return "", false, false
	}
	for _, d := range decls {
		if !strings.EqualFold(strings.TrimSpace(d.Property), prop) {
			continue
		}
		v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(d.Value), "!important"))
		if v == "" {
			continue
		}
		val, important, ok = v, d.Important, true
	}
	return val, important, ok
}

// ViewBox parses the root's viewBox attribute.
func (e *Element) ViewBox() (Rect, bool) {
	v, ok := e.Attrs["viewbox"]
	if !ok {
		return Rect{}, false
	}
	nums := parseNumberList(v)
	if len(nums) != 4 || nums[2] <= 0 || nums[3] <= 0 {
		return Rect{}, false
	}
	return Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}, true
}

// parseNumberList parses whitespace- and/or comma-separated numbers, stopping
// at the first malformed token.
func parseNumberList(s string) []float64 {
	nums, _ := parseNumbers(s)
	return nums
}

// parseNumbers is parseNumberList that also reports whether every token
// parsed.
func parseNumbers(s string) ([]float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, false
		}
		out = append(out, v)
	}
	return out, true
}
