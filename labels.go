package flowscene

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	lineBreakMarkup = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div)>`)
	labelPolicy     = bluemonday.StrictPolicy()
)

// extractLabel returns a group's label. Rich text (HTML inside a
// foreignObject) wins over plain SVG text runs.
func extractLabel(g *Element) string {
	if fo := g.FirstDescendant(isPrimitive(PrimForeignObject)); fo != nil {
		if s := richText(fo); s != "" {
			return s
		}
	}
	if txt := g.FirstDescendant(isPrimitive(PrimText)); txt != nil {
		return plainText(txt)
	}
	return ""
}

func isPrimitive(p Primitive) func(*Element) bool {
	return func(e *Element) bool { return e.Primitive == p }
}

// richText flattens foreignObject HTML: line-break markup becomes a literal
// newline and every other tag is stripped.
func richText(fo *Element) string {
	if fo.raw == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := fo.raw.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	marked := lineBreakMarkup.ReplaceAllString(buf.String(), "\n")
	stripped := html.UnescapeString(labelPolicy.Sanitize(marked))
	return joinLines(strings.Split(stripped, "\n"))
}

// plainText joins tspan runs with newlines in document order, falling back
// to the element's whole text content with whitespace collapsed.
func plainText(txt *Element) string {
	var spans []string
	txt.Walk(func(e *Element) bool {
		if e.Primitive == PrimTSpan {
			spans = append(spans, textContent(e))
			return false
		}
		return true
	})
	if len(spans) > 0 {
		return joinLines(spans)
	}
	return joinLines([]string{textContent(txt)})
}

func textContent(e *Element) string {
	var b strings.Builder
	e.Walk(func(c *Element) bool {
		if c.Primitive == PrimTextNode {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// joinLines trims each line, drops empty ones and joins with "\n".
func joinLines(lines []string) string {
	out := lines[:0:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
