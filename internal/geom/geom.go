// Package geom computes content bounding boxes for SVG subtrees from shape
// geometry alone, standing in for a rendering engine's layout query.
package geom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	strconvParse "github.com/tdewolff/parse/v2/strconv"

	"svginline/internal/dom"
)

// Rect is an axis-aligned bounding box
type Rect struct {
	X, Y, W, H float64
}

// Calculator walks an SVG subtree and accumulates the union of its shape
// bounds. Curves contribute their control points, which yields a box that
// never clips the true geometry. Stroke widths, text metrics and filter
// regions are not modeled.
type Calculator struct{}

// NewCalculator creates a new geometry calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// BoundingBox returns the tight box around the root's content and whether
// any geometry was found at all.
func (c *Calculator) BoundingBox(root dom.Node) (Rect, bool) {
	var b bounds
	for _, child := range root.Children() {
		c.walk(child, identity(), &b)
	}
	if !b.set {
		return Rect{}, false
	}
	return b.rect(), true
}

// elements that never contribute rendered geometry
var nonRendered = map[string]bool{
	"defs":           true,
	"symbol":         true,
	"style":          true,
	"title":          true,
	"desc":           true,
	"metadata":       true,
	"clippath":       true,
	"mask":           true,
	"marker":         true,
	"pattern":        true,
	"lineargradient": true,
	"radialgradient": true,
	"filter":         true,
	"script":         true,
}

func (c *Calculator) walk(n dom.Node, t xform, b *bounds) {
	tag := strings.ToLower(n.TagName())
	if nonRendered[tag] {
		return
	}

	t = t.compose(parseTransform(attrOr(n, "transform")))

	switch tag {
	case "g", "a", "svg", "switch", "use":
		if tag == "use" {
			// only the placement of the reference is known here
			if x, y, ok := attrPoint(n, "x", "y"); ok {
				b.add(t.apply(x, y))
			}
		}
		for _, child := range n.Children() {
			c.walk(child, t, b)
		}

	case "rect", "image":
		x, _ := attrFloat(n, "x")
		y, _ := attrFloat(n, "y")
		w, wok := attrFloat(n, "width")
		h, hok := attrFloat(n, "height")
		if wok && hok {
			b.add(t.apply(x, y))
			b.add(t.apply(x+w, y+h))
		}

	case "circle":
		cx, _ := attrFloat(n, "cx")
		cy, _ := attrFloat(n, "cy")
		if r, ok := attrFloat(n, "r"); ok {
			b.add(t.apply(cx-r, cy-r))
			b.add(t.apply(cx+r, cy+r))
		}

	case "ellipse":
		cx, _ := attrFloat(n, "cx")
		cy, _ := attrFloat(n, "cy")
		rx, rxok := attrFloat(n, "rx")
		ry, ryok := attrFloat(n, "ry")
		if rxok && ryok {
			b.add(t.apply(cx-rx, cy-ry))
			b.add(t.apply(cx+rx, cy+ry))
		}

	case "line":
		if x1, y1, ok := attrPoint(n, "x1", "y1"); ok {
			b.add(t.apply(x1, y1))
		}
		if x2, y2, ok := attrPoint(n, "x2", "y2"); ok {
			b.add(t.apply(x2, y2))
		}

	case "polyline", "polygon":
		points, _ := n.Attr("points")
		for _, pt := range scanPairs(points) {
			b.add(t.apply(pt[0], pt[1]))
		}

	case "path":
		if d, ok := n.Attr("d"); ok {
			pathBounds([]byte(d), t, b)
		}

	case "text", "tspan":
		// anchor point only; no font metrics without a renderer
		if x, y, ok := attrPoint(n, "x", "y"); ok {
			b.add(t.apply(x, y))
		}
	}
}

// bounds accumulates min/max corners

type bounds struct {
	minX, minY float64
	maxX, maxY float64
	set        bool
}

func (b *bounds) add(x, y float64) {
	if !b.set {
		b.minX, b.maxX = x, x
		b.minY, b.maxY = y, y
		b.set = true
		return
	}
	if x < b.minX {
		b.minX = x
	}
	if x > b.maxX {
		b.maxX = x
	}
	if y < b.minY {
		b.minY = y
	}
	if y > b.maxY {
		b.maxY = y
	}
}

func (b *bounds) rect() Rect {
	return Rect{X: b.minX, Y: b.minY, W: b.maxX - b.minX, H: b.maxY - b.minY}
}

// xform is a translate/scale transform. Rotation and skew are rare in
// export-tool output and are ignored when encountered.

type xform struct {
	tx, ty float64
	sx, sy float64
}

func identity() xform {
	return xform{sx: 1, sy: 1}
}

func (t xform) apply(x, y float64) (float64, float64) {
	return t.tx + t.sx*x, t.ty + t.sy*y
}

// compose returns the transform applying child first, then t
func (t xform) compose(child xform) xform {
	return xform{
		tx: t.tx + t.sx*child.tx,
		ty: t.ty + t.sy*child.ty,
		sx: t.sx * child.sx,
		sy: t.sy * child.sy,
	}
}

// parseTransform reads translate() and scale() functions from a transform
// attribute, composed left to right. Unsupported functions are skipped.
func parseTransform(value string) xform {
	t := identity()
	rest := value
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return t
		}
		name := strings.ToLower(strings.TrimSpace(strings.Trim(rest[:open], " ,")))
		end := strings.IndexByte(rest[open:], ')')
		if end < 0 {
			return t
		}
		args := scanFloats(rest[open+1 : open+end])
		rest = rest[open+end+1:]

		switch name {
		case "translate":
			if len(args) >= 1 {
				ty := 0.0
				if len(args) >= 2 {
					ty = args[1]
				}
				t = t.compose(xform{tx: args[0], ty: ty, sx: 1, sy: 1})
			}
		case "scale":
			if len(args) >= 1 {
				sy := args[0]
				if len(args) >= 2 {
					sy = args[1]
				}
				t = t.compose(xform{sx: args[0], sy: sy})
			}
		}
	}
}

// number scanning

// parseNumber reads a leading SVG number, tolerating a trailing unit
func parseNumber(s string) (float64, bool) {
	b := []byte(strings.TrimSpace(s))
	n := parse.Number(b)
	if n == 0 {
		return 0, false
	}
	f, _ := strconvParse.ParseFloat(b[:n])
	return f, true
}

// scanFloats extracts every number in a separator-delimited list
func scanFloats(s string) []float64 {
	var out []float64
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if n := parse.Number(b[i:]); n > 0 {
			f, _ := strconvParse.ParseFloat(b[i : i+n])
			out = append(out, f)
			i += n - 1
		}
	}
	return out
}

// scanPairs extracts coordinate pairs from a points attribute
func scanPairs(s string) [][2]float64 {
	floats := scanFloats(s)
	pairs := make([][2]float64, 0, len(floats)/2)
	for i := 0; i+1 < len(floats); i += 2 {
		pairs = append(pairs, [2]float64{floats[i], floats[i+1]})
	}
	return pairs
}

func attrFloat(n dom.Node, name string) (float64, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	return parseNumber(v)
}

func attrPoint(n dom.Node, xName, yName string) (float64, float64, bool) {
	x, xok := attrFloat(n, xName)
	y, yok := attrFloat(n, yName)
	if !xok && !yok {
		return 0, 0, false
	}
	return x, y, true
}

func attrOr(n dom.Node, name string) string {
	v, _ := n.Attr(name)
	return v
}
