package geom

import (
	"github.com/tdewolff/parse/v2"
	strconvParse "github.com/tdewolff/parse/v2/strconv"
)

// pathBounds scans SVG path data and feeds every point the path touches
// into b. Curve control points are included, so curved segments receive a
// conservative box; arc segments contribute their endpoints only.
func pathBounds(d []byte, t xform, b *bounds) {
	var cmd byte
	var coords []float64
	var x, y float64   // current point
	var x0, y0 float64 // subpath start

	point := func(px, py float64) {
		b.add(t.apply(px, py))
	}

	flush := func() {
		rel := cmd >= 'a'
		n := len(coords)

		switch cmd {
		case 'Z', 'z':
			x, y = x0, y0

		case 'M', 'm':
			for i := 0; i+1 < n; i += 2 {
				px, py := coords[i], coords[i+1]
				if rel {
					px += x
					py += y
				}
				x, y = px, py
				if i == 0 {
					x0, y0 = x, y
				}
				point(x, y)
			}

		case 'L', 'l', 'T', 't':
			for i := 0; i+1 < n; i += 2 {
				px, py := coords[i], coords[i+1]
				if rel {
					px += x
					py += y
				}
				x, y = px, py
				point(x, y)
			}

		case 'H', 'h':
			for i := 0; i < n; i++ {
				if rel {
					x += coords[i]
				} else {
					x = coords[i]
				}
				point(x, y)
			}

		case 'V', 'v':
			for i := 0; i < n; i++ {
				if rel {
					y += coords[i]
				} else {
					y = coords[i]
				}
				point(x, y)
			}

		case 'C', 'c':
			for i := 0; i+5 < n; i += 6 {
				bx, by := x, y
				for j := 0; j < 6; j += 2 {
					px, py := coords[i+j], coords[i+j+1]
					if rel {
						px += bx
						py += by
					}
					point(px, py)
					if j == 4 {
						x, y = px, py
					}
				}
			}

		case 'S', 's', 'Q', 'q':
			for i := 0; i+3 < n; i += 4 {
				bx, by := x, y
				for j := 0; j < 4; j += 2 {
					px, py := coords[i+j], coords[i+j+1]
					if rel {
						px += bx
						py += by
					}
					point(px, py)
					if j == 2 {
						x, y = px, py
					}
				}
			}

		case 'A', 'a':
			for i := 0; i+6 < n; i += 7 {
				px, py := coords[i+5], coords[i+6]
				if rel {
					px += x
					py += y
				}
				x, y = px, py
				point(x, y)
			}
		}
	}

	for i := 0; i < len(d); i++ {
		c := d[i]
		if c == ' ' || c == ',' || c == '\n' || c == '\r' || c == '\t' {
			continue
		} else if (c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') && (cmd == 0 || cmd != c) {
			if cmd != 0 {
				flush()
			}
			cmd = c
			coords = coords[:0]
		} else if n := parse.Number(d[i:]); n > 0 {
			f, _ := strconvParse.ParseFloat(d[i : i+n])
			coords = append(coords, f)
			i += n - 1
		}
	}
	if cmd != 0 {
		flush()
	}
}
