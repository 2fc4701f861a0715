package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

/*
 ************************** flattening ****************************
 */

// flattener turns curves into polylines, tol is the largest chord error in gerber units
type flattener struct {
	tol float64
}

func newFlattener(scale float64) flattener {
	if scale <= 0 {
		scale = 1
	}
	return flattener{tol: 0.2 / scale}
}

// number of chords for a sweep on radius r
func (f flattener) steps(r, sweep float64) int {
	step := math.Pi / 4
	if r > f.tol {
		step = math.Min(step, 2*math.Acos(1-f.tol/r))
	}
	n := int(math.Ceil(math.Abs(sweep) / step))
	if n < 2 {
		n = 2
	}
	if n > 4096 {
		n = 4096
	}
	return n
}

func (f flattener) sweepPoints(c it.Point, r, start, sweep float64) []it.Point {
	n := f.steps(r, sweep)
	rot := mgl64.Rotate2D(sweep / float64(n))
	v := mgl64.Vec2{r * math.Cos(start), r * math.Sin(start)}
	pts := make([]it.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, it.Point{X: c.X + v.X(), Y: c.Y + v.Y()})
		v = rot.Mul2x1(v)
	}
	return pts
}

// arcPoints includes both arc ends
func (f flattener) arcPoints(a it.Arc) []it.Point {
	pts := f.sweepPoints(a.Center, a.Radius, a.StartAngle, a.Sweep())
	pts[0] = a.Start
	pts[len(pts)-1] = a.End
	return pts
}

// contour chains the segments into a single closed point list
func (f flattener) contour(segs []it.Segment) []it.Point {
	if len(segs) == 0 {
		return nil
	}
	pts := []it.Point{segs[0].StartPoint()}
	for _, s := range segs {
		switch v := s.(type) {
		case it.Line:
			pts = append(pts, v.End)
		case it.Arc:
			pts = append(pts, f.arcPoints(v)[1:]...)
		}
	}
	return pts
}

func (f flattener) circle(cx, cy, r float64) []it.Point {
	if r <= 0 {
		return nil
	}
	pts := f.sweepPoints(it.Point{X: cx, Y: cy}, r, 0, 2*math.Pi)
	return pts[:len(pts)-1]
}

func (f flattener) rect(r it.Rect) []it.Point {
	if r.W <= 0 || r.H <= 0 {
		return nil
	}
	rad := math.Min(r.R, math.Min(r.W, r.H)/2)
	if rad <= 0 {
		return []it.Point{{X: r.X, Y: r.Y}, {X: r.X + r.W, Y: r.Y}, {X: r.X + r.W, Y: r.Y + r.H}, {X: r.X, Y: r.Y + r.H}}
	}
	corners := [4]struct {
		c     it.Point
		start float64
	}{
		{it.Point{X: r.X + r.W - rad, Y: r.Y + rad}, -math.Pi / 2},
		{it.Point{X: r.X + r.W - rad, Y: r.Y + r.H - rad}, 0},
		{it.Point{X: r.X + rad, Y: r.Y + r.H - rad}, math.Pi / 2},
		{it.Point{X: r.X + rad, Y: r.Y + rad}, math.Pi},
	}
	var pts []it.Point
	for _, c := range corners {
		pts = append(pts, f.sweepPoints(c.c, rad, c.start, math.Pi/2)...)
	}
	return pts
}

// layer is a set of contours filled together with the nonzero rule
type layer struct {
	contours [][]it.Point
	erase    bool
}

// shapeLayers returns the paint layers of a shape, nil for an unknown or empty shape
func (f flattener) shapeLayers(s it.Shape) []layer {
	var c []it.Point
	switch v := s.(type) {
	case it.Circle:
		c = f.circle(v.CX, v.CY, v.R)
	case it.Rect:
		c = f.rect(v)
	case it.Polygon:
		c = v.Points
	case it.Outline:
		c = f.contour(v.Segments)
	case it.Layered:
		var out []layer
		for _, sub := range v.Shapes {
			for _, l := range f.shapeLayers(sub.Shape) {
				l.erase = l.erase || sub.Erase
				out = append(out, l)
			}
		}
		return out
	}
	if len(c) < 3 {
		return nil
	}
	return []layer{{contours: [][]it.Point{c}}}
}

// strokeContours outlines a path stroked with round caps and joins. Every contour
// is counter-clockwise so the overlaps stay filled under the nonzero rule.
func (f flattener) strokeContours(segs []it.Segment, width float64) [][]it.Point {
	if width <= 0 || len(segs) == 0 {
		return nil
	}
	hw := width / 2
	var out [][]it.Point
	addCap := func(p it.Point) {
		out = append(out, f.circle(p.X, p.Y, hw))
	}
	addCap(segs[0].StartPoint())
	for _, s := range segs {
		switch v := s.(type) {
		case it.Line:
			dx, dy := v.End.X-v.Start.X, v.End.Y-v.Start.Y
			l := math.Hypot(dx, dy)
			if l > 0 {
				nx, ny := -dy/l*hw, dx/l*hw
				out = append(out, ccw([]it.Point{
					{X: v.Start.X - nx, Y: v.Start.Y - ny},
					{X: v.End.X - nx, Y: v.End.Y - ny},
					{X: v.End.X + nx, Y: v.End.Y + ny},
					{X: v.Start.X + nx, Y: v.Start.Y + ny},
				}))
			}
		case it.Arc:
			sweep := v.Sweep()
			outer := f.sweepPoints(v.Center, v.Radius+hw, v.StartAngle, sweep)
			inner := f.sweepPoints(v.Center, math.Max(v.Radius-hw, 0), v.StartAngle, sweep)
			band := outer
			for i := len(inner) - 1; i >= 0; i-- {
				band = append(band, inner[i])
			}
			if math.Abs(sweep) >= 2*math.Pi-1e-9 {
				// full ring: two opposite contours
				out = append(out, ccw(outer[:len(outer)-1]))
				if v.Radius > hw {
					out = append(out, cw(inner[:len(inner)-1]))
				}
				break
			}
			out = append(out, ccw(band))
		}
		addCap(s.EndPoint())
	}
	return out
}

func signedArea(pts []it.Point) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func reversed(pts []it.Point) []it.Point {
	out := make([]it.Point, len(pts))
	for i := range pts {
		out[len(pts)-1-i] = pts[i]
	}
	return out
}

func ccw(pts []it.Point) []it.Point {
	if signedArea(pts) < 0 {
		return reversed(pts)
	}
	return pts
}

func cw(pts []it.Point) []it.Point {
	if signedArea(pts) > 0 {
		return reversed(pts)
	}
	return pts
}
