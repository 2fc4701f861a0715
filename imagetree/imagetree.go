// Plotted geometry: shapes, path segments and graphics in gerber units
package imagetree

import (
	"math"

	"github.com/akavel/polyclip-go"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

type Point struct {
	X float64
	Y float64
}

// SourceRange is a [Start, End) byte range of the source text
type SourceRange struct {
	Start int
	End   int
}

/*
################################ shapes ################################
*/

type Shape interface {
	isShape()
}

type Circle struct {
	CX, CY float64
	R      float64
}

// Rect is anchored at its lower left corner; R is the corner radius
type Rect struct {
	X, Y float64
	W, H float64
	R    float64
}

type Polygon struct {
	Points []Point
}

// Outline is a closed contour made of line and arc segments
type Outline struct {
	Segments []Segment
}

type ErasableShape struct {
	Shape Shape
	Erase bool
}

// Layered shapes are painted in order, an erasing sub-shape removes what was painted before it
type Layered struct {
	Shapes []ErasableShape
}

func (Circle) isShape()  {}
func (Rect) isShape()    {}
func (Polygon) isShape() {}
func (Outline) isShape() {}
func (Layered) isShape() {}

/*
################################ segments ################################
*/

type Segment interface {
	StartPoint() Point
	EndPoint() Point
	isSegment()
}

type Line struct {
	Start Point
	End   Point
}

// Arc angles are in radians; the sweep runs from StartAngle to EndAngle
// counter-clockwise when CounterClockwise is set, clockwise otherwise
type Arc struct {
	Start            Point
	End              Point
	Center           Point
	Radius           float64
	StartAngle       float64
	EndAngle         float64
	CounterClockwise bool
}

func (l Line) StartPoint() Point { return l.Start }
func (l Line) EndPoint() Point   { return l.End }
func (Line) isSegment()          {}

func (a Arc) StartPoint() Point { return a.Start }
func (a Arc) EndPoint() Point   { return a.End }
func (Arc) isSegment()          {}

// Sweep returns the signed sweep angle, positive for counter-clockwise arcs
func (a Arc) Sweep() float64 {
	d := a.EndAngle - a.StartAngle
	if a.CounterClockwise {
		for d <= 0 {
			d += 2 * math.Pi
		}
		for d > 2*math.Pi+1e-12 {
			d -= 2 * math.Pi
		}
		return d
	}
	for d >= 0 {
		d -= 2 * math.Pi
	}
	for d < -2*math.Pi-1e-12 {
		d += 2 * math.Pi
	}
	return d
}

// ReverseSegment returns the segment traversed in the opposite direction
func ReverseSegment(s Segment) Segment {
	switch v := s.(type) {
	case Line:
		return Line{v.End, v.Start}
	case Arc:
		return Arc{
			Start:            v.End,
			End:              v.Start,
			Center:           v.Center,
			Radius:           v.Radius,
			StartAngle:       v.EndAngle,
			EndAngle:         v.StartAngle,
			CounterClockwise: !v.CounterClockwise,
		}
	}
	return s
}

/*
################################ graphics ################################
*/

type Graphic interface {
	Polarity() PolType
	Source() []SourceRange
	isGraphic()
}

// ShapeGraphic is a flashed aperture
type ShapeGraphic struct {
	Shape Shape
	Pol   PolType
	Src   []SourceRange
}

// PathGraphic is a stroked sequence of segments, Width is the stroke width
type PathGraphic struct {
	Segments []Segment
	Width    float64
	Pol      PolType
	Src      []SourceRange
}

// RegionGraphic is a filled area bounded by its segments. A G36/G37 block with
// several contours yields one RegionGraphic per contour, the union is the same.
type RegionGraphic struct {
	Segments []Segment
	Pol      PolType
	Src      []SourceRange
}

func (g ShapeGraphic) Polarity() PolType     { return g.Pol }
func (g ShapeGraphic) Source() []SourceRange { return g.Src }
func (ShapeGraphic) isGraphic()              {}

func (g PathGraphic) Polarity() PolType     { return g.Pol }
func (g PathGraphic) Source() []SourceRange { return g.Src }
func (PathGraphic) isGraphic()              {}

func (g RegionGraphic) Polarity() PolType     { return g.Pol }
func (g RegionGraphic) Source() []SourceRange { return g.Src }
func (RegionGraphic) isGraphic()              {}

// ImageTree is the plotter output
type ImageTree struct {
	Units    Units
	Bounds   Bounds
	Children []Graphic
	Warnings []GeometryWarning
}

/*
################################ translation ################################
*/

func (p Point) Add(dx, dy float64) Point {
	return Point{p.X + dx, p.Y + dy}
}

func translateSegment(s Segment, dx, dy float64) Segment {
	switch v := s.(type) {
	case Line:
		return Line{v.Start.Add(dx, dy), v.End.Add(dx, dy)}
	case Arc:
		v.Start = v.Start.Add(dx, dy)
		v.End = v.End.Add(dx, dy)
		v.Center = v.Center.Add(dx, dy)
		return v
	}
	return s
}

func translateSegments(segs []Segment, dx, dy float64) []Segment {
	out := make([]Segment, len(segs))
	for i := range segs {
		out[i] = translateSegment(segs[i], dx, dy)
	}
	return out
}

func TranslateShape(s Shape, dx, dy float64) Shape {
	switch v := s.(type) {
	case Circle:
		return Circle{v.CX + dx, v.CY + dy, v.R}
	case Rect:
		v.X += dx
		v.Y += dy
		return v
	case Polygon:
		pts := make([]Point, len(v.Points))
		for i := range v.Points {
			pts[i] = v.Points[i].Add(dx, dy)
		}
		return Polygon{pts}
	case Outline:
		return Outline{translateSegments(v.Segments, dx, dy)}
	case Layered:
		subs := make([]ErasableShape, len(v.Shapes))
		for i := range v.Shapes {
			subs[i] = ErasableShape{TranslateShape(v.Shapes[i].Shape, dx, dy), v.Shapes[i].Erase}
		}
		return Layered{subs}
	}
	return s
}

// Translate returns a copy of the graphic moved by (dx, dy)
func Translate(g Graphic, dx, dy float64) Graphic {
	switch v := g.(type) {
	case ShapeGraphic:
		return ShapeGraphic{TranslateShape(v.Shape, dx, dy), v.Pol, v.Src}
	case PathGraphic:
		return PathGraphic{translateSegments(v.Segments, dx, dy), v.Width, v.Pol, v.Src}
	case RegionGraphic:
		return RegionGraphic{translateSegments(v.Segments, dx, dy), v.Pol, v.Src}
	}
	return g
}

/*
################################ bounds ################################
*/

// Bounds is [xmin, ymin, xmax, ymax]
type Bounds [4]float64

func EmptyBounds() Bounds {
	return Bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func (b Bounds) IsEmpty() bool {
	return b[0] > b[2] || b[1] > b[3]
}

func (b Bounds) Width() float64  { return b[2] - b[0] }
func (b Bounds) Height() float64 { return b[3] - b[1] }

func (b Bounds) Expand(x, y float64) Bounds {
	return Bounds{math.Min(b[0], x), math.Min(b[1], y), math.Max(b[2], x), math.Max(b[3], y)}
}

func (b Bounds) Merge(another Bounds) Bounds {
	if another.IsEmpty() {
		return b
	}
	return Bounds{
		math.Min(b[0], another[0]), math.Min(b[1], another[1]),
		math.Max(b[2], another[2]), math.Max(b[3], another[3]),
	}
}

func (b Bounds) Shift(dx, dy float64) Bounds {
	return Bounds{b[0] + dx, b[1] + dy, b[2] + dx, b[3] + dy}
}

// Grow widens the bounds by d on every side
func (b Bounds) Grow(d float64) Bounds {
	if b.IsEmpty() {
		return b
	}
	return Bounds{b[0] - d, b[1] - d, b[2] + d, b[3] + d}
}

func SegmentBounds(s Segment) Bounds {
	b := EmptyBounds()
	switch v := s.(type) {
	case Line:
		b = b.Expand(v.Start.X, v.Start.Y).Expand(v.End.X, v.End.Y)
	case Arc:
		// the full circle box, the same for every sweep
		b = b.Expand(v.Start.X, v.Start.Y).Expand(v.End.X, v.End.Y)
		b = b.Expand(v.Center.X-v.Radius, v.Center.Y-v.Radius)
		b = b.Expand(v.Center.X+v.Radius, v.Center.Y+v.Radius)
	}
	return b
}

func segmentsBounds(segs []Segment) Bounds {
	b := EmptyBounds()
	for i := range segs {
		b = b.Merge(SegmentBounds(segs[i]))
	}
	return b
}

func polygonBounds(pts []Point) Bounds {
	if len(pts) == 0 {
		return EmptyBounds()
	}
	cont := make(polyclip.Contour, 0, len(pts))
	for i := range pts {
		cont.Add(polyclip.Point{X: pts[i].X, Y: pts[i].Y})
	}
	bb := cont.BoundingBox()
	return Bounds{bb.Min.X, bb.Min.Y, bb.Max.X, bb.Max.Y}
}

func ShapeBounds(s Shape) Bounds {
	switch v := s.(type) {
	case Circle:
		return Bounds{v.CX - v.R, v.CY - v.R, v.CX + v.R, v.CY + v.R}
	case Rect:
		return Bounds{v.X, v.Y, v.X + v.W, v.Y + v.H}
	case Polygon:
		return polygonBounds(v.Points)
	case Outline:
		return segmentsBounds(v.Segments)
	case Layered:
		b := EmptyBounds()
		for i := range v.Shapes {
			b = b.Merge(ShapeBounds(v.Shapes[i].Shape))
		}
		return b
	}
	return EmptyBounds()
}

func GraphicBounds(g Graphic) Bounds {
	switch v := g.(type) {
	case ShapeGraphic:
		return ShapeBounds(v.Shape)
	case PathGraphic:
		return segmentsBounds(v.Segments).Grow(v.Width / 2)
	case RegionGraphic:
		return segmentsBounds(v.Segments)
	}
	return EmptyBounds()
}

// BoundsFromGraphics returns the union of the graphic bounds, [0,0,0,0] for no graphics
func BoundsFromGraphics(gs []Graphic) Bounds {
	b := EmptyBounds()
	for i := range gs {
		b = b.Merge(GraphicBounds(gs[i]))
	}
	if b.IsEmpty() {
		return Bounds{}
	}
	return b
}
