package render

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// gerber (0,0) at the lower left corner of a 10x10 surface, 1 px per unit
func tenByTen() *Transform {
	return &Transform{Scale: 1, OffsetY: 10}
}

func tree(gs ...it.Graphic) *it.ImageTree {
	return &it.ImageTree{Units: UnitsMM, Bounds: it.BoundsFromGraphics(gs), Children: gs}
}

func flash(s it.Shape, pol PolType) it.Graphic {
	return it.ShapeGraphic{Shape: s, Pol: pol}
}

func TestTransform_Inverse(t *testing.T) {
	tr := Transform{Scale: 2.5, OffsetX: 10, OffsetY: 300}
	p := it.Point{X: 3.25, Y: -7}
	s := tr.Apply(p)
	if s.X != 18.125 || s.Y != 317.5 {
		t.Error("apply got", s)
	}
	back := tr.Inverse(s.X, s.Y)
	if math.Abs(back.X-p.X) > 1e-12 || math.Abs(back.Y-p.Y) > 1e-12 {
		t.Error("inverse got", back, "expected", p)
	}
}

func TestAutoFit(t *testing.T) {
	tr := AutoFit(200, 100, it.Bounds{0, 0, 10, 10}, 0.9)
	if math.Abs(tr.Scale-9) > 1e-12 {
		t.Error("scale got", tr.Scale)
	}
	c := tr.Apply(it.Point{X: 5, Y: 5})
	if math.Abs(c.X-100) > 1e-9 || math.Abs(c.Y-50) > 1e-9 {
		t.Error("bounds center lands at", c)
	}
	e := AutoFit(200, 100, it.EmptyBounds(), 0.9)
	if e.Scale != 1 || e.OffsetX != 100 || e.OffsetY != 50 {
		t.Error("empty bounds got", e)
	}
}

func TestRender_ClearErasesDark(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	tr := tree(
		flash(it.Rect{X: 1, Y: 1, W: 8, H: 8}, PolTypeDark),
		flash(it.Circle{CX: 5, CY: 5, R: 2}, PolTypeClear),
	)
	Render(tr, img, Options{Color: red, Background: white, Transform: tenByTen()})
	if got := img.RGBAAt(1, 1); got != red {
		t.Error("dark corner got", got)
	}
	if got := img.RGBAAt(5, 4); got != white {
		t.Error("erased center got", got)
	}
	if got := img.RGBAAt(0, 0); got != white {
		t.Error("outside got", got)
	}
}

func TestLayerMask_LayeredHole(t *testing.T) {
	donut := it.Layered{Shapes: []it.ErasableShape{
		{Shape: it.Circle{CX: 5, CY: 5, R: 4.5}},
		{Shape: it.Circle{CX: 5, CY: 5, R: 1.5}, Erase: true},
	}}
	mask := LayerMask(tree(flash(donut, PolTypeDark)), image.Rect(0, 0, 10, 10), Options{Transform: tenByTen()})
	if a := mask.AlphaAt(5, 4).A; a != 0 {
		t.Error("hole coverage", a)
	}
	if a := mask.AlphaAt(5, 2).A; a < 250 {
		t.Error("ring coverage", a)
	}
}

func TestLayerMask_Stroke(t *testing.T) {
	path := it.PathGraphic{
		Segments: []it.Segment{it.Line{Start: it.Point{X: 2, Y: 5}, End: it.Point{X: 8, Y: 5}}},
		Width:    2,
		Pol:      PolTypeDark,
	}
	mask := LayerMask(tree(path), image.Rect(0, 0, 10, 10), Options{Transform: tenByTen()})
	if a := mask.AlphaAt(5, 4).A; a < 250 {
		t.Error("stroke body coverage", a)
	}
	if a := mask.AlphaAt(5, 7).A; a != 0 {
		t.Error("below the stroke", a)
	}
	// round cap reaches one unit past the end
	if a := mask.AlphaAt(8, 4).A; a == 0 {
		t.Error("cap not painted")
	}

	padded := LayerMask(tree(path), image.Rect(0, 0, 10, 10), Options{Transform: tenByTen(), StrokePadding: 2})
	if a := padded.AlphaAt(5, 6).A; a < 250 {
		t.Error("padded stroke coverage", a)
	}
}

func TestLayerMask_FullCircleArc(t *testing.T) {
	arc := it.Arc{
		Start: it.Point{X: 8, Y: 5}, End: it.Point{X: 8, Y: 5},
		Center: it.Point{X: 5, Y: 5}, Radius: 3,
		StartAngle: 0, EndAngle: 2 * math.Pi, CounterClockwise: true,
	}
	mask := LayerMask(tree(it.PathGraphic{Segments: []it.Segment{arc}, Width: 2}), image.Rect(0, 0, 10, 10), Options{Transform: tenByTen()})
	if a := mask.AlphaAt(5, 4).A; a != 0 {
		t.Error("ring center painted", a)
	}
	if a := mask.AlphaAt(7, 4).A; a < 250 {
		t.Error("ring body coverage", a)
	}
}

func TestRenderSubset(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	tr := tree(
		flash(it.Rect{X: 0, Y: 0, W: 4, H: 4}, PolTypeDark),
		flash(it.Rect{X: 6, Y: 6, W: 4, H: 4}, PolTypeDark),
	)
	RenderSubset(tr, []int{1, 7}, img, Options{Color: red, Transform: tenByTen()})
	if got := img.RGBAAt(8, 1); got != red {
		t.Error("selected graphic got", got)
	}
	if got := img.RGBAAt(1, 8); got.A != 0 {
		t.Error("unselected graphic got", got)
	}
}

func TestRender_GerberOffset(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	tr := tree(flash(it.Rect{X: 0, Y: 0, W: 2, H: 2}, PolTypeDark))
	Render(tr, img, Options{Color: red, Transform: tenByTen(), GerberOffset: it.Point{X: 5, Y: 5}})
	if got := img.RGBAAt(6, 3); got != red {
		t.Error("shifted rect got", got)
	}
	if got := img.RGBAAt(1, 9); got.A != 0 {
		t.Error("original place got", got)
	}
}

func TestCombine(t *testing.T) {
	m := image.NewAlpha(image.Rect(0, 0, 2, 1))
	c := image.NewAlpha(image.Rect(0, 0, 2, 1))
	m.Pix[0], m.Pix[1] = 100, 200
	c.Pix[0], c.Pix[1] = 255, 51
	combine(m, m.Rect, c, PolTypeDark)
	if m.Pix[0] != 255 || m.Pix[1] != 200+51*55/255 {
		t.Error("dark got", m.Pix)
	}
	combine(m, m.Rect, c, PolTypeClear)
	if m.Pix[0] != 0 {
		t.Error("clear got", m.Pix)
	}
}

func square(x0, y0, x1, y1 float64) []it.Segment {
	return []it.Segment{
		it.Line{Start: it.Point{X: x0, Y: y0}, End: it.Point{X: x1, Y: y0}},
		it.Line{Start: it.Point{X: x1, Y: y0}, End: it.Point{X: x1, Y: y1}},
		it.Line{Start: it.Point{X: x1, Y: y1}, End: it.Point{X: x0, Y: y1}},
		it.Line{Start: it.Point{X: x0, Y: y1}, End: it.Point{X: x0, Y: y0}},
	}
}

func TestOutlineMask(t *testing.T) {
	var gs []it.Graphic
	// board edge drawn as separate strokes, one of them backwards
	for i, s := range square(0, 0, 10, 10) {
		if i == 2 {
			s = it.ReverseSegment(s)
		}
		gs = append(gs, it.PathGraphic{Segments: []it.Segment{s}, Width: 0.1, Pol: PolTypeDark})
	}
	gs = append(gs, it.PathGraphic{Segments: square(4, 4, 6, 6), Width: 0.1, Pol: PolTypeDark})
	mask := OutlineMask(tree(gs...), 10, 10, Options{Transform: tenByTen()})
	if mask == nil {
		t.Fatal("no outline found")
	}
	if a := mask.AlphaAt(2, 2).A; a < 250 {
		t.Error("board coverage", a)
	}
	if a := mask.AlphaAt(5, 4).A; a != 0 {
		t.Error("cutout coverage", a)
	}

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	ApplyMask(img, mask)
	if got := img.RGBAAt(5, 4); got.A != 0 {
		t.Error("masked pixel got", got)
	}
	if got := img.RGBAAt(2, 2); got != white {
		t.Error("kept pixel got", got)
	}
}

func TestOutlineMask_Open(t *testing.T) {
	segs := square(0, 0, 10, 10)[:3]
	if m := OutlineMask(tree(it.PathGraphic{Segments: segs, Width: 0.1}), 10, 10, Options{}); m != nil {
		t.Error("open outline produced a mask")
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	tr := tree(
		flash(it.Rect{X: 1, Y: 1, W: 8, H: 8}, PolTypeDark),
		flash(it.Circle{CX: 5, CY: 5, R: 2}, PolTypeClear),
		it.PathGraphic{Segments: []it.Segment{it.Line{Start: it.Point{X: 1, Y: 5}, End: it.Point{X: 9, Y: 5}}}, Width: 0.5},
	)
	if err := RenderSVG(tr, &buf, 10, 10, Options{Color: red, Transform: tenByTen()}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "<mask", `mask="url(#clear1)"`, "fill:#ff0000", "stroke-linecap:round", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Error("SVG output lacks", want)
		}
	}
	if err := RenderSVG(tr, &buf, 0, 10, Options{}); err == nil {
		t.Error("zero width accepted")
	}
}
