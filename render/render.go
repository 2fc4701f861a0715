/*
Package render rasterizes image trees onto draw.Image surfaces and writes SVG
*/
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/glog"
	"golang.org/x/image/vector"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

// Options of a render pass
type Options struct {
	Color color.Color
	// nil means identity
	Transform *Transform
	// painted under the layer when set
	Background color.Color
	// alignment offset added to gerber coordinates before the transform
	GerberOffset it.Point
	// screen pixels added to every stroke width
	StrokePadding float64
}

func (o *Options) transform() Transform {
	if o.Transform == nil {
		return Identity()
	}
	return *o.Transform
}

func (o *Options) color() color.Color {
	if o.Color == nil {
		return color.Black
	}
	return o.Color
}

/*
 ************************** Rendering context ****************************
 */
type renderContext struct {
	tr     Transform
	flat   flattener
	offset it.Point
	pad    float64 // stroke padding in gerber units

	z       *vector.Rasterizer
	covBuf  []uint8
	tempBuf []uint8

	// statistic
	painted int
	skipped int
	clipped int
}

func newRenderContext(opts *Options) *renderContext {
	rc := new(renderContext)
	rc.tr = opts.transform()
	rc.flat = newFlattener(rc.tr.Scale)
	rc.offset = opts.GerberOffset
	if rc.tr.Scale > 0 {
		rc.pad = opts.StrokePadding / rc.tr.Scale
	}
	rc.z = vector.NewRasterizer(1, 1)
	return rc
}

// alpha returns a zeroed w x h buffer backed by buf
func alpha(buf *[]uint8, w, h int) *image.Alpha {
	n := w * h
	if cap(*buf) < n {
		*buf = make([]uint8, n)
	}
	pix := (*buf)[:n]
	for i := range pix {
		pix[i] = 0
	}
	return &image.Alpha{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// pixelRect returns the screen rectangle covered by gerber bounds
func (rc *renderContext) pixelRect(b it.Bounds) image.Rectangle {
	b = b.Shift(rc.offset.X, rc.offset.Y)
	p0 := rc.tr.Apply(it.Point{X: b[0], Y: b[3]})
	p1 := rc.tr.Apply(it.Point{X: b[2], Y: b[1]})
	return image.Rect(
		int(math.Floor(p0.X))-1, int(math.Floor(p0.Y))-1,
		int(math.Ceil(p1.X))+1, int(math.Ceil(p1.Y))+1,
	)
}

// fill rasterizes contours into dst, r.Min is the origin of dst on the surface
func (rc *renderContext) fill(dst *image.Alpha, r image.Rectangle, contours [][]it.Point) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	rc.z.Reset(w, h)
	rc.z.DrawOp = draw.Src
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		for i, p := range c {
			s := rc.tr.Apply(p.Add(rc.offset.X, rc.offset.Y))
			x, y := float32(s.X-ox), float32(s.Y-oy)
			if i == 0 {
				rc.z.MoveTo(x, y)
			} else {
				rc.z.LineTo(x, y)
			}
		}
		rc.z.ClosePath()
	}
	rc.z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
}

// layers returns the paint layers of a graphic in gerber units
func (rc *renderContext) layers(g it.Graphic) []layer {
	switch v := g.(type) {
	case it.ShapeGraphic:
		return rc.flat.shapeLayers(v.Shape)
	case it.PathGraphic:
		c := rc.flat.strokeContours(v.Segments, v.Width+rc.pad)
		if len(c) == 0 {
			return nil
		}
		return []layer{{contours: c}}
	case it.RegionGraphic:
		c := rc.flat.contour(v.Segments)
		if len(c) < 3 {
			return nil
		}
		return []layer{{contours: [][]it.Point{c}}}
	}
	return nil
}

// coverage rasterizes a graphic into a clipped alpha image, the rectangle is its place on the surface.
// ok is false when nothing is painted.
func (rc *renderContext) coverage(g it.Graphic, clip image.Rectangle) (*image.Alpha, image.Rectangle, bool) {
	layers := rc.layers(g)
	if len(layers) == 0 {
		rc.skipped++
		return nil, image.Rectangle{}, false
	}
	b := it.GraphicBounds(g)
	if _, ok := g.(it.PathGraphic); ok {
		b = b.Grow(rc.pad / 2)
	}
	r := rc.pixelRect(b).Intersect(clip)
	if r.Empty() {
		rc.clipped++
		return nil, image.Rectangle{}, false
	}
	cov := alpha(&rc.covBuf, r.Dx(), r.Dy())
	if len(layers) == 1 && !layers[0].erase {
		rc.fill(cov, r, layers[0].contours)
		return cov, r, true
	}
	for _, l := range layers {
		tmp := alpha(&rc.tempBuf, r.Dx(), r.Dy())
		rc.fill(tmp, r, l.contours)
		pol := PolTypeDark
		if l.erase {
			pol = PolTypeClear
		}
		combine(cov, cov.Rect, tmp, pol)
	}
	return cov, r, true
}

// combine merges coverage c into mask m in integer arithmetic:
// dark m + c*(255-m)/255, clear m*(255-c)/255. r is the place of c on m.
func combine(m *image.Alpha, r image.Rectangle, c *image.Alpha, pol PolType) {
	w, h := r.Dx(), r.Dy()
	for y := 0; y < h; y++ {
		mi := m.PixOffset(r.Min.X, r.Min.Y+y)
		ci := y * c.Stride
		for x := 0; x < w; x++ {
			cv := uint32(c.Pix[ci+x])
			if cv == 0 {
				continue
			}
			mv := uint32(m.Pix[mi+x])
			if pol == PolTypeClear {
				mv = mv * (255 - cv) / 255
			} else {
				mv = mv + cv*(255-mv)/255
			}
			m.Pix[mi+x] = uint8(mv)
		}
	}
}

// LayerMask composites the polarity of all graphics into a coverage mask of the surface size
func LayerMask(tree *it.ImageTree, r image.Rectangle, opts Options) *image.Alpha {
	mask := image.NewAlpha(r)
	if tree == nil {
		return mask
	}
	rc := newRenderContext(&opts)
	for _, g := range tree.Children {
		cov, cr, ok := rc.coverage(g, r)
		if !ok {
			continue
		}
		combine(mask, cr, cov, g.Polarity())
		rc.painted++
	}
	if glog.V(2) {
		glog.Infof("render: %d graphics painted, %d empty, %d outside the surface", rc.painted, rc.skipped, rc.clipped)
	}
	return mask
}

// Render paints the tree on the surface with a single color. Clear polarity erases
// what was painted before it in the same tree, not the surface underneath.
func Render(tree *it.ImageTree, surface draw.Image, opts Options) {
	r := surface.Bounds()
	mask := LayerMask(tree, r, opts)
	if opts.Background != nil {
		draw.Draw(surface, r, image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	draw.DrawMask(surface, r, image.NewUniform(opts.color()), image.Point{}, mask, r.Min, draw.Over)
}

// RenderSubset paints only the graphics with the given indices, e.g. a highlighted selection
func RenderSubset(tree *it.ImageTree, indices []int, surface draw.Image, opts Options) {
	if tree == nil {
		return
	}
	sub := &it.ImageTree{Units: tree.Units, Bounds: tree.Bounds}
	for _, i := range indices {
		if i >= 0 && i < len(tree.Children) {
			sub.Children = append(sub.Children, tree.Children[i])
		}
	}
	Render(sub, surface, opts)
}
