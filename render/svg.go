package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

/*
 ************************** SVG output ****************************
 */

// svgItem is one painted element, either a path d string or a group of sub items
type svgItem struct {
	d      string
	stroke float64 // stroke width in pixels, 0 means fill
	clear  bool
	sub    []svgItem
}

type svgWriter struct {
	canvas *svg.SVG
	rc     *renderContext
	w, h   int
	nmask  int
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (sw *svgWriter) screen(p it.Point) it.Point {
	return sw.rc.tr.Apply(p.Add(sw.rc.offset.X, sw.rc.offset.Y))
}

// contoursD converts closed point lists to path data
func (sw *svgWriter) contoursD(contours [][]it.Point) string {
	var sb strings.Builder
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		for i, p := range c {
			s := sw.screen(p)
			if i == 0 {
				sb.WriteString("M")
			} else {
				sb.WriteString(" L")
			}
			sb.WriteString(fmtNum(s.X) + " " + fmtNum(s.Y))
		}
		sb.WriteString(" Z ")
	}
	return strings.TrimSpace(sb.String())
}

// segmentsD converts gerber segments to path data with true arcs
func (sw *svgWriter) segmentsD(segs []it.Segment, closed bool) string {
	if len(segs) == 0 {
		return ""
	}
	var sb strings.Builder
	s := sw.screen(segs[0].StartPoint())
	sb.WriteString("M" + fmtNum(s.X) + " " + fmtNum(s.Y))
	for _, seg := range segs {
		switch v := seg.(type) {
		case it.Line:
			e := sw.screen(v.End)
			sb.WriteString(" L" + fmtNum(e.X) + " " + fmtNum(e.Y))
		case it.Arc:
			r := v.Radius * sw.rc.tr.Scale
			sweep := v.Sweep()
			// the Y flip turns a counter-clockwise arc into sweep-flag 0
			flag := "1"
			if sweep > 0 {
				flag = "0"
			}
			arcTo := func(p it.Point, large bool) {
				l := "0"
				if large {
					l = "1"
				}
				e := sw.screen(p)
				sb.WriteString(" A" + fmtNum(r) + " " + fmtNum(r) + " 0 " + l + " " + flag + " " + fmtNum(e.X) + " " + fmtNum(e.Y))
			}
			if math.Abs(sweep) >= 2*math.Pi-1e-9 {
				mid := it.Point{
					X: v.Center.X + v.Radius*math.Cos(v.StartAngle+sweep/2),
					Y: v.Center.Y + v.Radius*math.Sin(v.StartAngle+sweep/2),
				}
				arcTo(mid, false)
				arcTo(v.End, false)
				continue
			}
			arcTo(v.End, math.Abs(sweep) > math.Pi)
		}
	}
	if closed {
		sb.WriteString(" Z")
	}
	return sb.String()
}

func (sw *svgWriter) layerItems(layers []layer) []svgItem {
	items := make([]svgItem, 0, len(layers))
	for _, l := range layers {
		items = append(items, svgItem{d: sw.contoursD(l.contours), clear: l.erase})
	}
	return items
}

func (sw *svgWriter) item(g it.Graphic) (svgItem, bool) {
	clear := g.Polarity() == PolTypeClear
	switch v := g.(type) {
	case it.ShapeGraphic:
		layers := sw.rc.flat.shapeLayers(v.Shape)
		switch len(layers) {
		case 0:
			return svgItem{}, false
		case 1:
			if !layers[0].erase {
				return svgItem{d: sw.contoursD(layers[0].contours), clear: clear}, true
			}
		}
		return svgItem{sub: sw.layerItems(layers), clear: clear}, true
	case it.PathGraphic:
		w := (v.Width + sw.rc.pad) * sw.rc.tr.Scale
		if w <= 0 || len(v.Segments) == 0 {
			return svgItem{}, false
		}
		return svgItem{d: sw.segmentsD(v.Segments, false), stroke: w, clear: clear}, true
	case it.RegionGraphic:
		if len(v.Segments) == 0 {
			return svgItem{}, false
		}
		return svgItem{d: sw.segmentsD(v.Segments, true), clear: clear}, true
	}
	return svgItem{}, false
}

func (sw *svgWriter) paint(item svgItem, fill string) {
	switch {
	case len(item.sub) > 0:
		sw.runs(item.sub, fill)
	case item.stroke > 0:
		sw.canvas.Path(item.d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s;stroke-linecap:round;stroke-linejoin:round", fill, fmtNum(item.stroke)))
	case item.d != "":
		sw.canvas.Path(item.d, "fill:"+fill)
	}
}

// runs paints items in order. Every run of clear items becomes a mask on a group
// holding everything painted before it.
func (sw *svgWriter) runs(items []svgItem, fill string) {
	type run struct {
		clear bool
		items []svgItem
	}
	var rs []run
	for _, item := range items {
		if len(rs) == 0 || rs[len(rs)-1].clear != item.clear {
			rs = append(rs, run{clear: item.clear})
		}
		rs[len(rs)-1].items = append(rs[len(rs)-1].items, item)
	}
	var masks []string
	for _, r := range rs {
		if !r.clear {
			continue
		}
		sw.nmask++
		id := "clear" + strconv.Itoa(sw.nmask)
		masks = append(masks, id)
		sw.canvas.Def()
		sw.canvas.Mask(id, 0, 0, sw.w, sw.h, `maskUnits="userSpaceOnUse"`)
		sw.canvas.Rect(0, 0, sw.w, sw.h, "fill:white")
		for _, item := range r.items {
			item.clear = false
			sw.paint(item, "black")
		}
		sw.canvas.MaskEnd()
		sw.canvas.DefEnd()
	}
	for i := len(masks) - 1; i >= 0; i-- {
		sw.canvas.Group(`mask="url(#` + masks[i] + `)"`)
	}
	for _, r := range rs {
		if r.clear {
			sw.canvas.Gend()
			continue
		}
		for _, item := range r.items {
			sw.paint(item, fill)
		}
	}
}

// RenderSVG writes the tree as a w x h SVG document, clear polarity is expressed with masks
func RenderSVG(tree *it.ImageTree, out io.Writer, w, h int, opts Options) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid SVG size %dx%d", w, h)
	}
	sw := &svgWriter{canvas: svg.New(out), rc: newRenderContext(&opts), w: w, h: h}
	sw.canvas.Start(w, h)
	if opts.Background != nil {
		sw.canvas.Rect(0, 0, w, h, "fill:"+hexColor(opts.Background))
	}
	if tree != nil {
		items := make([]svgItem, 0, len(tree.Children))
		for _, g := range tree.Children {
			if item, ok := sw.item(g); ok {
				items = append(items, item)
			}
		}
		sw.canvas.Group(`id="layer"`)
		sw.runs(items, hexColor(opts.color()))
		sw.canvas.Gend()
	}
	sw.canvas.End()
	return nil
}
