package render

import (
	"image"
	"image/draw"
	"math"
	"sort"

	"github.com/akavel/polyclip-go"
	"github.com/golang/glog"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

/*
 ************************** crop to board outline ****************************
 */

// 10 um in file units
func chainTolerance(u Units) float64 {
	if u == UnitsInch {
		return 0.01 / 25.4
	}
	return 0.01
}

type fragment struct {
	pts  []it.Point
	used bool
}

func near(a, b it.Point, tol float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tol
}

// chainContours joins open polylines whose ends meet within tol into closed contours.
// Fragments which do not close are dropped.
func chainContours(frags [][]it.Point, tol float64) [][]it.Point {
	fs := make([]*fragment, 0, len(frags))
	for _, f := range frags {
		if len(f) >= 2 {
			fs = append(fs, &fragment{pts: f})
		}
	}
	var out [][]it.Point
	for _, start := range fs {
		if start.used {
			continue
		}
		start.used = true
		chain := append([]it.Point(nil), start.pts...)
		for !near(chain[0], chain[len(chain)-1], tol) {
			end := chain[len(chain)-1]
			found := false
			for _, f := range fs {
				if f.used {
					continue
				}
				switch {
				case near(end, f.pts[0], tol):
					chain = append(chain, f.pts[1:]...)
				case near(end, f.pts[len(f.pts)-1], tol):
					chain = append(chain, reversed(f.pts)[1:]...)
				default:
					continue
				}
				f.used = true
				found = true
				break
			}
			if !found {
				break
			}
		}
		if len(chain) >= 4 && near(chain[0], chain[len(chain)-1], tol) {
			out = append(out, chain[:len(chain)-1])
		}
	}
	return out
}

func toContour(pts []it.Point) polyclip.Contour {
	c := make(polyclip.Contour, 0, len(pts))
	for _, p := range pts {
		c.Add(polyclip.Point{X: p.X, Y: p.Y})
	}
	return c
}

func bboxArea(c polyclip.Contour) float64 {
	bb := c.BoundingBox()
	return (bb.Max.X - bb.Min.X) * (bb.Max.Y - bb.Min.Y)
}

// BoardOutline builds the board polygon of an outline layer: the largest closed dark contour
// minus every other contour and every clear flash
func BoardOutline(tree *it.ImageTree) polyclip.Polygon {
	if tree == nil {
		return nil
	}
	flat := flattener{tol: chainTolerance(tree.Units) / 4}
	var frags [][]it.Point
	var holes polyclip.Polygon
	for _, g := range tree.Children {
		switch v := g.(type) {
		case it.PathGraphic:
			if v.Pol == PolTypeDark {
				frags = append(frags, flat.contour(v.Segments))
			}
		case it.RegionGraphic:
			frags = append(frags, flat.contour(v.Segments))
		case it.ShapeGraphic:
			if v.Pol != PolTypeClear {
				continue
			}
			for _, l := range flat.shapeLayers(v.Shape) {
				if l.erase {
					continue
				}
				for _, c := range l.contours {
					holes = append(holes, toContour(c))
				}
			}
		}
	}
	contours := chainContours(frags, chainTolerance(tree.Units))
	if len(contours) == 0 {
		return nil
	}
	poly := make([]polyclip.Contour, len(contours))
	for i := range contours {
		poly[i] = toContour(contours[i])
	}
	sort.SliceStable(poly, func(i, j int) bool { return bboxArea(poly[i]) > bboxArea(poly[j]) })
	board := polyclip.Polygon{poly[0]}
	cut := append(polyclip.Polygon{}, poly[1:]...)
	cut = append(cut, holes...)
	if len(cut) > 0 {
		// cutouts are subtracted one by one, overlapping ones must not cancel each other
		for _, c := range cut {
			board = board.Construct(polyclip.DIFFERENCE, polyclip.Polygon{c})
		}
	}
	glog.V(2).Infof("board outline: %d closed contours, %d cutouts", len(contours), len(cut))
	return board
}

// OutlineMask rasterizes the board outline into a w x h mask, nil when the tree has no closed outline
func OutlineMask(tree *it.ImageTree, w, h int, opts Options) *image.Alpha {
	board := BoardOutline(tree)
	if len(board) == 0 {
		return nil
	}
	contours := make([][]it.Point, len(board))
	for i, c := range board {
		pts := make([]it.Point, len(c))
		for j := range c {
			pts[j] = it.Point{X: c[j].X, Y: c[j].Y}
		}
		// islands counter-clockwise and holes clockwise for the nonzero rule
		if nesting(board, i)%2 == 0 {
			contours[i] = ccw(pts)
		} else {
			contours[i] = cw(pts)
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	rc := newRenderContext(&opts)
	rc.fill(mask, mask.Rect, contours)
	return mask
}

// nesting counts the contours of p which contain contour i
func nesting(p polyclip.Polygon, i int) int {
	if len(p[i]) == 0 {
		return 0
	}
	n := 0
	for j := range p {
		if j != i && len(p[j]) > 2 && p[j].Contains(p[i][0]) {
			n++
		}
	}
	return n
}

// ApplyMask keeps the surface only where the mask is set
func ApplyMask(surface draw.Image, mask *image.Alpha) {
	if mask == nil {
		return
	}
	r := surface.Bounds()
	src := image.NewNRGBA(r)
	draw.Draw(src, r, surface, r.Min, draw.Src)
	draw.DrawMask(surface, r, src, r.Min, mask, mask.Rect.Min, draw.Src)
}
