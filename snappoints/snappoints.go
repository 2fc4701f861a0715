/*
Package snappoints extracts pad centers and path endpoints of an image tree
and finds the one nearest to a cursor
*/
package snappoints

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/glog"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

type Kind int

const (
	KindPad Kind = iota
	KindEndpoint
	KindCenter
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindPad:
		return "pad"
	case KindEndpoint:
		return "endpoint"
	case KindCenter:
		return "center"
	case KindGrid:
		return "grid"
	}
	return "unknown"
}

// AlignSnapPoint is a feature point in gerber units
type AlignSnapPoint struct {
	X, Y float64
	Kind Kind
}

// DrawSnapResult is where the cursor snaps to, Kind is KindGrid for a grid intersection
type DrawSnapResult AlignSnapPoint

type collector struct {
	points []AlignSnapPoint
	seen   map[[2]int64]bool
}

// pointKey rounds to 6 decimals, -0 and 0 share a key. Two points closer than 1e-6
// but on both sides of a rounding boundary still get different keys.
func pointKey(x, y float64) [2]int64 {
	return [2]int64{int64(math.Round(x * 1e6)), int64(math.Round(y * 1e6))}
}

func (c *collector) add(x, y float64, k Kind) {
	key := pointKey(x, y)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.points = append(c.points, AlignSnapPoint{X: x, Y: y, Kind: k})
}

func (c *collector) shape(s it.Shape) {
	switch v := s.(type) {
	case it.Circle:
		c.add(v.CX, v.CY, KindPad)
	case it.Rect:
		c.add(v.X+v.W/2, v.Y+v.H/2, KindPad)
	case it.Polygon:
		if len(v.Points) == 0 {
			return
		}
		var cx, cy float64
		for _, p := range v.Points {
			cx += p.X
			cy += p.Y
		}
		n := float64(len(v.Points))
		c.add(cx/n, cy/n, KindCenter)
	case it.Layered:
		// the first painted sub-shape stands for the whole pad
		for _, sub := range v.Shapes {
			if !sub.Erase {
				c.shape(sub.Shape)
				break
			}
		}
	}
}

// ExtractSnapPoints collects the snap targets of dark graphics: flash centers and
// path segment ends. Points closer than 1e-6 are reported once.
func ExtractSnapPoints(tree *it.ImageTree) []AlignSnapPoint {
	if tree == nil {
		return nil
	}
	c := &collector{seen: make(map[[2]int64]bool)}
	for _, g := range tree.Children {
		if g.Polarity() == PolTypeClear {
			continue
		}
		switch v := g.(type) {
		case it.ShapeGraphic:
			c.shape(v.Shape)
		case it.PathGraphic:
			for _, s := range v.Segments {
				st, en := s.StartPoint(), s.EndPoint()
				c.add(st.X, st.Y, KindEndpoint)
				c.add(en.X, en.Y, KindEndpoint)
			}
		}
	}
	glog.V(2).Infof("snap points: %d from %d graphics", len(c.points), len(tree.Children))
	return c.points
}

// FindNearestSnap returns the closest point strictly within maxDist, nil if there is none
func FindNearestSnap(x, y float64, points []AlignSnapPoint, maxDist float64) *AlignSnapPoint {
	var nearest *AlignSnapPoint
	best := maxDist * maxDist
	for i := range points {
		dx, dy := points[i].X-x, points[i].Y-y
		if d := dx*dx + dy*dy; d < best {
			best = d
			nearest = &points[i]
		}
	}
	return nearest
}

// FindBestDrawSnap prefers an object snap within maxDist, then the nearest grid intersection
func FindBestDrawSnap(x, y float64, points []AlignSnapPoint, gridSpacing float64, gridEnabled bool, maxDist float64) *DrawSnapResult {
	if p := FindNearestSnap(x, y, points, maxDist); p != nil {
		r := DrawSnapResult(*p)
		return &r
	}
	if !gridEnabled || gridSpacing <= 0 {
		return nil
	}
	return &DrawSnapResult{
		X:    math.Round(x/gridSpacing) * gridSpacing,
		Y:    math.Round(y/gridSpacing) * gridSpacing,
		Kind: KindGrid,
	}
}

/*
 ************************** spatial index ****************************
 */

type entry struct {
	AlignSnapPoint
}

func (e *entry) Bounds() rtreego.Rect {
	return rtreego.Point{e.X, e.Y}.ToRect(1e-9)
}

// Index answers nearest point queries on large point sets
type Index struct {
	tree *rtreego.Rtree
}

func NewIndex(points []AlignSnapPoint) *Index {
	objs := make([]rtreego.Spatial, len(points))
	for i := range points {
		objs[i] = &entry{points[i]}
	}
	return &Index{tree: rtreego.NewTree(2, 25, 50, objs...)}
}

func (idx *Index) Len() int {
	return idx.tree.Size()
}

// Nearest returns the indexed point closest to (x, y) strictly within maxDist, nil if there is none
func (idx *Index) Nearest(x, y, maxDist float64) *AlignSnapPoint {
	if idx.tree.Size() == 0 {
		return nil
	}
	obj := idx.tree.NearestNeighbor(rtreego.Point{x, y})
	e, ok := obj.(*entry)
	if !ok {
		return nil
	}
	if math.Hypot(e.X-x, e.Y-y) >= maxDist {
		return nil
	}
	p := e.AlignSnapPoint
	return &p
}

// Within returns the indexed points inside the square of half side r around (x, y)
func (idx *Index) Within(x, y, r float64) []AlignSnapPoint {
	found := idx.tree.SearchIntersect(rtreego.Point{x, y}.ToRect(r))
	out := make([]AlignSnapPoint, 0, len(found))
	for _, obj := range found {
		out = append(out, obj.(*entry).AlignSnapPoint)
	}
	return out
}
