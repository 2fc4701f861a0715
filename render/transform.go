package render

import (
	"math"

	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

// Transform maps gerber coordinates to the screen, the Y axis is flipped:
//
//	screenX = OffsetX + x*Scale
//	screenY = OffsetY - y*Scale
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

func Identity() Transform {
	return Transform{Scale: 1}
}

func (tr Transform) Apply(p it.Point) it.Point {
	return it.Point{X: tr.OffsetX + p.X*tr.Scale, Y: tr.OffsetY - p.Y*tr.Scale}
}

// Inverse maps a screen point back to gerber coordinates
func (tr Transform) Inverse(sx, sy float64) it.Point {
	if tr.Scale == 0 {
		return it.Point{}
	}
	return it.Point{X: (sx - tr.OffsetX) / tr.Scale, Y: (tr.OffsetY - sy) / tr.Scale}
}

// AutoFit centers the bounds on a w x h canvas, margin is the fill factor (0.9 leaves 5% at each side)
func AutoFit(w, h int, b it.Bounds, margin float64) Transform {
	if margin <= 0 || margin > 1 {
		margin = 1
	}
	if b.IsEmpty() || w <= 0 || h <= 0 {
		return Transform{Scale: 1, OffsetX: float64(w) / 2, OffsetY: float64(h) / 2}
	}
	bw, bh := b.Width(), b.Height()
	var scale float64
	switch {
	case bw <= 0 && bh <= 0:
		scale = 1
	case bw <= 0:
		scale = float64(h) / bh
	case bh <= 0:
		scale = float64(w) / bw
	default:
		scale = math.Min(float64(w)/bw, float64(h)/bh)
	}
	scale *= margin
	cx := (b[0] + b[2]) / 2
	cy := (b[1] + b[3]) / 2
	return Transform{
		Scale:   scale,
		OffsetX: float64(w)/2 - cx*scale,
		OffsetY: float64(h)/2 + cy*scale,
	}
}
