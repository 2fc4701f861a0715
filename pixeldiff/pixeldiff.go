/*
Package pixeldiff compares two rendered layers pixel by pixel
*/
package pixeldiff

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/glog"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

var (
	// present in both
	Gray = color.NRGBA{180, 180, 180, 255}
	// present only in A
	Red = color.NRGBA{255, 60, 60, 255}
	// present only in B
	Green = color.NRGBA{60, 200, 60, 255}
)

// presence reports whether the pixel at (x, y), relative to the image origin, has a non-zero alpha
type presence func(x, y int) bool

func presenceOf(img image.Image) presence {
	r := img.Bounds()
	switch v := img.(type) {
	case *image.NRGBA:
		return func(x, y int) bool { return v.Pix[v.PixOffset(r.Min.X+x, r.Min.Y+y)+3] != 0 }
	case *image.RGBA:
		return func(x, y int) bool { return v.Pix[v.PixOffset(r.Min.X+x, r.Min.Y+y)+3] != 0 }
	case *image.Alpha:
		return func(x, y int) bool { return v.Pix[v.PixOffset(r.Min.X+x, r.Min.Y+y)] != 0 }
	}
	// 16 bit alpha, a value below 256 still counts
	return func(x, y int) bool {
		_, _, _, a := img.At(r.Min.X+x, r.Min.Y+y).RGBA()
		return a != 0
	}
}

// ComputePixelDiff paints every pixel by where it is present: gray in both, red only in a,
// green only in b and transparent in neither. A pixel is present when its alpha is not zero.
func ComputePixelDiff(a, b image.Image) (*image.NRGBA, error) {
	ra, rb := a.Bounds(), b.Bounds()
	if ra.Size() != rb.Size() {
		return nil, &DimensionMismatch{A: ra.Size(), B: rb.Size()}
	}
	w, h := ra.Dx(), ra.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	inA, inB := presenceOf(a), presenceOf(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pa, pb := inA(x, y), inB(x, y)
			var c color.NRGBA
			switch {
			case pa && pb:
				c = Gray
			case pa:
				c = Red
			case pb:
				c = Green
			default:
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if glog.V(2) {
		glog.Infof("pixel diff %dx%d: %v", w, h, Summarize(out))
	}
	return out, nil
}

// Stats counts the classified pixels of a diff image
type Stats struct {
	Unchanged int
	Removed   int
	Added     int
}

func (s Stats) String() string {
	return fmt.Sprintf("unchanged %d, removed %d, added %d", s.Unchanged, s.Removed, s.Added)
}

// Changed is the share of changed pixels among all painted ones, 0 for an empty diff
func (s Stats) Changed() float64 {
	total := s.Unchanged + s.Removed + s.Added
	if total == 0 {
		return 0
	}
	return float64(s.Removed+s.Added) / float64(total)
}

func Summarize(diff *image.NRGBA) Stats {
	var s Stats
	if diff == nil {
		return s
	}
	r := diff.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			switch diff.NRGBAAt(x, y) {
			case Gray:
				s.Unchanged++
			case Red:
				s.Removed++
			case Green:
				s.Added++
			}
		}
	}
	return s
}
