package apertures

import (
	"math"
	"testing"

	"github.com/vasilyturchenko/gerbcompare/amprocessor"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

func TestNewAperture(t *testing.T) {
	var cases = []struct {
		src  string
		want Aperture
	}{
		{"D10C,0.5", Aperture{Code: 10, Type: AptypeCircle, Diameter: 0.5}},
		{"D11C,0.5X0.2", Aperture{Code: 11, Type: AptypeCircle, Diameter: 0.5, HoleDiameter: 0.2}},
		{"D12R,1X2", Aperture{Code: 12, Type: AptypeRectangle, XSize: 1, YSize: 2}},
		{"D13O,1X2X0.3", Aperture{Code: 13, Type: AptypeObround, XSize: 1, YSize: 2, HoleDiameter: 0.3}},
		{"D14P,2X6X30", Aperture{Code: 14, Type: AptypePoly, Diameter: 2, Vertices: 6, RotAngle: 30}},
		{"D100THERM,1.2X0.8", Aperture{Code: 100, Type: AptypeMacro, MacroName: "THERM", MacroParams: []float64{1.2, 0.8}}},
		{"D101CIRC", Aperture{Code: 101, Type: AptypeMacro, MacroName: "CIRC"}},
	}
	for _, c := range cases {
		a, err := NewAperture(c.src)
		if err != nil {
			t.Error(c.src, err)
			continue
		}
		if a.Code != c.want.Code || a.Type != c.want.Type || a.Diameter != c.want.Diameter ||
			a.HoleDiameter != c.want.HoleDiameter || a.XSize != c.want.XSize || a.YSize != c.want.YSize ||
			a.Vertices != c.want.Vertices || a.RotAngle != c.want.RotAngle || a.MacroName != c.want.MacroName ||
			len(a.MacroParams) != len(c.want.MacroParams) {
			t.Error(c.src, "got", *a)
		}
	}
}

func TestNewAperture_Errors(t *testing.T) {
	for _, src := range []string{
		"", "10C,0.5", "D5C,0.5", "DC,0.5", "D10C", "D10R,1", "D10P,1",
		"D10C,abc", "D10C,-1", "D10R,1X1X-0.3X0.3", "D10,1",
	} {
		if _, err := NewAperture(src); err == nil {
			t.Error("NewAperture(\"" + src + "\") must fail")
		}
	}
}

// deprecated definitions keep their leading parameters and warn
func TestNewAperture_Legacy(t *testing.T) {
	var cases = []struct {
		src          string
		hole         float64
		holeX, holeY float64
		vertices     int
	}{
		{"D10R,1X1X0.3X0.3", 0, 0.3, 0.3, 0},
		{"D11C,0.5X0.1X0.2", 0, 0.1, 0.2, 0},
		{"D12O,1X2X0.3X0.4X9", 0, 0.3, 0.4, 0},
		{"D13P,1X13", 0, 0, 0, 12},
		{"D14P,1X2", 0, 0, 0, 3},
		{"D15P,1X6X0X0.2X0.1", 0, 0.2, 0.1, 6},
	}
	for _, c := range cases {
		a, err := NewAperture(c.src)
		if err != nil {
			t.Error(c.src, err)
			continue
		}
		if len(a.Warnings) != 1 {
			t.Error(c.src, "warnings", a.Warnings)
		}
		if a.HoleDiameter != c.hole || a.HoleX != c.holeX || a.HoleY != c.holeY {
			t.Error(c.src, "hole got", a.HoleDiameter, a.HoleX, a.HoleY)
		}
		if c.vertices != 0 && a.Vertices != c.vertices {
			t.Error(c.src, "vertices got", a.Vertices)
		}
	}

	a, _ := NewAperture("D10R,1X1X0.3X0.3")
	s, _ := a.Flash(0, 0)
	l, ok := s.(it.Layered)
	if !ok || len(l.Shapes) != 2 || !l.Shapes[1].Erase || l.Shapes[1].Shape != (it.Rect{X: -0.15, Y: -0.15, W: 0.3, H: 0.3}) {
		t.Error("rectangular hole must be an erased rect", s)
	}
	if a, _ := NewAperture("D16C,0.5X0.1"); len(a.Warnings) != 0 {
		t.Error("round hole is not deprecated", a.Warnings)
	}
}

func TestAperture_Flash(t *testing.T) {
	a, _ := NewAperture("D10C,0.5")
	s, _ := a.Flash(1, 2)
	if s != (it.Circle{CX: 1, CY: 2, R: 0.25}) {
		t.Error("circle flash", s)
	}

	a, _ = NewAperture("D11R,1X2")
	s, _ = a.Flash(0, 0)
	if s != (it.Rect{X: -0.5, Y: -1, W: 1, H: 2}) {
		t.Error("rect flash", s)
	}

	a, _ = NewAperture("D12O,1X2")
	s, _ = a.Flash(0, 0)
	if s.(it.Rect).R != 0.5 {
		t.Error("obround must round the short side", s)
	}

	a, _ = NewAperture("D13P,2X4X90")
	s, _ = a.Flash(0, 0)
	p := s.(it.Polygon).Points
	if len(p) != 4 || math.Abs(p[0].X) > 1e-12 || math.Abs(p[0].Y-1) > 1e-12 {
		t.Error("polygon must start at the rotation angle", p)
	}

	a, _ = NewAperture("D14C,1X0.4")
	s, _ = a.Flash(0, 0)
	l, ok := s.(it.Layered)
	if !ok || len(l.Shapes) != 2 || !l.Shapes[1].Erase || l.Shapes[1].Shape.(it.Circle).R != 0.2 {
		t.Error("hole must be an erased circle", s)
	}

	a, _ = NewAperture("D15C,1X0")
	if s, _ = a.Flash(0, 0); s != (it.Circle{R: 0.5}) {
		t.Error("zero hole must be ignored", s)
	}
}

func TestAperture_FlashMacro(t *testing.T) {
	a, _ := NewAperture("D20CIRC,0.8")
	_, w := a.Flash(0, 0)
	if len(w) != 1 {
		t.Error("undefined macro must warn")
	}
	a.MacroPtr, _ = amprocessor.NewApertureMacro("CIRC*1,1,$1,0,0*")
	s, w := a.Flash(3, 4)
	if len(w) != 0 || s != (it.Circle{CX: 3, CY: 4, R: 0.4}) {
		t.Error("macro flash", s, w)
	}
}

func TestAperture_StrokeWidth(t *testing.T) {
	var cases = []struct {
		src      string
		width    float64
		circular bool
	}{
		{"D10C,0.5", 0.5, true},
		{"D11R,1X0.3", 0.3, false},
		{"D12O,0.2X1", 0.2, false},
		{"D13P,2X6", 2, false},
		{"D14MAC,1", 0.1, false},
	}
	for _, c := range cases {
		a, _ := NewAperture(c.src)
		w, circ := a.StrokeWidth(0.1)
		if w != c.width || circ != c.circular {
			t.Error(c.src, w, circ)
		}
	}
}
