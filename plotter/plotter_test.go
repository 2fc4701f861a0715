package plotter

import (
	"flag"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	"github.com/vasilyturchenko/gerbcompare/gerbparser"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

func init() {
	flag.Set("stderrthreshold", "FATAL")
}

func plotString(t *testing.T, src string) *it.ImageTree {
	t.Helper()
	ast, err := gerbparser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	return Plot(ast)
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlot_SingleFlash(t *testing.T) {
	tree := plotString(t, "%FSLAX26Y26*%\n%MOMM*%\nG01*\n%ADD10C,0.5*%\nD10*\nX1000000Y1000000D03*\nM02*")
	if tree.Units != UnitsMM {
		t.Error("bad units", tree.Units)
	}
	if len(tree.Children) != 1 {
		t.Fatal("expected one graphic, got", len(tree.Children))
	}
	g, ok := tree.Children[0].(it.ShapeGraphic)
	if !ok {
		t.Fatalf("expected a shape graphic, got %T", tree.Children[0])
	}
	c, ok := g.Shape.(it.Circle)
	if !ok || !near(c.CX, 1) || !near(c.CY, 1) || !near(c.R, 0.25) {
		t.Error("bad flash", g.Shape)
	}
	if g.Pol != PolTypeDark {
		t.Error("flash must be dark")
	}
	if !near(tree.Bounds[0], 0.75) || !near(tree.Bounds[3], 1.25) {
		t.Error("bad bounds", tree.Bounds)
	}
	if len(tree.Warnings) != 0 {
		t.Error("unexpected warnings", tree.Warnings)
	}
}

func TestPlot_Deterministic(t *testing.T) {
	src := `%FSLAX24Y24*%
%MOIN*%
%AMTHERM*7,0,0,0.1,0.06,0.01,45*%
%ADD10C,0.01*%
%ADD11THERM*%
%ADD12R,0.05X0.02*%
D10*
X0Y0D02*
X10000Y0D01*
G03X10000Y10000I0J5000D01*
D11*
X20000Y20000D03*
%LPC*%
D12*
X20000Y20000D03*
%LPD*%
G36*
G01X0Y0D02*
X5000Y0D01*
X5000Y5000D01*
X0Y0D01*
G37*
M02*`
	a := plotString(t, src)
	b := plotString(t, src)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Error("plot is not deterministic (-a +b):\n" + diff)
	}
	if len(a.Children) != 4 {
		t.Fatal("expected 4 graphics, got", len(a.Children))
	}
	if a.Children[2].Polarity() != PolTypeClear {
		t.Error("third graphic must be clear")
	}
	if _, ok := a.Children[3].(it.RegionGraphic); !ok {
		t.Errorf("expected a region, got %T", a.Children[3])
	}
}

func TestPlot_Path(t *testing.T) {
	tree := plotString(t, "%FSLAX24Y24*%%MOMM*%%ADD10C,0.2*%X0Y0D02*X10000D01*Y10000D01*X20000Y10000D02*X30000D01*M02*")
	if len(tree.Children) != 2 {
		t.Fatal("a move must split the path, got", len(tree.Children))
	}
	p := tree.Children[0].(it.PathGraphic)
	if len(p.Segments) != 2 || p.Width != 0.2 {
		t.Error("bad first path", p)
	}
	// the leading move belongs to the path
	if len(p.Src) != 3 {
		t.Error("expected 3 source ranges, got", len(p.Src))
	}
	l := tree.Children[1].(it.PathGraphic).Segments[0].(it.Line)
	if l.Start != (it.Point{X: 2, Y: 1}) || l.End != (it.Point{X: 3, Y: 1}) {
		t.Error("bad second path", l)
	}

	// a zero length move does not break the path
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.2*%X0Y0D02*X10000D01*D02*X20000D01*M02*")
	if len(tree.Children) != 1 || len(tree.Children[0].(it.PathGraphic).Segments) != 2 {
		t.Error("zero length move splits the path")
	}
}

func TestPlot_NonCircularStroke(t *testing.T) {
	tree := plotString(t, "%FSLAX24Y24*%%ADD10R,0.2X0.1*%X0Y0D02*X10000D01*M02*")
	if len(tree.Children) != 1 {
		t.Fatal("expected one path")
	}
	if w := tree.Children[0].(it.PathGraphic).Width; w != 0.1 {
		t.Error("rectangle stroke must fall back to its smallest side, got", w)
	}
	if len(tree.Warnings) != 1 {
		t.Error("expected a warning", tree.Warnings)
	}

	ast, _ := gerbparser.Parse("%FSLAX24Y24*%%AMB*21,1,1,1,0,0,0*%%ADD10B*%X0Y0D02*X10000D01*M02*")
	tree = PlotWithOptions(ast, Options{NominalStrokeWidth: 0.05})
	if w := tree.Children[0].(it.PathGraphic).Width; w != 0.05 {
		t.Error("macro stroke must use the nominal width, got", w)
	}
}

func TestPlot_LegacyAperture(t *testing.T) {
	tree := plotString(t, "%FSLAX24Y24*%%MOMM*%%ADD10C,0.5*%%ADD11R,1X1X0.3X0.3*%D11*X10000Y10000D03*M02*")
	if len(tree.Children) != 1 {
		t.Fatal("expected one flash, got", len(tree.Children))
	}
	l, ok := tree.Children[0].(it.ShapeGraphic).Shape.(it.Layered)
	if !ok || len(l.Shapes) != 2 || !l.Shapes[1].Erase {
		t.Error("rectangular hole must be erased", tree.Children[0])
	}
	if len(tree.Warnings) != 1 || tree.Warnings[0].Offset < 0 {
		t.Error("expected one located warning", tree.Warnings)
	}
}

func TestPlot_Arcs(t *testing.T) {
	// quarter circle, counter-clockwise, multi quadrant
	tree := plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%G75*X10000Y0D02*G03X0Y10000I-10000J0D01*M02*")
	a := tree.Children[0].(it.PathGraphic).Segments[0].(it.Arc)
	if a.Center != (it.Point{}) || !near(a.Radius, 1) || !a.CounterClockwise {
		t.Fatal("bad arc", a)
	}
	if !near(a.Sweep(), math.Pi/2) {
		t.Error("bad sweep", a.Sweep())
	}

	// start equal to end is a full circle
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%G75*X10000Y0D02*G02X10000Y0I-10000J0D01*M02*")
	a = tree.Children[0].(it.PathGraphic).Segments[0].(it.Arc)
	if !near(a.Sweep(), -2*math.Pi) {
		t.Error("expected a full clockwise circle, sweep", a.Sweep())
	}
	if !near(tree.Bounds[0], -1.05) || !near(tree.Bounds[2], 1.05) {
		t.Error("bad full circle bounds", tree.Bounds)
	}
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%G75*X0Y10000D02*G03X0Y10000I0J-10000D01*M02*")
	a = tree.Children[0].(it.PathGraphic).Segments[0].(it.Arc)
	if !near(a.Sweep(), 2*math.Pi) || !a.CounterClockwise {
		t.Error("expected a full counter-clockwise circle, sweep", a.Sweep())
	}

	// single quadrant: unsigned offsets, the center is at the origin
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%G74*X10000Y0D02*G03X0Y10000I10000J0D01*M02*")
	a = tree.Children[0].(it.PathGraphic).Segments[0].(it.Arc)
	if !near(a.Center.X, 0) || !near(a.Center.Y, 0) {
		t.Error("single quadrant center", a.Center)
	}
	if !near(a.Sweep(), math.Pi/2) {
		t.Error("single quadrant sweep", a.Sweep())
	}

	// zero radius is a line
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%X0Y0D02*G02X10000Y0I0J0D01*M02*")
	if _, ok := tree.Children[0].(it.PathGraphic).Segments[0].(it.Line); !ok {
		t.Error("degenerate arc must be a line")
	}
}

func TestPlot_Regions(t *testing.T) {
	src := "%FSLAX24Y24*%%ADD10C,0.1*%G36*X0Y0D02*X10000Y0D01*X10000Y10000D01*X0Y0D01*" +
		"X20000Y0D02*X30000Y0D01*X30000Y10000*X20000Y0*G37*M02*"
	tree := plotString(t, src)
	if len(tree.Children) != 2 {
		t.Fatal("expected one region per contour, got", len(tree.Children))
	}
	for i, g := range tree.Children {
		r, ok := g.(it.RegionGraphic)
		if !ok || len(r.Segments) != 3 {
			t.Errorf("bad region %d: %v", i, g)
		}
	}
	if len(tree.Warnings) != 0 {
		t.Error("coordinate-only blocks inside a region are segments", tree.Warnings)
	}
}

func TestPlot_CoordinateOnlyReusesDraw(t *testing.T) {
	tree := plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%X0Y0D02*X10000D01*X20000*M02*")
	if len(tree.Children) != 1 || len(tree.Children[0].(it.PathGraphic).Segments) != 2 {
		t.Error("coordinate-only block must repeat D01")
	}
	if len(tree.Warnings) != 1 {
		t.Error("expected one warning", tree.Warnings)
	}
	// without a previous operation it is a move
	tree = plotString(t, "%FSLAX24Y24*%%ADD10C,0.1*%X20000*M02*")
	if len(tree.Children) != 0 || len(tree.Warnings) != 0 {
		t.Error("coordinate-only block must move", tree.Children, tree.Warnings)
	}
}

func TestPlot_StepRepeat(t *testing.T) {
	src := "%FSLAX24Y24*%%MOMM*%%ADD10C,1*%%SRX3Y2I10.0J5.0*%X0Y0D03*%SR*%X100000Y0D03*M02*"
	tree := plotString(t, src)
	if len(tree.Children) != 7 {
		t.Fatal("expected 6 copies and one flash, got", len(tree.Children))
	}
	last := tree.Children[5].(it.ShapeGraphic).Shape.(it.Circle)
	if !near(last.CX, 20) || !near(last.CY, 5) {
		t.Error("bad last copy", last)
	}
	if !near(tree.Bounds[2], 20.5) || !near(tree.Bounds[3], 5.5) {
		t.Error("bad bounds", tree.Bounds)
	}
}

func TestPlot_Macro(t *testing.T) {
	src := "%FSLAX24Y24*%%MOMM*%%AMDONUT*1,1,$1,0,0*1,0,$2,0,0*%%ADD20DONUT,2X1*%D20*X10000Y10000D03*M02*"
	tree := plotString(t, src)
	if len(tree.Children) != 1 {
		t.Fatal("expected one flash")
	}
	l, ok := tree.Children[0].(it.ShapeGraphic).Shape.(it.Layered)
	if !ok || len(l.Shapes) != 2 || !l.Shapes[1].Erase {
		t.Fatal("bad macro flash", tree.Children[0])
	}
	c := l.Shapes[0].Shape.(it.Circle)
	if !near(c.CX, 1) || !near(c.R, 1) {
		t.Error("bad outer circle", c)
	}

	// undefined macro
	tree = plotString(t, "%FSLAX24Y24*%%ADD20NOPE*%D20*X0Y0D03*M02*")
	if len(tree.Children) != 0 || len(tree.Warnings) != 1 {
		t.Error("undefined macro must be skipped with a warning", tree.Children, tree.Warnings)
	}
}

func TestPlot_Drill(t *testing.T) {
	src := "M48\nMETRIC,TZ,000.000\nT1C0.800\nT2C1.200\n%\nT1\nX001000Y002000\nT2\nX0Y0G85X005000Y0\nM30\n"
	tree := plotString(t, src)
	if tree.Units != UnitsMM {
		t.Error("bad units", tree.Units)
	}
	if len(tree.Children) != 2 {
		t.Fatal("expected a hit and a slot, got", len(tree.Children))
	}
	c := tree.Children[0].(it.ShapeGraphic).Shape.(it.Circle)
	if !near(c.CX, 1) || !near(c.CY, 2) || !near(c.R, 0.4) {
		t.Error("bad hit", c)
	}
	p := tree.Children[1].(it.PathGraphic)
	if p.Width != 1.2 || p.Segments[0].EndPoint() != (it.Point{X: 5, Y: 0}) {
		t.Error("bad slot", p)
	}
}

func TestPlot_DrillFormatComment(t *testing.T) {
	// digits and zero suppression come from the comment
	tree := plotString(t, "; FORMAT={3:3/ absolute / metric / suppress trailing zeros}\nM48\nMETRIC\nT1C0.5\n%\nT1\nX01Y02\nM30\n")
	c := tree.Children[0].(it.ShapeGraphic).Shape.(it.Circle)
	if !near(c.CX, 10) || !near(c.CY, 20) {
		t.Error("bad trailing zero hit", c)
	}
}
