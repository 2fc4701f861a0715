/*
 Walks the parser AST and builds the image tree of shapes, paths and regions
*/
package plotter

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/amprocessor"
	"github.com/vasilyturchenko/gerbcompare/apertures"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	"github.com/vasilyturchenko/gerbcompare/gerbparser"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/regions"
	"github.com/vasilyturchenko/gerbcompare/srblocks"
	"github.com/vasilyturchenko/gerbcompare/xy"
)

// Options tune the plotter fallbacks
type Options struct {
	// stroke width for apertures whose size can not be derived (macros)
	NominalStrokeWidth float64
}

/*
	Plotter current status and statistic
*/
type statistic struct {
	flashes int
	lines   int
	arcs    int
	paths   int
	regions int
	moves   int
	srSteps int
}

func (s *statistic) String() string {
	return "flashes: " + strconv.Itoa(s.flashes) +
		", lines: " + strconv.Itoa(s.lines) +
		", arcs: " + strconv.Itoa(s.arcs) +
		", paths: " + strconv.Itoa(s.paths) +
		", regions: " + strconv.Itoa(s.regions) +
		", moves: " + strconv.Itoa(s.moves) +
		", step and repeat copies: " + strconv.Itoa(s.srSteps)
}

type plotState struct {
	opts Options

	units    Units
	fs       xy.FormatSpec
	pos      it.Point
	tools    map[int]*apertures.Aperture
	macros   map[string]*amprocessor.ApertureMacro
	current  *apertures.Aperture
	ipMode   IPmode
	quadMode QuadMode
	polarity PolType
	lastOp   ActType

	// the path being built and the aperture it is stroked with
	path     []it.Segment
	pathTool *apertures.Aperture
	pathSrc  []it.SourceRange

	// open region, nil outside G36/G37
	region        *regions.Region
	regionEmitted int

	// open step and repeat block and its buffered graphics
	sr    *srblocks.SRBlock
	srBuf []it.Graphic

	out      []it.Graphic
	warnings []GeometryWarning
	stat     statistic
}

func newPlotState(opts Options) *plotState {
	return &plotState{
		opts:     opts,
		units:    UnitsInch,
		fs:       xy.NewFormatSpec(),
		tools:    make(map[int]*apertures.Aperture),
		macros:   make(map[string]*amprocessor.ApertureMacro),
		ipMode:   IPModeLinear,
		quadMode: QuadModeMulti,
		polarity: PolTypeDark,
	}
}

// Plot converts the AST into an image tree with default options
func Plot(ast *gerbparser.AST) *it.ImageTree {
	return PlotWithOptions(ast, Options{})
}

func PlotWithOptions(ast *gerbparser.AST, opts Options) *it.ImageTree {
	st := newPlotState(opts)
	st.prepass(ast)
	for _, n := range ast.Children {
		st.node(n)
	}
	st.flush()
	if st.sr != nil {
		st.warn(-1, "step and repeat block is not closed, replayed at the end of the image")
		st.closeSR()
	}

	tree := &it.ImageTree{
		Units:    st.units,
		Bounds:   it.BoundsFromGraphics(st.out),
		Children: st.out,
		Warnings: st.warnings,
	}
	if glog.V(2) {
		glog.Infof("plotted %d graphics (%s), bounds %v %s, %d warnings",
			len(tree.Children), st.stat.String(), tree.Bounds, tree.Units, len(tree.Warnings))
	}
	return tree
}

// units and format are taken from the whole file first, coordinates may precede them
func (st *plotState) prepass(ast *gerbparser.AST) {
	hasDigits := false
	for _, n := range ast.Children {
		if f, ok := n.(*gerbparser.Format); ok && f.HasDigits() {
			hasDigits = true
			break
		}
	}
	for _, n := range ast.Children {
		switch v := n.(type) {
		case *gerbparser.UnitsCmd:
			st.units = v.Units
		case *gerbparser.Format:
			if v.HasDigits() {
				st.fs.IntDigits, st.fs.DecDigits = v.IntDigits, v.DecDigits
			}
			if v.Zeros != 0 {
				st.fs.Zeros = v.Zeros
			}
		case *gerbparser.Comment:
			if hasDigits {
				continue
			}
			if m := gerbparser.FormatCommentRE.FindStringSubmatch(v.Text); m != nil {
				st.fs.IntDigits, _ = strconv.Atoi(m[1])
				st.fs.DecDigits, _ = strconv.Atoi(m[2])
			}
		}
	}
}

func (st *plotState) warn(offset int, format string, a ...interface{}) {
	w := GeometryWarning{Message: fmt.Sprintf(format, a...), Offset: offset}
	glog.Warningln(w.String())
	st.warnings = append(st.warnings, w)
}

func (st *plotState) emit(g it.Graphic) {
	if st.sr != nil {
		st.srBuf = append(st.srBuf, g)
		return
	}
	st.out = append(st.out, g)
}

func (st *plotState) node(n gerbparser.Node) {
	switch v := n.(type) {
	case *gerbparser.UnitsCmd:
		st.units = v.Units
	case *gerbparser.Format:
		if v.HasDigits() {
			st.fs.IntDigits, st.fs.DecDigits = v.IntDigits, v.DecDigits
		}
		if v.Zeros != 0 {
			st.fs.Zeros = v.Zeros
		}
		if v.Mode != 0 {
			st.fs.Mode = v.Mode
		}
	case *gerbparser.ToolDef:
		st.tools[v.Code] = v.Aperture
		for _, w := range v.Aperture.Warnings {
			st.warn(v.Start, "%s", w.Message)
		}
		// the first defined aperture is selected
		if st.current == nil {
			st.current = v.Aperture
		}
	case *gerbparser.ToolMacro:
		st.macros[v.Macro.Name] = v.Macro
	case *gerbparser.ToolChange:
		st.flush()
		if a, ok := st.tools[v.Code]; ok {
			st.current = a
		} else {
			st.warn(v.Start, "aperture %d is not defined", v.Code)
		}
	case *gerbparser.Polarity:
		st.flush()
		st.polarity = v.Polarity
	case *gerbparser.InterpolateMode:
		st.ipMode = v.Mode
	case *gerbparser.QuadrantMode:
		st.quadMode = v.Mode
	case *gerbparser.RegionMode:
		st.flush()
		if v.Region {
			st.region = regions.NewRegion(v.Start)
			st.regionEmitted = 0
		} else if st.region != nil {
			st.region.Close(v.Start)
			st.region = nil
		}
	case *gerbparser.StepRepeat:
		st.flush()
		if st.sr != nil {
			st.closeSR()
		}
		if v.Block != nil {
			st.sr = v.Block
			st.srBuf = nil
		}
	case *gerbparser.Graphic:
		st.graphic(v)
	case *gerbparser.Done:
		st.flush()
	}
}

func (st *plotState) closeSR() {
	copies := st.sr.Replay(st.srBuf)
	st.stat.srSteps += len(copies) - len(st.srBuf)
	st.sr = nil
	st.srBuf = nil
	st.out = append(st.out, copies...)
}

func (st *plotState) graphic(g *gerbparser.Graphic) {
	start := st.pos
	endX, errX := xy.Resolve(g.Coords['X'], start.X, st.fs)
	endY, errY := xy.Resolve(g.Coords['Y'], start.Y, st.fs)
	i, errI := xy.Offset(g.Coords['I'], st.fs)
	j, errJ := xy.Offset(g.Coords['J'], st.fs)
	for _, err := range []error{errX, errY, errI, errJ} {
		if err != nil {
			st.warn(g.Start, "%v", err)
			return
		}
	}
	end := it.Point{X: endX, Y: endY}
	src := g.Span()

	op := g.Op
	if op == OpcodeNone {
		switch {
		case st.region != nil:
			op = OpcodeD01_DRAW
		case st.lastOp == OpcodeD01_DRAW || st.lastOp == OpcodeD03_FLASH:
			st.warn(g.Start, "coordinate data without operation code, %s is repeated", st.lastOp)
			op = st.lastOp
		default:
			op = OpcodeD02_MOVE
		}
	}
	st.lastOp = op

	switch op {
	case OpcodeD03_FLASH:
		st.flush()
		st.flash(end, g.Start, src)
	case OpcodeD02_MOVE:
		// a move to the current point does not break the path
		if end != start {
			st.flush()
		}
		st.stat.moves++
		st.pathSrc = append(st.pathSrc, src)
	case OpcodeD01_DRAW:
		seg := st.segment(start, end, i, j, g.Start)
		st.pathSrc = append(st.pathSrc, src)
		if st.region != nil {
			st.region.AddSegment(seg)
		} else {
			st.path = append(st.path, seg)
			st.pathTool = st.current
		}
	case OpcodeSlot:
		st.flush()
		if st.current == nil {
			st.warn(g.Start, "slot without a tool")
			break
		}
		w, _ := st.current.StrokeWidth(st.opts.NominalStrokeWidth)
		st.stat.lines++
		st.stat.paths++
		st.emit(it.PathGraphic{
			Segments: []it.Segment{it.Line{Start: start, End: end}},
			Width:    w,
			Pol:      st.polarity,
			Src:      []it.SourceRange{src},
		})
	}
	st.pos = end
}

func (st *plotState) flash(at it.Point, offset int, src it.SourceRange) {
	apert := st.current
	if apert == nil {
		st.warn(offset, "flash without an aperture")
		return
	}
	if apert.Type == AptypeMacro && apert.MacroPtr == nil {
		m, ok := st.macros[apert.MacroName]
		if !ok {
			st.warn(offset, "aperture %d refers to the undefined macro %s", apert.Code, apert.MacroName)
			return
		}
		bound := *apert
		bound.MacroPtr = m
		apert = &bound
	}
	shape, warnings := apert.Flash(at.X, at.Y)
	for _, w := range warnings {
		if w.Offset < 0 {
			w.Offset = offset
		}
		st.warnings = append(st.warnings, w)
	}
	if l, ok := shape.(it.Layered); ok && len(l.Shapes) == 0 {
		return
	}
	st.stat.flashes++
	st.emit(it.ShapeGraphic{Shape: shape, Pol: st.polarity, Src: []it.SourceRange{src}})
}

// flush turns the pending path or region contour into a graphic
func (st *plotState) flush() {
	if st.region != nil {
		st.region.StartContour()
		contours := st.region.Contours()
		for _, c := range contours[st.regionEmitted:] {
			st.stat.regions++
			st.emit(it.RegionGraphic{Segments: c, Pol: st.polarity, Src: st.pathSrc})
		}
		st.regionEmitted = len(contours)
		st.pathSrc = nil
		return
	}
	if len(st.path) == 0 {
		st.pathSrc = nil
		return
	}
	var width float64
	if st.pathTool == nil {
		st.warn(st.pathSrc[0].Start, "draw without an aperture, zero width used")
	} else {
		var circular bool
		width, circular = st.pathTool.StrokeWidth(st.opts.NominalStrokeWidth)
		if !circular {
			st.warn(st.pathSrc[0].Start, "stroke with non-circular aperture %d (%s), width %g used",
				st.pathTool.Code, st.pathTool.Type, width)
		}
	}
	st.stat.paths++
	st.emit(it.PathGraphic{Segments: st.path, Width: width, Pol: st.polarity, Src: st.pathSrc})
	st.path = nil
	st.pathTool = nil
	st.pathSrc = nil
}

// segment builds a line or an arc from start to end, (i, j) is the center offset
func (st *plotState) segment(start, end it.Point, i, j float64, offset int) it.Segment {
	if st.ipMode == IPModeLinear {
		st.stat.lines++
		return it.Line{Start: start, End: end}
	}
	ccw := st.ipMode == IPModeCCwC
	center := start.Add(i, j)
	radius := mgl64.Vec2{start.X - center.X, start.Y - center.Y}.Len()
	if radius < 1e-10 {
		st.stat.lines++
		return it.Line{Start: start, End: end}
	}
	st.stat.arcs++

	if st.quadMode == QuadModeSingle {
		center = singleQuadrantCenter(start, end, i, j, ccw)
		r1 := mgl64.Vec2{start.X - center.X, start.Y - center.Y}.Len()
		r2 := mgl64.Vec2{end.X - center.X, end.Y - center.Y}.Len()
		if math.Abs(r1-r2) > math.Max(r1*1e-2, 1e-5) {
			st.warn(offset, "arc radii differ: %g and %g", r1, r2)
		}
		if start == end {
			return it.Line{Start: start, End: end}
		}
		return it.Arc{
			Start:            start,
			End:              end,
			Center:           center,
			Radius:           r1,
			StartAngle:       angle(start, center),
			EndAngle:         angle(end, center),
			CounterClockwise: ccw,
		}
	}

	r2 := mgl64.Vec2{end.X - center.X, end.Y - center.Y}.Len()
	if math.Abs(radius-r2) > math.Max(radius*1e-2, 1e-5) {
		st.warn(offset, "arc radii differ: %g and %g", radius, r2)
	}
	sa := angle(start, center)
	ea := angle(end, center)
	// start equal to end is a full circle in multi quadrant mode
	chord := mgl64.Vec2{end.X - start.X, end.Y - start.Y}
	if chord.Len() < radius*1e-4 {
		if ccw {
			ea = sa + 2*math.Pi
		} else {
			ea = sa - 2*math.Pi
		}
	}
	return it.Arc{
		Start:            start,
		End:              end,
		Center:           center,
		Radius:           radius,
		StartAngle:       sa,
		EndAngle:         ea,
		CounterClockwise: ccw,
	}
}

func angle(p, c it.Point) float64 {
	return xy.LimitAngle(math.Atan2(p.Y-c.Y, p.X-c.X))
}

// single quadrant offsets are unsigned: the center is the candidate with the
// closest radii whose sweep does not exceed 90 degrees
func singleQuadrantCenter(start, end it.Point, i, j float64, ccw bool) it.Point {
	i, j = math.Abs(i), math.Abs(j)
	candidates := [4]it.Point{
		start.Add(i, j),
		start.Add(-i, j),
		start.Add(i, -j),
		start.Add(-i, -j),
	}
	best := candidates[0]
	bestErr := math.Inf(1)
	for _, c := range candidates {
		r1 := math.Hypot(start.X-c.X, start.Y-c.Y)
		r2 := math.Hypot(end.X-c.X, end.Y-c.Y)
		sa := math.Atan2(start.Y-c.Y, start.X-c.X)
		ea := math.Atan2(end.Y-c.Y, end.X-c.X)
		sweep := sa - ea
		if ccw {
			sweep = ea - sa
		}
		for sweep < 0 {
			sweep += 2 * math.Pi
		}
		if sweep > math.Pi/2+0.01 {
			continue
		}
		if e := math.Abs(r1 - r2); e < bestErr {
			bestErr = e
			best = c
		}
	}
	return best
}
