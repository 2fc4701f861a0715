//Aperture Macros support
package amprocessor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/calculator"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/xy"
)

type AMPrimitiveType int

func (amp AMPrimitiveType) String() string {
	var retVal string
	switch amp {
	case AMPrimitive_Comment:
		retVal = "comment"
	case AMPrimitive_Circle:
		retVal = "circle"
	case AMPrimitive_VectLine:
		retVal = "vector line"
	case AMPrimitive_CenterLine:
		retVal = "center line"
	case AMPrimitive_LowerLeftLine:
		retVal = "lower left line"
	case AMPRimitive_OutLine:
		retVal = "outline"
	case AMPrimitive_Polygon:
		retVal = "polygon"
	case AMPrimitive_Moire:
		retVal = "moire"
	case AMPrimitive_Thermal:
		retVal = "thermal"
	default:
		retVal = "unknown"
	}
	return retVal
}

const (
	AMPrimitive_Comment       AMPrimitiveType = 0
	AMPrimitive_Circle        AMPrimitiveType = 1
	AMPrimitive_VectLineOld   AMPrimitiveType = 2
	AMPrimitive_VectLine      AMPrimitiveType = 20
	AMPrimitive_CenterLine    AMPrimitiveType = 21
	AMPrimitive_LowerLeftLine AMPrimitiveType = 22
	AMPRimitive_OutLine       AMPrimitiveType = 4
	AMPrimitive_Polygon       AMPrimitiveType = 5
	AMPrimitive_Moire         AMPrimitiveType = 6
	AMPrimitive_Thermal       AMPrimitiveType = 7
)

// modifier names, rotation is optional everywhere it is the last one
var modifierNames = map[AMPrimitiveType][]string{
	AMPrimitive_Circle:        {"Exposure", "Diameter", "Center X", "Center Y", "Rotation"},
	AMPrimitive_VectLine:      {"Exposure", "Width", "Start X", "Start Y", "End X", "End Y", "Rotation"},
	AMPrimitive_CenterLine:    {"Exposure", "Width", "Hight", "Center X", "Center Y", "Rotation"},
	AMPrimitive_LowerLeftLine: {"Exposure", "Width", "Hight", "Lower left X", "Lower left Y", "Rotation"},
	AMPRimitive_OutLine:       {"Exposure", "# vertices", "Start X", "Start Y"},
	AMPrimitive_Polygon:       {"Exposure", "# vertices", "Center X", "Center Y", "Diameter", "Rotation"},
	AMPrimitive_Moire: {"Center X", "Center Y", "Outer diameter rings", "Ring thickness", "Gap",
		"Max # rings", "Crosshair thickness", "Crosshair length", "Rotation"},
	AMPrimitive_Thermal: {"Center X", "Center Y", "Outer diameter", "Inner diameter", "Gap", "Rotation"},
}

func minModifiers(amp AMPrimitiveType) int {
	if amp == AMPRimitive_OutLine {
		return 4
	}
	return len(modifierNames[amp]) - 1
}

type AMPrimitive struct {
	PrimitiveType AMPrimitiveType
	AMModifiers   []*calculator.Expression
	Src           []string
}

func (amp AMPrimitive) String() string {
	retVal := "Aperture macro primitive:\t"
	retVal = retVal + amp.PrimitiveType.String() + "\n"
	return retVal + ArrayInfo(amp.Src, modifierNames[amp.PrimitiveType])
}

type AMVariable struct {
	Index          int
	Value          *calculator.Expression
	Src            string
	PrimitiveIndex int // the assignment is done before this primitive
}

func (amv AMVariable) String() string {
	return "$" + strconv.Itoa(amv.Index) + "=" + amv.Src + " (primitive index=" + strconv.Itoa(amv.PrimitiveIndex) + ")"
}

type ApertureMacro struct {
	Name       string // name from source string
	Comments   []string
	Variables  []AMVariable
	Primitives []AMPrimitive
}

func (am ApertureMacro) String() string {
	retVal := "\nAperture macro name:\t" + am.Name + "\nComments:\n"
	for i := range am.Comments {
		retVal = retVal + "\t\t" + am.Comments[i] + "\n"
	}
	retVal = retVal + "Variables:\n"
	for i := range am.Variables {
		retVal = retVal + "\t\t" + am.Variables[i].String() + "\n"
	}
	retVal = retVal + "Primitives:\n"
	for i := range am.Primitives {
		retVal = retVal + "\t" + am.Primitives[i].String() + "\n"
	}
	return retVal
}

// NewApertureMacro parses the body of an AM command, e.g. "THERM*0 comment*$2=$1x0.5*7,0,0,$1,$2,0.1,45*"
func NewApertureMacro(src string) (*ApertureMacro, error) {
	retVal := new(ApertureMacro)
	splittedStr := strings.Split(src, "*")
	retVal.Name = strings.TrimSpace(splittedStr[0])
	if retVal.Name == "" {
		return retVal, fmt.Errorf("aperture macro name not found")
	}

	for _, s := range splittedStr[1:] {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if s == "0" || strings.HasPrefix(s, "0 ") || strings.HasPrefix(s, "0,") {
			retVal.Comments = append(retVal.Comments, strings.TrimSpace(s[1:]))
			continue
		}

		if strings.HasPrefix(s, "$") {
			eqSignPos := strings.Index(s, "=")
			if eqSignPos == -1 {
				return retVal, fmt.Errorf("problem with variable: %s", s)
			}
			idx, err := strconv.Atoi(strings.TrimSpace(s[1:eqSignPos]))
			if err != nil {
				return retVal, fmt.Errorf("bad variable name in %s: %w", s, err)
			}
			expr, err := calculator.Parse(s[eqSignPos+1:])
			if err != nil {
				return retVal, err
			}
			retVal.Variables = append(retVal.Variables,
				AMVariable{idx, expr, s[eqSignPos+1:], len(retVal.Primitives)})
			continue
		}

		modifiersArr := strings.Split(s, ",")
		primTypeI, err := strconv.Atoi(strings.TrimSpace(modifiersArr[0]))
		if err != nil {
			return retVal, fmt.Errorf("bad aperture macro primitive: %s", s)
		}
		primType := AMPrimitiveType(primTypeI)
		if primType == AMPrimitive_VectLineOld {
			primType = AMPrimitive_VectLine
		}
		if _, ok := modifierNames[primType]; !ok {
			return retVal, fmt.Errorf("unknown aperture macro primitive %d in %s", primTypeI, s)
		}
		if len(modifiersArr)-1 < minModifiers(primType) {
			return retVal, fmt.Errorf("%s primitive needs at least %d modifiers: %s",
				primType, minModifiers(primType), s)
		}
		prim := AMPrimitive{PrimitiveType: primType}
		for _, m := range modifiersArr[1:] {
			m = strings.TrimSpace(m)
			expr, err := calculator.Parse(m)
			if err != nil {
				return retVal, err
			}
			prim.AMModifiers = append(prim.AMModifiers, expr)
			prim.Src = append(prim.Src, m)
		}
		retVal.Primitives = append(retVal.Primitives, prim)
	}
	return retVal, nil
}

/*
################################# evaluation ##################################
*/

type evaluator struct {
	vars     map[int]float64
	shapes   []it.ErasableShape
	warnings []GeometryWarning
	cx, cy   float64
}

func (ev *evaluator) warn(format string, a ...interface{}) {
	w := GeometryWarning{Message: fmt.Sprintf(format, a...), Offset: -1}
	glog.Warningln(w.String())
	ev.warnings = append(ev.warnings, w)
}

func (ev *evaluator) add(s it.Shape, erase bool) {
	ev.shapes = append(ev.shapes, it.ErasableShape{Shape: it.TranslateShape(s, ev.cx, ev.cy), Erase: erase})
}

// Evaluate instantiates the macro with the aperture parameters ($1..$n) at the flash point (cx, cy).
// A single dark primitive yields its own shape, anything else a layered shape.
func (am *ApertureMacro) Evaluate(params []float64, cx, cy float64) (it.Shape, []GeometryWarning) {
	ev := &evaluator{vars: make(map[int]float64), cx: cx, cy: cy}
	for i := range params {
		ev.vars[i+1] = params[i]
	}
	vi := 0
	for pi := range am.Primitives {
		for vi < len(am.Variables) && am.Variables[vi].PrimitiveIndex <= pi {
			ev.vars[am.Variables[vi].Index] = am.Variables[vi].Value.Eval(ev.vars)
			vi++
		}
		ev.primitive(&am.Primitives[pi])
	}
	if len(ev.shapes) == 1 && !ev.shapes[0].Erase {
		return ev.shapes[0].Shape, ev.warnings
	}
	return it.Layered{Shapes: ev.shapes}, ev.warnings
}

func (ev *evaluator) primitive(p *AMPrimitive) {
	mods := make([]float64, len(p.AMModifiers))
	for i := range p.AMModifiers {
		mods[i] = p.AMModifiers[i].Eval(ev.vars)
	}
	mod := func(i int) float64 {
		if i < len(mods) {
			return mods[i]
		}
		return 0
	}
	erase := mod(0) == 0

	switch p.PrimitiveType {
	case AMPrimitive_Circle:
		x, y := xy.RotatePoint(mod(2), mod(3), mod(4), 0, 0)
		ev.add(it.Circle{CX: x, CY: y, R: mod(1) / 2}, erase)

	case AMPrimitive_VectLine:
		w := mod(1)
		sx, sy, ex, ey := mod(2), mod(3), mod(4), mod(5)
		l := math.Hypot(ex-sx, ey-sy)
		if l == 0 || w <= 0 {
			ev.warn("zero size vector line skipped")
			return
		}
		nx, ny := -(ey-sy)/l*w/2, (ex-sx)/l*w/2
		ev.add(rotatedPolygon([]it.Point{
			{X: sx + nx, Y: sy + ny}, {X: ex + nx, Y: ey + ny},
			{X: ex - nx, Y: ey - ny}, {X: sx - nx, Y: sy - ny},
		}, mod(6)), erase)

	case AMPrimitive_CenterLine:
		w, h := mod(1), mod(2)
		x0, y0 := mod(3)-w/2, mod(4)-h/2
		ev.add(rotatedPolygon(box(x0, y0, w, h), mod(5)), erase)

	case AMPrimitive_LowerLeftLine:
		ev.add(rotatedPolygon(box(mod(3), mod(4), mod(1), mod(2)), mod(5)), erase)

	case AMPRimitive_OutLine:
		n := int(mod(1))
		if n < 1 || len(mods) < 4+2*n {
			ev.warn("outline with %d vertices has %d modifiers, skipped", n, len(mods))
			return
		}
		pts := make([]it.Point, 0, n+1)
		for i := 0; i <= n; i++ {
			pts = append(pts, it.Point{X: mod(2 + 2*i), Y: mod(3 + 2*i)})
		}
		// the closing vertex repeats the first one
		if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
			pts = pts[:len(pts)-1]
		}
		ev.add(rotatedPolygon(pts, mod(4+2*n)), erase)

	case AMPrimitive_Polygon:
		n := int(mod(1))
		if n < 3 {
			ev.warn("polygon primitive with %d vertices skipped", n)
			return
		}
		r := mod(4) / 2
		pts := make([]it.Point, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = it.Point{X: mod(2) + r*math.Cos(a), Y: mod(3) + r*math.Sin(a)}
		}
		ev.add(rotatedPolygon(pts, mod(5)), erase)

	case AMPrimitive_Moire:
		ev.warn("moire primitive drawn as rings and crosshair")
		ev.moire(mod(0), mod(1), mod(2), mod(3), mod(4), int(mod(5)), mod(6), mod(7), mod(8))

	case AMPrimitive_Thermal:
		ev.thermal(mod(0), mod(1), mod(2), mod(3), mod(4), mod(5))

	default:
		ev.warn("unknown macro primitive %d skipped", p.PrimitiveType)
	}
}

func box(x, y, w, h float64) []it.Point {
	return []it.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

// rotation is about the macro origin
func rotatedPolygon(pts []it.Point, rot float64) it.Polygon {
	out := make([]it.Point, len(pts))
	for i := range pts {
		out[i].X, out[i].Y = xy.RotatePoint(pts[i].X, pts[i].Y, rot, 0, 0)
	}
	return it.Polygon{Points: out}
}

func rotateSegment(s it.Segment, rot float64) it.Segment {
	rp := func(p it.Point) it.Point {
		x, y := xy.RotatePoint(p.X, p.Y, rot, 0, 0)
		return it.Point{X: x, Y: y}
	}
	switch v := s.(type) {
	case it.Line:
		return it.Line{Start: rp(v.Start), End: rp(v.End)}
	case it.Arc:
		a := rot * math.Pi / 180
		v.Start, v.End, v.Center = rp(v.Start), rp(v.End), rp(v.Center)
		v.StartAngle += a
		v.EndAngle += a
		return v
	}
	return s
}

func rotatedOutline(segs []it.Segment, rot float64) it.Outline {
	out := make([]it.Segment, len(segs))
	for i := range segs {
		out[i] = rotateSegment(segs[i], rot)
	}
	return it.Outline{Segments: out}
}

func fullCircle(cx, cy, r float64, ccw bool) it.Arc {
	end := 2 * math.Pi
	if !ccw {
		end = -end
	}
	p := it.Point{X: cx + r, Y: cy}
	return it.Arc{Start: p, End: p, Center: it.Point{X: cx, Y: cy}, Radius: r, EndAngle: end, CounterClockwise: ccw}
}

// annulus as a single contour: outer circle, bridge, inner circle reversed, bridge back
func ring(cx, cy, outer, inner float64) []it.Segment {
	if inner <= 0 {
		return []it.Segment{fullCircle(cx, cy, outer, true)}
	}
	return []it.Segment{
		fullCircle(cx, cy, outer, true),
		it.Line{Start: it.Point{X: cx + outer, Y: cy}, End: it.Point{X: cx + inner, Y: cy}},
		fullCircle(cx, cy, inner, false),
		it.Line{Start: it.Point{X: cx + inner, Y: cy}, End: it.Point{X: cx + outer, Y: cy}},
	}
}

func (ev *evaluator) moire(cx, cy, dia, thick, gap float64, maxRings int, crossThick, crossLen, rot float64) {
	outer := dia / 2
	for i := 0; i < maxRings && outer > 0; i++ {
		inner := outer - thick
		ev.add(rotatedOutline(ring(cx, cy, outer, inner), rot), false)
		outer = inner - gap
	}
	if crossThick > 0 && crossLen > 0 {
		ev.add(rotatedPolygon(box(cx-crossLen/2, cy-crossThick/2, crossLen, crossThick), rot), false)
		ev.add(rotatedPolygon(box(cx-crossThick/2, cy-crossLen/2, crossThick, crossLen), rot), false)
	}
}

// thermal is drawn as four exact quadrant pieces, each bounded by the outer and inner
// circles and by the gap bars centered on the axes
func (ev *evaluator) thermal(cx, cy, outerDia, innerDia, gap, rot float64) {
	ro, ri, h := outerDia/2, innerDia/2, gap/2
	if ri >= ro || ro <= 0 {
		ev.warn("thermal with inner diameter %g not below outer diameter %g skipped", innerDia, outerDia)
		return
	}
	if h*math.Sqrt2 >= ro {
		ev.warn("thermal gap %g covers the whole pad", gap)
		return
	}
	co := math.Sqrt(ro*ro - h*h)
	piece := []it.Segment{
		it.Arc{
			Start: it.Point{X: co, Y: h}, End: it.Point{X: h, Y: co}, Radius: ro,
			StartAngle: math.Atan2(h, co), EndAngle: math.Atan2(co, h), CounterClockwise: true,
		},
	}
	if ri > h*math.Sqrt2 {
		ci := math.Sqrt(ri*ri - h*h)
		piece = append(piece,
			it.Line{Start: it.Point{X: h, Y: co}, End: it.Point{X: h, Y: ci}},
			it.Arc{
				Start: it.Point{X: h, Y: ci}, End: it.Point{X: ci, Y: h}, Radius: ri,
				StartAngle: math.Atan2(ci, h), EndAngle: math.Atan2(h, ci),
			},
			it.Line{Start: it.Point{X: ci, Y: h}, End: it.Point{X: co, Y: h}},
		)
	} else {
		piece = append(piece,
			it.Line{Start: it.Point{X: h, Y: co}, End: it.Point{X: h, Y: h}},
			it.Line{Start: it.Point{X: h, Y: h}, End: it.Point{X: co, Y: h}},
		)
	}
	for q := 0; q < 4; q++ {
		local := it.TranslateShape(rotatedOutline(piece, float64(90*q)), cx, cy).(it.Outline)
		ev.add(rotatedOutline(local.Segments, rot), false)
	}
}

/*
	auxiliary functions
*/

func ArrayInfo(inArray []string, itemNames []string) string {

	// each step constructs the sub-string
	// \t%itemname% = %itemValue%\n
	retVal := ""

	for i := 0; i < len(inArray) || i < len(itemNames); i++ {
		subStr1 := "\t"
		if i < len(itemNames) {
			subStr1 = subStr1 + itemNames[i]
		} else {
			subStr1 = subStr1 + "<unnamed>"
		}

		subStr2 := " = "
		if i < len(inArray) {
			subStr2 = subStr2 + inArray[i] + "\n"
		} else {
			subStr2 = subStr2 + "<empty>\n"
		}
		retVal = retVal + subStr1 + subStr2
	}
	return retVal
}
