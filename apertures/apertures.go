//
// Apertures support
package apertures

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vasilyturchenko/gerbcompare/amprocessor"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

type Aperture struct {
	Code         int
	SourceString string
	Type         GerberApType
	XSize        float64
	YSize        float64
	Diameter     float64
	HoleDiameter float64
	// legacy rectangular hole, XxY after the mandatory parameters
	HoleX    float64
	HoleY    float64
	Vertices     int
	RotAngle     float64
	MacroName    string
	MacroParams  []float64
	MacroPtr     *amprocessor.ApertureMacro
	// deprecated forms which were accepted with a fallback
	Warnings []GeometryWarning
}

func (apert *Aperture) String() string {
	return "D" + strconv.Itoa(apert.Code) + " " + apert.Type.String() + " (" + apert.SourceString + ")"
}

// NewAperture parses the body of an AD command, e.g. "D10C,0.5X0.2" or "D12THERM,1.2X0.8"
func NewAperture(sourceString string) (*Aperture, error) {
	apert := new(Aperture)
	sourceString = strings.TrimSpace(sourceString)
	apert.SourceString = sourceString
	if !strings.HasPrefix(sourceString, "D") {
		return nil, errors.New("aperture definition must start with a D code: " + sourceString)
	}
	i := 1
	for i < len(sourceString) && sourceString[i] >= '0' && sourceString[i] <= '9' {
		i++
	}
	var err error
	apert.Code, err = strconv.Atoi(sourceString[1:i])
	if err != nil {
		return nil, errors.New("bad aperture number in " + sourceString)
	}
	if apert.Code < 10 {
		return nil, fmt.Errorf("aperture number D%d is reserved", apert.Code)
	}

	name := sourceString[i:]
	var params []float64
	if comma := strings.IndexByte(name, ','); comma != -1 {
		for _, s := range strings.Split(name[comma+1:], "X") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("bad aperture parameter %q in %s", s, sourceString)
			}
			params = append(params, v)
		}
		name = name[:comma]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("aperture template name not found in " + sourceString)
	}

	// too few parameters is fatal, extra ones are legacy forms
	count := func(least int) error {
		if len(params) < least {
			return fmt.Errorf("bad number of parameters for %s: %s", apert.Type, sourceString)
		}
		return nil
	}
	param := func(n int) float64 {
		if n < len(params) {
			return params[n]
		}
		return 0
	}
	// hole at params[n:], one value is round, two are a rectangle
	hole := func(n int) {
		switch len(params) - n {
		case 0:
		case 1:
			apert.HoleDiameter = params[n]
		case 2:
			apert.HoleX, apert.HoleY = params[n], params[n+1]
			apert.warn("rectangular hole is deprecated")
		default:
			apert.HoleX, apert.HoleY = params[n], params[n+1]
			apert.warn(fmt.Sprintf("%d extra parameters ignored", len(params)-n-2))
		}
	}

	switch name {
	case TemplateCircle:
		apert.Type = AptypeCircle
		if err = count(1); err != nil {
			return nil, err
		}
		apert.Diameter = param(0)
		hole(1)
	case TemplateRectangle, TemplateObround:
		apert.Type = AptypeRectangle
		if name == TemplateObround {
			apert.Type = AptypeObround
		}
		if err = count(2); err != nil {
			return nil, err
		}
		apert.XSize = param(0)
		apert.YSize = param(1)
		hole(2)
	case TemplatePolygon:
		apert.Type = AptypePoly
		if err = count(2); err != nil {
			return nil, err
		}
		apert.Diameter = param(0) // OuterDiameter
		apert.Vertices = int(param(1))
		apert.RotAngle = param(2)
		if len(params) > 3 {
			hole(3)
		}
		switch {
		case apert.Vertices < 3:
			apert.warn(fmt.Sprintf("%d vertices, drawn with 3", apert.Vertices))
			apert.Vertices = 3
		case apert.Vertices > 12:
			apert.warn(fmt.Sprintf("%d vertices, drawn with 12", apert.Vertices))
			apert.Vertices = 12
		}
	}
	if apert.Diameter < 0 || apert.XSize < 0 || apert.YSize < 0 || apert.HoleX < 0 || apert.HoleY < 0 {
		return nil, errors.New("negative aperture size in " + sourceString)
	}
	return apert, nil
}

func (apert *Aperture) warn(msg string) {
	apert.Warnings = append(apert.Warnings, GeometryWarning{Message: "D" + strconv.Itoa(apert.Code) + ": " + msg, Offset: -1})
}

// Flash returns the aperture image placed at (x, y)
func (apert *Aperture) Flash(x, y float64) (it.Shape, []GeometryWarning) {
	var shape it.Shape
	switch apert.Type {
	case AptypeCircle:
		shape = it.Circle{CX: x, CY: y, R: apert.Diameter / 2}
	case AptypeRectangle:
		shape = it.Rect{X: x - apert.XSize/2, Y: y - apert.YSize/2, W: apert.XSize, H: apert.YSize}
	case AptypeObround:
		shape = it.Rect{
			X: x - apert.XSize/2, Y: y - apert.YSize/2, W: apert.XSize, H: apert.YSize,
			R: math.Min(apert.XSize, apert.YSize) / 2,
		}
	case AptypePoly:
		r := apert.Diameter / 2
		pts := make([]it.Point, apert.Vertices)
		for i := range pts {
			a := (apert.RotAngle + 360*float64(i)/float64(apert.Vertices)) * math.Pi / 180
			pts[i] = it.Point{X: x + r*math.Cos(a), Y: y + r*math.Sin(a)}
		}
		shape = it.Polygon{Points: pts}
	case AptypeMacro:
		if apert.MacroPtr == nil {
			return it.Layered{}, []GeometryWarning{{Message: "macro " + apert.MacroName + " is not defined", Offset: -1}}
		}
		return apert.MacroPtr.Evaluate(apert.MacroParams, x, y)
	}
	if apert.HoleX > 0 && apert.HoleY > 0 {
		return it.Layered{Shapes: []it.ErasableShape{
			{Shape: shape},
			{Shape: it.Rect{X: x - apert.HoleX/2, Y: y - apert.HoleY/2, W: apert.HoleX, H: apert.HoleY}, Erase: true},
		}}, nil
	}
	if apert.HoleDiameter > 0 {
		return it.Layered{Shapes: []it.ErasableShape{
			{Shape: shape},
			{Shape: it.Circle{CX: x, CY: y, R: apert.HoleDiameter / 2}, Erase: true},
		}}, nil
	}
	return shape, nil
}

// StrokeWidth returns the width of a path drawn with the aperture and whether the aperture
// is circular. Non-circular apertures fall back to their smallest dimension, or to nominal.
func (apert *Aperture) StrokeWidth(nominal float64) (float64, bool) {
	switch apert.Type {
	case AptypeCircle:
		return apert.Diameter, true
	case AptypeRectangle, AptypeObround:
		return math.Min(apert.XSize, apert.YSize), false
	case AptypePoly:
		return apert.Diameter, false
	}
	return nominal, false
}
