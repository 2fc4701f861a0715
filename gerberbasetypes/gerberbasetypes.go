// Package gerberbasetypes holds the enums shared by the gerber and drill packages
package gerberbasetypes

// standard aperture template names
const (
	TemplateCircle    = "C"
	TemplateRectangle = "R"
	TemplateObround   = "O"
	TemplatePolygon   = "P"
)

type GerberApType int

const (
	AptypeCircle GerberApType = iota + 1
	AptypeRectangle
	AptypeObround
	AptypePoly
	AptypeMacro
)

func (ga GerberApType) String() string {
	switch ga {
	case AptypeCircle:
		return "circle"
	case AptypeRectangle:
		return "rectangle"
	case AptypeObround:
		return "obround"
	case AptypePoly:
		return "polygon"
	case AptypeMacro:
		return "macro"
	}
	return "unknown aperture"
}

type PolType int

const (
	PolTypeDark PolType = iota + 1
	PolTypeClear
)

func (p PolType) String() string {
	switch p {
	case PolTypeDark:
		return "dark"
	case PolTypeClear:
		return "clear"
	}
	return "unknown polarity"
}

type ActType int

const (
	OpcodeNone ActType = iota
	OpcodeD01_DRAW
	OpcodeD02_MOVE
	OpcodeD03_FLASH
	OpcodeSlot
	OpcodeStop
)

func (act ActType) String() string {
	switch act {
	case OpcodeNone:
		return "none"
	case OpcodeD01_DRAW:
		return "D01 draw"
	case OpcodeD02_MOVE:
		return "D02 move"
	case OpcodeD03_FLASH:
		return "D03 flash"
	case OpcodeSlot:
		return "G85 slot"
	case OpcodeStop:
		return "stop"
	}
	return "unknown opcode"
}

type QuadMode int

const (
	QuadModeSingle QuadMode = iota + 1
	QuadModeMulti
)

func (q QuadMode) String() string {
	switch q {
	case QuadModeSingle:
		return "single quadrant"
	case QuadModeMulti:
		return "multi quadrant"
	}
	return "unknown quadrant mode"
}

type IPmode int

const (
	IPModeLinear IPmode = iota + 1
	IPModeCwC
	IPModeCCwC
)

func (ipm IPmode) String() string {
	switch ipm {
	case IPModeLinear:
		return "linear"
	case IPModeCwC:
		return "clockwise"
	case IPModeCCwC:
		return "counter-clockwise"
	}
	return "unknown interpolation"
}

type Units int

const (
	UnitsInch Units = iota + 1
	UnitsMM
)

func (u Units) String() string {
	switch u {
	case UnitsInch:
		return "in"
	case UnitsMM:
		return "mm"
	}
	return "unknown units"
}

type ZeroSuppression int

const (
	ZeroSuppLeading ZeroSuppression = iota + 1
	ZeroSuppTrailing
)

func (z ZeroSuppression) String() string {
	switch z {
	case ZeroSuppLeading:
		return "leading"
	case ZeroSuppTrailing:
		return "trailing"
	}
	return "unknown zero suppression"
}

type CoordMode int

const (
	CoordAbsolute CoordMode = iota + 1
	CoordIncremental
)

func (c CoordMode) String() string {
	switch c {
	case CoordAbsolute:
		return "absolute"
	case CoordIncremental:
		return "incremental"
	}
	return "unknown coordinate mode"
}

type FileType int

const (
	FileTypeGerber FileType = iota + 1
	FileTypeDrill
)

func (f FileType) String() string {
	switch f {
	case FileTypeGerber:
		return "gerber"
	case FileTypeDrill:
		return "drill"
	}
	return "unknown file type"
}
