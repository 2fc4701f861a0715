package gerbparser

import (
	"github.com/vasilyturchenko/gerbcompare/amprocessor"
	"github.com/vasilyturchenko/gerbcompare/apertures"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/srblocks"
)

// AST is the parse result of a single file
type AST struct {
	FileType FileType
	Children []Node
}

// Node is one AST entry, Span is its block in the source text
type Node interface {
	Span() it.SourceRange
}

type Pos struct {
	Start int
	End   int
}

func (p Pos) Span() it.SourceRange {
	return it.SourceRange{Start: p.Start, End: p.End}
}

type UnitsCmd struct {
	Pos
	Units Units
}

// Format fields left at zero are not specified by the node
type Format struct {
	Pos
	IntDigits int
	DecDigits int
	Zeros     ZeroSuppression
	Mode      CoordMode
}

func (f *Format) HasDigits() bool {
	return f.IntDigits+f.DecDigits > 0
}

type ToolDef struct {
	Pos
	Code     int
	Aperture *apertures.Aperture
}

type ToolMacro struct {
	Pos
	Macro *amprocessor.ApertureMacro
}

type ToolChange struct {
	Pos
	Code int
}

type Polarity struct {
	Pos
	Polarity PolType
}

// StepRepeat opens a block; a nil Block closes the open one
type StepRepeat struct {
	Pos
	Block *srblocks.SRBlock
}

type InterpolateMode struct {
	Pos
	Mode IPmode
}

type RegionMode struct {
	Pos
	Region bool
}

type QuadrantMode struct {
	Pos
	Mode QuadMode
}

// Graphic is an operation with its raw coordinate values keyed by axis letter (X, Y, I, J).
// Op is OpcodeNone for coordinate data without an operation code.
type Graphic struct {
	Pos
	Op     ActType
	Coords map[byte]string
}

type Comment struct {
	Pos
	Text string
}

type Done struct {
	Pos
}

// Unimplemented keeps commands which carry no geometry: attributes, image parameters,
// load mirror/rotation/scale and unknown codes
type Unimplemented struct {
	Pos
	Value string
}
