package gerberbasetypes

import (
	"errors"
	"fmt"
	"image"
)

// ParseError aborts the parse of a single file.
// Offset is a byte offset into the source text, -1 if unknown.
type ParseError struct {
	Message string
	Offset  int
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return "parse error: " + e.Message
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

func NewParseError(offset int, format string, a ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, a...), Offset: offset}
}

// GeometryWarning reports a construct which was drawn with a fallback.
type GeometryWarning struct {
	Message string
	Offset  int
}

func (w GeometryWarning) String() string {
	if w.Offset < 0 {
		return "geometry warning: " + w.Message
	}
	return fmt.Sprintf("geometry warning at offset %d: %s", w.Offset, w.Message)
}

// DimensionMismatch is returned when two surfaces must have equal size but do not.
type DimensionMismatch struct {
	A image.Point
	B image.Point
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: %dx%d vs %dx%d", e.A.X, e.A.Y, e.B.X, e.B.Y)
}

var ErrAlignmentIncomplete = errors.New("alignment incomplete: both reference points must be set")
