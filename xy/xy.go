// Fixed-point coordinate decoding and small planar helpers
package xy

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

const InchesToMM float64 = 25.4

// default coordinate format when the file does not declare one
const (
	DefaultIntDigits = 2
	DefaultDecDigits = 4
)

// Function checks against non-number characters in the string
func isNumString(ins string) bool {
	if len(ins) == 0 {
		return false
	}
	v := []byte(ins)
	for _, c := range v {
		if (c < 0x30) || (c > 0x39) {
			return false
		}
	}
	return true
}

/*
############################ format specification #####################
*/

// Format specification object
type FormatSpec struct {
	IntDigits int // digits in the integer part
	DecDigits int // digits in the fractional part
	Zeros     ZeroSuppression
	Mode      CoordMode
}

func NewFormatSpec() FormatSpec {
	return FormatSpec{
		IntDigits: DefaultIntDigits,
		DecDigits: DefaultDecDigits,
		Zeros:     ZeroSuppLeading,
		Mode:      CoordAbsolute,
	}
}

// ParseFS decodes the body of a %FS command, e.g. "LAX26Y26".
// X and Y formats must agree.
func ParseFS(body string) (FormatSpec, error) {
	fs := NewFormatSpec()
	head := strings.ToUpper(strings.TrimSpace(body))
	xpos := strings.IndexByte(head, 'X')
	ypos := strings.LastIndexByte(head, 'Y')
	if xpos == -1 || ypos == -1 || ypos < xpos {
		return fs, errors.New("format specification: missing X or Y format")
	}
	for _, c := range head[:xpos] {
		switch c {
		case 'L':
			fs.Zeros = ZeroSuppLeading
		case 'T':
			fs.Zeros = ZeroSuppTrailing
		case 'D':
			// deprecated "no suppression", decoded the same way as leading
			fs.Zeros = ZeroSuppLeading
		case 'A':
			fs.Mode = CoordAbsolute
		case 'I':
			fs.Mode = CoordIncremental
		case 'N', 'G', 'M':
			// sequence/preparatory/misc digits of RS-274D, ignored
		default:
			return fs, errors.New("format specification: unknown flag " + string(c))
		}
	}
	xi, xd, err := splitFormatDigits(head[xpos+1 : ypos])
	if err != nil {
		return fs, err
	}
	yi, yd, err := splitFormatDigits(head[ypos+1:])
	if err != nil {
		return fs, err
	}
	if xi != yi || xd != yd {
		return fs, errors.New("format specification: X and Y formats differ")
	}
	fs.IntDigits = xi
	fs.DecDigits = xd
	return fs, nil
}

func splitFormatDigits(s string) (int, int, error) {
	if len(s) != 2 || !isNumString(s) {
		return 0, 0, errors.New("format specification: bad digit counts \"" + s + "\"")
	}
	return int(s[0] - '0'), int(s[1] - '0'), nil
}

/*
######################### coordinates #########################################
*/

// ParseCoordinate decodes a single axis value. Values with a decimal point are taken
// as they are; otherwise the digit string is padded according to zero suppression
// and the integer and fractional parts are decoded separately.
func ParseCoordinate(ins string, fs FormatSpec) (float64, error) {
	if strings.ContainsRune(ins, '.') {
		return strconv.ParseFloat(ins, 64)
	}
	var neg bool
	ws := ins
	if strings.HasPrefix(ws, "-") {
		neg = true
		ws = ws[1:]
	} else if strings.HasPrefix(ws, "+") {
		ws = ws[1:]
	}
	if !isNumString(ws) {
		return 0, errors.New("bad coordinate value \"" + ins + "\"")
	}
	n, m := fs.IntDigits, fs.DecDigits
	if n+m == 0 {
		n, m = DefaultIntDigits, DefaultDecDigits
	}
	if len(ws) < n+m {
		pad := strings.Repeat("0", n+m-len(ws))
		if fs.Zeros == ZeroSuppTrailing {
			ws = ws + pad
		} else {
			ws = pad + ws
		}
	}
	// an overlong string keeps its last m digits as the fraction (leading) or its
	// first n digits as the integer part (trailing)
	split := len(ws) - m
	if fs.Zeros == ZeroSuppTrailing {
		split = n
	}
	var ipart, fpart int
	var err error
	if split > 0 {
		if ipart, err = strconv.Atoi(ws[:split]); err != nil {
			return 0, err
		}
	}
	frac := ws[split:]
	if len(frac) > 0 {
		if fpart, err = strconv.Atoi(frac); err != nil {
			return 0, err
		}
	}
	val := float64(ipart) + float64(fpart)/math.Pow10(len(frac))
	if neg {
		val = -val
	}
	return val, nil
}

// Resolve returns the absolute axis value for a modal coordinate.
// An empty string keeps the previous value.
func Resolve(ins string, prev float64, fs FormatSpec) (float64, error) {
	if ins == "" {
		return prev, nil
	}
	v, err := ParseCoordinate(ins, fs)
	if err != nil {
		return prev, err
	}
	if fs.Mode == CoordIncremental {
		return prev + v, nil
	}
	return v, nil
}

// Offset decodes a non-modal value (I, J); an empty string yields 0.
func Offset(ins string, fs FormatSpec) (float64, error) {
	if ins == "" {
		return 0, nil
	}
	return ParseCoordinate(ins, fs)
}

/*
######################### points #########################################
*/

type XY struct {
	X float64
	Y float64
}

func (xy XY) String() string {
	return "(" + strconv.FormatFloat(xy.X, 'f', 5, 64) + "," + strconv.FormatFloat(xy.Y, 'f', 5, 64) + ")"
}

func (xy XY) Add(dx, dy float64) XY {
	return XY{xy.X + dx, xy.Y + dy}
}

// RotatePoint rotates (x, y) by deg degrees counter-clockwise around (cx, cy).
func RotatePoint(x, y, deg, cx, cy float64) (float64, float64) {
	v := mgl64.Rotate2D(mgl64.DegToRad(deg)).Mul2x1(mgl64.Vec2{x - cx, y - cy})
	return cx + v.X(), cy + v.Y()
}

// LimitAngle brings an angle in radians into [0, 2*Pi].
func LimitAngle(theta float64) float64 {
	for theta < 0 {
		theta += 2 * math.Pi
	}
	for theta > 2*math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// the function splits the input string by substrings using template's symbols as ordered delimiters and returns
// a map symbol:value
func ExtractLetterDelimitedFloats(ins, template string) (out map[byte]float64, err error) {
	out = make(map[byte]float64)
	type mark struct {
		pos int
		sym byte
	}
	marks := make([]mark, 0, len(template))
	for i := range template {
		if p := strings.IndexByte(ins, template[i]); p != -1 {
			marks = append(marks, mark{p, template[i]})
		}
	}
	// insertion sort, the template is short
	for i := 1; i < len(marks); i++ {
		for j := i; j > 0 && marks[j-1].pos > marks[j].pos; j-- {
			marks[j-1], marks[j] = marks[j], marks[j-1]
		}
	}
	for i := range marks {
		end := len(ins)
		if i < len(marks)-1 {
			end = marks[i+1].pos
		}
		fv, err := strconv.ParseFloat(ins[marks[i].pos+1:end], 64)
		if err != nil {
			return nil, err
		}
		out[marks[i].sym] = fv
	}
	return out, nil
}
