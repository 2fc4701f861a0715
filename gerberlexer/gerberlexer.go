package gerberlexer

import (
	"strings"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

/*
FS Format specification. Sets the coordinate format, e.g. the number of decimals. 4.1
MO Mode. Sets the unit to inch or mm. 4.2
AD Aperture define. Defines a template based aperture and assigns a D code to it. 4.3
AM Aperture macro. Defines a macro aperture template. 4.5
AB Aperture block. Defines a block aperture and assigns a D-code to it. 4.6
Dnn (nn≥10) Sets the current aperture to D code nn. 4.7
D01 Interpolate operation. Outside a region statement D01 creates a draw or arc
object using the current aperture. Inside it creates a linear or circular contour
segment. After the D01 command the current point is moved to draw/arc end
point.
4.8
D02 Move operation. D02 does not create a graphics object but moves the current
point to the coordinate in the D02 command.
4.8
D03 Flash operation. Creates a flash object with the current aperture. After the D03
command the current point is moved to the flash point.
4.8
G01 Sets the interpolation mode to linear. 4.9
G02 Sets the interpolation mode to clockwise circular. 4.10
G03 Sets the interpolation mode to counterclockwise circular. 4.10
G74 Sets quadrant mode to single quadrant. 4.10
G75 Sets quadrant mode to multi quadrant. 4.10
LP Load polarity. Loads the polarity object transformation parameter. 4.11.2
LM Load mirror. Loads the mirror object transformation parameter. 4.11.3
LR Load rotation. Loads the rotation object transformation parameter. 4.11.4
LS Load scale. Loads the scale object transformation parameter. 4.11.5
G36 Starts a region statement. This creates a region by defining its contour. 4.12.
G37 Ends the region statement. 4.12
SR Step and repeat. Open or closes a step and repeat statement. 4.13
G04 Comment. 4.14
TF Attribute file. Set a file attribute. 5.2
TA Attribute aperture. Add an aperture attribute to the dictionary or modify it. 5.3
TO Attribute object. Add an object attribute to the dictionary or modify it. 5.4
TD Attribute delete. Delete one or all attributes in the dictionary. 5.5
M02 End of file. 4.1
*/

/*
Historic codes: G54, G55 have no effect. G70/G71 set the unit, G90/G91 the
coordinate notation. M00 is the same as M02, M01 has no effect.
IP, AS, IR, MI, OF, SF, IN, LN are image parameters or names, they are
tokenized but carry no geometry.
*/

type GerberCommandId byte

const (
	AB GerberCommandId = iota
	AD
	AM
	AS
	D
	D01
	D02
	D03
	FS
	G01
	G02
	G03
	G04
	G36
	G37
	G54
	G55
	G70
	G71
	G74
	G75
	G90
	G91
	IN
	IP
	IR
	LM
	LN
	LP
	LR
	LS
	M00
	M01
	M02
	MI
	MO
	OF
	SF
	SR
	TA
	TD
	TF
	TO
	// coordinate data without an operation code
	XY
	// must be last
	NOP
)

var commandNames = [...]string{
	AB: "AB", AD: "AD", AM: "AM", AS: "AS", D: "D", D01: "D01", D02: "D02", D03: "D03",
	FS: "FS", G01: "G01", G02: "G02", G03: "G03", G04: "G04", G36: "G36", G37: "G37",
	G54: "G54", G55: "G55", G70: "G70", G71: "G71", G74: "G74", G75: "G75", G90: "G90",
	G91: "G91", IN: "IN", IP: "IP", IR: "IR", LM: "LM", LN: "LN", LP: "LP", LR: "LR",
	LS: "LS", M00: "M00", M01: "M01", M02: "M02", MI: "MI", MO: "MO", OF: "OF", SF: "SF",
	SR: "SR", TA: "TA", TD: "TD", TF: "TF", TO: "TO", XY: "XY", NOP: "NOP",
}

func (id GerberCommandId) String() string {
	if int(id) < len(commandNames) {
		return commandNames[id]
	}
	return "NOP"
}

var GCmdBaseArray = []GerberCommandId{
	D, D01, D02, D03, G01, G02, G03, G04, G36, G37, G54, G55, G70, G71, G74, G75, G90, G91, M00, M01, M02,
}

var GCmdExtArray = []GerberCommandId{
	AB, AD, AM, AS, FS, IN, IP, IR, LM, LN, LP, LR, LS, MI, MO, OF, SF, SR, TA, TD, TF, TO,
}

// GerberCommand is one command of the source; [Start, End) is its block in the text.
type GerberCommand struct {
	Cmd   GerberCommandId
	Body  string
	Start int
	End   int
}

func (gc *GerberCommand) String() string {
	return "{command:\"" + gc.Cmd.String() + "\",val:\"" + gc.Body + "\"}"
}

type Delim byte

const (
	DataBlockTrailer Delim = '*'
	ExtCmdDelimiter  Delim = '%'
)

func (d Delim) String() string {
	switch d {
	case DataBlockTrailer:
		return "DBEND"
	case ExtCmdDelimiter:
		return "EXTCMD"
	default:
		return string(d)
	}
}

func lookup(code string, table []GerberCommandId) (GerberCommandId, bool) {
	for _, id := range table {
		if id.String() == code {
			return id, true
		}
	}
	return NOP, false
}

// Tokenize splits Gerber source into commands. Extended commands are split on the
// data block trailer except for aperture macros, which are kept whole.
func Tokenize(src string) ([]GerberCommand, error) {
	retVal := make([]GerberCommand, 0, len(src)/8)
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == byte(ExtCmdDelimiter):
			end := strings.IndexByte(src[i+1:], byte(ExtCmdDelimiter))
			if end == -1 {
				return retVal, NewParseError(i, "unterminated extended command")
			}
			retVal = appendExtended(retVal, src[i+1:i+1+end], i)
			i = i + end + 2
		default:
			end := strings.IndexByte(src[i:], byte(DataBlockTrailer))
			next := len(src)
			word := src[i:]
			if end != -1 {
				word = src[i : i+end]
				next = i + end + 1
			}
			retVal = appendWord(retVal, word, i, next)
			i = next
		}
	}
	return retVal, nil
}

func purgeCRLF(s string) string {
	if strings.IndexAny(s, "\r\n") == -1 {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

func appendExtended(out []GerberCommand, body string, start int) []GerberCommand {
	end := start + len(body) + 2
	clean := strings.TrimSpace(purgeCRLF(body))
	if strings.HasPrefix(clean, "AM") {
		return append(out, GerberCommand{AM, clean[2:], start, end})
	}
	for _, part := range strings.Split(clean, string(DataBlockTrailer)) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) < 2 {
			out = append(out, GerberCommand{NOP, part, start, end})
			continue
		}
		id, ok := lookup(part[:2], GCmdExtArray)
		if !ok {
			out = append(out, GerberCommand{NOP, part, start, end})
			continue
		}
		out = append(out, GerberCommand{id, part[2:], start, end})
	}
	return out
}

func readDigits(w string, p int) (string, int) {
	q := p
	for q < len(w) && w[q] >= '0' && w[q] <= '9' {
		q++
	}
	return w[p:q], q
}

func isCoordLetter(c byte) bool {
	return c == 'X' || c == 'Y' || c == 'I' || c == 'J'
}

func appendWord(out []GerberCommand, word string, start, end int) []GerberCommand {
	w := strings.TrimSpace(purgeCRLF(word))
	p := 0
	for p < len(w) {
		c := w[p]
		switch {
		case c == 'G':
			num, q := readDigits(w, p+1)
			code := FormatGCode("G", num)
			if code == "G04" {
				return append(out, GerberCommand{G04, strings.TrimSpace(w[q:]), start, end})
			}
			if id, ok := lookup(code, GCmdBaseArray); ok {
				out = append(out, GerberCommand{id, "", start, end})
			} else {
				out = append(out, GerberCommand{NOP, code, start, end})
			}
			p = q
		case c == 'M':
			num, q := readDigits(w, p+1)
			code := FormatGCode("M", num)
			if id, ok := lookup(code, GCmdBaseArray); ok {
				out = append(out, GerberCommand{id, "", start, end})
			} else {
				out = append(out, GerberCommand{NOP, code, start, end})
			}
			p = q
		case c == 'N':
			// RS-274D sequence number
			_, p = readDigits(w, p+1)
		case isCoordLetter(c):
			q := p
			for q < len(w) && w[q] != 'D' && w[q] != 'G' && w[q] != 'M' {
				q++
			}
			coords := strings.ReplaceAll(w[p:q], " ", "")
			if q < len(w) && w[q] == 'D' {
				num, r := readDigits(w, q+1)
				code := FormatGCode("D", num)
				switch code {
				case "D01", "D02", "D03":
					id, _ := lookup(code, GCmdBaseArray)
					out = append(out, GerberCommand{id, coords, start, end})
				default:
					out = append(out, GerberCommand{XY, coords, start, end})
					out = append(out, GerberCommand{D, code[1:], start, end})
				}
				p = r
				continue
			}
			out = append(out, GerberCommand{XY, coords, start, end})
			p = q
		case c == 'D':
			num, q := readDigits(w, p+1)
			code := FormatGCode("D", num)
			switch code {
			case "D01", "D02", "D03":
				id, _ := lookup(code, GCmdBaseArray)
				out = append(out, GerberCommand{id, "", start, end})
			default:
				out = append(out, GerberCommand{D, code[1:], start, end})
			}
			p = q
		default:
			return append(out, GerberCommand{NOP, w[p:], start, end})
		}
	}
	return out
}

// deletes leading '0'
func FormatGCode(sym string, num string) string {
	if num == "" {
		return sym
	}
	num = strings.TrimLeft(num, "0")
	if len(num) == 1 {
		return sym + "0" + num
	}
	if len(num) == 0 {
		return sym + "00"
	}
	return sym + num
}
