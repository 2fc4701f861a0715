/*
Package gerbparser turns Gerber (RS-274X) and Excellon drill sources into an AST
*/
package gerbparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/amprocessor"
	"github.com/vasilyturchenko/gerbcompare/apertures"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	gl "github.com/vasilyturchenko/gerbcompare/gerberlexer"
	"github.com/vasilyturchenko/gerbcompare/srblocks"
	"github.com/vasilyturchenko/gerbcompare/xy"
)

// Parse detects the file type and parses the source
func Parse(src string) (*AST, error) {
	if DetectFileType(src) == FileTypeDrill {
		return ParseDrill(src)
	}
	return ParseGerber(src)
}

var (
	gerberExtPrefix = regexp.MustCompile(`^(MO|FS|AD|AM|LP|LM|LR|LS|SR|TF|TA|TD|TO|IP|OF|IN|AS|IR)`)
	drillToolDef    = regexp.MustCompile(`^T\d+C[\d.]`)
)

func firstLines(s string, n int) []string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

// DetectFileType tells Excellon drill files from Gerber files, Gerber is the default
func DetectFileType(src string) FileType {
	trimmed := strings.TrimLeft(src, " \t\r\n")

	if strings.HasPrefix(trimmed, "M48") {
		return FileTypeDrill
	}

	if strings.HasPrefix(trimmed, "%") {
		after := strings.TrimLeft(trimmed[1:], " \t")
		if after != "" && after[0] != '\n' && after[0] != '\r' && after[0] != '%' && gerberExtPrefix.MatchString(after) {
			return FileTypeGerber
		}
		// a standalone % is the Excellon rewind marker
		for _, l := range firstLines(trimmed, 20) {
			if l == "M48" || drillToolDef.MatchString(l) {
				return FileTypeDrill
			}
			if strings.HasPrefix(l, "%FS") || strings.HasPrefix(l, "%MO") || strings.HasPrefix(l, "%AD") || strings.HasPrefix(l, "%AM") {
				return FileTypeGerber
			}
		}
	}

	if strings.HasPrefix(trimmed, "G04") {
		return FileTypeGerber
	}

	if strings.HasPrefix(trimmed, ";") {
		for _, l := range firstLines(trimmed, 20) {
			if l == "M48" {
				return FileTypeDrill
			}
			if strings.HasPrefix(l, "%FS") || strings.HasPrefix(l, "%MO") {
				return FileTypeGerber
			}
		}
		return FileTypeDrill
	}

	for _, l := range firstLines(trimmed, 50) {
		if strings.Contains(l, "%FS") || strings.Contains(l, "%MO") || strings.Contains(l, "%AD") || strings.Contains(l, "%AM") {
			return FileTypeGerber
		}
		if l == "M48" || drillToolDef.MatchString(l) {
			return FileTypeDrill
		}
	}
	return FileTypeGerber
}

/*
######################################## Gerber ########################################
*/

// modal state of the Gerber parser
type parseContext struct {
	nodes   []Node
	macros  map[string]*amprocessor.ApertureMacro
	srOpen  bool
	srStart int
}

func (ctx *parseContext) add(n Node) {
	ctx.nodes = append(ctx.nodes, n)
}

// the last node, when it is coordinate data still waiting for its operation code
func (ctx *parseContext) pendingCoords() *Graphic {
	if len(ctx.nodes) == 0 {
		return nil
	}
	if g, ok := ctx.nodes[len(ctx.nodes)-1].(*Graphic); ok && g.Op == OpcodeNone {
		return g
	}
	return nil
}

// ParseGerber parses RS-274X source; unknown and deprecated codes are kept as no-ops
func ParseGerber(src string) (*AST, error) {
	cmds, err := gl.Tokenize(src)
	if err != nil {
		return nil, err
	}
	ctx := &parseContext{macros: make(map[string]*amprocessor.ApertureMacro)}
	for i := range cmds {
		if err := ctx.command(&cmds[i]); err != nil {
			return nil, err
		}
	}
	if ctx.srOpen {
		return nil, NewParseError(ctx.srStart, "step and repeat block is not closed")
	}
	return &AST{FileType: FileTypeGerber, Children: ctx.nodes}, nil
}

func (ctx *parseContext) command(cmd *gl.GerberCommand) error {
	pos := Pos{cmd.Start, cmd.End}
	switch cmd.Cmd {
	case gl.FS:
		fs, err := xy.ParseFS(cmd.Body)
		if err != nil {
			return NewParseError(cmd.Start, "%v", err)
		}
		ctx.add(&Format{pos, fs.IntDigits, fs.DecDigits, fs.Zeros, fs.Mode})

	case gl.MO:
		switch strings.ToUpper(strings.TrimSpace(cmd.Body)) {
		case "IN":
			ctx.add(&UnitsCmd{pos, UnitsInch})
		case "MM":
			ctx.add(&UnitsCmd{pos, UnitsMM})
		default:
			return NewParseError(cmd.Start, "bad units %q", cmd.Body)
		}

	case gl.AD:
		apert, err := apertures.NewAperture(cmd.Body)
		if err != nil {
			return NewParseError(cmd.Start, "%v", err)
		}
		if apert.Type == AptypeMacro {
			apert.MacroPtr = ctx.macros[apert.MacroName]
			if apert.MacroPtr == nil {
				glog.Warningf("aperture D%d refers to the undefined macro %s", apert.Code, apert.MacroName)
			}
		}
		ctx.add(&ToolDef{pos, apert.Code, apert})

	case gl.AM:
		am, err := amprocessor.NewApertureMacro(cmd.Body)
		if err != nil {
			return NewParseError(cmd.Start, "%v", err)
		}
		ctx.macros[am.Name] = am
		ctx.add(&ToolMacro{pos, am})

	case gl.LP:
		pol := PolTypeClear
		if strings.HasPrefix(strings.TrimSpace(cmd.Body), "D") {
			pol = PolTypeDark
		}
		ctx.add(&Polarity{pos, pol})

	case gl.SR:
		return ctx.stepRepeat(cmd, pos)

	case gl.G01:
		ctx.add(&InterpolateMode{pos, IPModeLinear})
	case gl.G02:
		ctx.add(&InterpolateMode{pos, IPModeCwC})
	case gl.G03:
		ctx.add(&InterpolateMode{pos, IPModeCCwC})
	case gl.G04:
		ctx.add(&Comment{pos, cmd.Body})
	case gl.G36:
		ctx.add(&RegionMode{pos, true})
	case gl.G37:
		ctx.add(&RegionMode{pos, false})
	case gl.G70:
		ctx.add(&UnitsCmd{pos, UnitsInch})
	case gl.G71:
		ctx.add(&UnitsCmd{pos, UnitsMM})
	case gl.G74:
		ctx.add(&QuadrantMode{pos, QuadModeSingle})
	case gl.G75:
		ctx.add(&QuadrantMode{pos, QuadModeMulti})
	case gl.G90:
		ctx.add(&Format{Pos: pos, Mode: CoordAbsolute})
	case gl.G91:
		ctx.add(&Format{Pos: pos, Mode: CoordIncremental})
	case gl.G54, gl.G55, gl.M01:
		// deprecated, no effect

	case gl.M00, gl.M02:
		if ctx.srOpen {
			return NewParseError(ctx.srStart, "step and repeat block is not closed at the end of file")
		}
		ctx.add(&Done{pos})

	case gl.D01, gl.D02, gl.D03:
		op := map[gl.GerberCommandId]ActType{
			gl.D01: OpcodeD01_DRAW, gl.D02: OpcodeD02_MOVE, gl.D03: OpcodeD03_FLASH,
		}[cmd.Cmd]
		if cmd.Body == "" {
			if g := ctx.pendingCoords(); g != nil {
				g.Op = op
				g.End = cmd.End
				return nil
			}
			ctx.add(&Graphic{pos, op, map[byte]string{}})
			return nil
		}
		coords, err := splitCoords(cmd.Body)
		if err != nil {
			return NewParseError(cmd.Start, "%v", err)
		}
		ctx.add(&Graphic{pos, op, coords})

	case gl.XY:
		coords, err := splitCoords(cmd.Body)
		if err != nil {
			return NewParseError(cmd.Start, "%v", err)
		}
		ctx.add(&Graphic{pos, OpcodeNone, coords})

	case gl.D:
		code, err := strconv.Atoi(cmd.Body)
		if err != nil || code < 10 {
			glog.V(1).Infof("ignored D code %q at offset %d", cmd.Body, cmd.Start)
			ctx.add(&Unimplemented{pos, "D" + cmd.Body})
			return nil
		}
		ctx.add(&ToolChange{pos, code})

	default:
		// attributes, image parameters, load mirror/rotation/scale, unknown codes
		val := cmd.Body
		if cmd.Cmd != gl.NOP {
			val = cmd.Cmd.String() + cmd.Body
		}
		glog.V(1).Infof("unimplemented command %s at offset %d", val, cmd.Start)
		ctx.add(&Unimplemented{pos, val})
	}
	return nil
}

func (ctx *parseContext) stepRepeat(cmd *gl.GerberCommand, pos Pos) error {
	body := strings.TrimSpace(cmd.Body)
	if body == "" {
		ctx.srOpen = false
		ctx.add(&StepRepeat{pos, nil})
		return nil
	}
	sr := new(srblocks.SRBlock)
	if err := sr.Init(body); err != nil {
		return NewParseError(cmd.Start, "%v", err)
	}
	if sr.IsTrivial() {
		// X1Y1 is the closing form used by some generators
		ctx.srOpen = false
		ctx.add(&StepRepeat{pos, nil})
		return nil
	}
	if ctx.srOpen {
		ctx.add(&StepRepeat{pos, nil})
	}
	ctx.srOpen = true
	ctx.srStart = cmd.Start
	ctx.add(&StepRepeat{pos, sr})
	return nil
}

// splitCoords splits "X100Y-200I5J0" into axis values
func splitCoords(body string) (map[byte]string, error) {
	out := make(map[byte]string, 4)
	i := 0
	for i < len(body) {
		axis := body[i]
		if axis != 'X' && axis != 'Y' && axis != 'I' && axis != 'J' {
			return nil, NewParseError(-1, "unexpected %q in coordinate data %q", axis, body)
		}
		j := i + 1
		for j < len(body) && (body[j] == '+' || body[j] == '-' || body[j] == '.' || (body[j] >= '0' && body[j] <= '9')) {
			j++
		}
		if j == i+1 {
			return nil, NewParseError(-1, "axis %c without a value in %q", axis, body)
		}
		out[axis] = body[i+1 : j]
		i = j
	}
	return out, nil
}
