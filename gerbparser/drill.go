package gerbparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/apertures"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

/*
Excellon drill files are line oriented. The header (M48 ... % or M95) carries units,
zero suppression and tool diameters; the body carries tool changes, hits and routing.
Excellon TZ/LZ name the zeros which are kept, so TZ means leading zero suppression.
*/

var (
	FormatCommentRE    = regexp.MustCompile(`(?i)(?:^|[^A-Z])(?:FILE_)?FORMAT[=:\s]*\{?(\d)[:\.](\d)`)
	excellonFormatRE   = regexp.MustCompile(`(?i)(?:INCH|METRIC)\s*,\s*(?:TZ|LZ)(?:\s*,\s*([0-9]+)\.([0-9]+))?`)
	suppressTrailingRE = regexp.MustCompile(`(?i)suppress\s*trail`)
	suppressLeadingRE  = regexp.MustCompile(`(?i)(suppress\s*lead|keep\s*zeros)`)
	unitsInchRE        = regexp.MustCompile(`(?i)(INCH|english)`)
	unitsMetricRE      = regexp.MustCompile(`(?i)(METRIC|MILLI)`)
	keepTrailingRE     = regexp.MustCompile(`(?i)TZ`)
	keepLeadingRE      = regexp.MustCompile(`(?i)LZ`)
	toolNumRE          = regexp.MustCompile(`(?i)^T(\d+)`)
	toolDiameterRE     = regexp.MustCompile(`(?i)C([\d.]+)`)
	toolChangeRE       = regexp.MustCompile(`^T(\d+)$`)
	rapidMoveRE        = regexp.MustCompile(`^G0(?:0|[XY])`)
	routeLineRE        = regexp.MustCompile(`^G0?1(?:[XY])|^G01`)
	drillCoordsRE      = regexp.MustCompile(`([XYxy])([+-]?\d*\.?\d+)`)
	repeatRE           = regexp.MustCompile(`^R\d`)
)

type drillContext struct {
	nodes    []Node
	inHeader bool
	units    Units
	intD     int
	decD     int
	zeros    ZeroSuppression
	routing  bool
}

// ParseDrill parses an Excellon NC drill source. Drill files never fail to parse,
// unknown lines are skipped.
func ParseDrill(src string) (*AST, error) {
	ctx := new(drillContext)
	offset := 0
	for offset <= len(src) {
		lineStart := offset
		lineEnd := strings.IndexByte(src[offset:], '\n')
		if lineEnd == -1 {
			lineEnd = len(src)
			offset = len(src) + 1
		} else {
			lineEnd += offset
			offset = lineEnd + 1
		}
		raw := src[lineStart:lineEnd]
		rawEnd := lineStart + len(strings.TrimRight(raw, "\r"))
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		ctx.line(line, Pos{lineStart, rawEnd})
	}

	var hasUnits, hasFormat bool
	for _, n := range ctx.nodes {
		switch n.(type) {
		case *UnitsCmd:
			hasUnits = true
		case *Format:
			hasFormat = true
		}
	}
	prefix := make([]Node, 0, 2)
	if !hasFormat {
		f := &Format{Pos: Pos{0, 0}, IntDigits: 2, DecDigits: 4, Zeros: ZeroSuppLeading, Mode: CoordAbsolute}
		if ctx.intD+ctx.decD > 0 {
			f.IntDigits, f.DecDigits = ctx.intD, ctx.decD
		}
		if ctx.zeros != 0 {
			f.Zeros = ctx.zeros
		}
		prefix = append(prefix, f)
	}
	if !hasUnits {
		u := ctx.units
		if u == 0 {
			u = UnitsInch
		}
		prefix = append(prefix, &UnitsCmd{Pos{0, 0}, u})
	}
	return &AST{FileType: FileTypeDrill, Children: append(prefix, ctx.nodes...)}, nil
}

func (ctx *drillContext) add(n Node) {
	ctx.nodes = append(ctx.nodes, n)
}

func (ctx *drillContext) formatFromComment(comment string) {
	if m := FormatCommentRE.FindStringSubmatch(comment); m != nil {
		ctx.intD, _ = strconv.Atoi(m[1])
		ctx.decD, _ = strconv.Atoi(m[2])
	}
	if suppressTrailingRE.MatchString(comment) {
		ctx.zeros = ZeroSuppTrailing
	} else if suppressLeadingRE.MatchString(comment) {
		ctx.zeros = ZeroSuppLeading
	}
}

func (ctx *drillContext) unitsLine(line string, u Units) {
	ctx.units = u
	if keepTrailingRE.MatchString(line) {
		ctx.zeros = ZeroSuppLeading
	}
	if keepLeadingRE.MatchString(line) {
		ctx.zeros = ZeroSuppTrailing
	}
	// METRIC,TZ,000.000 or INCH,LZ,00.0000
	if m := excellonFormatRE.FindStringSubmatch(line); m != nil && m[1] != "" && m[2] != "" {
		ctx.intD, ctx.decD = len(m[1]), len(m[2])
	}
}

func (ctx *drillContext) toolDef(line string, pos Pos) bool {
	m := toolNumRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	code, _ := strconv.Atoi(m[1])
	c := toolDiameterRE.FindStringSubmatch(line)
	if c == nil {
		return false
	}
	d, err := strconv.ParseFloat(c[1], 64)
	if err != nil || d <= 0 {
		glog.V(1).Infof("drill tool T%d without a usable diameter: %q", code, line)
		return false
	}
	ctx.add(&ToolDef{pos, code, &apertures.Aperture{
		Code:         code,
		SourceString: line,
		Type:         AptypeCircle,
		Diameter:     d,
	}})
	return true
}

func (ctx *drillContext) line(line string, pos Pos) {
	if strings.HasPrefix(line, ";") {
		comment := strings.TrimSpace(line[1:])
		ctx.add(&Comment{pos, comment})
		ctx.formatFromComment(comment)
		return
	}
	switch line {
	case "M48":
		ctx.inHeader = true
		return
	case "%", "M95":
		if ctx.inHeader {
			ctx.inHeader = false
			if ctx.units != 0 {
				ctx.add(&UnitsCmd{pos, ctx.units})
			}
			if ctx.intD+ctx.decD > 0 || ctx.zeros != 0 {
				ctx.add(&Format{pos, ctx.intD, ctx.decD, ctx.zeros, CoordAbsolute})
			}
		}
		return
	case "M30", "M00":
		ctx.add(&Done{pos})
		return
	}

	if ctx.inHeader {
		switch {
		case unitsInchRE.MatchString(line):
			ctx.unitsLine(line, UnitsInch)
		case unitsMetricRE.MatchString(line):
			ctx.unitsLine(line, UnitsMM)
		default:
			// FMAT, tool lines without a diameter and vendor extras are skipped
			ctx.toolDef(line, pos)
		}
		return
	}

	if m := toolChangeRE.FindStringSubmatch(line); m != nil {
		code, _ := strconv.Atoi(m[1])
		ctx.add(&ToolChange{pos, code})
		return
	}
	// some generators define tools in the body
	if toolNumRE.MatchString(line) && toolDiameterRE.MatchString(line) {
		if ctx.toolDef(line, pos) {
			code, _ := strconv.Atoi(toolNumRE.FindStringSubmatch(line)[1])
			ctx.add(&ToolChange{pos, code})
		}
		return
	}

	switch line {
	case "M15":
		ctx.routing = true
		return
	case "M16", "M17":
		ctx.routing = false
		return
	case "M71":
		ctx.units = UnitsMM
		ctx.add(&UnitsCmd{pos, UnitsMM})
		return
	case "M72":
		ctx.units = UnitsInch
		ctx.add(&UnitsCmd{pos, UnitsInch})
		return
	}

	uline := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(uline, "G00") || rapidMoveRE.MatchString(uline):
		ctx.add(&Graphic{pos, OpcodeD02_MOVE, drillCoords(gPayload(line, "G00"))})
	case strings.HasPrefix(uline, "G01") || routeLineRE.MatchString(uline):
		ctx.add(&Graphic{pos, OpcodeD01_DRAW, drillCoords(gPayload(line, "G01"))})
	case strings.HasPrefix(uline, "G85"):
		ctx.add(&Graphic{pos, OpcodeSlot, drillCoords(line[3:])})
	case uline[0] == 'X' || uline[0] == 'Y':
		if i := strings.Index(uline, "G85"); i > 0 {
			// X..Y..G85X..Y.. is a slot between the two points
			ctx.add(&Graphic{pos, OpcodeD02_MOVE, drillCoords(line[:i])})
			ctx.add(&Graphic{pos, OpcodeSlot, drillCoords(line[i+3:])})
			return
		}
		op := OpcodeD03_FLASH
		if ctx.routing {
			op = OpcodeD01_DRAW
		}
		ctx.add(&Graphic{pos, op, drillCoords(line)})
	case strings.HasPrefix(uline, "G05"), strings.HasPrefix(uline, "G81"), repeatRE.MatchString(uline):
		// drill mode select and hole pattern repeats carry nothing to draw
	default:
		glog.V(2).Infof("drill: skipped line %q", line)
	}
}

// strips G00/G0 or G01/G1 from the front of a routing line
func gPayload(line, long string) string {
	if strings.HasPrefix(strings.ToUpper(line), long) {
		return line[3:]
	}
	return line[2:]
}

func drillCoords(s string) map[byte]string {
	out := make(map[byte]string, 2)
	for _, m := range drillCoordsRE.FindAllStringSubmatch(s, -1) {
		out[strings.ToUpper(m[1])[0]] = m[2]
	}
	return out
}
