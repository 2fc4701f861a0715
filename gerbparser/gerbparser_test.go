package gerbparser

import (
	"errors"
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
)

func init() {
	flag.Set("stderrthreshold", "FATAL")
}

func TestDetectFileType(t *testing.T) {
	type testdata struct {
		input  string
		answer FileType
	}
	var tests = []testdata{
		{"M48\nINCH,TZ\nT1C0.03\n%\n", FileTypeDrill},
		{"  \r\nM48\n", FileTypeDrill},
		{"%FSLAX26Y26*%\n%MOMM*%\n", FileTypeGerber},
		{"%MOIN*%\n", FileTypeGerber},
		{"%\nT1C0.8\nX100Y100\n", FileTypeDrill},
		{"%\n%FSLAX24Y24*%\n", FileTypeGerber},
		{"G04 generated*\n%FSLAX24Y24*%\n", FileTypeGerber},
		{"; drill file\n; FORMAT={2:4}\nT1\n", FileTypeDrill},
		{"; header\n%FSLAX24Y24*%\n", FileTypeGerber},
		{"; header\nM48\n", FileTypeDrill},
		{"G90\nT1C0.8\n", FileTypeDrill},
		{"G75*\n%ADD10C,0.1*%\n", FileTypeGerber},
		{"", FileTypeGerber},
		{"X0Y0D02*\n", FileTypeGerber},
	}
	for _, tc := range tests {
		if got := DetectFileType(tc.input); got != tc.answer {
			t.Errorf("DetectFileType(%q) = %v, expected %v", tc.input, got, tc.answer)
		}
	}
}

func TestParseGerber_Basic(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,0.1*%\nD10*\nX10000Y20000D02*\nX30000D01*\nM02*\n"
	ast, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if ast.FileType != FileTypeGerber {
		t.Fatal("bad file type", ast.FileType)
	}
	if len(ast.Children) != 7 {
		t.Fatal("expected 7 nodes, got", len(ast.Children))
	}
	f, ok := ast.Children[0].(*Format)
	if !ok || f.IntDigits != 2 || f.DecDigits != 4 || f.Zeros != ZeroSuppLeading || f.Mode != CoordAbsolute {
		t.Error("bad format node", ast.Children[0])
	}
	if u, ok := ast.Children[1].(*UnitsCmd); !ok || u.Units != UnitsMM {
		t.Error("bad units node", ast.Children[1])
	}
	if d, ok := ast.Children[2].(*ToolDef); !ok || d.Code != 10 || d.Aperture.Diameter != 0.1 {
		t.Error("bad tool definition", ast.Children[2])
	}
	if c, ok := ast.Children[3].(*ToolChange); !ok || c.Code != 10 {
		t.Error("bad tool change", ast.Children[3])
	}
	g, ok := ast.Children[4].(*Graphic)
	if !ok || g.Op != OpcodeD02_MOVE {
		t.Fatal("bad move", ast.Children[4])
	}
	if diff := cmp.Diff(map[byte]string{'X': "10000", 'Y': "20000"}, g.Coords); diff != "" {
		t.Error("coordinates mismatch (-want +got):\n" + diff)
	}
	g = ast.Children[5].(*Graphic)
	if g.Op != OpcodeD01_DRAW || g.Coords['X'] != "30000" || g.Coords['Y'] != "" {
		t.Error("bad draw", g)
	}
	if _, ok := ast.Children[6].(*Done); !ok {
		t.Error("M02 must give a done node")
	}
	// spans point back into the source
	sp := ast.Children[4].Span()
	if src[sp.Start:sp.End] != "X10000Y20000D02*" {
		t.Errorf("bad span %q", src[sp.Start:sp.End])
	}
}

func TestParseGerber_DetachedOperation(t *testing.T) {
	ast, err := ParseGerber("X100Y200*\nD03*\nD01*\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(ast.Children) != 2 {
		t.Fatal("expected 2 nodes, got", len(ast.Children))
	}
	g := ast.Children[0].(*Graphic)
	if g.Op != OpcodeD03_FLASH || g.Coords['X'] != "100" {
		t.Error("operation code must attach to the preceding coordinates", g)
	}
	if g.End != 14 {
		t.Error("span must cover the operation block, end", g.End)
	}
	g = ast.Children[1].(*Graphic)
	if g.Op != OpcodeD01_DRAW || len(g.Coords) != 0 {
		t.Error("bare D01", g)
	}
}

func TestParseGerber_Modes(t *testing.T) {
	src := "%LPC*%%LPD*%G36*G37*G74*G75*G70*G71*G91*G04 hi there*%TF.Part,Single*%%LMXY*%D04*"
	ast, err := ParseGerber(src)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Node{
		&Polarity{Polarity: PolTypeClear},
		&Polarity{Polarity: PolTypeDark},
		&RegionMode{Region: true},
		&RegionMode{Region: false},
		&QuadrantMode{Mode: QuadModeSingle},
		&QuadrantMode{Mode: QuadModeMulti},
		&UnitsCmd{Units: UnitsInch},
		&UnitsCmd{Units: UnitsMM},
		&Format{Mode: CoordIncremental},
		&Comment{Text: "hi there"},
		&Unimplemented{Value: "TF.Part,Single"},
		&Unimplemented{Value: "LMXY"},
		&Unimplemented{Value: "D04"},
	}
	ignorePos := cmp.Transformer("nopos", func(p Pos) Pos { return Pos{} })
	if diff := cmp.Diff(expected, ast.Children, ignorePos); diff != "" {
		t.Error("nodes mismatch (-want +got):\n" + diff)
	}
}

func TestParseGerber_Macro(t *testing.T) {
	src := "%AMBOX*21,1,$1,$2,0,0,0*%\n%ADD11BOX,1.0X0.5*%\n%ADD12NOPE,1*%\n"
	ast, err := ParseGerber(src)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := ast.Children[0].(*ToolMacro); !ok || m.Macro.Name != "BOX" {
		t.Fatal("bad macro node", ast.Children[0])
	}
	d := ast.Children[1].(*ToolDef)
	if d.Aperture.MacroPtr == nil || d.Aperture.MacroPtr.Name != "BOX" {
		t.Error("macro aperture must be bound to its macro")
	}
	// undefined macros are reported when flashed
	d = ast.Children[2].(*ToolDef)
	if d.Aperture.MacroPtr != nil || d.Aperture.Type != AptypeMacro {
		t.Error("undefined macro", d.Aperture)
	}
}

func TestParseGerber_StepRepeat(t *testing.T) {
	ast, err := ParseGerber("%SRX2Y3I1.0J2.0*%\nX0Y0D03*\n%SR*%\n%SRX2Y1I5J0*%\n%SRX1Y1I0J0*%\nM02*")
	if err != nil {
		t.Fatal(err)
	}
	var opens, closes int
	for _, n := range ast.Children {
		if sr, ok := n.(*StepRepeat); ok {
			if sr.Block == nil {
				closes++
			} else {
				opens++
			}
		}
	}
	if opens != 2 || closes != 2 {
		t.Error("opens", opens, "closes", closes)
	}

	// a new block implicitly closes the open one
	ast, err = ParseGerber("%SRX2Y1I1J0*%\n%SRX3Y1I1J0*%\n%SR*%\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(ast.Children) != 4 || ast.Children[1].(*StepRepeat).Block != nil {
		t.Error("implicit close is missing", ast.Children)
	}
}

func TestParseGerber_Errors(t *testing.T) {
	type testdata struct {
		input  string
		offset int
	}
	var tests = []testdata{
		{"%FSLAX24Y24*", 0},
		{"G04 x*\n%MOFT*%", 7},
		{"%ADD5C,1*%", 0},
		{"%ADD10C,1*%%AM*%", 11},
		{"%SRX2Y2I1J1*%\nD10*\nM02*", 0},
		{"%SRX2Y2I1J1*%\nD10*", 0},
		{"%SRX0Y2I1J1*%", 0},
	}
	for _, tc := range tests {
		_, err := ParseGerber(tc.input)
		if err == nil {
			t.Errorf("ParseGerber(%q) must fail", tc.input)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseGerber(%q): %v is not a ParseError", tc.input, err)
			continue
		}
		if pe.Offset != tc.offset {
			t.Errorf("ParseGerber(%q): offset %d, expected %d", tc.input, pe.Offset, tc.offset)
		}
	}
}

func TestSplitCoords(t *testing.T) {
	c, err := splitCoords("X-100Y+200I5J0.5")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[byte]string{'X': "-100", 'Y': "+200", 'I': "5", 'J': "0.5"}, c); diff != "" {
		t.Error(diff)
	}
	for _, bad := range []string{"XY1", "X1Z2", "X"} {
		if _, err := splitCoords(bad); err == nil {
			t.Errorf("splitCoords(%q) must fail", bad)
		}
	}
}
