package calculator

import (
	"math"
	"strconv"
	"testing"
)

type testCase struct {
	src string
	ans float64
}

var src = []testCase{
	{"-2x3", -2 * 3},
	{"-2X-3", -2 * -3},
	{"2x3", 2 * 3},
	{"(((-2)))", -2},
	{"2--3", 2 - -3},
	{"2/-3.0", 2 / -3.0},
	{"-2--3", -2 - (-3)},
	{"-2+1-1", -2 + 1 - 1},
	{"2+1-1", 2 + 1 - 1},
	{"-2+1--3", -2 + 1 - (-3)},
	{"-6x9/8", -6 * 9 / 8.0},
	{"-6x9/8x8/-4X787.33", -6 * 9 / 8.0 * 8 / -4 * 787.33},
	{"-6x9/1x-6x9/2/-6x9/3", -6 * 9 / 1 * -6 * 9 / 2 / -6 * 9 / 3},
	{"-1", -1},
	{"(-2x(333+444x4343)/555)-(666-(-777x(888x(-999--1000))))+(11-12)", -697593},
	{"7%4", 3},
	{"1+2x3", 7},
	{"(1+2)x3", 9},
	{".5+0.25", 0.75},
	{"1/0", 0},
	{"5%0", 0},
	{" 2 x 3 ", 6},
}

func sameFloat(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestCalcExpression(t *testing.T) {
	for _, s := range src {
		result := CalcExpression(s.src)
		if !sameFloat(result, s.ans) {
			t.Fatal(s.src + " calculation error! got " +
				strconv.FormatFloat(result, 'f', 10, 64) +
				" expected " + strconv.FormatFloat(s.ans, 'f', 10, 64))
		} else {
			t.Log(s.src + " = " + strconv.FormatFloat(s.ans, 'f', 5, 64))
		}
	}
}

func TestCalc_Variables(t *testing.T) {
	vars := map[int]float64{1: 2.5, 2: 4, 10: 1}
	var cases = []testCase{
		{"$1", 2.5},
		{"$1x$2", 10},
		{"$2/2-$10", 1},
		{"-$1", -2.5},
		{"$3", 0},
		{"$3+$1", 2.5},
		{"($1+$2)x$10", 6.5},
	}
	for _, c := range cases {
		v, err := Calc(c.src, vars)
		if err != nil {
			t.Fatal(c.src, err)
		}
		if !sameFloat(v, c.ans) {
			t.Error(c.src+": got", v, "expected", c.ans)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{"", "2x", "(1+2", "1+*2", "$", "abc"} {
		if _, err := Parse(s); err == nil {
			t.Error("Parse(\"" + s + "\") must fail")
		}
	}
}

func TestParse_Reuse(t *testing.T) {
	e, err := Parse("$1x2+$2")
	if err != nil {
		t.Fatal(err)
	}
	if v := e.Eval(map[int]float64{1: 1, 2: 1}); v != 3 {
		t.Error("got", v)
	}
	if v := e.Eval(map[int]float64{1: 3}); v != 6 {
		t.Error("got", v)
	}
}
