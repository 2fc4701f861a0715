// Arithmetic of aperture macro modifiers: + - x / %, unary sign, parentheses and $n variables
package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Variable", Pattern: `\$[0-9]+`},
	{Name: "Number", Pattern: `[0-9]+\.?[0-9]*|\.[0-9]+`},
	{Name: "Operator", Pattern: `[-+xX/%()]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var parser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// Expression is a sum of terms
type Expression struct {
	Left  *Term     `@@`
	Right []*OpTerm `@@*`
}

type OpTerm struct {
	Op   string `@("+" | "-")`
	Term *Term  `@@`
}

// Term is a product of factors
type Term struct {
	Left  *Factor     `@@`
	Right []*OpFactor `@@*`
}

type OpFactor struct {
	Op     string  `@("x" | "X" | "/" | "%")`
	Factor *Factor `@@`
}

type Factor struct {
	Neg      *Factor     `  "-" @@`
	Pos      *Factor     `| "+" @@`
	Number   *float64    `| @Number`
	Variable *string     `| @Variable`
	Sub      *Expression `| "(" @@ ")"`
}

// Parse builds the expression tree
func Parse(expr string) (*Expression, error) {
	e, err := parser.ParseString("", strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("bad expression %q: %w", expr, err)
	}
	return e, nil
}

// Calc parses and evaluates expr with the given variables
func Calc(expr string, vars map[int]float64) (float64, error) {
	e, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	return e.Eval(vars), nil
}

// CalcExpression evaluates an expression without variables, 0 on syntax error.
func CalcExpression(expr string) float64 {
	v, err := Calc(expr, nil)
	if err != nil {
		return 0
	}
	return v
}

func (e *Expression) Eval(vars map[int]float64) float64 {
	acc := e.Left.Eval(vars)
	for _, r := range e.Right {
		switch r.Op {
		case "+":
			acc += r.Term.Eval(vars)
		case "-":
			acc -= r.Term.Eval(vars)
		}
	}
	return acc
}

func (t *Term) Eval(vars map[int]float64) float64 {
	acc := t.Left.Eval(vars)
	for _, r := range t.Right {
		v := r.Factor.Eval(vars)
		switch r.Op {
		case "x", "X":
			acc *= v
		case "/":
			if v == 0 {
				acc = 0
				continue
			}
			acc /= v
		case "%":
			if v == 0 {
				acc = 0
				continue
			}
			acc = math.Mod(acc, v)
		}
	}
	return acc
}

func (f *Factor) Eval(vars map[int]float64) float64 {
	switch {
	case f.Neg != nil:
		return -f.Neg.Eval(vars)
	case f.Pos != nil:
		return f.Pos.Eval(vars)
	case f.Number != nil:
		return *f.Number
	case f.Variable != nil:
		n, err := strconv.Atoi((*f.Variable)[1:])
		if err != nil {
			return 0
		}
		// undefined variables are zero
		return vars[n]
	case f.Sub != nil:
		return f.Sub.Eval(vars)
	}
	return 0
}
