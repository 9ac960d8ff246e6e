/*
 * formula.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	pdfgui "github.com/rmera/gopdfgui"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokRef
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

//token keeps its byte offsets in the source formula so that
//references can be rewritten without touching anything else.
type token struct {
	kind       tokenKind
	text       string
	start, end int
	ref        int
}

func lex(formula string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(formula) {
		c := formula[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '@':
			j := i + 1
			for j < len(formula) && formula[j] >= '0' && formula[j] <= '9' {
				j++
			}
			if j == i+1 {
				return nil, pdfgui.NewError(pdfgui.ConfigError, "invalid parameter reference at %d in %q", i, formula)
			}
			n, err := strconv.Atoi(formula[i+1 : j])
			if err != nil {
				return nil, pdfgui.WrapError(pdfgui.ConfigError, err, "invalid parameter reference in %q", formula)
			}
			toks = append(toks, token{kind: tokRef, text: formula[i:j], start: i, end: j, ref: n})
			i = j
		case (c >= '0' && c <= '9') || c == '.':
			j := scanNumber(formula, i)
			if _, err := strconv.ParseFloat(formula[i:j], 64); err != nil {
				return nil, pdfgui.NewError(pdfgui.ConfigError, "invalid number %q in %q", formula[i:j], formula)
			}
			toks = append(toks, token{kind: tokNumber, text: formula[i:j], start: i, end: j})
			i = j
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i + 1
			for j < len(formula) && (formula[j] == '_' || unicode.IsLetter(rune(formula[j])) || unicode.IsDigit(rune(formula[j]))) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: formula[i:j], start: i, end: j})
			i = j
		case c == '*' && i+1 < len(formula) && formula[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", start: i, end: i + 2})
			i += 2
		case strings.IndexByte("+-*/^", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c), start: i, end: i + 1})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", start: i, end: i + 1})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", start: i, end: i + 1})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", start: i, end: i + 1})
			i++
		default:
			return nil, pdfgui.NewError(pdfgui.ConfigError, "unexpected character %q in %q", c, formula)
		}
	}
	toks = append(toks, token{kind: tokEOF, start: len(formula), end: len(formula)})
	return toks, nil
}

func scanNumber(s string, i int) int {
	j := i
	for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
		j++
	}
	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && s[k] >= '0' && s[k] <= '9' {
			for k < len(s) && s[k] >= '0' && s[k] <= '9' {
				k++
			}
			j = k
		}
	}
	return j
}

//Expr is a node of a parsed formula.
type Expr interface {
	Eval(values map[int]float64) (float64, error)
	String() string
	refs(dst map[int]bool)
}

type numNode struct {
	v float64
}

func (n numNode) Eval(map[int]float64) (float64, error) { return n.v, nil }
func (n numNode) String() string                        { return strconv.FormatFloat(n.v, 'g', -1, 64) }
func (n numNode) refs(map[int]bool)                     {}

type refNode struct {
	idx int
}

func (n refNode) Eval(values map[int]float64) (float64, error) {
	v, ok := values[n.idx]
	if !ok {
		return 0, pdfgui.NewError(pdfgui.KeyError, "parameter @%d is not defined", n.idx)
	}
	return v, nil
}
func (n refNode) String() string        { return fmt.Sprintf("@%d", n.idx) }
func (n refNode) refs(dst map[int]bool) { dst[n.idx] = true }

type negNode struct {
	x Expr
}

func (n negNode) Eval(values map[int]float64) (float64, error) {
	v, err := n.x.Eval(values)
	return -v, err
}
func (n negNode) String() string        { return "-(" + n.x.String() + ")" }
func (n negNode) refs(dst map[int]bool) { n.x.refs(dst) }

type binNode struct {
	op   byte
	l, r Expr
}

func (n binNode) Eval(values map[int]float64) (float64, error) {
	a, err := n.l.Eval(values)
	if err != nil {
		return 0, err
	}
	b, err := n.r.Eval(values)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		return a / b, nil
	case '^':
		return math.Pow(a, b), nil
	}
	return 0, pdfgui.NewError(pdfgui.RuntimeError, "unknown operator %q", n.op)
}

func (n binNode) String() string {
	return "(" + n.l.String() + string(n.op) + n.r.String() + ")"
}

func (n binNode) refs(dst map[int]bool) {
	n.l.refs(dst)
	n.r.refs(dst)
}

type function struct {
	nargs int
	f     func(a []float64) float64
}

func unary(f func(float64) float64) function {
	return function{1, func(a []float64) float64 { return f(a[0]) }}
}

var functions = map[string]function{
	"sqrt":  unary(math.Sqrt),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"abs":   unary(math.Abs),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"atan2": {2, func(a []float64) float64 { return math.Atan2(a[0], a[1]) }},
	"pow":   {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type callNode struct {
	name string
	fn   function
	args []Expr
}

func (n callNode) Eval(values map[int]float64) (float64, error) {
	a := make([]float64, len(n.args))
	for i, x := range n.args {
		v, err := x.Eval(values)
		if err != nil {
			return 0, err
		}
		a[i] = v
	}
	return n.fn.f(a), nil
}

func (n callNode) String() string {
	s := make([]string, len(n.args))
	for i, x := range n.args {
		s[i] = x.String()
	}
	return n.name + "(" + strings.Join(s, ",") + ")"
}

func (n callNode) refs(dst map[int]bool) {
	for _, x := range n.args {
		x.refs(dst)
	}
}

//parser is a recursive descent parser with the usual precedences:
//additive < multiplicative < unary sign < power (right associative).
type parser struct {
	formula string
	toks    []token
	pos     int
}

//Parse parses a constraint formula. Unknown names and syntax errors are
//ConfigErrors.
func Parse(formula string) (Expr, error) {
	toks, err := lex(formula)
	if err != nil {
		return nil, err
	}
	p := &parser{formula: formula, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "empty formula")
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return pdfgui.NewError(pdfgui.ConfigError, "%s at %d in formula %q", fmt.Sprintf(format, args...), t.start, p.formula)
}

func (p *parser) isOp(ops string) bool {
	t := p.peek()
	return t.kind == tokOp && strings.Contains(ops, t.text)
}

func (p *parser) expr() (Expr, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+-") {
		op := p.next().text[0]
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = binNode{op, l, r}
	}
	return l, nil
}

func (p *parser) term() (Expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*/") {
		op := p.next().text[0]
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = binNode{op, l, r}
	}
	return l, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("+-") {
		op := p.next().text
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return negNode{x}, nil
		}
		return x, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return binNode{'^', base, exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, _ := strconv.ParseFloat(t.text, 64)
		return numNode{v}, nil
	case tokRef:
		return refNode{t.ref}, nil
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "missing )")
		}
		return e, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			fn, ok := functions[t.text]
			if !ok {
				return nil, p.errorf(t, "undefined function %q", t.text)
			}
			p.next()
			var args []Expr
			if p.peek().kind != tokRParen {
				for {
					a, err := p.expr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.peek().kind != tokComma {
						break
					}
					p.next()
				}
			}
			if c := p.next(); c.kind != tokRParen {
				return nil, p.errorf(c, "missing )")
			}
			if len(args) != fn.nargs {
				return nil, p.errorf(t, "%s takes %d arguments, got %d", t.text, fn.nargs, len(args))
			}
			return callNode{t.text, fn, args}, nil
		}
		if v, ok := constants[t.text]; ok {
			return numNode{v}, nil
		}
		return nil, p.errorf(t, "undefined name %q", t.text)
	case tokEOF:
		return nil, p.errorf(t, "unexpected end")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

//RenumberFormula rewrites every @N token of formula whose N is a key of
//mapping to @mapping[N]. The rest of the text, spacing included, is kept.
func RenumberFormula(formula string, mapping map[int]int) (string, error) {
	toks, err := lex(formula)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	last := 0
	for _, t := range toks {
		if t.kind != tokRef {
			continue
		}
		n, ok := mapping[t.ref]
		if !ok {
			continue
		}
		b.WriteString(formula[last:t.start])
		fmt.Fprintf(&b, "@%d", n)
		last = t.end
	}
	b.WriteString(formula[last:])
	return b.String(), nil
}
