package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Spreadsheet error codes, surfaced as cell values.
const (
	errCycle  = "#CYCLE!"
	errRef    = "#REF!"
	errName   = "#NAME?"
	errValue  = "#VALUE!"
	errDiv0   = "#DIV/0!"
	errPropag = "#ERROR!"
)

// Value is the result of evaluating a cell or expression.
type Value struct {
	Kind kind
	Num  float64
	Str  string
	Bool bool
}

type kind int

const (
	kindEmpty kind = iota
	kindNumber
	kindString
	kindBool
)

func number(n float64) Value { return Value{Kind: kindNumber, Num: n} }
func str(s string) Value     { return Value{Kind: kindString, Str: s} }
func boolean(b bool) Value   { return Value{Kind: kindBool, Bool: b} }

// Format renders a value the way it is stored and returned to clients.
func (v Value) Format() string {
	switch v.Kind {
	case kindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case kindString:
		return v.Str
	case kindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

func (v Value) toNumber() (float64, error) {
	switch v.Kind {
	case kindNumber:
		return v.Num, nil
	case kindEmpty:
		return 0, nil
	case kindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case kindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("%s", errValue)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%s", errValue)
}

func (v Value) truthy() bool {
	switch v.Kind {
	case kindNumber:
		return v.Num != 0
	case kindBool:
		return v.Bool
	case kindString:
		return v.Str != ""
	default:
		return false
	}
}

// resolver supplies referenced cell values during evaluation.
type resolver interface {
	// cell returns the value of a referenced cell.
	cell(ref string) (Value, error)
	// cellRange returns the values of a rectangular range, in row order.
	cellRange(from, to string) ([]Value, error)
}

// --- reference handling ------------------------------------------------------

// parseRef splits an A1-style reference into zero-based column and row.
func parseRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	return col - 1, row - 1, nil
}

// formatRef produces the canonical A1 form of a zero-based column and row.
func formatRef(col, row int) string {
	name := ""
	c := col + 1
	for c > 0 {
		c--
		name = string(rune('A'+c%26)) + name
		c /= 26
	}
	return fmt.Sprintf("%s%d", name, row+1)
}

// expandRange enumerates the cells of a rectangular range in row order.
func expandRange(from, to string) ([]string, error) {
	c1, r1, err := parseRef(from)
	if err != nil {
		return nil, err
	}
	c2, r2, err := parseRef(to)
	if err != nil {
		return nil, err
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	if (c2-c1+1)*(r2-r1+1) > 10000 {
		return nil, fmt.Errorf("range %s:%s too large", from, to)
	}
	var out []string
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			out = append(out, formatRef(c, r))
		}
	}
	return out, nil
}

// --- lexer -------------------------------------------------------------------

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent // function name or cell reference
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	src []rune
	pos int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.src[l.pos]
	switch {
	case ch >= '0' && ch <= '9' || ch == '.':
		for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, fmt.Errorf("invalid number %q at position %d", text, start)
		}
		return token{kind: tokNumber, num: n, pos: start}, nil

	case ch == '"':
		l.pos++
		var sb strings.Builder
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			sb.WriteRune(l.src[l.pos])
			l.pos++
		}
		if l.pos >= len(l.src) {
			return token{}, fmt.Errorf("unterminated string at position %d", start)
		}
		l.pos++
		return token{kind: tokString, text: sb.String(), pos: start}, nil

	case unicode.IsLetter(ch):
		for l.pos < len(l.src) && (unicode.IsLetter(l.src[l.pos]) || unicode.IsDigit(l.src[l.pos])) {
			l.pos++
		}
		return token{kind: tokIdent, text: strings.ToUpper(string(l.src[start:l.pos])), pos: start}, nil
	}

	l.pos++
	switch ch {
	case '+':
		return token{kind: tokPlus, pos: start}, nil
	case '-':
		return token{kind: tokMinus, pos: start}, nil
	case '*':
		return token{kind: tokStar, pos: start}, nil
	case '/':
		return token{kind: tokSlash, pos: start}, nil
	case '(':
		return token{kind: tokLParen, pos: start}, nil
	case ')':
		return token{kind: tokRParen, pos: start}, nil
	case ',':
		return token{kind: tokComma, pos: start}, nil
	case ':':
		return token{kind: tokColon, pos: start}, nil
	case '=':
		return token{kind: tokEq, pos: start}, nil
	case '<':
		if l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++
			return token{kind: tokNe, pos: start}, nil
		}
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.pos++
			return token{kind: tokLe, pos: start}, nil
		}
		return token{kind: tokLt, pos: start}, nil
	case '>':
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.pos++
			return token{kind: tokGe, pos: start}, nil
		}
		return token{kind: tokGt, pos: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
}

// --- parser ------------------------------------------------------------------

type node interface {
	eval(r resolver) (Value, error)
}

type numberNode struct{ n float64 }
type stringNode struct{ s string }
type refNode struct{ ref string }
type rangeNode struct{ from, to string }
type unaryNode struct {
	op   tokenKind
	expr node
}
type binaryNode struct {
	op          tokenKind
	left, right node
}
type callNode struct {
	name string
	args []node
}

type parser struct {
	lex  *lexer
	tok  token
	err  error
	refs []string
}

// parseFormula parses the expression after the leading '='. It returns the
// AST and every cell referenced (ranges expanded), for dependency tracking.
func parseFormula(src string) (node, []string, error) {
	p := &parser{lex: &lexer{src: []rune(src)}}
	p.advance()
	n := p.parseComparison()
	if p.err != nil {
		return nil, nil, p.err
	}
	if p.tok.kind != tokEOF {
		return nil, nil, fmt.Errorf("unexpected trailing input at position %d", p.tok.pos)
	}
	return n, p.refs, nil
}

func (p *parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		return
	}
	p.tok = tok
}

func (p *parser) fail(format string, args ...any) node {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
	return nil
}

func (p *parser) parseComparison() node {
	left := p.parseAdditive()
	for p.err == nil {
		switch p.tok.kind {
		case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
			op := p.tok.kind
			p.advance()
			right := p.parseAdditive()
			left = &binaryNode{op: op, left: left, right: right}
		default:
			return left
		}
	}
	return left
}

func (p *parser) parseAdditive() node {
	left := p.parseMultiplicative()
	for p.err == nil && (p.tok.kind == tokPlus || p.tok.kind == tokMinus) {
		op := p.tok.kind
		p.advance()
		right := p.parseMultiplicative()
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left
}

func (p *parser) parseMultiplicative() node {
	left := p.parseUnary()
	for p.err == nil && (p.tok.kind == tokStar || p.tok.kind == tokSlash) {
		op := p.tok.kind
		p.advance()
		right := p.parseUnary()
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left
}

func (p *parser) parseUnary() node {
	if p.tok.kind == tokMinus {
		p.advance()
		return &unaryNode{op: tokMinus, expr: p.parseUnary()}
	}
	if p.tok.kind == tokPlus {
		p.advance()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() node {
	switch p.tok.kind {
	case tokNumber:
		n := p.tok.num
		p.advance()
		return &numberNode{n: n}

	case tokString:
		s := p.tok.text
		p.advance()
		return &stringNode{s: s}

	case tokLParen:
		p.advance()
		inner := p.parseComparison()
		if p.tok.kind != tokRParen {
			return p.fail("expected ) at position %d", p.tok.pos)
		}
		p.advance()
		return inner

	case tokIdent:
		name := p.tok.text
		p.advance()
		if p.tok.kind == tokLParen {
			return p.parseCall(name)
		}
		if _, _, err := parseRef(name); err != nil {
			return p.fail("unknown name %q", name)
		}
		if p.tok.kind == tokColon {
			p.advance()
			if p.tok.kind != tokIdent {
				return p.fail("expected cell reference after : at position %d", p.tok.pos)
			}
			to := p.tok.text
			if _, _, err := parseRef(to); err != nil {
				return p.fail("invalid range end %q", to)
			}
			p.advance()
			cells, err := expandRange(name, to)
			if err != nil {
				return p.fail("%v", err)
			}
			p.refs = append(p.refs, cells...)
			return &rangeNode{from: name, to: to}
		}
		p.refs = append(p.refs, name)
		return &refNode{ref: name}
	}
	return p.fail("unexpected token at position %d", p.tok.pos)
}

func (p *parser) parseCall(name string) node {
	p.advance() // consume (
	var args []node
	if p.tok.kind != tokRParen {
		for {
			args = append(args, p.parseComparison())
			if p.err != nil {
				return nil
			}
			if p.tok.kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRParen {
		return p.fail("expected ) closing %s at position %d", name, p.tok.pos)
	}
	p.advance()
	return &callNode{name: name, args: args}
}

// --- evaluation --------------------------------------------------------------

func (n *numberNode) eval(resolver) (Value, error) { return number(n.n), nil }
func (n *stringNode) eval(resolver) (Value, error) { return str(n.s), nil }

func (n *refNode) eval(r resolver) (Value, error) {
	return r.cell(n.ref)
}

func (n *rangeNode) eval(resolver) (Value, error) {
	// A bare range is only meaningful as a function argument.
	return Value{}, fmt.Errorf("%s", errValue)
}

func (n *unaryNode) eval(r resolver) (Value, error) {
	v, err := n.expr.eval(r)
	if err != nil {
		return Value{}, err
	}
	num, err := v.toNumber()
	if err != nil {
		return Value{}, err
	}
	return number(-num), nil
}

func (n *binaryNode) eval(r resolver) (Value, error) {
	left, err := n.left.eval(r)
	if err != nil {
		return Value{}, err
	}
	right, err := n.right.eval(r)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		return compare(n.op, left, right)
	}

	a, err := left.toNumber()
	if err != nil {
		return Value{}, err
	}
	b, err := right.toNumber()
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case tokPlus:
		return number(a + b), nil
	case tokMinus:
		return number(a - b), nil
	case tokStar:
		return number(a * b), nil
	case tokSlash:
		if b == 0 {
			return Value{}, fmt.Errorf("%s", errDiv0)
		}
		return number(a / b), nil
	}
	return Value{}, fmt.Errorf("%s", errValue)
}

func compare(op tokenKind, left, right Value) (Value, error) {
	if left.Kind == kindString && right.Kind == kindString {
		cmp := strings.Compare(left.Str, right.Str)
		return boolean(compareResult(op, cmp)), nil
	}
	a, err := left.toNumber()
	if err != nil {
		return Value{}, err
	}
	b, err := right.toNumber()
	if err != nil {
		return Value{}, err
	}
	cmp := 0
	if a < b {
		cmp = -1
	} else if a > b {
		cmp = 1
	}
	return boolean(compareResult(op, cmp)), nil
}

func compareResult(op tokenKind, cmp int) bool {
	switch op {
	case tokEq:
		return cmp == 0
	case tokNe:
		return cmp != 0
	case tokLt:
		return cmp < 0
	case tokLe:
		return cmp <= 0
	case tokGt:
		return cmp > 0
	case tokGe:
		return cmp >= 0
	}
	return false
}

func (n *callNode) eval(r resolver) (Value, error) {
	switch n.name {
	case "IF":
		if len(n.args) != 3 {
			return Value{}, fmt.Errorf("IF expects 3 arguments")
		}
		cond, err := n.args[0].eval(r)
		if err != nil {
			return Value{}, err
		}
		if cond.truthy() {
			return n.args[1].eval(r)
		}
		return n.args[2].eval(r)

	case "SUM", "AVERAGE", "MIN", "MAX", "COUNT":
		values, err := n.collect(r)
		if err != nil {
			return Value{}, err
		}
		return aggregate(n.name, values)
	}
	return Value{}, fmt.Errorf("%s", errName)
}

// collect flattens the call's arguments, expanding ranges, and keeps only
// numeric values the way SUM-family functions do.
func (n *callNode) collect(r resolver) ([]float64, error) {
	var out []float64
	for _, arg := range n.args {
		if rng, ok := arg.(*rangeNode); ok {
			values, err := r.cellRange(rng.from, rng.to)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				if v.Kind == kindNumber {
					out = append(out, v.Num)
				}
			}
			continue
		}
		v, err := arg.eval(r)
		if err != nil {
			return nil, err
		}
		if v.Kind == kindEmpty {
			continue
		}
		num, err := v.toNumber()
		if err != nil {
			return nil, err
		}
		out = append(out, num)
	}
	return out, nil
}

func aggregate(name string, values []float64) (Value, error) {
	if name == "COUNT" {
		return number(float64(len(values))), nil
	}
	if len(values) == 0 {
		if name == "SUM" {
			return number(0), nil
		}
		return Value{}, fmt.Errorf("%s", errValue)
	}
	switch name {
	case "SUM", "AVERAGE":
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		if name == "AVERAGE" {
			return number(sum / float64(len(values))), nil
		}
		return number(sum), nil
	case "MIN":
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return number(m), nil
	case "MAX":
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return number(m), nil
	}
	return Value{}, fmt.Errorf("%s", errName)
}
