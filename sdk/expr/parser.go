package expr

import (
	"math"
	"strconv"

	"github.com/zintix-labs/quadlab/errs"
)

const maxDepth = 256

// 文法：
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = { "+" | "-" } power
//	power   = primary [ "^" unary ]
//	primary = number | "x" | "pi" | "e" | func "(" expr ")" | "(" expr ")"
//
// "^" 右結合，且優先於一元負號：-x^2 == -(x^2)。
type parser struct {
	tokens []token
	pos    int
	depth  int
}

func parse(src string) (node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, errs.InvalidArgument("expr", "expression is empty")
	}
	p := &parser{tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, p.unexpected(t)
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) unexpected(t token) error {
	if t.typ == tokEOF {
		return errs.InvalidArgument("expr", "unexpected end of input")
	}
	return errs.InvalidArgument("expr", "unexpected %s %q at %d", t.typ, t.val, t.pos)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return errs.InvalidArgument("expr", "expression nested deeper than %d", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.typ != tokPlus && t.typ != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.val[0], left: left, right: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.typ != tokStar && t.typ != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.val[0], left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.peek().typ {
	case tokMinus:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negate{operand: operand}, nil
	case tokPlus:
		p.next()
		return p.unary()
	default:
		return p.power()
	}
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokCaret {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return binary{op: '^', left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.typ {
	case tokNumber:
		v, err := strconv.ParseFloat(t.val, 64)
		if err != nil || math.IsInf(v, 0) {
			return nil, errs.InvalidArgument("expr", "bad number %q at %d", t.val, t.pos)
		}
		return number{value: v}, nil

	case tokIdent:
		return p.ident(t)

	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil

	default:
		return nil, p.unexpected(t)
	}
}

func (p *parser) ident(t token) (node, error) {
	switch t.val {
	case "x":
		return variable{}, nil
	case "pi":
		return number{value: math.Pi}, nil
	case "e":
		return number{value: math.E}, nil
	}
	fn, ok := functions[t.val]
	if !ok {
		return nil, errs.InvalidArgument("expr", "unknown identifier %q at %d", t.val, t.pos)
	}
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	arg, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return call{name: t.val, fn: fn, arg: arg}, nil
}

func (p *parser) expect(typ tokenType) error {
	t := p.next()
	if t.typ != typ {
		if t.typ == tokEOF {
			return errs.InvalidArgument("expr", "missing %s", typ)
		}
		return errs.InvalidArgument("expr", "expected %s, got %s %q at %d", typ, t.typ, t.val, t.pos)
	}
	return nil
}
