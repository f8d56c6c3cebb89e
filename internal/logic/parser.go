package logic

import (
	"github.com/dekarrin/backchain/internal/diagnostics"
)

// file parser.go implements a Pratt (top-down operator precedence) parser:
// nud/led dispatch keyed by each token's left-binding-power (tokenClass.lbp).
// Precedence is fixed: '!' binds tightest, then '+', then '^', then '|'.

// Parse consumes the entire tokenStream and returns the ordered list of
// top-level items it describes. It fails closed: any deviation from the
// grammar aborts with a diagnostics.SyntaxError and no partial result.
func Parse(ts tokenStream) ([]Item, error) {
	var items []Item

	for ts.peek().class.id != clsEOF.id {
		item, err := parseItem(&ts)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		switch ts.peek().class.id {
		case clsNewline.id:
			ts.next()
		case clsEOF.id:
			// trailing item with no newline (end of file); fine.
		default:
			t := ts.peek()
			return nil, diagnostics.SyntaxError{
				Line: t.line, Col: t.col, SourceLine: t.srcLine,
				Msg: "expected end of line, found " + t.class.human,
			}
		}
	}

	return items, nil
}

func parseItem(ts *tokenStream) (Item, error) {
	t := ts.peek()
	switch t.class.id {
	case clsEquals.id:
		ts.next()
		return parseFact(ts)
	case clsQuery.id:
		ts.next()
		return parseQuery(ts)
	default:
		return parseRule(ts)
	}
}

func parseFact(ts *tokenStream) (Item, error) {
	var syms []rune
	for ts.peek().class.id == clsSymbol.id {
		t := ts.next()
		syms = append(syms, []rune(t.lexeme)[0])
	}
	return FactItem{Symbols: syms}, nil
}

func parseQuery(ts *tokenStream) (Item, error) {
	var syms []rune
	for ts.peek().class.id == clsSymbol.id {
		t := ts.next()
		syms = append(syms, []rune(t.lexeme)[0])
	}
	if len(syms) == 0 {
		t := ts.peek()
		return nil, diagnostics.SyntaxError{
			Line: t.line, Col: t.col, SourceLine: t.srcLine,
			Msg: "query requires at least one symbol",
		}
	}
	return QueryItem{Symbols: syms}, nil
}

func parseRule(ts *tokenStream) (Item, error) {
	premise, err := parseExpr(ts, 0)
	if err != nil {
		return nil, err
	}

	t := ts.peek()
	var kind RuleKind
	switch t.class.id {
	case clsImplies.id:
		kind = Implies
	case clsIff.id:
		kind = Iff
	default:
		return nil, diagnostics.SyntaxError{
			Line: t.line, Col: t.col, SourceLine: t.srcLine,
			Msg: "expected '=>' or '<=>', found " + t.class.human,
		}
	}
	ts.next()

	conclusion, err := parseExpr(ts, 0)
	if err != nil {
		return nil, err
	}

	return RuleItem{Premise: premise, Conclusion: conclusion, RuleKind: kind, tok: t}, nil
}

// parseExpr is the Pratt driver: parse a leading term via nud, then keep
// consuming infix operators whose lbp exceeds rbp via led.
func parseExpr(ts *tokenStream, rbp int) (Expression, error) {
	t := ts.next()
	left, err := nud(t, ts)
	if err != nil {
		return nil, err
	}
	if left == nil {
		return nil, diagnostics.SyntaxError{
			Line: t.line, Col: t.col, SourceLine: t.srcLine,
			Msg: "unexpected " + t.class.human + " (cannot start an expression)",
		}
	}

	for rbp < ts.peek().class.lbp {
		opTok := ts.next()
		left, err = led(opTok, left, ts)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// nud is the "null denotation" for a token: how it parses when it begins an
// expression. Returns (nil, nil) for tokens that cannot start an expression.
func nud(t token, ts *tokenStream) (Expression, error) {
	switch t.class.id {
	case clsSymbol.id:
		return SymbolNode{Sym: []rune(t.lexeme)[0], tok: t}, nil
	case clsNot.id:
		operand, err := parseExpr(ts, t.class.lbp)
		if err != nil {
			return nil, err
		}
		return NotNode{Operand: operand, tok: t}, nil
	case clsGroupOpen.id:
		inner, err := parseExpr(ts, 0)
		if err != nil {
			return nil, err
		}
		closeTok := ts.next()
		if closeTok.class.id != clsGroupClose.id {
			return nil, diagnostics.SyntaxError{
				Line: closeTok.line, Col: closeTok.col, SourceLine: closeTok.srcLine,
				Msg: "unmatched '('; expected ')' here",
			}
		}
		return inner, nil
	default:
		return nil, nil
	}
}

// led is the "left denotation" for a token: how it continues an expression
// given the already-parsed left operand.
func led(t token, left Expression, ts *tokenStream) (Expression, error) {
	var op Kind
	switch t.class.id {
	case clsAnd.id:
		op = KindAnd
	case clsOr.id:
		op = KindOr
	case clsXor.id:
		op = KindXor
	default:
		return nil, diagnostics.SyntaxError{
			Line: t.line, Col: t.col, SourceLine: t.srcLine,
			Msg: "unexpected " + t.class.human + " in the middle of an expression",
		}
	}

	right, err := parseExpr(ts, t.class.lbp)
	if err != nil {
		return nil, err
	}
	return BinaryNode{Op: op, Left: left, Right: right, tok: t}, nil
}
