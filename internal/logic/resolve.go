package logic

import "github.com/dekarrin/backchain/internal/diagnostics"

// file resolve.go implements the backward-chaining resolver. Rather than a
// mutable global fact table and rule graph, resolution state is threaded
// through an explicit *Session value, keeping the memoize-and-cycle-break
// algorithm free of hidden global coupling.

// Session holds the mutable resolution state for one knowledge base: the
// fact table (memoization cache and cycle-break sentinel store) and the rule
// graph it resolves against. Only the fact table changes after a Session is
// created.
type Session struct {
	facts map[rune]bool
	graph RuleGraph
}

// NewSession creates a Session from a built KnowledgeBase. The returned
// Session owns a copy of kb.Facts; mutating one does not affect the other's
// original map.
func NewSession(kb KnowledgeBase) *Session {
	facts := make(map[rune]bool, len(kb.Facts))
	for s, v := range kb.Facts {
		facts[s] = v
	}
	return &Session{facts: facts, graph: kb.Graph}
}

// Resolve answers whether goal is provable given the session's current facts
// and rule graph, using the following algorithm:
//
//  1. If goal is already in the fact table, return its stored value
//     (memoized or originally asserted).
//  2. Otherwise write facts[goal] = false before recursing. This is both the
//     memoization entry and the cycle-break sentinel: any re-entrant call
//     for the same goal observes false immediately and returns.
//  3. Try each rule whose conclusion contains goal, in insertion order; the
//     first premise that evaluates true sets facts[goal] = true and further
//     rules for this goal are not tried.
//  4. Return the (possibly now true) stored value.
func (s *Session) Resolve(goal rune) bool {
	if v, ok := s.facts[goal]; ok {
		return v
	}

	s.facts[goal] = false

	for _, premise := range s.graph[goal] {
		if s.eval(premise) {
			s.facts[goal] = true
			break
		}
	}

	return s.facts[goal]
}

// eval performs structural recursion over an expression, resolving Sym
// leaves through Resolve so that memoization and cycle-breaking apply
// uniformly across nested rule premises.
func (s *Session) eval(e Expression) bool {
	switch e.Kind() {
	case KindSymbol:
		return s.Resolve(e.AsSymbol().Sym)
	case KindNot:
		return !s.eval(e.AsNot().Operand)
	case KindAnd:
		b := e.AsBinary()
		return s.eval(b.Left) && s.eval(b.Right)
	case KindOr:
		b := e.AsBinary()
		return s.eval(b.Left) || s.eval(b.Right)
	case KindXor:
		b := e.AsBinary()
		return s.eval(b.Left) != s.eval(b.Right)
	default:
		panic("eval: expression has unknown Kind")
	}
}

// Reset restores the session's fact table from kb, discarding any
// memoization accumulated since it was created or last reset.
func (s *Session) Reset(kb KnowledgeBase) {
	facts := make(map[rune]bool, len(kb.Facts))
	for sym, v := range kb.Facts {
		facts[sym] = v
	}
	s.facts = facts
}

// PurgeFalse drops every fact-table entry currently holding false, keeping
// asserted-true facts. Used between REPL lines so that a cycle sentinel or a
// failed proof from an earlier line doesn't block a symbol from being
// proved true once new rules or facts have been added.
func (s *Session) PurgeFalse() {
	for sym, v := range s.facts {
		if !v {
			delete(s.facts, sym)
		}
	}
}

// AddRule inserts a newly parsed rule's edges into the session's rule graph,
// used by interactive mode when a rule line is entered after the initial
// load. Returns any UnsupportedRuleShape diagnostics the same way Build does.
func (s *Session) AddRule(item RuleItem) []diagnostics.UnsupportedRuleShape {
	return buildRule(s.graph, item)
}

// Fact reports the current stored value for sym, and whether it has been
// considered at all (present in the fact table).
func (s *Session) Fact(sym rune) (value bool, known bool) {
	value, known = s.facts[sym]
	return
}

// AssertFact sets sym to true in the fact table. Multiple fact lines for the
// same symbol union to true.
func (s *Session) AssertFact(sym rune) {
	s.facts[sym] = true
}
