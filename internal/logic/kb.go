package logic

import (
	"github.com/dekarrin/backchain/internal/diagnostics"
)

// file kb.go builds a knowledge base (facts, rule graph, and ordered query
// list) from a slice of parsed Items.

// RuleGraph maps a conclusion symbol to the ordered list of premise
// expressions that can derive it. Insertion order is preserved, since
// resolution tries rules in that order and must be deterministic.
type RuleGraph map[rune][]Expression

// KnowledgeBase is the immutable result of building a parsed document: the
// initial fact table, the rule graph, and the ordered query list. Facts is
// handed to a new Session, which is the only thing that mutates afterward.
type KnowledgeBase struct {
	Facts   map[rune]bool
	Graph   RuleGraph
	Queries []rune
}

// Build walks parsed items and produces a KnowledgeBase, along with any
// non-fatal UnsupportedRuleShape diagnostics encountered along the way.
// Rules with an unsupported conclusion (or, for IFF, an unsupported premise
// on the reverse direction) are skipped; processing continues.
func Build(items []Item) (KnowledgeBase, []diagnostics.UnsupportedRuleShape) {
	kb := KnowledgeBase{
		Facts: make(map[rune]bool),
		Graph: make(RuleGraph),
	}
	var diags []diagnostics.UnsupportedRuleShape

	for _, it := range items {
		switch item := it.(type) {
		case FactItem:
			for _, s := range item.Symbols {
				kb.Facts[s] = true
			}
		case QueryItem:
			kb.Queries = append(kb.Queries, item.Symbols...)
		case RuleItem:
			diags = append(diags, buildRule(kb.Graph, item)...)
		}
	}

	return kb, diags
}

// buildRule inserts item's forward (and, for IFF, reverse) edges into graph.
func buildRule(graph RuleGraph, item RuleItem) []diagnostics.UnsupportedRuleShape {
	var diags []diagnostics.UnsupportedRuleShape

	conclusionSyms, ok := conjunctionSymbols(item.Conclusion)
	if !ok {
		diags = append(diags, diagnostics.UnsupportedRuleShape{
			Line:       item.tok.line,
			SourceLine: item.tok.srcLine,
			Reason:     "conclusion of a rule must be a conjunction of symbols",
		})
		return diags
	}
	for _, c := range conclusionSyms {
		graph[c] = append(graph[c], item.Premise)
	}

	if item.RuleKind != Iff {
		return diags
	}

	premiseSyms, ok := conjunctionSymbols(item.Premise)
	if !ok {
		diags = append(diags, diagnostics.UnsupportedRuleShape{
			Line:       item.tok.line,
			SourceLine: item.tok.srcLine,
			Reason:     "premise of an IFF rule must be a conjunction of symbols for the reverse direction; keeping forward direction only",
		})
		return diags
	}
	for _, p := range premiseSyms {
		graph[p] = append(graph[p], item.Conclusion)
	}

	return diags
}

// conjunctionSymbols flattens e if it is a (possibly nested) conjunction of
// plain symbols, returning the leaves in left-to-right order. The second
// return is false if e contains anything else (Or, Xor, Not, or is not
// ultimately built only from And/Sym nodes).
func conjunctionSymbols(e Expression) ([]rune, bool) {
	switch e.Kind() {
	case KindSymbol:
		return []rune{e.AsSymbol().Sym}, true
	case KindAnd:
		b := e.AsBinary()
		left, ok := conjunctionSymbols(b.Left)
		if !ok {
			return nil, false
		}
		right, ok := conjunctionSymbols(b.Right)
		if !ok {
			return nil, false
		}
		return append(left, right...), true
	default:
		return nil, false
	}
}
