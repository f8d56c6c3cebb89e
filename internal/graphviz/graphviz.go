// Package graphviz renders a rule graph as a Graphviz DOT document, suitable
// for piping into the "dot" command to visualize how conclusions derive
// from premises.
package graphviz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/backchain/internal/logic"
)

// Export renders graph as a directed DOT document: one edge per (premise
// symbol -> conclusion symbol) pair derivable from the graph's rules. A
// premise that is a compound expression contributes an edge from each
// symbol appearing in it, labeled with the full premise text so the
// rendered graph stays legible for non-trivial rules.
func Export(graph logic.RuleGraph) string {
	var b strings.Builder

	b.WriteString("digraph backchain {\n")
	b.WriteString("\trankdir=LR;\n")

	conclusions := make([]rune, 0, len(graph))
	for sym := range graph {
		conclusions = append(conclusions, sym)
	}
	sort.Slice(conclusions, func(i, j int) bool { return conclusions[i] < conclusions[j] })

	for _, conclusion := range conclusions {
		for _, premise := range graph[conclusion] {
			label := premise.String()
			for _, sym := range symbolsIn(premise) {
				fmt.Fprintf(&b, "\t%c -> %c [label=%q];\n", sym, conclusion, label)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// symbolsIn collects the distinct symbols appearing anywhere in e, in
// first-encountered order.
func symbolsIn(e logic.Expression) []rune {
	var syms []rune
	seen := make(map[rune]bool)

	var walk func(logic.Expression)
	walk = func(e logic.Expression) {
		switch e.Kind() {
		case logic.KindSymbol:
			sym := e.AsSymbol().Sym
			if !seen[sym] {
				seen[sym] = true
				syms = append(syms, sym)
			}
		case logic.KindNot:
			walk(e.AsNot().Operand)
		default:
			b := e.AsBinary()
			walk(b.Left)
			walk(b.Right)
		}
	}
	walk(e)

	return syms
}
