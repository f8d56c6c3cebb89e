package logic

import "fmt"

// file report.go implements the result reporter: one line per queried
// symbol, in query order.

// QueryResult pairs a queried symbol with its resolved value.
type QueryResult struct {
	Symbol rune
	Value  bool
}

// ResolveQueries resolves every symbol in queries against s, in order,
// preserving duplicates exactly as they appeared in the query list.
func ResolveQueries(s *Session, queries []rune) []QueryResult {
	results := make([]QueryResult, len(queries))
	for i, sym := range queries {
		results[i] = QueryResult{Symbol: sym, Value: s.Resolve(sym)}
	}
	return results
}

// Line renders a single query result as "<symbol>: <true|false>".
func (r QueryResult) Line() string {
	return fmt.Sprintf("%c: %t", r.Symbol, r.Value)
}

// Report renders a full set of query results, one line per result, with a
// trailing newline after each line (including the last).
func Report(results []QueryResult) string {
	var out string
	for _, r := range results {
		out += r.Line() + "\n"
	}
	return out
}
