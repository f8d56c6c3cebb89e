package logic

import "github.com/dekarrin/backchain/internal/diagnostics"

// Load lexes, parses, and builds source in one step, collecting any
// UnsupportedRuleShape diagnostics into a diagnostics.Diagnostics. It
// returns on the first SyntaxError, same as Lex and Parse do individually.
func Load(source string) (KnowledgeBase, diagnostics.Diagnostics, error) {
	toks, err := Lex(source)
	if err != nil {
		return KnowledgeBase{}, nil, err
	}

	items, err := Parse(toks)
	if err != nil {
		return KnowledgeBase{}, nil, err
	}

	kb, diags := Build(items)
	return kb, diagnostics.Diagnostics(diags), nil
}

// NewSessionWithFacts creates a Session from kb the same way NewSession
// does, but overlays facts on top of kb.Facts afterward. It is used by the
// HTTP service (server/dao) to resume a session whose fact table was
// persisted separately from its source text.
func NewSessionWithFacts(kb KnowledgeBase, facts map[rune]bool) *Session {
	sess := NewSession(kb)
	for sym, v := range facts {
		sess.facts[sym] = v
	}
	return sess
}

// Facts returns a copy of the session's current fact table, for persistence.
func (s *Session) Facts() map[rune]bool {
	out := make(map[rune]bool, len(s.facts))
	for sym, v := range s.facts {
		out[sym] = v
	}
	return out
}
