package logic

import (
	"strings"
	"unicode"

	"github.com/dekarrin/backchain/internal/diagnostics"
)

// file lexer.go turns a line-oriented expert-system source document into a
// flat tokenStream. Each non-blank, non-comment-only line becomes a run of
// tokens terminated by a clsNewline token; a trailing clsEOF token always
// closes the stream so the parser never reads past the end of the slice.

// matchRule is an operator literal recognized at the current scan position,
// matched longest-first the way internal/tunascript's lexer disambiguates
// overlapping operator prefixes (e.g. "=" vs "=>").
type matchRule struct {
	literal string
	class   tokenClass
}

// order matters only in that longer literals must be tried before their
// prefixes; selectMatch below re-sorts by length regardless.
var operatorRules = []matchRule{
	{"<=>", clsIff},
	{"=>", clsImplies},
	{"(", clsGroupOpen},
	{")", clsGroupClose},
	{"!", clsNot},
	{"+", clsAnd},
	{"|", clsOr},
	{"^", clsXor},
	{"=", clsEquals},
	{"?", clsQuery},
}

// Lex scans source into a tokenStream. It never returns a partial stream on
// error: a lexing failure aborts with a SyntaxError describing line and
// column, and no partial token stream is returned alongside it.
func Lex(source string) (tokenStream, error) {
	var tokens []token

	lines := strings.Split(source, "\n")
	for lineIdx, rawLine := range lines {
		lineNum := lineIdx + 1

		// strip a line comment, preserving the pre-comment text for scanning
		// and the full original line for diagnostic display.
		content := rawLine
		if i := strings.IndexRune(rawLine, '#'); i >= 0 {
			content = rawLine[:i]
		}

		runes := []rune(content)
		col := 1
		lineHasToken := false

		for i := 0; i < len(runes); {
			ch := runes[i]

			if unicode.IsSpace(ch) {
				i++
				col++
				continue
			}

			if ch >= 'A' && ch <= 'Z' {
				tokens = append(tokens, token{
					lexeme: string(ch), class: clsSymbol,
					line: lineNum, col: col, srcLine: rawLine,
				})
				lineHasToken = true
				i++
				col++
				continue
			}

			rest := string(runes[i:])
			rule, matched := selectMatch(rest)
			if !matched {
				return tokenStream{}, diagnostics.SyntaxError{
					Line: lineNum, Col: col, SourceLine: rawLine,
					Msg: "unexpected character " + quoteRune(ch),
				}
			}

			tokens = append(tokens, token{
				lexeme: rule.literal, class: rule.class,
				line: lineNum, col: col, srcLine: rawLine,
			})
			lineHasToken = true
			advance := len([]rune(rule.literal))
			i += advance
			col += advance
		}

		if lineHasToken {
			tokens = append(tokens, token{
				class: clsNewline, line: lineNum, col: col, srcLine: rawLine,
			})
		}
	}

	tokens = append(tokens, token{class: clsEOF, line: len(lines) + 1, col: 1})

	return tokenStream{tokens: tokens}, nil
}

// selectMatch finds the longest operatorRules literal that s starts with.
func selectMatch(s string) (matchRule, bool) {
	best := matchRule{}
	found := false
	for _, r := range operatorRules {
		if strings.HasPrefix(s, r.literal) {
			if !found || len(r.literal) > len(best.literal) {
				best = r
				found = true
			}
		}
	}
	return best, found
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}
