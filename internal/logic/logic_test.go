package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// run is a small end-to-end helper: lex, parse, build, resolve every query,
// and return the results in order. It mirrors how engine.go drives the core.
func run(t *testing.T, source string) []QueryResult {
	t.Helper()

	toks, err := Lex(source)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	items, err := Parse(toks)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	kb, _ := Build(items)
	sess := NewSession(kb)
	return ResolveQueries(sess, kb.Queries)
}

func Test_Scenarios(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		expect []QueryResult
	}{
		{
			name: "basic implication",
			source: "A => B\n" +
				"= A\n" +
				"? B\n",
			expect: []QueryResult{{'B', true}},
		},
		{
			name: "closed-world false",
			source: "A => B\n" +
				"=\n" +
				"? B\n",
			expect: []QueryResult{{'B', false}},
		},
		{
			name: "conjunctive premise, satisfied",
			source: "A + B => C\n" +
				"= A B\n" +
				"? C\n",
			expect: []QueryResult{{'C', true}},
		},
		{
			name: "conjunctive premise, unsatisfied",
			source: "A + B => C\n" +
				"= A\n" +
				"? C\n",
			expect: []QueryResult{{'C', false}},
		},
		{
			name: "conjunctive conclusion",
			source: "A => B + C\n" +
				"= A\n" +
				"? B C\n",
			expect: []QueryResult{{'B', true}, {'C', true}},
		},
		{
			name: "cycle terminates false",
			source: "A => B\n" +
				"B => A\n" +
				"=\n" +
				"? A\n",
			expect: []QueryResult{{'A', false}},
		},
		{
			name: "disjunction and negation",
			source: "A | B => C\n" +
				"!C => D\n" +
				"= B\n" +
				"? C D\n",
			expect: []QueryResult{{'C', true}, {'D', false}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := run(t, tc.source)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func Test_Report_Format(t *testing.T) {
	results := []QueryResult{{'B', true}, {'D', false}}
	assert.Equal(t, "B: true\nD: false\n", Report(results))
}

func Test_XOR(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		expect bool
	}{
		{"xor both true is false", "A ^ B => C\n= A B\n? C\n", false},
		{"xor one true is true", "A ^ B => C\n= A\n? C\n", true},
		{"xor both false is false", "A ^ B => C\n=\n? C\n", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := run(t, tc.source)
			assert.Equal(t, tc.expect, got[0].Value)
		})
	}
}

func Test_Iff_SymmetricWhenBothConjunctions(t *testing.T) {
	// A <=> B should let a fact for B prove A, since the premise (A) is a
	// single-symbol conjunction and so is the conclusion (B).
	got := run(t, "A <=> B\n= B\n? A\n")
	assert.Equal(t, []QueryResult{{'A', true}}, got)
}

func Test_Iff_ForwardOnlyWhenPremiseNotConjunction(t *testing.T) {
	// premise "A | B" isn't a conjunction of symbols, so only the forward
	// direction (A|B => C) is kept; asserting C must not prove A or B.
	got := run(t, "A | B <=> C\n= C\n? A\n")
	assert.Equal(t, []QueryResult{{'A', false}}, got)
}

func Test_UnsupportedConclusion_SkipsRuleButKeepsParsing(t *testing.T) {
	toks, err := Lex("A => B | C\n= A\n? B C\n")
	assert.NoError(t, err)
	items, err := Parse(toks)
	assert.NoError(t, err)

	kb, diags := Build(items)
	assert.Len(t, diags, 1)

	sess := NewSession(kb)
	results := ResolveQueries(sess, kb.Queries)
	assert.Equal(t, []QueryResult{{'B', false}, {'C', false}}, results)
}

func Test_Idempotence(t *testing.T) {
	toks, _ := Lex("A => B\n= A\n")
	items, _ := Parse(toks)
	kb, _ := Build(items)
	sess := NewSession(kb)

	first := sess.Resolve('B')
	second := sess.Resolve('B')
	assert.Equal(t, first, second)
	assert.True(t, first)
}

func Test_FactDominance(t *testing.T) {
	// A rule claiming to disprove B must not override an asserted fact.
	toks, _ := Lex("!A => B\n= A B\n")
	items, _ := Parse(toks)
	kb, _ := Build(items)
	sess := NewSession(kb)
	assert.True(t, sess.Resolve('B'))
}

func Test_PurgeFalse_AllowsRepromotion(t *testing.T) {
	toks, _ := Lex("=\n")
	items, _ := Parse(toks)
	kb, _ := Build(items)
	sess := NewSession(kb)

	assert.False(t, sess.Resolve('A'))

	// simulate an interactive-mode line adding a new rule and fact for A
	ruleToks, _ := Lex("C => A\n")
	ruleItems, _ := Parse(ruleToks)
	rule := ruleItems[0].(RuleItem)
	sess.AddRule(rule)
	sess.AssertFact('C')

	// without purge, the cycle-sentinel false for A would still be cached
	sess.PurgeFalse()
	assert.True(t, sess.Resolve('A'))
}

func Test_Expression_String(t *testing.T) {
	toks, _ := Lex("!A + B | C ^ D => E\n")
	items, _ := Parse(toks)
	rule := items[0].(RuleItem)
	assert.Equal(t, "(!A + B) | (C ^ D)", rule.Premise.String())
}
