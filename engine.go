// Package backchain contains an engine for loading a propositional-logic
// knowledge base from a file, resolving its queries, and optionally
// continuing to accept new rules, facts, and queries from an interactive
// session until the user quits.
package backchain

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dekarrin/backchain/internal/diagnostics"
	"github.com/dekarrin/backchain/internal/input"
	"github.com/dekarrin/backchain/internal/logic"
)

// Engine loads a knowledge base and drives query resolution from an input
// stream to an output stream, optionally continuing interactively once the
// initial file has been fully processed.
type Engine struct {
	kb      logic.KnowledgeBase
	session *logic.Session

	in          input.LineReader
	out         *bufio.Writer
	forceDirect bool
	running     bool

	// purgeFalseBetweenLines controls whether, between interactive lines,
	// any fact that resolved false (a cycle sentinel or a failed proof) is
	// dropped so a later line's new rules or facts can prove it true. On by
	// default.
	purgeFalseBetweenLines bool
}

// New creates a new Engine ready to operate on the given input and output
// streams, having already loaded and resolved the knowledge base at
// sourcePath.
//
// If nil is given for the input stream, a bufio.Reader is opened on stdin.
// If nil is given for the output stream, a bufio.Writer is opened on stdout.
func New(inputStream io.Reader, outputStream io.Writer, sourcePath string, forceDirectInput bool, purgeFalseBetweenLines bool) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, diagnostics.IOError{Path: sourcePath, Err: err}
	}

	kb, diags, err := logic.Load(string(data))
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		kb:                     kb,
		session:                logic.NewSession(kb),
		out:                    bufio.NewWriter(outputStream),
		forceDirect:            forceDirectInput,
		purgeFalseBetweenLines: purgeFalseBetweenLines,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout
	if useReadline {
		eng.in, err = input.NewInteractiveReader()
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		eng.in = input.NewDirectReader(inputStream)
	}

	for _, d := range diags {
		eng.writeLine(d.Error())
	}

	return eng, nil
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}
	if err := eng.in.Close(); err != nil {
		return fmt.Errorf("close line reader: %w", err)
	}
	return nil
}

// KnowledgeBase returns the knowledge base the Engine was loaded with.
func (eng *Engine) KnowledgeBase() logic.KnowledgeBase {
	return eng.kb
}

// Graph returns the rule graph currently in use, including any rules added
// during an interactive session.
func (eng *Engine) Graph() logic.RuleGraph {
	return eng.kb.Graph
}

// RunQueries resolves the knowledge base's initial query list and writes one
// report line per query.
func (eng *Engine) RunQueries() error {
	results := logic.ResolveQueries(eng.session, eng.kb.Queries)
	return eng.writeLine(logic.Report(results))
}

// RunUntilQuit resolves the initial query list, then, if interactive is
// true, continues reading lines from the input stream and applying them to
// the session until a QUIT or EXIT control word is read or the input is
// exhausted.
func (eng *Engine) RunUntilQuit(interactive bool) error {
	if err := eng.RunQueries(); err != nil {
		return err
	}
	if !interactive {
		return nil
	}

	eng.running = true
	defer func() { eng.running = false }()

	eng.in.AllowBlank(false)

	for eng.running {
		line, err := eng.in.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read line: %w", err)
		}

		switch line {
		case "QUIT", "EXIT":
			eng.running = false
			continue
		case "RESET":
			eng.session.Reset(eng.kb)
			continue
		}

		if err := eng.processLine(line); err != nil {
			if writeErr := eng.writeLine(err.Error()); writeErr != nil {
				return writeErr
			}
			continue
		}

		if eng.purgeFalseBetweenLines {
			eng.session.PurgeFalse()
		}
	}

	return eng.writeLine("Goodbye")
}

// processLine parses a single REPL line as one item (rule, fact, or query)
// and applies it to the session, reporting query results immediately.
func (eng *Engine) processLine(line string) error {
	toks, err := logic.Lex(line)
	if err != nil {
		return err
	}
	items, err := logic.Parse(toks)
	if err != nil {
		return err
	}

	for _, it := range items {
		switch item := it.(type) {
		case logic.FactItem:
			for _, sym := range item.Symbols {
				eng.session.AssertFact(sym)
			}
		case logic.QueryItem:
			results := logic.ResolveQueries(eng.session, item.Symbols)
			if err := eng.writeLine(logic.Report(results)); err != nil {
				return err
			}
		case logic.RuleItem:
			for _, d := range eng.session.AddRule(item) {
				if err := eng.writeLine(d.Error()); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (eng *Engine) writeLine(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if len(s) == 0 || s[len(s)-1] != '\n' {
		if _, err := eng.out.WriteString("\n"); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	}
	return eng.out.Flush()
}
