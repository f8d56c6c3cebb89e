/*
Backchainctl loads a propositional-logic knowledge base from a file,
resolves its queries, and prints one "SYMBOL: true|false" line per query.

Usage:

	backchainctl [flags] SOURCE

The flags are:

	-v, --version
		Print the current version and exit.

	-p, --print
		Pretty-print the parsed rules, facts, and queries before resolving
		them.

	-i, --interactive
		After resolving the initial queries, continue reading rule, fact,
		and query lines from stdin until QUIT or EXIT is entered.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for input, even when launched in a tty.

	-g, --graph PATH
		Write a Graphviz DOT rendering of the rule graph to PATH.

Once a session has started in interactive mode, every fact that most
recently resolved to false is purged between lines by default, letting
later lines with new rules or facts reprove it; this can be turned off
with disable_purge_false_on_reset in the settings file. RESET restores
the fact table to its state right after the source file was loaded. To
exit the interpreter, type QUIT or EXIT.
*/
package main

import (
	"fmt"
	"os"

	backchain "github.com/dekarrin/backchain"
	"github.com/dekarrin/backchain/internal/config"
	"github.com/dekarrin/backchain/internal/diagnostics"
	"github.com/dekarrin/backchain/internal/graphviz"
	"github.com/dekarrin/backchain/internal/logic"
	"github.com/dekarrin/backchain/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates the program was invoked incorrectly.
	ExitUsageError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue loading or parsing the knowledge base.
	ExitInitError

	// ExitRunError indicates an unsuccessful program execution while
	// running the interactive session.
	ExitRunError
)

var (
	returnCode      = ExitSuccess
	flagVersion     = pflag.BoolP("version", "v", false, "Gives the version info")
	flagPrint       = pflag.BoolP("print", "p", false, "Pretty-print the parsed knowledge base before resolving it")
	flagInteractive = pflag.BoolP("interactive", "i", false, "Continue reading lines from stdin after the initial resolution")
	flagDirect      = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	flagGraph       = pflag.StringP("graph", "g", "", "Write a Graphviz DOT rendering of the rule graph to PATH")
	flagConfig      = pflag.String("config", "backchain.toml", "Path to an optional settings file")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ERROR: exactly one SOURCE file argument is required")
		returnCode = ExitUsageError
		return
	}
	sourcePath := pflag.Arg(0)

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading config: %s\n", err.Error())
		returnCode = ExitUsageError
		return
	}
	purgeFalseBetweenLines := !cfg.CLI.DisablePurgeFalseOnReset

	printKB := *flagPrint
	if !pflag.Lookup("print").Changed && cfg.CLI.PrettyPrintDefault {
		printKB = true
	}

	if printKB {
		if err := printKnowledgeBase(sourcePath); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	eng, err := backchain.New(os.Stdin, os.Stdout, sourcePath, *flagDirect, purgeFalseBetweenLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer eng.Close()

	if *flagGraph != "" {
		dot := graphviz.Export(eng.Graph())
		if err := os.WriteFile(*flagGraph, []byte(dot), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: writing graph: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	if err := eng.RunUntilQuit(*flagInteractive); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRunError
		return
	}
}

// printKnowledgeBase reads and parses sourcePath, printing the rule,
// fact, and query items in source-equivalent form without resolving them.
func printKnowledgeBase(sourcePath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return diagnostics.IOError{Path: sourcePath, Err: err}
	}

	toks, err := logic.Lex(string(data))
	if err != nil {
		if se, ok := err.(diagnostics.SyntaxError); ok {
			return fmt.Errorf("%s", se.FullMessage())
		}
		return err
	}
	items, err := logic.Parse(toks)
	if err != nil {
		if se, ok := err.(diagnostics.SyntaxError); ok {
			return fmt.Errorf("%s", se.FullMessage())
		}
		return err
	}

	for _, it := range items {
		switch item := it.(type) {
		case logic.RuleItem:
			fmt.Printf("%s %s %s\n", item.Premise.String(), item.RuleKind.String(), item.Conclusion.String())
		case logic.FactItem:
			fmt.Printf("= %s\n", string(item.Symbols))
		case logic.QueryItem:
			fmt.Printf("? %s\n", string(item.Symbols))
		}
	}

	return nil
}
