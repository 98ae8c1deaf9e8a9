// Package redact masks secrets in command lines before they reach logs or
// transcripts.
package redact

import (
	"bytes"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Mask replaces every redacted argument.
const Mask = "***"

// secretArgs lists, per command, the argument positions (0 = command name)
// that hold secrets, and the flags whose value is secret.
var secretArgs = map[string]struct {
	positions []int
	flags     []string
}{
	"login":    {positions: []int{2}},
	"register": {positions: []int{2}, flags: []string{"--confirm"}},
}

// Line returns cmd with password arguments of login and register replaced
// by Mask. Other commands are returned unchanged.
func Line(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return cmd
	}
	if _, ok := secretArgs[fields[0]]; !ok {
		return cmd
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil || !singleCall(prog, len(fields)) {
		// Shell metacharacters inside a password change how the line
		// parses; fall back to plain token positions.
		return fieldRedact(fields)
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		rule := secretArgs[call.Args[0].Lit()]
		for i, word := range call.Args {
			if positionSecret(i, rule.positions) || (i > 0 && flagSecret(call.Args[i-1].Lit(), rule.flags)) {
				word.Parts = []syntax.WordPart{&syntax.Lit{Value: Mask}}
			}
		}
		return false
	})

	var buf bytes.Buffer
	printer := syntax.NewPrinter(syntax.Indent(0))
	if err := printer.Print(&buf, prog); err != nil {
		return fieldRedact(fields)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// singleCall reports whether prog is exactly one simple command whose
// words line up with the whitespace tokens.
func singleCall(prog *syntax.File, nfields int) bool {
	if len(prog.Stmts) != 1 {
		return false
	}
	stmt := prog.Stmts[0]
	if stmt.Background || len(stmt.Redirs) > 0 {
		return false
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return false
	}
	return len(call.Args) == nfields
}

func fieldRedact(fields []string) string {
	rule := secretArgs[fields[0]]
	out := make([]string, len(fields))
	copy(out, fields)
	for i := range out {
		if positionSecret(i, rule.positions) || (i > 0 && flagSecret(fields[i-1], rule.flags)) {
			out[i] = Mask
		}
	}
	return strings.Join(out, " ")
}

func positionSecret(i int, positions []int) bool {
	for _, p := range positions {
		if p == i {
			return true
		}
	}
	return false
}

func flagSecret(prev string, flags []string) bool {
	for _, f := range flags {
		if prev == f {
			return true
		}
	}
	return false
}
