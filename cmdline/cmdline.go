// Package cmdline splits raw input lines into a command name and arguments.
//
// The grammar is flat: tokens are separated by runs of whitespace and there
// is no quoting or escaping, so an argument can never contain a space.
// This is a known limitation of the command language, not an oversight.
package cmdline

import (
	"strings"
	"unicode"
)

// Line is a tokenized input line.
type Line struct {
	Raw    string
	Tokens []string
}

// Split tokenizes raw. Empty or whitespace-only input yields no tokens.
func Split(raw string) Line {
	return Line{Raw: raw, Tokens: strings.Fields(raw)}
}

// Empty reports whether the line has no tokens.
func (l Line) Empty() bool { return len(l.Tokens) == 0 }

// Name returns the command name, or "" for an empty line.
func (l Line) Name() string {
	if len(l.Tokens) == 0 {
		return ""
	}
	return l.Tokens[0]
}

// Args returns the tokens after the command name.
func (l Line) Args() []string {
	if len(l.Tokens) < 2 {
		return nil
	}
	return l.Tokens[1:]
}

// Arg returns the i-th argument (0-based, after the command name) or "".
func (l Line) Arg(i int) string {
	if i < 0 || i+1 >= len(l.Tokens) {
		return ""
	}
	return l.Tokens[i+1]
}

// CommandName returns the text before the first whitespace, ignoring
// leading whitespace. Whatever follows, even malformed, does not affect it.
func CommandName(raw string) string {
	raw = strings.TrimLeftFunc(raw, unicode.IsSpace)
	if i := strings.IndexFunc(raw, unicode.IsSpace); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Request is the tokenized prefix a completion is computed for.
// Tokens[Index] is the token in progress; it is "" when the cursor follows
// whitespace.
type Request struct {
	Tokens []string
	Index  int
}

// Current returns the token being completed.
func (r Request) Current() string {
	if r.Index < 0 || r.Index >= len(r.Tokens) {
		return ""
	}
	return r.Tokens[r.Index]
}

// Partial derives a completion request from the text before the cursor.
// It also returns the byte offset where the token in progress starts.
func Partial(before string) (Request, int) {
	tokens := strings.Fields(before)
	if len(tokens) == 0 || endsWithSpace(before) {
		tokens = append(tokens, "")
		return Request{Tokens: tokens, Index: len(tokens) - 1}, len(before)
	}
	last := tokens[len(tokens)-1]
	return Request{Tokens: tokens, Index: len(tokens) - 1}, len(before) - len(last)
}

func endsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[len(s)-1])
	return unicode.IsSpace(r)
}
