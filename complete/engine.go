// Package complete computes tab-completion candidates from local data only:
// the command vocabulary and the static directory skeleton. It never
// touches the network.
package complete

import (
	"strings"

	"github.com/Paranoid-AF/webterm/cmdline"
	"github.com/Paranoid-AF/webterm/vpath"
)

// Context is the interpreter state completion depends on.
type Context struct {
	Authenticated bool
	Identity      vpath.Identity
	Cwd           string
}

// Result is the outcome of a Tab press.
type Result struct {
	// Candidates are all matches, in vocabulary order.
	Candidates []string
	// Rewritten is true when exactly one candidate matched; Line and
	// Cursor then hold the completed input.
	Rewritten bool
	Line      string
	Cursor    int
}

// Engine produces completion candidates.
type Engine struct {
	vocab    *Vocabulary
	skeleton *vpath.Skeleton
}

// NewEngine creates an engine. Nil arguments select the defaults.
func NewEngine(vocab *Vocabulary, skeleton *vpath.Skeleton) *Engine {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if skeleton == nil {
		skeleton = vpath.DefaultSkeleton()
	}
	return &Engine{vocab: vocab, skeleton: skeleton}
}

// Vocabulary returns the engine's command vocabulary.
func (e *Engine) Vocabulary() *Vocabulary { return e.vocab }

// Complete handles a Tab press at cursor in line. A rewrite replaces the
// whole token under the cursor; later tokens are kept, minus leading
// whitespace, so a rewrite never doubles a separator.
func (e *Engine) Complete(line string, cursor int, ctx Context) Result {
	if cursor < 0 || cursor > len(line) {
		cursor = len(line)
	}
	before, after := line[:cursor], line[cursor:]

	req, start := cmdline.Partial(before)
	candidates := e.Candidates(req, ctx)

	res := Result{Candidates: candidates}
	if len(candidates) != 1 {
		return res
	}

	if end := strings.IndexAny(after, " \t"); end >= 0 {
		after = after[end:]
	} else {
		after = ""
	}
	head := before[:start] + candidates[0] + " "
	res.Rewritten = true
	res.Line = head + strings.TrimLeft(after, " \t")
	res.Cursor = len(head)
	return res
}

// Candidates returns the valid values for the token in progress.
func (e *Engine) Candidates(req cmdline.Request, ctx Context) []string {
	current := req.Current()

	// First token: command names allowed for the auth state.
	if req.Index == 0 {
		return filterPrefix(e.commandsFor(ctx.Authenticated), current)
	}

	// Second token: subcommands, when the command has any.
	if req.Index == 1 {
		if subs, ok := e.vocab.Subcommands[req.Tokens[0]]; ok {
			return filterPrefix(subs, current)
		}
	}

	if strings.HasPrefix(current, "/") || strings.HasPrefix(current, "./") {
		return e.pathCandidates(current, ctx)
	}

	return e.flagCandidates(req)
}

func (e *Engine) commandsFor(authenticated bool) []string {
	hidden := e.vocab.AuthOnly
	if authenticated {
		hidden = e.vocab.GuestOnly
	}
	out := make([]string, 0, len(e.vocab.Commands))
	for _, c := range e.vocab.Commands {
		if !contains(hidden, c) {
			out = append(out, c)
		}
	}
	return out
}

// pathCandidates lists skeleton children of the directory part of token.
// Candidates keep the token's own spelling of the directory ("./" stays
// relative) so a rewrite only extends what was typed.
func (e *Engine) pathCandidates(token string, ctx Context) []string {
	slash := strings.LastIndex(token, "/")
	dirPart, base := token[:slash+1], token[slash+1:]

	var dir string
	if strings.HasPrefix(dirPart, "/") {
		dir = vpath.Normalize(dirPart)
	} else {
		cwd := ctx.Cwd
		if cwd == "" {
			cwd = vpath.Root(ctx.Identity)
		}
		dir = vpath.Normalize(cwd + "/" + dirPart)
	}

	identity := ctx.Identity
	if identity == "" {
		identity = vpath.Guest
	}
	var out []string
	for _, child := range e.skeleton.Children(dir, identity) {
		if strings.HasPrefix(child, base) {
			out = append(out, dirPart+child)
		}
	}
	return out
}

// flagCandidates offers the flags of the two-token prefix (or, failing
// that, the command alone) that are not already on the line.
func (e *Engine) flagCandidates(req cmdline.Request) []string {
	flags, ok := []string(nil), false
	if len(req.Tokens) >= 2 && req.Index >= 2 {
		flags, ok = e.vocab.Flags[req.Tokens[0]+" "+req.Tokens[1]]
	}
	if !ok {
		flags = e.vocab.Flags[req.Tokens[0]]
	}

	used := make(map[string]bool)
	for i, tok := range req.Tokens {
		if i != req.Index && strings.HasPrefix(tok, "--") {
			used[tok] = true
		}
	}

	current := req.Current()
	var out []string
	for _, f := range flags {
		if !used[f] && strings.HasPrefix(f, current) {
			out = append(out, f)
		}
	}
	return out
}

func filterPrefix(list []string, prefix string) []string {
	var out []string
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}
