// Package interp is the command interpreter. It owns the session, feeds
// keystrokes to the gating machine, answers Tab with completion and runs
// submitted lines through the dispatcher. Everything it wants displayed is
// returned or emitted as webterm.Intent values.
package interp

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/complete"
	"github.com/Paranoid-AF/webterm/describe"
	"github.com/Paranoid-AF/webterm/dispatch"
	"github.com/Paranoid-AF/webterm/gate"
	"github.com/Paranoid-AF/webterm/store"
	"github.com/Paranoid-AF/webterm/suggest"
	"github.com/Paranoid-AF/webterm/vpath"
)

// Remote is everything the interpreter needs from the command service.
type Remote interface {
	dispatch.Service
	gate.CaptchaSource
	describe.HelpSource
}

// Options configures an Interpreter.
type Options struct {
	Remote Remote
	// Store persists session state. Nil selects an in-memory store.
	Store store.Store
	// Descriptions is shared by every interpreter of the process. Nil
	// creates a private cache.
	Descriptions *describe.Cache
	// Engine completes input. Nil selects the default vocabulary.
	Engine *complete.Engine
	// Suggestions enables "did you mean" for unknown commands.
	Suggestions    bool
	MaxSuggestions int
	// Sink receives intents produced asynchronously, such as a captcha that
	// arrives after the keystroke that requested it.
	Sink func(webterm.Intent)
}

// Interpreter serves one terminal.
type Interpreter struct {
	opts     Options
	skeleton *vpath.Skeleton
	gate     *gate.Machine
	history  *History

	// run serializes Start and submissions and guards work, the session
	// the dispatcher mutates while a command is in flight.
	run  sync.Mutex
	work dispatch.Session
	disp *dispatch.Dispatcher

	// mu guards session, the last settled copy of work. Keystrokes read
	// it and never wait on the network.
	mu      sync.Mutex
	session dispatch.Session
}

// Submission is a line captured when it was entered, together with the
// captcha on display at that moment.
type Submission struct {
	Line           string
	CaptchaSession string
}

// New creates an interpreter. ctx bounds background captcha fetches.
func New(ctx context.Context, opts Options) *Interpreter {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Descriptions == nil {
		opts.Descriptions = describe.NewCache()
	}
	if opts.Engine == nil {
		opts.Engine = complete.NewEngine(nil, nil)
	}

	in := &Interpreter{
		opts:     opts,
		skeleton: vpath.DefaultSkeleton(),
		history:  NewHistory(0),
		work:     dispatch.Session{CurrentPath: vpath.Root(vpath.Guest)},
		session:  dispatch.Session{CurrentPath: vpath.Root(vpath.Guest)},
	}
	in.gate = gate.NewMachine(ctx, opts.Descriptions, opts.Remote, in.onAsync)

	dopts := dispatch.Options{
		Service:        opts.Remote,
		Store:          opts.Store,
		Known:          opts.Engine.Vocabulary().Has,
		MaxSuggestions: opts.MaxSuggestions,
	}
	if opts.Suggestions {
		dopts.Suggest = suggest.NewIndex(opts.Engine.Vocabulary().Commands)
	}
	in.disp = dispatch.New(&in.work, dopts)
	return in
}

// History returns the command history.
func (in *Interpreter) History() *History { return in.history }

// Session returns a copy of the current session.
func (in *Interpreter) Session() dispatch.Session {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.session
}

// publish makes work visible to readers. Callers hold in.run.
func (in *Interpreter) publish() {
	in.mu.Lock()
	in.session = in.work
	in.mu.Unlock()
}

// Wait blocks until background captcha fetches have settled.
func (in *Interpreter) Wait() { in.gate.Wait() }

// Start restores the persisted session and loads command descriptions.
// It returns the intents that set up the display.
func (in *Interpreter) Start(ctx context.Context) []webterm.Intent {
	in.run.Lock()
	defer in.run.Unlock()

	st := in.opts.Store
	token, _ := st.Get(store.KeyToken)
	username, _ := st.Get(store.KeyUsername)
	in.work.AuthToken = token
	in.work.Username = username

	if token != "" && username == "" {
		in.bootstrapIdentity(ctx)
	}

	root := vpath.Root(in.work.Identity())
	in.work.CurrentPath = root
	if cwd, ok := st.Get(store.KeyCwd); ok && vpath.IsValid(cwd, in.work.Identity()) {
		in.work.CurrentPath = vpath.Normalize(cwd)
	}

	if err := in.opts.Descriptions.Load(ctx, in.opts.Remote); err != nil {
		slog.Warn("command descriptions unavailable", "error", err)
	}

	in.publish()

	intents := []webterm.Intent{{Kind: webterm.IntentPath, Text: in.work.CurrentPath}}
	if theme, ok := st.Get(store.KeyTheme); ok && theme != "" {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentTheme, Text: theme})
	}
	slog.Info("session started", "identity", in.work.Identity(), "path", in.work.CurrentPath)
	return intents
}

// bootstrapIdentity asks the service who a stored token belongs to. A
// token the service does not confirm is discarded. Callers hold in.run.
func (in *Interpreter) bootstrapIdentity(ctx context.Context) {
	resp, err := in.opts.Remote.Command(ctx, webterm.CommandRequest{Command: "id"}, in.work.AuthToken)
	if err != nil {
		slog.Warn("identity check failed, keeping token", "error", err)
		return
	}
	if !resp.Success || resp.Data == nil || (resp.Data.IsGuest != nil && *resp.Data.IsGuest) || resp.Data.AccountName() == "" {
		slog.Info("stored token not recognised, signing out")
		in.disp.ClearIdentity()
		return
	}

	in.work.Username = resp.Data.AccountName()
	if err := in.opts.Store.Set(store.KeyUsername, in.work.Username); err != nil {
		slog.Warn("persist state failed", "key", store.KeyUsername, "error", err)
	}
	in.provision(ctx)
}

// provision creates the standard home layout. Failure is only logged.
// Callers hold in.run.
func (in *Interpreter) provision(ctx context.Context) {
	dirs := in.skeleton.Dirs(in.work.Identity())
	cmd := "mkdir -p " + strings.Join(dirs, " ")
	resp, err := in.opts.Remote.Command(ctx, webterm.CommandRequest{Command: cmd}, in.work.AuthToken)
	switch {
	case err != nil:
		slog.Warn("provision home failed", "error", err)
	case !resp.Success:
		slog.Warn("provision home rejected", "message", resp.Message)
	default:
		slog.Debug("home provisioned", "dirs", len(dirs))
	}
}

// OnInput handles a change of the input line and returns hint and captcha
// intents.
func (in *Interpreter) OnInput(line string) []webterm.Intent {
	sess := in.Session()
	prev, next := in.gate.Input(line, sess.Authenticated())
	return gateIntents(prev, next)
}

// OnTab completes the token at cursor.
func (in *Interpreter) OnTab(line string, cursor int) []webterm.Intent {
	sess := in.Session()
	res := in.opts.Engine.Complete(line, cursor, complete.Context{
		Authenticated: sess.Authenticated(),
		Identity:      sess.Identity(),
		Cwd:           sess.CurrentPath,
	})
	switch {
	case res.Rewritten:
		return []webterm.Intent{{Kind: webterm.IntentRewrite, Line: res.Line, Cursor: res.Cursor}}
	case len(res.Candidates) > 1:
		return []webterm.Intent{{Kind: webterm.IntentCandidates, Candidates: res.Candidates}}
	}
	return nil
}

// Prepare records line in the history and captures the captcha on display.
// It does not block; the returned Submission is run later by Run.
func (in *Interpreter) Prepare(line string) Submission {
	sub := Submission{Line: strings.TrimSpace(line)}
	in.history.Push(sub.Line)
	if c := in.gate.State().Captcha; c != nil {
		sub.CaptchaSession = c.SessionID
	}
	return sub
}

// Run executes a prepared line and returns its result with the intents to
// render. Runs are serialized; input handling continues while one is in
// flight. The gating state is left alone: the front end reports the
// cleared input line through OnInput.
func (in *Interpreter) Run(ctx context.Context, sub Submission) (dispatch.Result, []webterm.Intent) {
	in.run.Lock()
	res := in.disp.Dispatch(ctx, sub.Line, sub.CaptchaSession)
	if res.Success && res.AuthChanged && in.work.Authenticated() {
		in.provision(ctx)
	}
	cwd := in.work.CurrentPath
	in.publish()
	in.run.Unlock()

	var intents []webterm.Intent
	if res.Clear {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentClear})
	} else if res.Output != "" {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentOutput, Text: res.Output, Error: !res.Success})
	}
	if len(res.Suggestions) > 0 {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentOutput, Text: "Did you mean: " + strings.Join(res.Suggestions, ", ") + "?"})
	}
	if res.PathChanged {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentPath, Text: cwd})
	}
	if res.Theme != "" {
		intents = append(intents, webterm.Intent{Kind: webterm.IntentTheme, Text: res.Theme})
	}
	return res, intents
}

// Submit prepares and runs line.
func (in *Interpreter) Submit(ctx context.Context, line string) (dispatch.Result, []webterm.Intent) {
	return in.Run(ctx, in.Prepare(line))
}

func (in *Interpreter) onAsync(prev, next gate.State) {
	if in.opts.Sink == nil {
		return
	}
	for _, it := range gateIntents(prev, next) {
		in.opts.Sink(it)
	}
}

// gateIntents translates a gating state change into display changes.
func gateIntents(prev, next gate.State) []webterm.Intent {
	var out []webterm.Intent

	switch {
	case next.ShowHint && (!prev.ShowHint || prev.HintText != next.HintText):
		out = append(out, webterm.Intent{Kind: webterm.IntentShowHint, Text: next.HintText})
	case !next.ShowHint && prev.ShowHint:
		out = append(out, webterm.Intent{Kind: webterm.IntentHideHint})
	}

	prevShown := prev.ShowCaptcha && prev.Captcha != nil
	nextShown := next.ShowCaptcha && next.Captcha != nil
	switch {
	case nextShown && (!prevShown || prev.Captcha != next.Captcha):
		out = append(out, webterm.Intent{Kind: webterm.IntentShowCaptcha, Captcha: next.Captcha})
	case !nextShown && prevShown:
		out = append(out, webterm.Intent{Kind: webterm.IntentHideCaptcha})
	}
	return out
}
