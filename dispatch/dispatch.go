// Package dispatch routes submitted command lines either to a local
// pseudo-command or to the remote command service, and applies the session
// side effects of successful responses.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/cmdline"
	"github.com/Paranoid-AF/webterm/redact"
	"github.com/Paranoid-AF/webterm/remote"
	"github.com/Paranoid-AF/webterm/store"
	"github.com/Paranoid-AF/webterm/suggest"
	"github.com/Paranoid-AF/webterm/vpath"
)

// Messages produced locally.
const (
	MsgAlreadyAuthenticated = "You are already logged in. Run logout before logging in or registering."
	MsgNetworkError         = "network error"
	MsgNeedCaptcha          = "Please provide the captcha: --captcha <code>"
	MsgLoggedOut            = "Logged out."
)

// Service executes commands remotely.
type Service interface {
	Command(ctx context.Context, req webterm.CommandRequest, token string) (*webterm.CommandResponse, error)
}

// Session is the interpreter's identity and working directory.
type Session struct {
	AuthToken   string
	Username    string
	CurrentPath string
}

// Authenticated reports whether the session holds a token.
func (s Session) Authenticated() bool { return s.AuthToken != "" }

// Identity returns the session identity; without a token it is Guest.
func (s Session) Identity() vpath.Identity {
	if !s.Authenticated() {
		return vpath.Guest
	}
	return vpath.IdentityOf(s.Username)
}

// Result is what a submitted line produced.
type Result struct {
	Success bool
	// Message is the remote message verbatim, or a local message.
	Message string
	Data    *webterm.ResponseData
	// Output is the text to display; for ls it is the formatted listing.
	Output string
	// Suggestions are close command names for an unknown command.
	Suggestions []string
	// Remote is true when the service was contacted.
	Remote      bool
	Clear       bool
	PathChanged bool
	AuthChanged bool
	// Theme is set when the theme command changed the theme.
	Theme string
}

// Options configures a Dispatcher.
type Options struct {
	Service Service
	Store   store.Store
	// Known reports whether a command name belongs to the local vocabulary.
	Known func(name string) bool
	// Suggest, when set, proposes close names for unknown commands.
	Suggest        *suggest.Index
	MaxSuggestions int
}

// Dispatcher executes submitted lines against a Session.
type Dispatcher struct {
	session *Session
	opts    Options
}

// New creates a dispatcher that mutates session on successful commands.
func New(session *Session, opts Options) *Dispatcher {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 3
	}
	return &Dispatcher{session: session, opts: opts}
}

// Dispatch executes line. captchaSession is the session id of the captcha
// currently displayed, or "". Failures never escape as errors: every path
// yields a displayable Result and a failed command leaves the session as
// it was.
func (d *Dispatcher) Dispatch(ctx context.Context, line, captchaSession string) Result {
	l := cmdline.Split(line)
	if l.Empty() {
		return Result{Success: true}
	}
	name := l.Name()
	slog.Debug("dispatching", "command", redact.Line(line))

	if d.session.Authenticated() && (name == "login" || name == "register") {
		return failure(MsgAlreadyAuthenticated)
	}

	switch name {
	case "cd":
		return d.cd(ctx, l)
	case "ls":
		return d.ls(ctx, l)
	case "mkdir":
		return d.mkdir(ctx, l)
	case "pwd":
		return d.forward(ctx, "pwd", "")
	case "theme":
		return d.theme(l)
	case "login":
		if !hasFlagValue(l, "--captcha") {
			return failure(MsgNeedCaptcha)
		}
		return d.login(ctx, l, captchaSession)
	case "logout":
		return d.logout(ctx)
	case "profile":
		if len(l.Tokens) == 1 {
			return d.forward(ctx, "profile show", captchaSession)
		}
	case "clear":
		res := d.forward(ctx, "clear", captchaSession)
		res.Clear = res.Success
		return res
	}

	res := d.forward(ctx, strings.Join(l.Tokens, " "), captchaSession)
	if !res.Success && res.Remote && d.opts.Known != nil && !d.opts.Known(name) && d.opts.Suggest != nil {
		res.Suggestions = d.opts.Suggest.Nearest(name, d.opts.MaxSuggestions)
	}
	return res
}

// forward sends command to the service and converts the response.
func (d *Dispatcher) forward(ctx context.Context, command, captchaSession string) Result {
	resp, err := d.opts.Service.Command(ctx, webterm.CommandRequest{
		Command:   command,
		SessionID: captchaSession,
		Cwd:       d.session.CurrentPath,
	}, d.session.AuthToken)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, remote.ErrNetwork) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "command request failed", "command", redact.Line(command), "error", err)
		return failure(MsgNetworkError)
	}
	return Result{
		Success: resp.Success,
		Message: resp.Message,
		Data:    resp.Data,
		Output:  resp.Message,
		Remote:  true,
	}
}

func failure(msg string) Result {
	return Result{Message: msg, Output: msg}
}

func (d *Dispatcher) cd(ctx context.Context, l cmdline.Line) Result {
	if len(l.Args()) == 0 {
		return failure("usage: cd <directory>")
	}
	target, err := vpath.Resolve(d.session.CurrentPath, l.Arg(0), d.session.Identity())
	if err != nil {
		return failure(fmt.Sprintf("cd: %s: %v", l.Arg(0), err))
	}

	res := d.forward(ctx, "cd "+target, "")
	if !res.Success {
		return res
	}
	// The service decides where we ended up.
	if res.Data != nil && res.Data.Path != "" {
		d.setPath(res.Data.Path)
		res.PathChanged = true
	} else {
		slog.Debug("cd response carried no path", "target", target)
	}
	return res
}

func (d *Dispatcher) ls(ctx context.Context, l cmdline.Line) Result {
	var flags []string
	target := d.session.CurrentPath
	resolved := false
	for _, arg := range l.Args() {
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			continue
		}
		if resolved {
			continue
		}
		var err error
		target, err = vpath.Resolve(d.session.CurrentPath, arg, d.session.Identity())
		if err != nil {
			return failure(fmt.Sprintf("ls: %s: %v", arg, err))
		}
		resolved = true
	}

	res := d.forward(ctx, strings.Join(append(append([]string{"ls"}, flags...), target), " "), "")
	if res.Success && res.Data != nil && res.Data.Contents != nil {
		res.Output = FormatListing(res.Data.Contents)
	}
	return res
}

func (d *Dispatcher) mkdir(ctx context.Context, l cmdline.Line) Result {
	var dirs int
	for _, arg := range l.Args() {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		dirs++
		if _, err := vpath.Resolve(d.session.CurrentPath, arg, d.session.Identity()); err != nil {
			return failure(fmt.Sprintf("mkdir: %s: %v", arg, err))
		}
	}
	if dirs == 0 {
		return failure("usage: mkdir [-p] <directory>...")
	}
	return d.forward(ctx, strings.Join(l.Tokens, " "), "")
}

func (d *Dispatcher) theme(l cmdline.Line) Result {
	current, _ := d.opts.Store.Get(store.KeyTheme)
	next := l.Arg(0)
	switch next {
	case "":
		next = "dark"
		if current == "dark" {
			next = "light"
		}
	case "light", "dark":
	default:
		return failure("usage: theme [light|dark]")
	}
	if err := d.opts.Store.Set(store.KeyTheme, next); err != nil {
		slog.Warn("persist theme failed", "error", err)
	}
	msg := "Theme set to " + next + "."
	return Result{Success: true, Message: msg, Output: msg, Theme: next}
}

func (d *Dispatcher) login(ctx context.Context, l cmdline.Line, captchaSession string) Result {
	res := d.forward(ctx, strings.Join(l.Tokens, " "), captchaSession)
	if !res.Success || res.Data == nil || res.Data.Token == "" {
		return res
	}

	username := res.Data.AccountName()
	if username == "" {
		username = l.Arg(0)
	}
	d.session.AuthToken = res.Data.Token
	d.session.Username = username
	d.persist(store.KeyToken, d.session.AuthToken)
	d.persist(store.KeyUsername, username)
	d.setPath(vpath.Root(d.session.Identity()))

	res.AuthChanged = true
	res.PathChanged = true
	slog.Info("logged in", "username", username)
	return res
}

func (d *Dispatcher) logout(ctx context.Context) Result {
	res := d.forward(ctx, "logout", "")
	if !res.Success {
		return res
	}
	d.ClearIdentity()
	if res.Output == "" {
		res.Output = MsgLoggedOut
	}
	res.AuthChanged = true
	res.PathChanged = true
	return res
}

// ClearIdentity reverts the session to the guest root and forgets the
// stored credentials.
func (d *Dispatcher) ClearIdentity() {
	d.session.AuthToken = ""
	d.session.Username = ""
	for _, key := range []string{store.KeyToken, store.KeyUsername} {
		if err := d.opts.Store.Delete(key); err != nil {
			slog.Warn("clear state failed", "key", key, "error", err)
		}
	}
	d.setPath(vpath.Root(vpath.Guest))
}

func (d *Dispatcher) setPath(p string) {
	d.session.CurrentPath = p
	d.persist(store.KeyCwd, p)
}

func (d *Dispatcher) persist(key, value string) {
	if err := d.opts.Store.Set(key, value); err != nil {
		slog.Warn("persist state failed", "key", key, "error", err)
	}
}

// hasFlagValue reports whether flag appears in l followed by a value.
func hasFlagValue(l cmdline.Line, flag string) bool {
	for i, tok := range l.Tokens {
		if tok == flag {
			return i+1 < len(l.Tokens)
		}
	}
	return false
}
