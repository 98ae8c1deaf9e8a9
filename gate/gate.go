// Package gate decides when the interpreter shows a command hint and when
// it fetches a captcha. Decisions are made on command-name transitions, not
// on keystrokes, so typing inside a command never repeats a fetch.
package gate

import (
	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/cmdline"
)

// AlreadyAuthenticated is the hint shown when a signed-in user starts typing
// login or register.
const AlreadyAuthenticated = "You are already logged in. Run logout first to switch accounts."

// Descriptions looks up cached command help.
type Descriptions interface {
	Lookup(name string) (string, bool)
}

// State is the gating state. The zero value is the initial state.
type State struct {
	ShowHint    bool
	HintText    string
	ShowCaptcha bool
	Captcha     *webterm.Captcha
	// Loading is true while a captcha fetch for LastCommand is in flight.
	Loading bool
	// LastCommand is the command name seen by the previous input, "" if none.
	LastCommand string
	// Blocked is true while the already-authenticated hint is displayed.
	Blocked bool
	// Seq numbers captcha fetches. It survives resets so an old result can
	// never match a newer fetch.
	Seq uint64
}

// Event drives a Transition.
type Event interface {
	event()
}

// InputChanged is a new value of the input line.
type InputChanged struct {
	Line          string
	Authenticated bool
}

// CaptchaLoaded is the outcome of a FetchCaptcha effect.
type CaptchaLoaded struct {
	Command string
	Seq     uint64
	Captcha *webterm.Captcha
	Err     error
}

func (InputChanged) event()  {}
func (CaptchaLoaded) event() {}

// FetchCaptcha asks the caller to request a challenge and feed the result
// back as CaptchaLoaded with the same Command and Seq.
type FetchCaptcha struct {
	Command string
	Seq     uint64
}

// Transition applies ev to s. It is pure: the only side effect it can ask
// for is returned as a non-nil *FetchCaptcha.
func Transition(s State, ev Event, descs Descriptions) (State, *FetchCaptcha) {
	switch ev := ev.(type) {
	case InputChanged:
		return onInput(s, ev, descs)
	case CaptchaLoaded:
		return onCaptcha(s, ev), nil
	}
	return s, nil
}

func guarded(name string) bool {
	return name == "login" || name == "register"
}

func onInput(s State, ev InputChanged, descs Descriptions) (State, *FetchCaptcha) {
	name := cmdline.CommandName(ev.Line)
	if name == "" {
		return State{Seq: s.Seq}, nil
	}

	if ev.Authenticated && guarded(name) {
		s.ShowHint = true
		s.HintText = AlreadyAuthenticated
		s.Blocked = true
		s.ShowCaptcha = false
		s.Captcha = nil
		s.Loading = false
		return s, nil
	}

	changed := name != s.LastCommand
	var fetch *FetchCaptcha

	if guarded(name) {
		if changed {
			s.Seq++
			s.ShowCaptcha = true
			s.Captcha = nil
			s.Loading = true
			fetch = &FetchCaptcha{Command: name, Seq: s.Seq}
		}
	} else {
		s.ShowCaptcha = false
		s.Captcha = nil
		s.Loading = false
	}

	if changed || s.Blocked {
		s.Blocked = false
		s.ShowHint, s.HintText = false, ""
		if descs != nil {
			if text, ok := descs.Lookup(name); ok {
				s.ShowHint, s.HintText = true, text
			}
		}
	}

	s.LastCommand = name
	return s, fetch
}

// Current reports whether a CaptchaLoaded result still answers the fetch s
// is waiting for.
func (ev CaptchaLoaded) Current(s State) bool {
	return s.Loading && ev.Seq == s.Seq && ev.Command == s.LastCommand
}

func onCaptcha(s State, ev CaptchaLoaded) State {
	if !ev.Current(s) {
		return s
	}
	s.Loading = false
	if ev.Err != nil || ev.Captcha == nil {
		s.ShowCaptcha = false
		s.Captcha = nil
		return s
	}
	s.ShowCaptcha = true
	s.Captcha = ev.Captcha
	return s
}
