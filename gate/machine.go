package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Paranoid-AF/webterm"
)

// CaptchaSource issues captcha challenges.
type CaptchaSource interface {
	Captcha(ctx context.Context) (*webterm.Captcha, error)
}

// Machine runs Transition and performs its fetch effects in the background.
// Results that arrive after the input has moved on are dropped.
type Machine struct {
	ctx      context.Context
	descs    Descriptions
	captchas CaptchaSource
	onAsync  func(prev, next State)

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
}

// NewMachine creates a machine. Fetches run under ctx. onAsync, if set, is
// called with the lock held whenever a fetch result changes the state; it
// must not call back into the Machine.
func NewMachine(ctx context.Context, descs Descriptions, captchas CaptchaSource, onAsync func(prev, next State)) *Machine {
	return &Machine{
		ctx:      ctx,
		descs:    descs,
		captchas: captchas,
		onAsync:  onAsync,
	}
}

// Input feeds a new line value and returns the states before and after.
func (m *Machine) Input(line string, authenticated bool) (prev, next State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev = m.state
	next, fetch := Transition(prev, InputChanged{Line: line, Authenticated: authenticated}, m.descs)
	m.state = next
	if fetch != nil {
		m.start(*fetch)
	}
	return prev, m.state
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Wait blocks until every started fetch has been applied or discarded.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// start launches a fetch. Callers hold m.mu.
func (m *Machine) start(f FetchCaptcha) {
	if m.captchas == nil {
		m.state, _ = Transition(m.state, CaptchaLoaded{Command: f.Command, Seq: f.Seq}, m.descs)
		return
	}
	slog.Debug("fetching captcha", "command", f.Command, "seq", f.Seq)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		c, err := m.captchas.Captcha(m.ctx)
		if err != nil {
			slog.Warn("captcha fetch failed", "command", f.Command, "error", err)
		}
		m.apply(CaptchaLoaded{Command: f.Command, Seq: f.Seq, Captcha: c, Err: err})
	}()
}

func (m *Machine) apply(ev CaptchaLoaded) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ev.Current(m.state) {
		slog.Debug("discarding stale captcha", "command", ev.Command, "seq", ev.Seq, "current", m.state.LastCommand)
		return
	}
	prev := m.state
	next, _ := Transition(prev, ev, m.descs)
	m.state = next
	if m.onAsync != nil {
		m.onAsync(prev, next)
	}
}
