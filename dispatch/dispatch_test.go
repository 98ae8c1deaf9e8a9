package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/remote"
	"github.com/Paranoid-AF/webterm/store"
	"github.com/Paranoid-AF/webterm/suggest"
)

// stubService records requests and answers from a table keyed by command.
type stubService struct {
	requests []webterm.CommandRequest
	tokens   []string
	replies  map[string]*webterm.CommandResponse
	err      error
}

func (s *stubService) Command(ctx context.Context, req webterm.CommandRequest, token string) (*webterm.CommandResponse, error) {
	s.requests = append(s.requests, req)
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.replies[req.Command]; ok {
		return r, nil
	}
	return &webterm.CommandResponse{Success: false, Message: "command not found: " + req.Command}, nil
}

func newDispatcher(t *testing.T, sess *Session, svc *stubService) (*Dispatcher, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	d := New(sess, Options{Service: svc, Store: st})
	return d, st
}

func aliceSession() *Session {
	return &Session{AuthToken: "tok", Username: "alice", CurrentPath: "/home/alice/"}
}

func TestEmptyLineIsNoop(t *testing.T) {
	svc := &stubService{}
	d, _ := newDispatcher(t, &Session{CurrentPath: "/home/guest/"}, svc)
	res := d.Dispatch(context.Background(), "   ", "")
	if !res.Success || len(svc.requests) != 0 {
		t.Errorf("expected silent no-op, got %+v with %d requests", res, len(svc.requests))
	}
}

func TestAuthenticatedLoginShortCircuits(t *testing.T) {
	for _, line := range []string{"login", "login bob pw --captcha X", "register bob pw --confirm pw"} {
		svc := &stubService{}
		d, _ := newDispatcher(t, aliceSession(), svc)
		res := d.Dispatch(context.Background(), line, "")
		if res.Success || res.Message != MsgAlreadyAuthenticated {
			t.Errorf("%q: expected local rejection, got %+v", line, res)
		}
		if len(svc.requests) != 0 {
			t.Errorf("%q: expected 0 remote calls, got %d", line, len(svc.requests))
		}
	}
}

func TestCdAdoptsServerPath(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"cd /home/alice/docs/": {Success: true, Message: "ok", Data: &webterm.ResponseData{Path: "/home/alice/Documents/"}},
	}}
	sess := aliceSession()
	d, st := newDispatcher(t, sess, svc)

	res := d.Dispatch(context.Background(), "cd docs", "")
	if !res.Success || !res.PathChanged {
		t.Fatalf("expected success, got %+v", res)
	}
	if sess.CurrentPath != "/home/alice/Documents/" {
		t.Errorf("expected server path adopted, got %q", sess.CurrentPath)
	}
	if cwd, _ := st.Get(store.KeyCwd); cwd != "/home/alice/Documents/" {
		t.Errorf("expected cwd persisted, got %q", cwd)
	}
	if svc.requests[0].Cwd != "/home/alice/" || svc.tokens[0] != "tok" {
		t.Errorf("unexpected request %+v token %q", svc.requests[0], svc.tokens[0])
	}
}

func TestCdInvalidPathMakesNoCall(t *testing.T) {
	svc := &stubService{}
	sess := aliceSession()
	d, _ := newDispatcher(t, sess, svc)

	for _, line := range []string{"cd /home/bob/", "cd /etc", "cd"} {
		res := d.Dispatch(context.Background(), line, "")
		if res.Success {
			t.Errorf("%q: expected failure", line)
		}
	}
	if len(svc.requests) != 0 {
		t.Errorf("expected no remote calls, got %d", len(svc.requests))
	}
	if sess.CurrentPath != "/home/alice/" {
		t.Errorf("session mutated: %q", sess.CurrentPath)
	}
}

func TestCdFailureLeavesSession(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"cd /home/alice/Trash/": {Success: false, Message: "permission denied"},
	}}
	sess := aliceSession()
	d, _ := newDispatcher(t, sess, svc)

	res := d.Dispatch(context.Background(), "cd Trash", "")
	if res.Success || res.Output != "permission denied" {
		t.Errorf("expected verbatim failure, got %+v", res)
	}
	if sess.CurrentPath != "/home/alice/" {
		t.Errorf("session mutated: %q", sess.CurrentPath)
	}
}

func TestCdDotDotAtRoot(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"cd /home/alice/": {Success: true, Data: &webterm.ResponseData{Path: "/home/alice/"}},
	}}
	d, _ := newDispatcher(t, aliceSession(), svc)
	if res := d.Dispatch(context.Background(), "cd ..", ""); !res.Success {
		t.Errorf("expected cd .. at root to succeed, got %+v", res)
	}
}

func TestLsFormatsListing(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"ls /home/alice/": {Success: true, Data: &webterm.ResponseData{Contents: []webterm.Entry{
			{Name: "/home/alice/Documents", IsDirectory: true, Permissions: "drwxr-xr-x", UpdatedAt: "2024-05-01 10:00"},
			{Name: "notes.md", Permissions: "-rw-r--r--", UpdatedAt: "2024-05-02 11:30"},
		}}},
	}}
	d, _ := newDispatcher(t, aliceSession(), svc)

	res := d.Dispatch(context.Background(), "ls", "")
	want := "📂 drwxr-xr-x 2024-05-01 10:00    <DIR> Documents\n" +
		"📝 -rw-r--r-- 2024-05-02 11:30        0 notes.md"
	if diff := cmp.Diff(want, res.Output); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestLsOtherIdentityRejected(t *testing.T) {
	svc := &stubService{}
	d, _ := newDispatcher(t, &Session{CurrentPath: "/home/guest/"}, svc)
	res := d.Dispatch(context.Background(), "ls /home/alice/", "")
	if res.Success || len(svc.requests) != 0 {
		t.Errorf("expected local rejection, got %+v", res)
	}
}

func TestLsSkipsFlagsWhenResolving(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"ls -l /home/guest/":           {Success: true, Data: &webterm.ResponseData{Contents: []webterm.Entry{}}},
		"ls -l /home/guest/Documents/": {Success: true, Data: &webterm.ResponseData{Contents: []webterm.Entry{}}},
	}}
	d, _ := newDispatcher(t, &Session{CurrentPath: "/home/guest/"}, svc)

	for _, line := range []string{"ls -l", "ls -l Documents"} {
		if res := d.Dispatch(context.Background(), line, ""); !res.Success {
			t.Errorf("%q: expected success, got %+v", line, res)
		}
	}
	var got []string
	for _, req := range svc.requests {
		got = append(got, req.Command)
	}
	want := []string{"ls -l /home/guest/", "ls -l /home/guest/Documents/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionMethodsOnCopies(t *testing.T) {
	sessions := map[string]Session{"alice": *aliceSession()}
	if !sessions["alice"].Authenticated() || sessions["alice"].Identity() != "alice" {
		t.Errorf("unexpected identity for %+v", sessions["alice"])
	}
	if (Session{Username: "alice"}).Identity() != "guest" {
		t.Error("expected guest identity without a token")
	}
}

func TestMkdirValidatesEveryPath(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"mkdir -p a b": {Success: true, Message: "created"},
	}}
	d, _ := newDispatcher(t, aliceSession(), svc)

	if res := d.Dispatch(context.Background(), "mkdir -p a /home/bob/x", ""); res.Success || len(svc.requests) != 0 {
		t.Errorf("expected rejection without a call, got %+v", res)
	}
	if res := d.Dispatch(context.Background(), "mkdir -p", ""); res.Success || !strings.HasPrefix(res.Message, "usage:") {
		t.Errorf("expected usage message, got %+v", res)
	}
	if res := d.Dispatch(context.Background(), "mkdir -p a b", ""); !res.Success {
		t.Errorf("expected success, got %+v", res)
	}
}

func TestLoginPersistsIdentity(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"login alice pw --captcha K9QZ": {Success: true, Message: "welcome", Data: &webterm.ResponseData{
			Token: "jwt", User: &webterm.User{Username: "alice"},
		}},
	}}
	sess := &Session{CurrentPath: "/home/guest/"}
	d, st := newDispatcher(t, sess, svc)

	res := d.Dispatch(context.Background(), "login alice pw --captcha K9QZ", "cap-1")
	if !res.Success || !res.AuthChanged {
		t.Fatalf("expected login, got %+v", res)
	}
	if svc.requests[0].SessionID != "cap-1" {
		t.Errorf("expected captcha session attached, got %q", svc.requests[0].SessionID)
	}
	want := Session{AuthToken: "jwt", Username: "alice", CurrentPath: "/home/alice/"}
	if diff := cmp.Diff(want, *sess); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
	for key, val := range map[string]string{store.KeyToken: "jwt", store.KeyUsername: "alice", store.KeyCwd: "/home/alice/"} {
		if got, _ := st.Get(key); got != val {
			t.Errorf("stored %s = %q, want %q", key, got, val)
		}
	}
}

func TestLoginRequiresCaptcha(t *testing.T) {
	svc := &stubService{}
	d, _ := newDispatcher(t, &Session{CurrentPath: "/home/guest/"}, svc)
	for _, line := range []string{"login alice pw", "login alice pw --captcha"} {
		if res := d.Dispatch(context.Background(), line, ""); res.Message != MsgNeedCaptcha {
			t.Errorf("%q: got %+v", line, res)
		}
	}
	if len(svc.requests) != 0 {
		t.Errorf("expected no remote calls, got %d", len(svc.requests))
	}
}

func TestLoginFailureLeavesGuest(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"login alice bad --captcha X": {Success: false, Message: "invalid credentials"},
	}}
	sess := &Session{CurrentPath: "/home/guest/"}
	d, st := newDispatcher(t, sess, svc)

	res := d.Dispatch(context.Background(), "login alice bad --captcha X", "")
	if res.Success || res.Output != "invalid credentials" {
		t.Errorf("expected verbatim failure, got %+v", res)
	}
	if sess.Authenticated() {
		t.Error("session became authenticated")
	}
	if _, ok := st.Get(store.KeyToken); ok {
		t.Error("token persisted on failure")
	}
}

func TestLogoutRevertsToGuest(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"logout": {Success: true},
	}}
	sess := aliceSession()
	d, st := newDispatcher(t, sess, svc)
	st.Set(store.KeyToken, "tok")
	st.Set(store.KeyUsername, "alice")

	res := d.Dispatch(context.Background(), "logout", "")
	if !res.Success || res.Output != MsgLoggedOut {
		t.Fatalf("unexpected result %+v", res)
	}
	if sess.Authenticated() || sess.CurrentPath != "/home/guest/" {
		t.Errorf("expected guest session, got %+v", sess)
	}
	if _, ok := st.Get(store.KeyToken); ok {
		t.Error("token still stored")
	}
}

func TestProfileShorthandAndClear(t *testing.T) {
	svc := &stubService{replies: map[string]*webterm.CommandResponse{
		"profile show": {Success: true, Message: "alice <a@b.c>"},
		"clear":        {Success: true},
	}}
	d, _ := newDispatcher(t, aliceSession(), svc)

	if res := d.Dispatch(context.Background(), "profile", ""); res.Output != "alice <a@b.c>" {
		t.Errorf("unexpected profile result %+v", res)
	}
	if res := d.Dispatch(context.Background(), "clear", ""); !res.Clear {
		t.Errorf("expected clear, got %+v", res)
	}
}

func TestNetworkError(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("%w: connection refused", remote.ErrNetwork)}
	sess := aliceSession()
	d, _ := newDispatcher(t, sess, svc)

	res := d.Dispatch(context.Background(), "post list", "")
	if res.Success || res.Output != MsgNetworkError {
		t.Errorf("expected network error, got %+v", res)
	}
	if *sess != *aliceSession() {
		t.Errorf("session mutated: %+v", sess)
	}
}

func TestThemeIsLocal(t *testing.T) {
	svc := &stubService{}
	d, st := newDispatcher(t, aliceSession(), svc)

	if res := d.Dispatch(context.Background(), "theme", ""); res.Theme != "dark" {
		t.Errorf("expected toggle to dark, got %+v", res)
	}
	if res := d.Dispatch(context.Background(), "theme", ""); res.Theme != "light" {
		t.Errorf("expected toggle to light, got %+v", res)
	}
	if res := d.Dispatch(context.Background(), "theme blue", ""); res.Success {
		t.Errorf("expected usage error, got %+v", res)
	}
	if v, _ := st.Get(store.KeyTheme); v != "light" {
		t.Errorf("stored theme %q", v)
	}
	if len(svc.requests) != 0 {
		t.Errorf("expected no remote calls, got %d", len(svc.requests))
	}
}

func TestUnknownCommandSuggestions(t *testing.T) {
	vocab := []string{"login", "logout", "ls", "profile"}
	svc := &stubService{}
	d := New(aliceSession(), Options{
		Service: svc,
		Known: func(name string) bool {
			for _, v := range vocab {
				if v == name {
					return true
				}
			}
			return false
		},
		Suggest: suggest.NewIndex(vocab),
	})

	res := d.Dispatch(context.Background(), "profil", "")
	if res.Output != "command not found: profil" {
		t.Errorf("expected verbatim message, got %q", res.Output)
	}
	if len(res.Suggestions) == 0 || res.Suggestions[0] != "profile" {
		t.Errorf("expected profile suggested, got %v", res.Suggestions)
	}
}

func TestGlyph(t *testing.T) {
	cases := map[string]string{
		"a.TXT":      "📄",
		"x.tar.gz":   glyphDefault,
		"photo.jpeg": "🖼️",
		"Makefile":   glyphDefault,
	}
	for name, want := range cases {
		if got := Glyph(name, false); got != want {
			t.Errorf("Glyph(%q) = %q, want %q", name, got, want)
		}
	}
	if Glyph("dir.md", true) != glyphDirectory {
		t.Error("directories use the directory glyph")
	}
}

func TestFormatListingEmpty(t *testing.T) {
	if got := FormatListing(nil); got != "(empty)" {
		t.Errorf("got %q", got)
	}
}
