package complete

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	guest = Context{}
	alice = Context{Authenticated: true, Identity: "alice", Cwd: "/home/alice/"}
)

func TestCommandCandidatesGuest(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("l", 1, guest)
	if diff := cmp.Diff([]string{"ls", "login"}, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	if res.Rewritten {
		t.Error("expected no rewrite with two candidates")
	}
}

func TestCommandCandidatesAuthenticated(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("l", 1, alice)
	if diff := cmp.Diff([]string{"ls", "logout"}, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyLineListsAllowedCommands(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("", 0, guest)
	for _, c := range res.Candidates {
		if c == "logout" || c == "profile" {
			t.Errorf("guest offered %q", c)
		}
	}
	if len(res.Candidates) != len(e.Vocabulary().Commands)-2 {
		t.Errorf("expected %d candidates, got %d", len(e.Vocabulary().Commands)-2, len(res.Candidates))
	}
}

func TestSingleCandidateRewrites(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("reg", 3, guest)
	if !res.Rewritten {
		t.Fatalf("expected rewrite, got candidates %v", res.Candidates)
	}
	if res.Line != "register " || res.Cursor != len("register ") {
		t.Errorf("got line %q cursor %d", res.Line, res.Cursor)
	}
}

func TestRewriteKeepsTrailingContentWithoutDoubleSpace(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("reg bob", 3, guest)
	if !res.Rewritten {
		t.Fatal("expected rewrite")
	}
	if res.Line != "register bob" {
		t.Errorf("got %q", res.Line)
	}
	if res.Cursor != len("register ") {
		t.Errorf("got cursor %d", res.Cursor)
	}
}

func TestNoCandidatesNoEffect(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Complete("zz", 2, guest)
	if res.Rewritten || len(res.Candidates) != 0 {
		t.Errorf("expected nothing, got %+v", res)
	}
}

func TestSubcommandCandidates(t *testing.T) {
	e := NewEngine(nil, nil)

	res := e.Complete("post ", 5, alice)
	if diff := cmp.Diff([]string{"create", "edit", "publish", "delete", "list"}, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	res = e.Complete("post cr", 7, alice)
	if res.Line != "post create " {
		t.Errorf("got %q", res.Line)
	}
}

func TestFlagCandidatesTwoTokenPrefix(t *testing.T) {
	e := NewEngine(nil, nil)
	line := "post create --title x "
	res := e.Complete(line, len(line), alice)
	if diff := cmp.Diff([]string{"--category", "--tags"}, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagCandidatesSingleTokenCommand(t *testing.T) {
	e := NewEngine(nil, nil)
	line := "login alice pw --c"
	res := e.Complete(line, len(line), guest)
	if res.Line != "login alice pw --captcha " {
		t.Errorf("got %q (candidates %v)", res.Line, res.Candidates)
	}
}

func TestPathCandidatesAbsolute(t *testing.T) {
	e := NewEngine(nil, nil)

	res := e.Complete("cd /home/al", 11, alice)
	if res.Line != "cd /home/alice/ " {
		t.Errorf("got %q", res.Line)
	}

	line := "cd /home/alice/D"
	res = e.Complete(line, len(line), alice)
	if diff := cmp.Diff([]string{"/home/alice/Desktop/", "/home/alice/Documents/"}, res.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestPathCandidatesRelative(t *testing.T) {
	e := NewEngine(nil, nil)
	ctx := alice
	ctx.Cwd = "/home/alice/Album/"
	line := "ls ./c"
	res := e.Complete(line, len(line), ctx)
	if res.Line != "ls ./covers/ " {
		t.Errorf("got %q (candidates %v)", res.Line, res.Candidates)
	}
}

func TestPathCandidatesOtherIdentityEmpty(t *testing.T) {
	e := NewEngine(nil, nil)
	line := "cd /home/bob/"
	res := e.Complete(line, len(line), alice)
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates, got %v", res.Candidates)
	}
}

func TestCursorInMiddle(t *testing.T) {
	e := NewEngine(nil, nil)
	alice := Context{Authenticated: true, Identity: "alice", Cwd: "/home/alice/"}
	cases := []struct {
		line       string
		cursor     int
		ctx        Context
		wantLine   string
		wantCursor int
	}{
		{"pw  --x", 2, guest, "pwd --x", 4},
		{"pwd", 2, guest, "pwd ", 4},
		{"pwx ls", 2, guest, "pwd ls", 4},
		{"cd ./Desk/x", 9, alice, "cd ./Desktop/ ", 14},
		{"cd ./Desk/x /tmp", 9, alice, "cd ./Desktop/ /tmp", 14},
	}
	for _, tc := range cases {
		res := e.Complete(tc.line, tc.cursor, tc.ctx)
		if !res.Rewritten || res.Line != tc.wantLine || res.Cursor != tc.wantCursor {
			t.Errorf("Complete(%q, %d) = line %q cursor %d, want %q %d",
				tc.line, tc.cursor, res.Line, res.Cursor, tc.wantLine, tc.wantCursor)
		}
	}
}
