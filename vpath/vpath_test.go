package vpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveTilde(t *testing.T) {
	got, err := Resolve("/home/alice/Documents/drafts/", "~", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/alice/" {
		t.Errorf("expected identity root, got %q", got)
	}
}

func TestResolveParentAtRootIsNoop(t *testing.T) {
	for _, id := range []Identity{"alice", Guest} {
		root := Root(id)
		got, err := Resolve(root, "..", id)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", id, err)
		}
		if got != root {
			t.Errorf("%s: expected %q unchanged, got %q", id, root, got)
		}
	}
}

func TestResolveParent(t *testing.T) {
	got, err := Resolve("/home/alice/Documents/drafts/", "..", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/alice/Documents/" {
		t.Errorf("unexpected parent %q", got)
	}
}

func TestResolveAbsoluteAddsTrailingSlash(t *testing.T) {
	got, err := Resolve("/home/alice/", "/home/alice/Album", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/alice/Album/" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestResolveRelative(t *testing.T) {
	got, err := Resolve("/home/alice/", "docs", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/alice/docs/" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestResolveRejectsOtherIdentity(t *testing.T) {
	_, err := Resolve("/home/alice/", "/home/bob/", "alice")
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
	_, err = Resolve("/home/alice/", "../bob", "alice")
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for relative escape, got %v", err)
	}
}

func TestResolveGuestConfined(t *testing.T) {
	if _, err := Resolve("/home/guest/", "/home/alice/", Guest); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected guest to be confined, got %v", err)
	}
	if _, err := Resolve("/home/guest/", "/etc", Guest); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected paths outside /home/ to be rejected, got %v", err)
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		path string
		id   Identity
		want bool
	}{
		{"/home/alice/", "alice", true},
		{"/home/alice", "alice", true},
		{"/home/alice/Documents/", "alice", true},
		{"/home/bob/", "alice", false},
		{"/home/alicex/", "alice", false},
		{"/home/", "alice", false},
		{"/tmp/", "alice", false},
		{"home/alice/", "alice", false},
		{"/home/guest/Desktop/", Guest, true},
		{"/home/alice/", Guest, false},
	}
	for _, c := range cases {
		if got := IsValid(c.path, c.id); got != c.want {
			t.Errorf("IsValid(%q, %q) = %v, want %v", c.path, c.id, got, c.want)
		}
	}
}

func TestParent(t *testing.T) {
	cases := map[string]string{
		"/":             "/",
		"/home/":        "/",
		"/home/alice/":  "/home/",
		"/home/alice/x": "/home/alice/",
	}
	for in, want := range cases {
		if got := Parent(in); got != want {
			t.Errorf("Parent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIdentityOf(t *testing.T) {
	if IdentityOf("") != Guest {
		t.Error("expected empty username to map to guest")
	}
	if Root(IdentityOf("alice")) != "/home/alice/" {
		t.Error("unexpected root for alice")
	}
}

func TestSkeletonChildren(t *testing.T) {
	s := DefaultSkeleton()

	if diff := cmp.Diff([]string{"drafts/", "published/"}, s.Children("/home/alice/Documents", "alice")); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alice/"}, s.Children("/home/", "alice")); diff != "" {
		t.Errorf("home mismatch (-want +got):\n%s", diff)
	}
	if got := s.Children("/home/bob/", "alice"); got != nil {
		t.Errorf("expected no children outside own subtree, got %v", got)
	}
	if got := s.Children("/home/guest/Documents/", Guest); got != nil {
		t.Errorf("expected guest to see only the top level, got %v", got)
	}
	if got := s.Children("/home/guest/", Guest); len(got) != 5 {
		t.Errorf("expected five top-level dirs for guest, got %v", got)
	}
}

func TestSkeletonDirsOrdersParentsFirst(t *testing.T) {
	dirs := DefaultSkeleton().Dirs("alice")
	want := []string{
		"/home",
		"/home/alice",
		"/home/alice/Desktop",
		"/home/alice/Documents",
		"/home/alice/Album",
		"/home/alice/Config",
		"/home/alice/Trash",
		"/home/alice/Album/avatars",
		"/home/alice/Album/covers",
		"/home/alice/Album/uploads",
		"/home/alice/Documents/drafts",
		"/home/alice/Documents/published",
	}
	if diff := cmp.Diff(want, dirs); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
}
