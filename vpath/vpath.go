// Package vpath resolves and validates virtual paths under /home/<identity>/
// without asking the remote service. The service stays the authority; the
// checks here only avoid round trips that are certain to fail.
package vpath

import (
	"errors"
	"path"
	"strings"
)

// HomePrefix is the parent of every identity root.
const HomePrefix = "/home/"

// ErrInvalidPath is returned when a path leaves the identity's subtree.
var ErrInvalidPath = errors.New("invalid path")

// Identity is an authenticated username or Guest.
type Identity string

// Guest is the identity of an unauthenticated session.
const Guest Identity = "guest"

// IdentityOf maps a username to an identity; an empty name is Guest.
func IdentityOf(username string) Identity {
	if username == "" {
		return Guest
	}
	return Identity(username)
}

// Root returns the identity root, e.g. "/home/alice/".
func Root(id Identity) string {
	if id == "" {
		id = Guest
	}
	return HomePrefix + string(id) + "/"
}

// Normalize cleans p and gives it a trailing slash. Relative inputs are
// treated as rooted at "/".
func Normalize(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return p + "/"
}

// Resolve interprets token against current for the given identity.
//
//	"~"        identity root
//	".."       parent of current, never above the identity root
//	"/..."     absolute, normalized
//	otherwise  current + token
//
// The result must lie inside the identity's subtree, else ErrInvalidPath.
func Resolve(current, token string, id Identity) (string, error) {
	root := Root(id)
	var target string
	switch {
	case token == "~":
		return root, nil
	case token == "..":
		if Normalize(current) == root {
			return root, nil
		}
		target = Parent(current)
	case strings.HasPrefix(token, "/"):
		target = Normalize(token)
	default:
		target = Normalize(strings.TrimSuffix(current, "/") + "/" + token)
	}
	if !IsValid(target, id) {
		return "", ErrInvalidPath
	}
	return target, nil
}

// Parent returns the parent directory of p with a trailing slash.
// The parent of "/" is "/".
func Parent(p string) string {
	p = Normalize(p)
	if p == "/" {
		return p
	}
	return Normalize(path.Dir(strings.TrimSuffix(p, "/")))
}

// IsValid reports whether p lies under /home/ and inside id's own subtree.
// Guests are confined to the guest root.
func IsValid(p string, id Identity) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	p = Normalize(p)
	if !strings.HasPrefix(p, HomePrefix) {
		return false
	}
	return strings.HasPrefix(p, Root(id))
}
