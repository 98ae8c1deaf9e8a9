package vpath

import (
	"sort"
	"strings"
)

// Skeleton is the fixed directory layout every identity root is provisioned
// with. Completion reads it instead of listing directories remotely.
type Skeleton struct {
	// children maps a directory relative to the identity root ("" is the
	// root itself) to its child directory names, each with a trailing slash.
	children map[string][]string
	// guestDepth limits how much of the layout a guest sees.
	guestDepth int
}

// DefaultSkeleton returns the standard home layout.
func DefaultSkeleton() *Skeleton {
	return &Skeleton{
		children: map[string][]string{
			"":           {"Desktop/", "Documents/", "Album/", "Config/", "Trash/"},
			"Documents/": {"drafts/", "published/"},
			"Album/":     {"avatars/", "covers/", "uploads/"},
		},
		guestDepth: 1,
	}
}

// Children lists the child directories of dir as seen by id.
// dir must be an absolute, normalized directory path.
func (s *Skeleton) Children(dir string, id Identity) []string {
	dir = Normalize(dir)
	switch dir {
	case "/":
		return []string{strings.TrimPrefix(HomePrefix, "/")}
	case HomePrefix:
		return []string{string(id) + "/"}
	}
	root := Root(id)
	if !strings.HasPrefix(dir, root) {
		return nil
	}
	rel := strings.TrimPrefix(dir, root)
	if id == Guest && strings.Count(rel, "/") >= s.guestDepth {
		return nil
	}
	return append([]string(nil), s.children[rel]...)
}

// Dirs returns every directory of the layout for id as absolute paths
// without trailing slashes, parents before children.
func (s *Skeleton) Dirs(id Identity) []string {
	root := Root(id)
	dirs := []string{strings.TrimSuffix(HomePrefix, "/"), strings.TrimSuffix(root, "/")}

	rels := make([]string, 0, len(s.children))
	for rel := range s.children {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		if id == Guest && strings.Count(rel, "/") >= s.guestDepth {
			continue
		}
		for _, child := range s.children[rel] {
			dirs = append(dirs, strings.TrimSuffix(root+rel+child, "/"))
		}
	}
	return dirs
}
