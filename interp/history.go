package interp

import "sync"

// History is a bounded command history browsed newest first.
type History struct {
	mu      sync.Mutex
	entries []string // newest first
	pos     int      // -1 when not browsing
	max     int
}

// NewHistory creates a history keeping at most max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{pos: -1, max: max}
}

// Push records a submitted line and stops browsing. Empty lines and
// immediate repeats are not recorded.
func (h *History) Push(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = -1
	if line == "" || (len(h.entries) > 0 && h.entries[0] == line) {
		return
	}
	h.entries = append([]string{line}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// Prev moves one entry back in time.
func (h *History) Prev() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos+1 >= len(h.entries) {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Next moves one entry forward in time. Moving past the newest entry
// returns an empty line.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.pos > 0:
		h.pos--
		return h.entries[h.pos], true
	case h.pos == 0:
		h.pos = -1
		return "", true
	}
	return "", false
}

// Entries returns a copy of the history, newest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
