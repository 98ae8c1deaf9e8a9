// Package describe caches the one-line help text of every remote command.
package describe

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

// HelpSource issues the help command and returns its message.
type HelpSource interface {
	Help(ctx context.Context) (string, error)
}

// Cache maps command names to help text. Entries never expire: the command
// set is fixed for the life of the process. Writers may race; the last
// writer wins.
type Cache struct {
	items *ttlcache.Cache[string, string]

	mu     sync.Mutex
	loaded bool
}

// NewCache creates an empty description cache.
func NewCache() *Cache {
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttlcache.NoTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	return &Cache{items: c}
}

// Lookup returns the cached description for name.
func (c *Cache) Lookup(name string) (string, bool) {
	item := c.items.Get(name)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// Store records a description.
func (c *Cache) Store(name, description string) {
	c.items.Set(name, description, ttlcache.NoTTL)
}

// Len returns the number of cached descriptions.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Loaded reports whether a Load call has succeeded.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Load populates the cache from the help command. Once a load succeeds,
// later calls return immediately without contacting src; a failed load may
// be retried.
func (c *Cache) Load(ctx context.Context, src HelpSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	msg, err := src.Help(ctx)
	if err != nil {
		return fmt.Errorf("load command descriptions: %w", err)
	}

	descriptions := ParseHelp(msg)
	for name, text := range descriptions {
		c.Store(name, text)
	}
	c.loaded = true
	slog.Debug("command descriptions loaded", "count", len(descriptions))
	return nil
}

var reHelpLine = regexp.MustCompile(`^- (\w+): (.+)$`)

// ParseHelp extracts "- name: description" lines from a help message.
// Other lines are ignored.
func ParseHelp(message string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := reHelpLine.FindStringSubmatch(line); m != nil {
			out[m[1]] = m[2]
		}
	}
	return out
}
