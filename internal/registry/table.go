package registry

import (
	"sync"

	"github.com/vyrodovalexey/managedproxy/internal/router"
)

type patternEntry struct {
	key     router.ContextKey
	matcher router.PathMatcher
}

// HandlerTable maps route contexts to handler entries and keeps the ordered
// list of dynamic patterns. A dynamic path is registered at most once per
// table; patterns are indexed by method for resolution. It implements
// router.Table.
type HandlerTable struct {
	mu       sync.RWMutex
	entries  map[router.ContextKey]*HandlerEntry
	patterns map[string][]patternEntry
}

func newHandlerTable() *HandlerTable {
	return &HandlerTable{
		entries:  make(map[router.ContextKey]*HandlerEntry),
		patterns: make(map[string][]patternEntry),
	}
}

// HasContext reports whether key is registered.
func (t *HandlerTable) HasContext(key router.ContextKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[key]
	return ok
}

// Lookup returns the entry for key.
func (t *HandlerTable) Lookup(key router.ContextKey) (*HandlerEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

// Patterns returns the dynamic patterns for method in registration order.
func (t *HandlerTable) Patterns(method string) []router.PathMatcher {
	t.mu.RLock()
	defer t.mu.RUnlock()
	list := t.patterns[method]
	out := make([]router.PathMatcher, len(list))
	for i, p := range list {
		out[i] = p.matcher
	}
	return out
}

// Len returns the number of registered contexts.
func (t *HandlerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// PatternCount returns the number of dynamic patterns across all methods.
func (t *HandlerTable) PatternCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, list := range t.patterns {
		n += len(list)
	}
	return n
}

// The helpers below require t.mu to be held for writing.

// hasPatternLocked reports whether path is registered as a dynamic pattern
// under any method.
func (t *HandlerTable) hasPatternLocked(path string) bool {
	for _, list := range t.patterns {
		for _, p := range list {
			if p.key.Path() == path {
				return true
			}
		}
	}
	return false
}

func (t *HandlerTable) appendPatternLocked(key router.ContextKey, m router.PathMatcher) {
	method := key.Method()
	t.patterns[method] = append(t.patterns[method], patternEntry{key: key, matcher: m})
}

func (t *HandlerTable) removePatternLocked(key router.ContextKey) {
	method := key.Method()
	list := t.patterns[method]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].key == key {
			t.patterns[method] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(t.patterns[method]) == 0 {
		delete(t.patterns, method)
	}
}
