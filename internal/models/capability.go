package models

import (
	"sort"
	"strings"
)

// Capabilities is the set of modules a user has access to (hitting,
// pitching, throwing, ...). The zero value holds nothing.
type Capabilities struct {
	set map[string]struct{}
}

// NewCapabilities builds a capability set. Names are case-insensitive.
func NewCapabilities(names ...string) Capabilities {
	c := Capabilities{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = normalizeCapability(n)
		if n != "" {
			c.set[n] = struct{}{}
		}
	}
	return c
}

// Has reports whether the capability is held. An empty gate is always held.
func (c Capabilities) Has(name string) bool {
	name = normalizeCapability(name)
	if name == "" {
		return true
	}
	_, ok := c.set[name]
	return ok
}

// List returns the held capabilities sorted by name.
func (c Capabilities) List() []string {
	out := make([]string, 0, len(c.set))
	for n := range c.set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of held capabilities.
func (c Capabilities) Len() int {
	return len(c.set)
}

func normalizeCapability(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
