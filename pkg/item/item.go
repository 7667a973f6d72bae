// Package item defines the item-stack value type: an item kind, a count, a
// map of added data components, and a set of removed component markers.
// Everything else is opaque payload for the wire, per spec.md §3.
package item

import "github.com/voxact-mc/voxact/pkg/blockstate"

// Stack is a held or stored quantity of one item kind.
type Stack struct {
	Kind    string
	Count   int32
	Added   map[blockstate.ComponentKey]any
	Removed map[blockstate.ComponentKey]struct{}
}

// Empty is the zero-count placeholder stack used for empty slots.
var Empty = Stack{}

// IsEmpty reports whether the stack represents no item.
func (s Stack) IsEmpty() bool {
	return s.Kind == "" || s.Count <= 0
}

// WithCount returns a copy of s with a different count.
func (s Stack) WithCount(count int32) Stack {
	s.Count = count
	return s
}

// Split removes n items from s and returns the split-off stack; s itself is
// left with the remainder. n is clamped to [0, s.Count].
func (s *Stack) Split(n int32) Stack {
	if n < 0 {
		n = 0
	}
	if n > s.Count {
		n = s.Count
	}
	taken := Stack{Kind: s.Kind, Count: n, Added: s.Added, Removed: s.Removed}
	s.Count -= n
	if s.Count <= 0 {
		*s = Empty
	}
	return taken
}

// AddedComponent returns an added-data component value, if present.
func (s Stack) AddedComponent(key blockstate.ComponentKey) (any, bool) {
	v, ok := s.Added[key]
	return v, ok
}

// IsComponentRemoved reports whether key is explicitly marked removed.
func (s Stack) IsComponentRemoved(key blockstate.ComponentKey) bool {
	_, ok := s.Removed[key]
	return ok
}
