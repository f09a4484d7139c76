// Package filter provides the blacklist and access filters applied before
// the access graph is built.
package filter

import (
	"fmt"
	"regexp"

	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// Filter returns the items for which keep returns true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Blacklist matches qualified unit names against a set of regular expressions.
// The zero value matches nothing.
type Blacklist struct {
	patterns []*regexp.Regexp
}

// NewBlacklist compiles the given patterns.
func NewBlacklist(patterns []string) (*Blacklist, error) {
	b := &Blacklist{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("blacklist pattern %q: %w", p, err)
		}
		b.patterns = append(b.patterns, re)
	}
	return b, nil
}

// Matches reports whether name is blacklisted.
func (b *Blacklist) Matches(name string) bool {
	if b == nil {
		return false
	}
	for _, re := range b.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (b *Blacklist) Patterns() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.patterns))
	for i, re := range b.patterns {
		out[i] = re.String()
	}
	return out
}

// Units keeps units that are neither primitive nor blacklisted.
func Units(units []*ir.Unit, bl *Blacklist) []*ir.Unit {
	return Filter(units, func(u *ir.Unit) bool {
		return !u.Primitive && !bl.Matches(u.QualifiedName())
	})
}

// Accesses drops accesses whose target is blacklisted and structural
// supertype references, which are not dependencies.
func Accesses(accesses []ir.Access, bl *Blacklist) []ir.Access {
	return Filter(accesses, func(a ir.Access) bool {
		return a.Kind != ir.AccessInheritance && !bl.Matches(a.Target)
	})
}
