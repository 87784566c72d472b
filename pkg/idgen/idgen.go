// Package idgen provides monotonic identifier sources safe for concurrent use.
package idgen

import "sync/atomic"

// Generator hands out strictly increasing ids starting at 1.
//
// The zero value is ready to use. Use one Generator per entity type.
type Generator struct {
	last atomic.Int64
}

// New returns a Generator whose first id is 1.
func New() *Generator {
	return &Generator{}
}

// Next returns the next id.
func (g *Generator) Next() int64 {
	return g.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued.
func (g *Generator) Last() int64 {
	return g.last.Load()
}
