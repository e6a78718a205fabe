package site

import "sync/atomic"

// Current holds the latest published Snapshot. Readers always see a
// complete snapshot; the zero value holds none.
type Current struct {
	p atomic.Pointer[Snapshot]
}

// Load returns the latest snapshot, or nil before the first build.
func (c *Current) Load() *Snapshot {
	return c.p.Load()
}

// Store publishes s.
func (c *Current) Store(s *Snapshot) {
	c.p.Store(s)
}
