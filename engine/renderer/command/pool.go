package command

import "sync"

// Pool recycles Buffers between frames.
type Pool struct {
	pool sync.Pool
}

// NewPool creates an empty buffer pool.
func NewPool() *Pool {
	return &Pool{pool: sync.Pool{New: func() any { return &recorder{} }}}
}

// Get returns an empty Buffer labelled name.
func (p *Pool) Get(name string) Buffer {
	r := p.pool.Get().(*recorder)
	r.name = name
	return r
}

// Release clears b and returns it to the pool. Buffers not created by a Pool are ignored.
func (p *Pool) Release(b Buffer) {
	r, ok := b.(*recorder)
	if !ok || r == nil {
		return
	}
	r.Clear()
	r.name = ""
	p.pool.Put(r)
}
