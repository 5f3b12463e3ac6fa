// Package pool provides reusable processing buffers.
package pool

import (
	"sync"

	"pipelined.dev/render/signal"
)

type key struct {
	bufferSize  int
	numChannels int
}

var m = struct {
	sync.Mutex
	pools map[key]*Pool
}{
	pools: map[key]*Pool{},
}

// Get returns shared pool for buffers of provided shape.
func Get(bufferSize, numChannels int) *Pool {
	m.Lock()
	defer m.Unlock()
	k := key{bufferSize, numChannels}
	if p, ok := m.pools[k]; ok {
		return p
	}

	p := New(numChannels, bufferSize)
	m.pools[k] = p
	return p
}

// Pool allocates buffers of the same shape.
type Pool struct {
	numChannels int
	bufferSize  int
	pool        sync.Pool
}

// New returns new pool.
func New(numChannels, bufferSize int) *Pool {
	p := &Pool{
		numChannels: numChannels,
		bufferSize:  bufferSize,
	}
	p.pool.New = func() interface{} {
		b := signal.EmptyFloat64(numChannels, bufferSize)
		return &b
	}
	return p
}

// Alloc returns cleared buffer.
func (p *Pool) Alloc() signal.Float64 {
	b := *p.pool.Get().(*signal.Float64)
	b.Clear()
	return b
}

// Free returns buffer to the pool. Buffers of different shape are
// dropped.
func (p *Pool) Free(b signal.Float64) {
	if b.NumChannels() != p.numChannels || b.Size() != p.bufferSize {
		return
	}
	p.pool.Put(&b)
}
