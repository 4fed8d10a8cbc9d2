// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sync"
	"sync/atomic"
)

// Deque is a mutex-guarded double-ended queue. The owning worker pushes and
// pops at the back; thieves take from the front, so they get the oldest
// work.
type Deque[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push appends v at the back.
func (d *Deque[T]) Push(v T) {
	d.mu.Lock()
	d.items = append(d.items, v)
	d.mu.Unlock()
}

// Pop removes and returns the item at the back.
func (d *Deque[T]) Pop() (v T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return v, false
	}
	v = d.items[n-1]
	var zero T
	d.items[n-1] = zero
	d.items = d.items[:n-1]
	return v, true
}

// Steal removes and returns the item at the front.
func (d *Deque[T]) Steal() (v T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stealLocked()
}

func (d *Deque[T]) stealLocked() (v T, ok bool) {
	if len(d.items) == 0 {
		return v, false
	}
	v = d.items[0]
	var zero T
	d.items[0] = zero
	d.items = d.items[1:]
	return v, true
}

// StealHalf takes half of d's items (rounded up) from the front. The
// first one is returned; the rest are pushed onto dst.
func (d *Deque[T]) StealHalf(dst *Deque[T]) (v T, ok bool) {
	d.mu.Lock()
	n := (len(d.items) + 1) / 2
	if n == 0 {
		d.mu.Unlock()
		return v, false
	}
	batch := make([]T, n)
	for i := range batch {
		batch[i], _ = d.stealLocked()
	}
	d.mu.Unlock()

	if n > 1 {
		dst.mu.Lock()
		dst.items = append(dst.items, batch[1:]...)
		dst.mu.Unlock()
	}
	return batch[0], true
}

// Len reports the number of queued items.
func (d *Deque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// PoolStats receives the pool's live worker count whenever it changes.
type PoolStats interface {
	PoolSize(int) // reports current pool size
}

// Worker is the handle passed to a Pool's handler. It identifies the
// goroutine running the handler, and lets the handler queue follow-up work
// locally.
type Worker[T any] struct {
	ID    int
	local *Deque[T]
}

// Push queues item on the worker's own deque. Siblings may steal it.
func (w *Worker[T]) Push(item T) {
	w.local.Push(item)
}

// Pool runs a fixed number of workers over a shared injector, per-worker
// deques, and an optional source channel. See the package documentation for
// the order in which a worker looks for work.
type Pool[T any] struct {
	injector Deque[T]
	workers  []*Worker[T]
	src      <-chan T
	handle   func(w *Worker[T], item T)
	stats    PoolStats

	live   int32
	steals int64
}

// NewPool creates a pool of n workers (at least one). If src is non-nil,
// workers keep receiving from it until it is closed. handle is called once
// for every item, from whichever worker found it.
func NewPool[T any](n int, src <-chan T, handle func(w *Worker[T], item T), stats PoolStats) *Pool[T] {
	if n < 1 {
		n = 1
	}
	p := &Pool[T]{
		workers: make([]*Worker[T], n),
		src:     src,
		handle:  handle,
		stats:   stats,
	}
	for i := range p.workers {
		p.workers[i] = &Worker[T]{ID: i, local: &Deque[T]{}}
	}
	return p
}

// Push puts item on the shared injector. Items pushed before Run are
// guaranteed to be handled; so are items pushed by a handler.
func (p *Pool[T]) Push(item T) {
	p.injector.Push(item)
}

// Size is the number of workers Run will start.
func (p *Pool[T]) Size() int {
	return len(p.workers)
}

// Run starts the workers and waits for all of them to exit.
func (p *Pool[T]) Run() {
	var wg sync.WaitGroup
	wg.Add(len(p.workers))
	p.report(atomic.AddInt32(&p.live, int32(len(p.workers))))
	for _, w := range p.workers {
		go func(w *Worker[T]) {
			defer wg.Done()
			defer func() { p.report(atomic.AddInt32(&p.live, -1)) }()
			p.work(w)
		}(w)
	}
	wg.Wait()
}

// Stats reports the live worker count, the number of items currently
// queued on the injector and worker deques, and how many items were taken
// from another worker's deque. The numbers are sampled individually, so
// they are only approximately consistent.
func (p *Pool[T]) Stats() (live, queued int, steals int64) {
	queued = p.injector.Len()
	for _, w := range p.workers {
		queued += w.local.Len()
	}
	return int(atomic.LoadInt32(&p.live)), queued, atomic.LoadInt64(&p.steals)
}

func (p *Pool[T]) report(live int32) {
	if p.stats != nil {
		p.stats.PoolSize(int(live))
	}
}

func (p *Pool[T]) work(w *Worker[T]) {
	for {
		item, ok := p.next(w)
		if !ok {
			return
		}
		p.handle(w, item)
	}
}

func (p *Pool[T]) next(w *Worker[T]) (item T, ok bool) {
	if item, ok = p.findQueued(w); ok {
		return item, true
	}
	if p.src == nil {
		return item, false
	}

	select {
	case item, ok = <-p.src:
	default:
		item, ok = <-p.src
	}
	if ok {
		return item, true
	}
	// The source is closed; pick up anything queued while we waited.
	return p.findQueued(w)
}

func (p *Pool[T]) findQueued(w *Worker[T]) (item T, ok bool) {
	if item, ok = w.local.Pop(); ok {
		return item, true
	}
	if item, ok = p.injector.StealHalf(w.local); ok {
		return item, true
	}
	n := len(p.workers)
	for i := 1; i < n; i++ {
		sib := p.workers[(w.ID+i)%n]
		if item, ok = sib.local.Steal(); ok {
			atomic.AddInt64(&p.steals, 1)
			return item, true
		}
	}
	return item, false
}
