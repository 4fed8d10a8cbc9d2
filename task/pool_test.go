// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// tally records how many times each item was handled.
type tally struct {
	mu   sync.Mutex
	seen map[int]int
}

func newTally() *tally {
	return &tally{seen: make(map[int]int)}
}

func (t *tally) add(v int) {
	t.mu.Lock()
	t.seen[v]++
	t.mu.Unlock()
}

func (t *tally) requireOnce(tb testing.TB, n int) {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	require.Len(tb, t.seen, n)
	for v, c := range t.seen {
		if c != 1 {
			tb.Fatalf("item %d handled %d times", v, c)
		}
	}
}

// sizeRecorder implements PoolStats and keeps the largest size reported.
type sizeRecorder struct {
	mu       sync.Mutex
	max, cur int
}

func (s *sizeRecorder) PoolSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = n
	if n > s.max {
		s.max = n
	}
}

func TestDeque(t *testing.T) {
	var d Deque[int]
	_, ok := d.Pop()
	assert.False(t, ok)
	for i := 0; i < 5; i++ {
		d.Push(i)
	}
	v, ok := d.Pop()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	v, ok = d.Steal()
	assert.True(t, ok)
	assert.Equal(t, 0, v)

	// 1,2,3 remain; half rounded up is two.
	var dst Deque[int]
	v, ok = d.StealHalf(&dst)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1, dst.Len())
	v, _ = dst.Pop()
	assert.Equal(t, 2, v)
}

func TestPoolChannelSource(t *testing.T) {
	const n = 2000
	src := make(chan int, 16)
	seen := newTally()
	stats := &sizeRecorder{}
	p := NewPool(4, src, func(w *Worker[int], v int) { seen.add(v) }, stats)

	go func() {
		for i := 0; i < n; i++ {
			src <- i
		}
		close(src)
	}()
	p.Run()

	seen.requireOnce(t, n)
	assert.Equal(t, 4, stats.max)
	assert.Equal(t, 0, stats.cur)
	live, queued, _ := p.Stats()
	assert.Equal(t, 0, live)
	assert.Equal(t, 0, queued)
}

func TestPoolConcurrentProducers(t *testing.T) {
	src := make(chan int, 8)
	seen := newTally()
	p := NewPool(3, src, func(w *Worker[int], v int) { seen.add(v) }, nil)

	eg := &errgroup.Group{}
	for g := 0; g < 4; g++ {
		g := g
		eg.Go(func() error {
			for i := 0; i < 250; i++ {
				src <- g*1000 + i
			}
			return nil
		})
	}
	go func() {
		_ = eg.Wait()
		close(src)
	}()
	p.Run()

	seen.requireOnce(t, 1000)
}

func TestPoolInjectorOnly(t *testing.T) {
	seen := newTally()
	p := NewPool[int](4, nil, func(w *Worker[int], v int) { seen.add(v) }, nil)
	for i := 0; i < 500; i++ {
		p.Push(i)
	}
	p.Run()
	seen.requireOnce(t, 500)
}

func TestPoolLocalFollowUps(t *testing.T) {
	// Every item v > 0 queues v-1 on the handling worker's deque, tagged by
	// its root so each (root, v) pair is unique.
	type job struct{ root, v int }
	var handled int64
	seen := make(map[job]int)
	var mu sync.Mutex

	p := NewPool[job](3, nil, func(w *Worker[job], j job) {
		atomic.AddInt64(&handled, 1)
		mu.Lock()
		seen[j]++
		mu.Unlock()
		if j.v > 0 {
			w.Push(job{root: j.root, v: j.v - 1})
		}
	}, nil)
	want := 0
	for r := 0; r < 20; r++ {
		p.Push(job{root: r, v: r})
		want += r + 1
	}
	p.Run()

	assert.Equal(t, int64(want), atomic.LoadInt64(&handled))
	for j, c := range seen {
		if c != 1 {
			t.Fatalf("job %+v handled %d times", j, c)
		}
	}
}

func TestPoolMinimumSize(t *testing.T) {
	p := NewPool[int](0, nil, func(*Worker[int], int) {}, nil)
	assert.Equal(t, 1, p.Size())
}
