// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package cache memoizes covariate lookups against a register store.
//
// Every key is loaded from the source at most once per Cache: concurrent
// first requests for a key share one load. A nil covariate is cached like
// any other value and means the subject is known to have no value. Errors
// are never cached.
package cache

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// PrefetchThreshold is the smallest cross product BulkLoad acts on.
	PrefetchThreshold = 100

	// PrefetchChunk is the number of keys BulkLoad hands to one goroutine.
	PrefetchChunk = 1000
)

// Source answers covariate lookups. *store.Store implements it.
type Source interface {
	GetCovariate(subject string, t covariate.Type, date time.Time) (*covariate.Covariate, error)
}

// Key identifies one lookup. Dates are compared by calendar day.
type Key struct {
	Subject string
	Type    covariate.Type
	Date    time.Time
}

// NewKey returns the key of subject's covariate of type t on date.
func NewKey(subject string, t covariate.Type, date time.Time) Key {
	return Key{Subject: subject, Type: t, Date: register.Truncate(date)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Subject, k.Type, k.Date.Format("2006-01-02"))
}

// entries holds cached values.
type entries interface {
	get(Key) (*covariate.Covariate, bool)
	contains(Key) bool
	// addNew stores a value unless the key is present, and reports
	// whether it did.
	addNew(Key, *covariate.Covariate) bool
	len() int
	purge()
}

// Cache is a memoizing layer over a Source. It is safe for concurrent use.
type Cache struct {
	source  Source
	log     logger.Logger
	entries entries
	group   singleflight.Group

	hits   int64
	misses int64
}

// New returns a cache over source. A positive capacity bounds the cache,
// evicting the least recently used entries. Otherwise the cache grows
// without bound for its lifetime.
func New(source Source, capacity int, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NopLogger
	}
	c := &Cache{source: source, log: log}
	if capacity > 0 {
		l, err := lru.New[Key, *covariate.Covariate](capacity)
		if err != nil {
			// Only reachable with a non-positive size.
			panic(err)
		}
		c.entries = &lruEntries{l: l}
	} else {
		c.entries = &mapEntries{m: make(map[Key]*covariate.Covariate)}
	}
	return c
}

// GetOrLoad returns the covariate for key, loading it from the source on
// the first request. A nil result with a nil error means the subject has no
// such covariate.
func (c *Cache) GetOrLoad(key Key) (*covariate.Covariate, error) {
	key.Date = register.Truncate(key.Date)
	if v, ok := c.entries.get(key); ok {
		c.hit()
		return v, nil
	}
	return c.load(key, nil)
}

// load queries the source for key unless a load which finished since the
// caller's miss has already stored it. Loads of the same key share one
// flight. When added is non-nil it is incremented if this call stored a new
// entry.
func (c *Cache) load(key Key, added *int64) (*covariate.Covariate, error) {
	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if v, ok := c.entries.get(key); ok {
			c.hit()
			return v, nil
		}
		c.miss()
		cov, err := c.source.GetCovariate(key.Subject, key.Type, key.Date)
		if err != nil {
			return nil, err
		}
		if c.entries.addNew(key, cov) && added != nil {
			atomic.AddInt64(added, 1)
		}
		return cov, nil
	})
	if err != nil {
		return nil, err
	}
	cov, _ := v.(*covariate.Covariate)
	return cov, nil
}

// BulkLoad loads every combination of subjects, types and dates which isn't
// cached yet, and returns how many entries it added. Cross products smaller
// than PrefetchThreshold are skipped, since point lookups handle them as
// cheaply. Keys are loaded in chunks of PrefetchChunk in parallel. A key
// whose load fails is logged and left uncached.
func (c *Cache) BulkLoad(subjects []string, types []covariate.Type, dates []time.Time) int {
	total := len(subjects) * len(types) * len(dates)
	if total < PrefetchThreshold {
		c.log.Debugf("skipping prefetch of %d keys", total)
		return 0
	}

	var added int64
	load := func(keys []Key) error {
		for _, k := range keys {
			if c.entries.contains(k) {
				continue
			}
			if _, err := c.load(k, &added); err != nil {
				c.log.Warnf("prefetching %s: %v", k, err)
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	chunk := make([]Key, 0, PrefetchChunk)
	for _, s := range subjects {
		for _, t := range types {
			for _, d := range dates {
				chunk = append(chunk, NewKey(s, t, d))
				if len(chunk) == PrefetchChunk {
					keys := chunk
					g.Go(func() error { return load(keys) })
					chunk = make([]Key, 0, PrefetchChunk)
				}
			}
		}
	}
	if len(chunk) > 0 {
		g.Go(func() error { return load(chunk) })
	}
	_ = g.Wait()

	CounterPrefetched.Add(float64(added))
	c.log.Debugf("prefetched %d of %d keys", added, total)
	return int(added)
}

// Len is the number of cached entries, absences included.
func (c *Cache) Len() int {
	return c.entries.len()
}

// Clear empties the cache. Statistics are kept.
func (c *Cache) Clear() {
	c.entries.purge()
}

// Stats returns how many lookups were answered from the cache and how many
// went to the source.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *Cache) hit() {
	atomic.AddInt64(&c.hits, 1)
	CounterHits.Inc()
}

func (c *Cache) miss() {
	atomic.AddInt64(&c.misses, 1)
	CounterMisses.Inc()
}

// mapEntries is the unbounded store.
type mapEntries struct {
	mu sync.RWMutex
	m  map[Key]*covariate.Covariate
}

func (e *mapEntries) get(k Key) (*covariate.Covariate, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.m[k]
	return v, ok
}

func (e *mapEntries) contains(k Key) bool {
	_, ok := e.get(k)
	return ok
}

func (e *mapEntries) addNew(k Key, v *covariate.Covariate) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.m[k]; ok {
		return false
	}
	e.m[k] = v
	return true
}

func (e *mapEntries) len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.m)
}

func (e *mapEntries) purge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m = make(map[Key]*covariate.Covariate)
}

// lruEntries is the bounded store.
type lruEntries struct {
	l *lru.Cache[Key, *covariate.Covariate]
}

func (e *lruEntries) get(k Key) (*covariate.Covariate, bool) { return e.l.Get(k) }
func (e *lruEntries) contains(k Key) bool                    { return e.l.Contains(k) }
func (e *lruEntries) len() int                               { return e.l.Len() }
func (e *lruEntries) purge()                                 { e.l.Purge() }

func (e *lruEntries) addNew(k Key, v *covariate.Covariate) bool {
	present, _ := e.l.ContainsOrAdd(k, v)
	return !present
}
