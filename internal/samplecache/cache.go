// Package samplecache implements the process-wide PCM sample cache: a
// mapping from source-path key to owned float sample buffer, guarded by a
// sync.RWMutex with single-writer/many-reader semantics, and an optional LRU
// eviction bound on total bytes held.
package samplecache

import (
	"container/list"
	"sync"
)

// PcmBuffer is an ordered sequence of normalized mono float samples at a
// known sample rate.
type PcmBuffer struct {
	Samples    []float32
	SampleRate int
}

// Bytes reports the buffer's retained size, used for the optional LRU cap.
func (b PcmBuffer) Bytes() int64 {
	return int64(len(b.Samples)) * 4
}

type entry struct {
	key  string
	buf  PcmBuffer
	elem *list.Element
}

// Cache is the process-wide SamplesKey -> PcmBuffer store. The zero value is
// unusable; construct with New.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    *list.List // front = most recently used
	maxBytes int64
	curBytes int64
}

// New returns an empty cache. maxBytes <= 0 means unbounded (no eviction).
func New(maxBytes int64) *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		order:    list.New(),
		maxBytes: maxBytes,
	}
}

// Insert replaces any prior value for key with buf.
func (c *Cache) Insert(key string, buf PcmBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.order.Remove(old.elem)
		c.curBytes -= old.buf.Bytes()
	}

	e := &entry{key: key, buf: buf}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
	c.curBytes += buf.Bytes()

	c.evictIfNeeded()
}

// Get returns a borrowed copy of the buffer stored under key, and whether it
// was present. A miss is the caller's signal to fall back to a
// caller-supplied buffer (the "cache invalidated" path the silence detector
// requires).
func (c *Cache) Get(key string) (PcmBuffer, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	var buf PcmBuffer
	if ok {
		buf = e.buf
	}
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		if e, stillThere := c.entries[key]; stillThere {
			c.order.MoveToFront(e.elem)
		}
		c.mu.Unlock()
	}

	return buf, ok
}

// evictIfNeeded drops least-recently-used entries until curBytes fits within
// maxBytes. Must be called with mu held for writing. No-op when maxBytes is
// unbounded.
func (c *Cache) evictIfNeeded() {
	if c.maxBytes <= 0 {
		return
	}
	for c.curBytes > c.maxBytes {
		back := c.order.Back()
		if back == nil {
			return
		}
		victim := back.Value.(*entry)
		c.order.Remove(back)
		delete(c.entries, victim.key)
		c.curBytes -= victim.buf.Bytes()
	}
}
