// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package cache

import (
	"sync"
	"time"
)

// lruEntry is a node in the recency list.
type lruEntry struct {
	key       string
	addedAt   time.Time
	expiresAt time.Time
	prev      *lruEntry
	next      *lruEntry
}

// LRUCache is a thread-safe, capacity-bounded set of string keys ordered by
// recency, with lazy TTL expiration.
//
// head.next is the most recently added key and tail.prev the oldest. When the
// cache is full, Add evicts from the tail, so the cache always holds the
// most recent Capacity() keys.
type LRUCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*lruEntry
	head  *lruEntry
	tail  *lruEntry
}

// NewLRUCache creates a cache holding at most capacity keys, each living for ttl.
// A non-positive ttl disables expiration.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 100
	}

	c := &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*lruEntry, capacity),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Capacity returns the maximum number of keys retained.
func (c *LRUCache) Capacity() int {
	return c.capacity
}

// Contains reports whether key is present and unexpired. It does not refresh recency.
func (c *LRUCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return false
	}
	if c.expired(entry) {
		c.unlink(entry)
		return false
	}
	return true
}

// Add records key as the most recent entry, evicting the oldest keys past capacity.
// Re-adding an existing key moves it to the front and renews its TTL.
func (c *LRUCache) Add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addLocked(key)
}

// AddAll adds keys in order, so the last key ends up most recent.
func (c *LRUCache) AddAll(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		c.addLocked(k)
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRUCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		c.unlink(entry)
		return true
	}
	return false
}

// Keys returns the unexpired keys from oldest to newest.
func (c *LRUCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()
	keys := make([]string, 0, len(c.items))
	for e := c.tail.prev; e != c.head; e = e.prev {
		keys = append(keys, e.key)
	}
	return keys
}

// Len returns the number of stored keys, including expired ones not yet purged.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes every key.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes expired keys and returns how many were dropped.
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeExpiredLocked()
}

// Internal methods (must be called with lock held)

func (c *LRUCache) addLocked(key string) {
	now := c.now()
	if entry, ok := c.items[key]; ok {
		entry.addedAt = now
		entry.expiresAt = c.expiry(now)
		entry.prev.next = entry.next
		entry.next.prev = entry.prev
		c.pushFront(entry)
		return
	}

	entry := &lruEntry{key: key, addedAt: now, expiresAt: c.expiry(now)}
	c.pushFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		oldest := c.tail.prev
		if oldest == c.head {
			break
		}
		c.unlink(oldest)
	}
}

func (c *LRUCache) purgeExpiredLocked() int {
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if c.expired(e) {
			c.unlink(e)
			removed++
		}
		e = prev
	}
	return removed
}

func (c *LRUCache) expiry(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

func (c *LRUCache) expired(e *lruEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *LRUCache) pushFront(e *lruEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRUCache) unlink(e *lruEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}
