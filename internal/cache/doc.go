// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package cache provides the bounded recency structure behind the seen-id tracker.

LRUCache keeps the most recent N keys in O(1) per operation using a hashmap
over a doubly-linked list. Keys optionally expire after a TTL, checked lazily
on read and purged in bulk by Keys and CleanupExpired.

# Usage

	seen := cache.NewLRUCache(100, 12*time.Hour)
	seen.AddAll([]string{"v1", "v2"})
	if seen.Contains("v1") {
	    // already surfaced this session
	}
	ids := seen.Keys() // oldest first, ready to persist

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
