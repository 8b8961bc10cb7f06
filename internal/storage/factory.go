// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package storage

import "fmt"

// StoreType selects a KV backend.
type StoreType string

const (
	// StoreMemory keeps state in process memory only (lost on restart).
	StoreMemory StoreType = "memory"

	// StoreBadger persists state in a local BadgerDB directory.
	StoreBadger StoreType = "badger"
)

// Open creates the KV selected by storeType. path is only used by badger.
func Open(storeType StoreType, path string) (KV, error) {
	switch storeType {
	case StoreMemory, "":
		return NewMemoryKV(), nil
	case StoreBadger:
		kv, err := OpenBadgerKV(path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", storeType)
	}
}
