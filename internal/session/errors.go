// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package session

import "errors"

var (
	// ErrNoSession is returned by operations that need a live session.
	ErrNoSession = errors.New("no active playback session")

	// ErrSuperseded is returned by Create when a newer Create or Clear ran
	// while this one was waiting on the catalog. Its result was discarded.
	ErrSuperseded = errors.New("session creation superseded")

	// ErrStartVideoUnknown is returned when the start video has to be added
	// to the queue but its metadata is neither supplied nor in the catalog.
	ErrStartVideoUnknown = errors.New("start video unknown")

	// ErrInvalidParams wraps validation failures of CreateParams.
	ErrInvalidParams = errors.New("invalid session parameters")
)
