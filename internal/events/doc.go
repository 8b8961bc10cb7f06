// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

// Package events publishes session change events on an in-process
// watermill GoChannel so UI layers can follow the live session without
// polling. Payloads are JSON-encoded session.Event values.
package events
