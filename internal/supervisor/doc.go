// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package supervisor runs the daemon's long-lived services under a suture v4
supervisor tree.

The tree has three layers, each its own child supervisor so that a crash in
one is restarted without touching the others:

	upnext
	├── data-layer       storage garbage collection
	├── messaging-layer  session event log
	└── api-layer        HTTP server

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog using the process zerolog logger wrapped as slog.

Service wrappers live in the services subpackage.
*/
package supervisor
