// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package api serves the local HTTP API a UI layer uses to drive the playback
session.

# Routes

	GET    /health                          dependency checks
	GET    /metrics                         Prometheus exposition
	GET    /api/v1/session                  live session, current video, queue state
	POST   /api/v1/session                  create (replaces any live session)
	DELETE /api/v1/session                  clear
	POST   /api/v1/session/next             advance; null video when exhausted
	POST   /api/v1/session/previous         step back through history
	POST   /api/v1/session/skip/{id}        jump to a queued video
	POST   /api/v1/session/refill           extend an exhausted algorithmic queue
	POST   /api/v1/session/queue            add {video, play_next}
	DELETE /api/v1/session/queue/{id}       remove
	POST   /api/v1/session/queue/reorder    move {from, to}
	GET    /api/v1/session/upnext?count=N   preview upcoming videos
	PUT    /api/v1/session/settings         {autoplay, shuffle, repeat}
	PUT    /api/v1/session/position         {position_ms}
	GET    /api/v1/session/events           server-sent session events

Every JSON reply uses the Response envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
	{"status":"error","error":{"code":"NO_SESSION","message":"..."},"metadata":{...}}

Navigation past the end of the queue and unknown skip or remove targets are
not errors: they answer 200 with a null video or "changed": false.

# Middleware

Request ids (X-Request-ID), chi RealIP and Recoverer, go-chi/cors, and
go-chi/httprate on the session routes. JSON session replies are gzip
compressed when the client accepts it; the event stream is not. Session
routes are counted in upnext_api_requests_total by chi route pattern.
*/
package api
