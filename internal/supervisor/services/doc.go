// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package services adapts upnext components to suture's Serve(ctx) error
lifecycle.

  - HTTPServerService: ListenAndServe plus graceful Shutdown
  - StorageGCService: periodic storage.Collector passes
  - EventLogService: subscribes to session events and logs them

Each wrapper implements fmt.Stringer so supervisor log lines name it.
*/
package services
