// Package tasks runs the multi-step library operations with real-time progress reporting.
//
// # Core Operations
//
// [Engine] exposes three operations built on a [services.Catalog]:
//
//  1. [Engine.Download] : resolve a playlist by ID or name and download its tracks
//     - Tracks are processed one at a time, in playlist order
//     - Each track yields a [models.DownloadResult]; failures never stop the run
//     - Files land in a directory named after the sanitized playlist name
//
//  2. [Engine.Snapshot] : save every playlist and its items as one JSON document
//
//  3. [Engine.Export] : write selected playlists as JSON, CSV, Markdown or plain text
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. A nil channel disables
// reporting, and a full channel drops the update rather than stalling the operation.
package tasks
