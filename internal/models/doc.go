// Package models defines the entities exchanged with the Spotify Web API and the download pipeline.
//
// Catalog types are pass-through representations of the upstream JSON:
//   - [UserProfile] : the authenticated account
//   - [Playlist] : playlist metadata with a track count reference
//   - [TrackItem] : a [Track] plus the context it was fetched in (added or played at)
//   - [Page] : one page of a paged collection, consumed by the aggregator in services
//
// [EnrichedPlaylist] is the only derived entity: a [Playlist] whose "tracks" key carries the
// fully materialized item list, built explicitly before a snapshot is serialized.
//
// [DownloadResult] is the per-track outcome of the download pipeline.
package models
