// Package services implements the Spotify side of autospoty: authorization, token caching and
// the read-only [Catalog].
//
// # Authorization
//
// [SpotifyService] wraps an [oauth2.Config] for the authorization-code flow. [Authenticator]
// drives the flow end to end: it reuses a token from [TokenCache] when one exists, otherwise it
// asks a [CodeReceiver] for a fresh authorization code and exchanges it. Tokens refreshed later
// by the oauth2 transport are written back to the cache through the refresh callback.
//
// # Paging
//
// Spotify exposes two paging styles. Offset-paged collections (playlists, liked songs) are
// materialized with [CollectOffset]; cursor-paged ones (playlist items, recently played) with
// [CollectCursor]. Both return items in server order.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token has been set
//   - [shared.ErrTokenExpired] : the API rejected the token
//   - [shared.ErrAPIRequest] : non-2xx response
//   - [shared.ErrFetchFailed] : a catalog operation gave up; its result is empty
//
// Requests are paced by a token-bucket limiter and 429 responses are retried after the
// Retry-After delay.
package services
