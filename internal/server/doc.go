// Package server receives OAuth2 authorization redirects on a loopback address.
//
// [CallbackReceiver] binds the host and port of the configured redirect URI, opens the
// authorization URL in the browser and waits for Spotify to redirect back. [OAuthHandler]
// validates the state parameter, captures the code and answers with a small confirmation page.
// Only one callback is processed.
//
// If the redirect URI does not point at this machine, or the port is taken, the receiver falls
// back to asking the user to paste the URL the browser landed on.
//
// Handlers are mounted on a [BasicRouter], whose [Middleware] stack logs and recovers requests.
package server
