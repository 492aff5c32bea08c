package services

import (
	"context"

	"github.com/desertthunder/autospoty/internal/models"
)

// Catalog is the read-only view of a user's Spotify library.
//
// Collection operations never return a nil slice. When a fetch fails the partial result is
// discarded, an empty slice is returned and the error wraps [shared.ErrFetchFailed].
type Catalog interface {
	// UserProfile returns the authenticated user's profile.
	UserProfile(ctx context.Context) (*models.UserProfile, error)

	// UserPlaylists returns every playlist the user owns or follows.
	UserPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Playlist returns a single playlist's metadata.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// PlaylistTracks returns every item of the playlist in playlist order.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackItem, error)

	// LikedSongs returns the user's saved tracks, most recently saved first.
	LikedSongs(ctx context.Context) ([]models.TrackItem, error)

	// RecentlyPlayed returns up to limit recently played items, most recent first.
	// A non-positive limit means [DefaultRecentLimit].
	RecentlyPlayed(ctx context.Context, limit int) ([]models.TrackItem, error)

	// Name returns the name of the service
	Name() string
}

// DefaultRecentLimit is the number of recently played items fetched when no limit is given.
const DefaultRecentLimit = 20
