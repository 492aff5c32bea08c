package models

import (
	"strings"
)

// Image is an artwork or avatar resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Followers is the follower summary attached to a profile.
type Followers struct {
	Total int `json:"total"`
}

// UserProfile is the current user's profile from /me.
type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Country     string    `json:"country,omitempty"`
	Product     string    `json:"product,omitempty"` // premium, free, ...
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images,omitempty"`
	URI         string    `json:"uri,omitempty"`
}

// Name returns the display name, falling back to the user id.
func (u UserProfile) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// Artist is a simplified artist object.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// Album is a simplified album object.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Artists     []Artist `json:"artists,omitempty"`
	Images      []Image  `json:"images,omitempty"`
}

// ExternalIDs carries catalog identifiers such as the ISRC.
type ExternalIDs struct {
	ISRC string `json:"isrc,omitempty"`
}

// Track is a full track object.
type Track struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []Artist    `json:"artists"`
	Album       Album       `json:"album"`
	DurationMS  int         `json:"duration_ms"`
	Explicit    bool        `json:"explicit"`
	ExternalIDs ExternalIDs `json:"external_ids,omitempty"`
	IsLocal     bool        `json:"is_local,omitempty"`
	URI         string      `json:"uri,omitempty"`
}

// ArtistNames returns the artist names in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Query is the free-text search used to find the track's audio: the title followed by every artist.
func (t Track) Query() string {
	parts := append([]string{t.Name}, t.ArtistNames()...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// TrackItem wraps a track with the context it was fetched in.
//
// Track is nil for playlist entries Spotify cannot resolve (removed tracks, some local files).
type TrackItem struct {
	AddedAt  string `json:"added_at,omitempty"`
	PlayedAt string `json:"played_at,omitempty"`
	Track    *Track `json:"track"`
}

// Owner is the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TracksRef is the track count reference embedded in a simplified playlist.
type TracksRef struct {
	Href  string `json:"href,omitempty"`
	Total int    `json:"total"`
}

// Playlist is a simplified playlist object as returned by /me/playlists.
type Playlist struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Owner         Owner     `json:"owner"`
	Public        *bool     `json:"public"`
	Collaborative bool      `json:"collaborative"`
	SnapshotID    string    `json:"snapshot_id,omitempty"`
	Images        []Image   `json:"images,omitempty"`
	URI           string    `json:"uri,omitempty"`
	Tracks        TracksRef `json:"tracks"`
}

// TrackTotal is the number of tracks Spotify reports for the playlist.
func (p Playlist) TrackTotal() int { return p.Tracks.Total }

// IsPublic reports whether the playlist is public; an unknown visibility counts as private.
func (p Playlist) IsPublic() bool { return p.Public != nil && *p.Public }

// EnrichedPlaylist is a playlist whose "tracks" key holds the materialized items.
//
// The outer Tracks field shadows [Playlist.Tracks] during JSON encoding.
type EnrichedPlaylist struct {
	Playlist
	Tracks []TrackItem `json:"tracks"`
}

// Enrich pairs p with its items. p itself is left untouched.
func Enrich(p Playlist, items []TrackItem) EnrichedPlaylist {
	if items == nil {
		items = []TrackItem{}
	}
	return EnrichedPlaylist{Playlist: p, Tracks: items}
}

// Cursors are the before/after markers of cursor-paged endpoints.
type Cursors struct {
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
}

// Page is one page of a paged collection.
//
// Offset-paged endpoints fill Offset/Total; cursor-paged ones fill Cursors. Both set Next when
// more data is available.
type Page[T any] struct {
	Href     string   `json:"href"`
	Items    []T      `json:"items"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
	Total    int      `json:"total"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Cursors  *Cursors `json:"cursors,omitempty"`
}

// HasNext reports whether the page points at a following page.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}
