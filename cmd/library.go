package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/formatter"
	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/services"
)

// Me shows the current user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	profile, err := catalog.UserProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}
	r.showProfile(profile)
	return nil
}

func (r *Runner) showProfile(profile *models.UserProfile) {
	r.writePlainHeader("Profile")
	formatter.ProfileSummary(r.output, profile)
}

// Playlists lists the current user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	playlists, err := catalog.UserPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	r.showPlaylists(playlists)
	return nil
}

func (r *Runner) showPlaylists(playlists []models.Playlist) {
	r.writePlain("Found %d playlists:\n\n", len(playlists))
	formatter.PlaylistTable(r.output, playlists)
}

// Tracks lists the items of one playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	playlist, err := catalog.Playlist(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	items, err := catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		enriched := models.Enrich(*playlist, items)
		return r.writeJSON(enriched, cmd.Bool("pretty"))
	}
	r.showTracks(playlist.Name, items, formatter.AddedColumn)
	return nil
}

func (r *Runner) showTracks(title string, items []models.TrackItem, col formatter.TrackColumn) {
	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", title, len(items)))
	formatter.TrackTable(r.output, items, col)
}

// Liked lists the user's saved tracks.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	items, err := catalog.LikedSongs(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	r.showTracks("Liked songs", items, formatter.AddedColumn)
	return nil
}

// Recent lists recently played tracks, newest first.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = services.DefaultRecentLimit
	}

	items, err := catalog.RecentlyPlayed(ctx, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	r.showTracks("Recently played", items, formatter.PlayedColumn)
	return nil
}
