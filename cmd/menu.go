package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/formatter"
	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/services"
	"github.com/desertthunder/autospoty/internal/shared"
	"github.com/desertthunder/autospoty/internal/ui"
)

type menuAction int

const (
	actionProfile menuAction = iota
	actionPlaylists
	actionPlaylistTracks
	actionLiked
	actionRecent
	actionSnapshot
	actionDownload
	actionExit
)

var menuOptions = []string{
	actionProfile:        "Show profile",
	actionPlaylists:      "List playlists",
	actionPlaylistTracks: "Show playlist tracks",
	actionLiked:          "Show liked songs",
	actionRecent:         "Show recently played",
	actionSnapshot:       "Save playlists snapshot",
	actionDownload:       "Download playlist",
	actionExit:           "Exit",
}

// Menu runs the interactive loop until Exit or ctrl+c.
//
// Authentication failures end the session. Failed actions are reported and the menu is shown
// again.
func (r *Runner) Menu(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}
	r.greet(ctx, catalog)

	for {
		choice, err := r.prompter.Select("What would you like to do?", menuOptions)
		switch {
		case errors.Is(err, ui.ErrCancelled):
			continue
		case errors.Is(err, ui.ErrInterrupted):
			r.writePlainln("Bye!")
			return nil
		case err != nil:
			return err
		}

		action := menuAction(choice)
		if action == actionExit {
			r.writePlainln("Bye!")
			return nil
		}

		if err := r.dispatch(ctx, catalog, action); err != nil {
			if errors.Is(err, ui.ErrInterrupted) {
				r.writePlainln("Bye!")
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			if errors.Is(err, ui.ErrCancelled) {
				r.writePlain("%s\n", ui.Hint(err.Error()))
				continue
			}
			r.logger.Debug("menu action failed", "action", menuOptions[action], "err", err)
			r.writePlain("%s\n", ui.Failure(fmt.Sprintf("✗ %v", err)))
		}
	}
}

// greet prints who the session belongs to.
func (r *Runner) greet(ctx context.Context, catalog services.Catalog) {
	profile, err := catalog.UserProfile(ctx)
	if err != nil || profile == nil {
		r.logger.Warn("could not load profile", "err", err)
		r.writePlain("%s\n", ui.Success("✓ Connected to Spotify"))
		return
	}

	r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ Connected to Spotify as %s", profile.Name())))
	if r.session != nil {
		r.writePlain("%s\n", ui.Hint(fmt.Sprintf("client %s", r.session.creds.Masked())))
	}
}

func (r *Runner) dispatch(ctx context.Context, catalog services.Catalog, action menuAction) error {
	switch action {
	case actionProfile:
		profile, err := catalog.UserProfile(ctx)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("%w: empty profile", shared.ErrFetchFailed)
		}
		r.showProfile(profile)
	case actionPlaylists:
		playlists, err := catalog.UserPlaylists(ctx)
		if err != nil {
			return err
		}
		r.showPlaylists(playlists)
	case actionPlaylistTracks:
		playlist, err := r.pickPlaylist(ctx, catalog)
		if err != nil {
			return err
		}
		items, err := catalog.PlaylistTracks(ctx, playlist.ID)
		if err != nil {
			return err
		}
		r.showTracks(playlist.Name, items, formatter.AddedColumn)
	case actionLiked:
		items, err := catalog.LikedSongs(ctx)
		if err != nil {
			return err
		}
		r.showTracks("Liked songs", items, formatter.AddedColumn)
	case actionRecent:
		items, err := catalog.RecentlyPlayed(ctx, services.DefaultRecentLimit)
		if err != nil {
			return err
		}
		r.showTracks("Recently played", items, formatter.PlayedColumn)
	case actionSnapshot:
		return r.saveSnapshot(ctx, r.config.Snapshot.Path)
	case actionDownload:
		return r.menuDownload(ctx, catalog)
	}
	return nil
}

// pickPlaylist lets the user choose one of their playlists by name.
func (r *Runner) pickPlaylist(ctx context.Context, catalog services.Catalog) (*models.Playlist, error) {
	playlists, err := catalog.UserPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return nil, fmt.Errorf("%w: you have no playlists", ui.ErrCancelled)
	}

	names := make([]string, len(playlists))
	for i, p := range playlists {
		names[i] = fmt.Sprintf("%s (%d tracks)", p.Name, p.TrackTotal())
	}

	idx, err := r.prompter.Select("Choose a playlist", names)
	if err != nil {
		return nil, err
	}
	return &playlists[idx], nil
}

func (r *Runner) menuDownload(ctx context.Context, catalog services.Catalog) error {
	playlist, err := r.pickPlaylist(ctx, catalog)
	if err != nil {
		return err
	}

	items, err := catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return err
	}

	dir := r.engine(catalog, nil).PlaylistDir(*playlist)
	ok, err := r.prompter.Confirm(fmt.Sprintf("Download %d tracks into %s?", len(items), dir), true)
	if err != nil {
		return err
	}
	if !ok {
		r.writePlain("Download skipped.\n")
		return nil
	}

	return r.downloadPlaylist(ctx, *playlist, items)
}
