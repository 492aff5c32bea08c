package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/formatter"
	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
	"github.com/desertthunder/autospoty/internal/tasks"
	"github.com/desertthunder/autospoty/internal/ui"
)

// Snapshot saves every playlist with its tracks as one JSON file.
func (r *Runner) Snapshot(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.config.Snapshot.Path
	}
	return r.saveSnapshot(ctx, path)
}

func (r *Runner) saveSnapshot(ctx context.Context, path string) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	var result *tasks.SnapshotResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = r.engine(catalog, nil).Snapshot(ctx, path, progress)
		return err
	})
	if err != nil {
		return err
	}

	if len(result.Failed) > 0 {
		r.writePlain("%s\n", ui.Warning(fmt.Sprintf("Saved without tracks: %s", strings.Join(result.Failed, ", "))))
	}
	return nil
}

// Download fetches the audio of every track in a playlist chosen by --id or --name.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.String("id")
	if ref == "" {
		ref = cmd.String("name")
	}
	if ref == "" {
		return fmt.Errorf("%w: --id or --name", shared.ErrMissingArgument)
	}
	if dir := cmd.String("dir"); dir != "" {
		r.config.Downloads.Dir = dir
	}

	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.engine(catalog, nil).ResolvePlaylist(ctx, ref, nil)
	if err != nil {
		return err
	}

	items, err := catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return err
	}

	return r.downloadPlaylist(ctx, *playlist, items)
}

func (r *Runner) downloadPlaylist(ctx context.Context, playlist models.Playlist, items []models.TrackItem) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	downloader, err := r.downloads(ctx)
	if err != nil {
		return err
	}

	var result *tasks.DownloadRunResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = r.engine(catalog, downloader).DownloadPlaylist(ctx, playlist, items, progress)
		return err
	})
	if result != nil {
		r.writePlainln("Downloads for %s", ui.Heading(playlist.Name))
		formatter.DownloadSummary(r.output, result.Results)
	}
	return err
}

// Export writes the selected playlists in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.connect(ctx)
	if err != nil {
		return err
	}

	refs := cmd.StringSlice("id")
	format := cmd.String("format")
	dir := cmd.String("dir")

	var result *tasks.ExportRunResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = r.engine(catalog, nil).Export(ctx, refs, format, dir, progress)
		return err
	})
	if result != nil {
		r.writePlainln("Exported %d playlists to %s (%d failed)", result.SuccessCount, result.Directory, result.FailedCount)
		for _, res := range result.Results {
			for _, f := range res.Files {
				r.writePlain("  %s\n", f)
			}
		}
	}
	return err
}

// ConfigInit writes the default configuration file.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("✓ Wrote %s\n", path)
}
