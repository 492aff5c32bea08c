package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/autospoty/internal/formatter"
	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/services"
	"github.com/desertthunder/autospoty/internal/shared"
)

// Downloader fetches the audio of one track into dir. Implementations report failures in the
// result instead of returning errors.
type Downloader interface {
	DownloadItem(ctx context.Context, track models.Track, dir string) models.DownloadResult
}

// DownloadRunResult contains the outcome of downloading one playlist.
type DownloadRunResult struct {
	RunID        string
	Playlist     models.Playlist
	Directory    string
	Results      []models.DownloadResult // one per item, in playlist order
	SuccessCount int
	FailedCount  int
}

// Total is the number of items attempted.
func (r *DownloadRunResult) Total() int { return len(r.Results) }

// SnapshotResult summarizes a snapshot run.
type SnapshotResult struct {
	RunID     string
	Path      string
	Playlists int
	Tracks    int
	Failed    []string // names of playlists saved without their tracks
}

// PlaylistExportResult is the outcome of exporting a single playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Files        []string
	Err          error
}

// ExportRunResult contains the outcome of exporting several playlists.
type ExportRunResult struct {
	RunID        string
	Directory    string
	Results      []PlaylistExportResult
	SuccessCount int
	FailedCount  int
}

// Engine runs the multi-step operations of the CLI: playlist downloads, snapshots and exports.
type Engine struct {
	catalog      services.Catalog
	downloader   Downloader
	downloadsDir string
	logger       *log.Logger
}

// NewEngine creates an engine. downloader may be nil when downloads are not needed.
func NewEngine(catalog services.Catalog, downloader Downloader, downloadsDir string, logger *log.Logger) *Engine {
	if downloadsDir == "" {
		downloadsDir = "downloads"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		catalog:      catalog,
		downloader:   downloader,
		downloadsDir: downloadsDir,
		logger:       logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ResolvePlaylist finds one of the user's playlists by ID or name. Exact IDs win over exact
// names, which win over case-insensitive names.
func (e *Engine) ResolvePlaylist(ctx context.Context, ref string, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: playlist id or name", shared.ErrMissingArgument)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, resolvingUpdate(ref))

	playlists, err := e.catalog.UserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for _, match := range []func(models.Playlist) bool{
		func(p models.Playlist) bool { return p.ID == ref },
		func(p models.Playlist) bool { return p.Name == ref },
		func(p models.Playlist) bool { return strings.EqualFold(p.Name, ref) },
	} {
		for _, p := range playlists {
			if match(p) {
				return &p, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no playlist found with id or name %q", shared.ErrPlaylistNotFound, ref)
}

// PlaylistDir is where the tracks of playlist are downloaded.
func (e *Engine) PlaylistDir(playlist models.Playlist) string {
	return filepath.Join(e.downloadsDir, formatter.SanitizeFilename(playlist.Name))
}

// Download resolves ref, fetches its tracks and downloads them.
func (e *Engine) Download(ctx context.Context, ref string, progress chan<- ProgressUpdate) (*DownloadRunResult, error) {
	playlist, err := e.ResolvePlaylist(ctx, ref, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 1, *playlist))
	items, err := e.catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	return e.DownloadPlaylist(ctx, *playlist, items, progress)
}

// DownloadPlaylist downloads items one at a time into the playlist's directory.
//
// Per-track failures are recorded in the result and never stop the run. Cancelling ctx stops
// before the next track and returns the partial result with the context error.
func (e *Engine) DownloadPlaylist(ctx context.Context, playlist models.Playlist, items []models.TrackItem, progress chan<- ProgressUpdate) (*DownloadRunResult, error) {
	if e.downloader == nil {
		return nil, fmt.Errorf("%w: downloader not initialized", shared.ErrServiceUnavailable)
	}

	runID := shared.GenerateID()
	logger := shared.WithLogger(e.logger, "run", runID, "playlist", playlist.Name)

	dir := e.PlaylistDir(playlist)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", shared.ErrDownloadFailed, dir, err)
	}

	result := &DownloadRunResult{
		RunID:     runID,
		Playlist:  playlist,
		Directory: dir,
		Results:   make([]models.DownloadResult, 0, len(items)),
	}

	total := len(items)
	logger.Info("starting playlist download", "tracks", total, "dir", dir)
	e.sendProgress(progress, downloadStartUpdate(playlist, total, dir))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			logger.Warn("download cancelled", "done", i, "total", total)
			return result, err
		}

		var r models.DownloadResult
		if item.Track == nil {
			r = models.DownloadResult{
				Query: fmt.Sprintf("track #%d", i+1),
				Err:   fmt.Errorf("%w: track is unavailable", shared.ErrDownloadFailed),
			}
		} else {
			e.sendProgress(progress, downloadTrackUpdate(i+1, total, item.Track.Query()))
			r = e.downloader.DownloadItem(ctx, *item.Track, dir)
		}

		result.Results = append(result.Results, r)
		if r.OK() {
			result.SuccessCount++
			logger.Debug("downloaded", "title", r.Title, "path", r.Path)
		} else {
			result.FailedCount++
			logger.Warn("download failed", "query", r.Query, "err", r.Err)
		}
		e.sendProgress(progress, downloadResultUpdate(i+1, total, r))
	}

	logger.Info("playlist download finished", "ok", result.SuccessCount, "failed", result.FailedCount)
	return result, nil
}

// Snapshot writes every playlist, enriched with its items, to path as indented JSON.
//
// A playlist whose tracks cannot be fetched is saved with an empty track list and named in
// Failed. If the playlist list itself cannot be fetched nothing is written.
func (e *Engine) Snapshot(ctx context.Context, path string, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	result := &SnapshotResult{RunID: shared.GenerateID(), Path: path}
	logger := shared.WithLogger(e.logger, "run", result.RunID)

	e.sendProgress(progress, fetchingPlaylistsUpdate())
	playlists, err := e.catalog.UserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.EnrichedPlaylist, 0, len(playlists))
	for i, p := range playlists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), p))
		items, err := e.catalog.PlaylistTracks(ctx, p.ID)
		if err != nil {
			logger.Warn("saving playlist without tracks", "playlist", p.Name, "err", err)
			result.Failed = append(result.Failed, p.Name)
		}

		result.Tracks += len(items)
		enriched = append(enriched, models.Enrich(p, items))
	}
	result.Playlists = len(enriched)

	if err := writeJSONFile(path, enriched); err != nil {
		return nil, err
	}

	logger.Info("snapshot written", "path", path, "playlists", result.Playlists, "tracks", result.Tracks)
	e.sendProgress(progress, snapshotWrittenUpdate(path, result.Playlists))
	return result, nil
}

func writeJSONFile(path string, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Export writes each referenced playlist in format under dir. Failures are recorded per
// playlist; the returned error is non-nil only when every export failed.
func (e *Engine) Export(ctx context.Context, refs []string, format, dir string, progress chan<- ProgressUpdate) (*ExportRunResult, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist id or name", shared.ErrMissingArgument)
	}

	result := &ExportRunResult{
		RunID:     shared.GenerateID(),
		Directory: dir,
		Results:   make([]PlaylistExportResult, 0, len(refs)),
	}
	logger := shared.WithLogger(e.logger, "run", result.RunID)

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, exportingPlaylistUpdate(i+1, len(refs), ref))
		res := e.exportOne(ctx, ref, format, dir)
		result.Results = append(result.Results, res)

		if res.Err != nil {
			result.FailedCount++
			logger.Warn("export failed", "playlist", res.PlaylistName, "err", res.Err)
			e.sendProgress(progress, exportFailedUpdate(i+1, len(refs), res.PlaylistName, res.Err))
			continue
		}

		result.SuccessCount++
		e.sendProgress(progress, exportCompletedUpdate(i+1, len(refs), res.PlaylistName, len(res.Files)))
	}

	if result.SuccessCount == 0 {
		return result, errors.Join(exportErrors(result.Results)...)
	}
	return result, nil
}

func (e *Engine) exportOne(ctx context.Context, ref, format, dir string) PlaylistExportResult {
	res := PlaylistExportResult{PlaylistID: ref, PlaylistName: ref}

	playlist, err := e.ResolvePlaylist(ctx, ref, nil)
	if err != nil {
		res.Err = err
		return res
	}
	res.PlaylistID, res.PlaylistName = playlist.ID, playlist.Name

	items, err := e.catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		res.Err = err
		return res
	}

	enriched := models.Enrich(*playlist, items)
	written, err := formatter.WriteExport(&enriched, format, dir)
	if err != nil {
		res.Err = err
		return res
	}
	res.Files = written.Files
	return res
}

func exportErrors(results []PlaylistExportResult) []error {
	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
