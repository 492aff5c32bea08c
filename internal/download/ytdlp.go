package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
	"github.com/tidwall/gjson"

	"github.com/desertthunder/autospoty/internal/shared"
)

// YTDLP searches YouTube and downloads audio through the yt-dlp executable.
// ffmpeg must be available for transcoding.
type YTDLP struct {
	executable  string
	audioFormat string
	bitrate     string
	autoInstall bool
	logger      *log.Logger
}

// NewYTDLP creates a backend from the downloads configuration.
func NewYTDLP(cfg shared.DownloadsConfig, logger *log.Logger) *YTDLP {
	if logger == nil {
		logger = log.Default()
	}

	y := &YTDLP{
		executable:  cfg.YTDLPPath,
		audioFormat: cfg.AudioFormat,
		bitrate:     cfg.Bitrate,
		autoInstall: cfg.AutoInstall,
		logger:      logger,
	}
	if y.audioFormat == "" {
		y.audioFormat = "mp3"
	}
	if y.bitrate == "" {
		y.bitrate = "192K"
	}
	return y
}

// Ensure installs yt-dlp when auto-install is enabled and no explicit executable is configured.
func (y *YTDLP) Ensure(ctx context.Context) error {
	if !y.autoInstall || y.executable != "" {
		return nil
	}

	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	y.logger.Debug("yt-dlp ready", "path", resolved.Executable, "version", resolved.Version)
	return nil
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Search runs a ytsearch query and returns the flat entries in ranking order.
func (y *YTDLP) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	if n <= 0 {
		n = DefaultSearchResults
	}

	res, err := y.command().
		FlatPlaylist().
		DumpSingleJSON().
		NoWarnings().
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", n, query))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}

	results := parseSearch(res.Stdout)
	y.logger.Debug("search finished", "query", query, "results", len(results))
	return results, nil
}

// parseSearch reads the entries of a flat-playlist JSON document.
func parseSearch(data string) []SearchResult {
	var results []SearchResult

	gjson.Get(data, "entries").ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("id").String()
		if id == "" {
			return true
		}

		url := entry.Get("url").String()
		if url == "" || !strings.HasPrefix(url, "http") {
			url = "https://www.youtube.com/watch?v=" + id
		}

		channel := entry.Get("channel").String()
		if channel == "" {
			channel = entry.Get("uploader").String()
		}

		results = append(results, SearchResult{
			ID:       id,
			Title:    entry.Get("title").String(),
			Channel:  channel,
			URL:      url,
			Duration: entry.Get("duration").Float(),
		})
		return true
	})

	return results
}

// Fetch downloads the best audio stream of result and transcodes it into dir, naming the file
// after the video title.
func (y *YTDLP) Fetch(ctx context.Context, result SearchResult, dir string) (string, error) {
	cmd := y.command().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(y.audioFormat).
		AudioQuality(y.bitrate).
		NoPlaylist().
		Output(filepath.Join(dir, "%(title)s.%(ext)s")).
		Print("after_move:filepath").
		NoSimulate()

	cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes > 0 {
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			y.logger.Debug("downloading", "title", result.Title, "percent", fmt.Sprintf("%.0f%%", percent))
		}
	})

	res, err := cmd.Run(ctx, result.URL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}

	if path := lastLine(res.Stdout); path != "" {
		return path, nil
	}
	return filepath.Join(dir, result.Title+"."+y.audioFormat), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
