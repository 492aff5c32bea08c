package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/download"
	"github.com/desertthunder/autospoty/internal/services"
	"github.com/desertthunder/autospoty/internal/shared"
	"github.com/desertthunder/autospoty/internal/tasks"
	"github.com/desertthunder/autospoty/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog and downloader are built lazily so commands that never touch Spotify or
// YouTube do not require credentials or yt-dlp.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	prompter   ui.Prompter
	getenv     func(string) string
	catalog    services.Catalog
	downloader tasks.Downloader
	session    *session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Prompter   ui.Prompter
	Getenv     func(string) string
	Catalog    services.Catalog // skips authentication when set
	Downloader tasks.Downloader // skips yt-dlp discovery when set
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = ui.NewTerminal()
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		prompter:   opts.Prompter,
		getenv:     opts.Getenv,
		catalog:    opts.Catalog,
		downloader: opts.Downloader,
	}
}

// Setup loads the .env file and the configuration before any command runs.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnvFile(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	config, err := shared.LoadConfigOrDefault(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	r.config = config

	if config.Log.File != "" {
		fileLogger, err := shared.NewFileLogger(config.Log.File)
		if err != nil {
			return ctx, err
		}
		r.SetLogger(fileLogger)
	}

	level := shared.ParseLogLevel(config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	r.logger.Debug("configuration loaded", "path", cmd.String("config"))
	return ctx, nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// connect returns the catalog, authenticating on first use.
func (r *Runner) connect(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	s, err := r.newSession()
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authenticate(ctx); err != nil {
		return nil, err
	}

	r.session = s
	r.catalog = s.service
	return r.catalog, nil
}

// downloads returns the download pipeline, discovering or installing yt-dlp on first use.
func (r *Runner) downloads(ctx context.Context) (tasks.Downloader, error) {
	if r.downloader != nil {
		return r.downloader, nil
	}

	cfg := r.config.Downloads
	matcher, err := download.MatcherFor(cfg.Matcher)
	if err != nil {
		return nil, err
	}

	ytdlp := download.NewYTDLP(cfg, r.logger)
	if err := ytdlp.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	opts := download.PipelineOpts{
		Searcher:      ytdlp,
		Fetcher:       ytdlp,
		Matcher:       matcher,
		SearchResults: cfg.SearchResults,
		Logger:        r.logger,
	}
	if cfg.Tag {
		opts.Tagger = download.ID3Tagger{}
	}

	r.downloader = download.NewPipeline(opts)
	return r.downloader, nil
}

func (r *Runner) engine(catalog services.Catalog, downloader tasks.Downloader) *tasks.Engine {
	return tasks.NewEngine(catalog, downloader, r.config.Downloads.Dir, r.logger)
}

// withProgress runs fn while printing its progress updates, and waits for the printer to drain.
func (r *Runner) withProgress(fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go ui.PrintProgress(r.output, progress, done)

	err := fn(progress)
	close(progress)
	<-done
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Heading(title))
	r.writePlain("═══════════════════════════════════════\n")
}
