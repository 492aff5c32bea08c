package download

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
)

// DefaultSearchResults is how many candidates are requested per search.
const DefaultSearchResults = 5

// SearchResult is one candidate returned by a [Searcher].
type SearchResult struct {
	ID       string
	Title    string
	Channel  string
	URL      string
	Duration float64 // seconds, 0 when unknown
}

// Searcher finds up to n candidates for a free-text query, best first.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]SearchResult, error)
}

// Matcher picks one candidate. results is never empty.
type Matcher interface {
	Match(query string, results []SearchResult) SearchResult
}

// Fetcher downloads result into dir and returns the path of the written file.
type Fetcher interface {
	Fetch(ctx context.Context, result SearchResult, dir string) (string, error)
}

// Tagger writes track metadata into a downloaded file.
type Tagger interface {
	Tag(path string, track models.Track) error
}

// PipelineOpts configures a [Pipeline]. Searcher and Fetcher are required.
type PipelineOpts struct {
	Searcher      Searcher
	Fetcher       Fetcher
	Matcher       Matcher // defaults to [FirstResult]
	Tagger        Tagger  // optional
	SearchResults int
	Logger        *log.Logger
}

// Pipeline runs search, match and fetch for one track at a time.
type Pipeline struct {
	searcher Searcher
	matcher  Matcher
	fetcher  Fetcher
	tagger   Tagger
	results  int
	logger   *log.Logger
}

// NewPipeline creates a pipeline from opts.
func NewPipeline(opts PipelineOpts) *Pipeline {
	p := &Pipeline{
		searcher: opts.Searcher,
		matcher:  opts.Matcher,
		fetcher:  opts.Fetcher,
		tagger:   opts.Tagger,
		results:  opts.SearchResults,
		logger:   opts.Logger,
	}
	if p.matcher == nil {
		p.matcher = FirstResult{}
	}
	if p.results <= 0 {
		p.results = DefaultSearchResults
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// DownloadTrack searches for query and downloads the chosen result into outputDir,
// creating the directory if needed. It never panics and never returns an error directly.
func (p *Pipeline) DownloadTrack(ctx context.Context, query, outputDir string) (result models.DownloadResult) {
	result.Query = query

	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("download panicked", "query", query, "panic", v)
			result = models.DownloadResult{
				Query: query,
				Err:   fmt.Errorf("%w: %s: %v", shared.ErrDownloadFailed, query, v),
			}
		}
	}()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		result.Err = fmt.Errorf("%w: create %s: %w", shared.ErrDownloadFailed, outputDir, err)
		return result
	}

	if p.searcher == nil || p.fetcher == nil {
		result.Err = fmt.Errorf("%w: pipeline has no searcher or fetcher", shared.ErrDownloadFailed)
		return result
	}

	candidates, err := p.searcher.Search(ctx, query, p.results)
	if err != nil {
		result.Err = fmt.Errorf("%w: search %q: %w", shared.ErrDownloadFailed, query, err)
		return result
	}
	if len(candidates) == 0 {
		result.Err = fmt.Errorf("%w: no results found for %q", shared.ErrNoResults, query)
		return result
	}

	match := p.matcher.Match(query, candidates)
	p.logger.Debug("matched search result", "query", query, "title", match.Title, "url", match.URL)

	path, err := p.fetcher.Fetch(ctx, match, outputDir)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", shared.ErrDownloadFailed, match.Title, err)
		return result
	}

	result.Title = match.Title
	result.Path = path
	return result
}

// DownloadItem downloads track into outputDir and tags the file when a tagger is configured.
func (p *Pipeline) DownloadItem(ctx context.Context, track models.Track, outputDir string) models.DownloadResult {
	result := p.DownloadTrack(ctx, track.Query(), outputDir)
	if !result.OK() || p.tagger == nil {
		return result
	}

	if err := p.tagger.Tag(result.Path, track); err != nil {
		if errors.Is(err, ErrUntaggable) {
			p.logger.Debug("skipping tags", "path", result.Path)
		} else {
			p.logger.Warn("failed to tag download", "path", result.Path, "err", err)
		}
	}
	return result
}
