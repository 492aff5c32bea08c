package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
)

type fakeSearcher struct {
	results []SearchResult
	err     error
	queries []string
	n       int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	f.queries = append(f.queries, query)
	f.n = n
	return f.results, f.err
}

// fileFetcher writes an empty file named after the result title.
type fileFetcher struct {
	err     error
	panics  bool
	fetched []SearchResult
}

func (f *fileFetcher) Fetch(ctx context.Context, result SearchResult, dir string) (string, error) {
	if f.panics {
		panic("fetcher exploded")
	}
	f.fetched = append(f.fetched, result)
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(dir, result.Title+".mp3")
	return path, os.WriteFile(path, nil, 0o644)
}

type recordingTagger struct {
	paths []string
	err   error
}

func (r *recordingTagger) Tag(path string, track models.Track) error {
	r.paths = append(r.paths, path)
	return r.err
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	return len(entries)
}

func TestPipeline(t *testing.T) {
	logger := log.New(io.Discard)
	found := []SearchResult{
		{ID: "a", Title: "Song A", URL: "https://www.youtube.com/watch?v=a"},
		{ID: "b", Title: "Song B", URL: "https://www.youtube.com/watch?v=b"},
	}

	t.Run("no results creates no file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		fetcher := &fileFetcher{}
		p := NewPipeline(PipelineOpts{Searcher: &fakeSearcher{}, Fetcher: fetcher, Logger: logger})

		result := p.DownloadTrack(context.Background(), "nothing matches", dir)
		if result.OK() || !errors.Is(result.Err, shared.ErrNoResults) {
			t.Errorf("expected ErrNoResults, got %v", result.Err)
		}
		if len(fetcher.fetched) != 0 {
			t.Error("fetcher should not run without results")
		}
		if n := countFiles(t, dir); n != 0 {
			t.Errorf("expected empty directory, got %d files", n)
		}
	})

	t.Run("success writes one file named after the title", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		searcher := &fakeSearcher{results: found}
		p := NewPipeline(PipelineOpts{Searcher: searcher, Fetcher: &fileFetcher{}, Logger: logger})

		result := p.DownloadTrack(context.Background(), "song a artist", dir)
		if !result.OK() {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.Title != "Song A" || result.Query != "song a artist" {
			t.Errorf("unexpected result %+v", result)
		}
		if filepath.Base(result.Path) != "Song A.mp3" {
			t.Errorf("unexpected path %s", result.Path)
		}
		if n := countFiles(t, dir); n != 1 {
			t.Errorf("expected 1 file, got %d", n)
		}
		if searcher.n != DefaultSearchResults {
			t.Errorf("expected %d candidates requested, got %d", DefaultSearchResults, searcher.n)
		}
	})

	t.Run("existing directory is reused", func(t *testing.T) {
		dir := t.TempDir()
		p := NewPipeline(PipelineOpts{Searcher: &fakeSearcher{results: found}, Fetcher: &fileFetcher{}, Logger: logger})

		for range 2 {
			if result := p.DownloadTrack(context.Background(), "q", dir); !result.OK() {
				t.Fatalf("expected success, got %v", result.Err)
			}
		}
		if n := countFiles(t, dir); n != 1 {
			t.Errorf("expected 1 file, got %d", n)
		}
	})

	t.Run("search error", func(t *testing.T) {
		p := NewPipeline(PipelineOpts{
			Searcher: &fakeSearcher{err: errors.New("network down")},
			Fetcher:  &fileFetcher{},
			Logger:   logger,
		})
		result := p.DownloadTrack(context.Background(), "q", t.TempDir())
		if !errors.Is(result.Err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", result.Err)
		}
	})

	t.Run("fetch error", func(t *testing.T) {
		p := NewPipeline(PipelineOpts{
			Searcher: &fakeSearcher{results: found},
			Fetcher:  &fileFetcher{err: errors.New("ffmpeg missing")},
			Logger:   logger,
		})
		result := p.DownloadTrack(context.Background(), "q", t.TempDir())
		if !errors.Is(result.Err, shared.ErrDownloadFailed) || result.Reason() == "" {
			t.Errorf("expected ErrDownloadFailed, got %v", result.Err)
		}
	})

	t.Run("panic is contained", func(t *testing.T) {
		p := NewPipeline(PipelineOpts{
			Searcher: &fakeSearcher{results: found},
			Fetcher:  &fileFetcher{panics: true},
			Logger:   logger,
		})
		result := p.DownloadTrack(context.Background(), "q", t.TempDir())
		if !errors.Is(result.Err, shared.ErrDownloadFailed) || result.Query != "q" {
			t.Errorf("expected contained failure, got %+v", result)
		}
	})

	t.Run("matcher chooses the candidate", func(t *testing.T) {
		fetcher := &fileFetcher{}
		p := NewPipeline(PipelineOpts{
			Searcher: &fakeSearcher{results: found},
			Fetcher:  fetcher,
			Matcher:  lastMatcher{},
			Logger:   logger,
		})
		result := p.DownloadTrack(context.Background(), "q", t.TempDir())
		if result.Title != "Song B" || fetcher.fetched[0].ID != "b" {
			t.Errorf("expected Song B, got %+v", result)
		}
	})

	t.Run("DownloadItem builds the query and tags", func(t *testing.T) {
		searcher := &fakeSearcher{results: found}
		tagger := &recordingTagger{err: errors.New("tag failure is not fatal")}
		p := NewPipeline(PipelineOpts{Searcher: searcher, Fetcher: &fileFetcher{}, Tagger: tagger, Logger: logger})

		track := models.Track{Name: "Song A", Artists: []models.Artist{{Name: "Artist"}}}
		result := p.DownloadItem(context.Background(), track, t.TempDir())
		if !result.OK() {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if searcher.queries[0] != "Song A Artist" {
			t.Errorf("unexpected query %q", searcher.queries[0])
		}
		if len(tagger.paths) != 1 || tagger.paths[0] != result.Path {
			t.Errorf("expected tagger to run on %s, got %v", result.Path, tagger.paths)
		}
	})

	t.Run("failed downloads are not tagged", func(t *testing.T) {
		tagger := &recordingTagger{}
		p := NewPipeline(PipelineOpts{Searcher: &fakeSearcher{}, Fetcher: &fileFetcher{}, Tagger: tagger, Logger: logger})
		p.DownloadItem(context.Background(), models.Track{Name: "x"}, t.TempDir())
		if len(tagger.paths) != 0 {
			t.Error("tagger should not run on failures")
		}
	})
}

type lastMatcher struct{}

func (lastMatcher) Match(_ string, results []SearchResult) SearchResult {
	return results[len(results)-1]
}

func TestMatchers(t *testing.T) {
	results := []SearchResult{
		{ID: "1", Title: "Daft Punk - One More Time (Live)", Channel: "Fan Uploads"},
		{ID: "2", Title: "One More Time", Channel: "Daft Punk"},
		{ID: "3", Title: "Unrelated", Channel: "Someone"},
	}

	t.Run("first result", func(t *testing.T) {
		if got := (FirstResult{}).Match("anything", results); got.ID != "1" {
			t.Errorf("expected first, got %s", got.ID)
		}
	})

	t.Run("scored prefers studio version", func(t *testing.T) {
		if got := (ScoredMatcher{}).Match("One More Time Daft Punk", results); got.ID != "2" {
			t.Errorf("expected 2, got %s", got.ID)
		}
	})

	t.Run("scored keeps live when asked", func(t *testing.T) {
		if got := (ScoredMatcher{}).Match("One More Time Daft Punk live", results); got.ID != "1" {
			t.Errorf("expected 1, got %s", got.ID)
		}
	})

	t.Run("scored ties keep search order", func(t *testing.T) {
		tied := []SearchResult{{ID: "x", Title: "abc"}, {ID: "y", Title: "abc"}}
		if got := (ScoredMatcher{}).Match("abc", tied); got.ID != "x" {
			t.Errorf("expected x, got %s", got.ID)
		}
	})

	t.Run("MatcherFor", func(t *testing.T) {
		tc := []struct {
			name    string
			want    Matcher
			wantErr bool
		}{
			{name: "", want: FirstResult{}},
			{name: "first", want: FirstResult{}},
			{name: "Scored", want: ScoredMatcher{}},
			{name: "fuzzy", wantErr: true},
		}
		for _, tt := range tc {
			got, err := MatcherFor(tt.name)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("MatcherFor(%q): expected ErrInvalidConfig, got %v", tt.name, err)
				}
				continue
			}
			if err != nil || got != tt.want {
				t.Errorf("MatcherFor(%q) = %T, %v", tt.name, got, err)
			}
		}
	})
}

func TestParseSearch(t *testing.T) {
	data := `{
		"_type": "playlist",
		"entries": [
			{"id": "abc123", "title": "Song One", "channel": "Artist", "url": "https://www.youtube.com/watch?v=abc123", "duration": 215.0},
			{"id": "def456", "title": "Song Two", "uploader": "Uploader"},
			{"title": "No ID"}
		]
	}`

	results := parseSearch(data)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Duration != 215 || results[0].Channel != "Artist" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].URL != "https://www.youtube.com/watch?v=def456" || results[1].Channel != "Uploader" {
		t.Errorf("unexpected second result %+v", results[1])
	}

	if got := parseSearch(`{"entries": []}`); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
	if got := parseSearch(`not json`); len(got) != 0 {
		t.Errorf("expected no results for garbage, got %d", len(got))
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("[info] something\n/tmp/out/Song.mp3\n"); got != "/tmp/out/Song.mp3" {
		t.Errorf("unexpected last line %q", got)
	}
	if got := lastLine(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestID3Tagger(t *testing.T) {
	t.Run("writes frames", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "song.mp3")
		if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
			t.Fatal(err)
		}

		track := models.Track{
			Name:        "Song",
			Artists:     []models.Artist{{Name: "A"}, {Name: "B"}},
			Album:       models.Album{Name: "Album", ReleaseDate: "2001-03-12"},
			ExternalIDs: models.ExternalIDs{ISRC: "USABC0100001"},
		}
		if err := (ID3Tagger{}).Tag(path, track); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer tag.Close()

		if tag.Title() != "Song" || tag.Artist() != "A, B" || tag.Album() != "Album" || tag.Year() != "2001" {
			t.Errorf("unexpected tags: %q %q %q %q", tag.Title(), tag.Artist(), tag.Album(), tag.Year())
		}
	})

	t.Run("skips other formats", func(t *testing.T) {
		if err := (ID3Tagger{}).Tag("song.m4a", models.Track{}); !errors.Is(err, ErrUntaggable) {
			t.Errorf("expected ErrUntaggable, got %v", err)
		}
	})
}
