// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
)

// MockCatalog is a test double for [services.Catalog]. Errors mimic the real client: the
// returned collection is empty and the error wraps [shared.ErrFetchFailed].
type MockCatalog struct {
	Profile   *models.UserProfile
	Playlists []models.Playlist
	Tracks    map[string][]models.TrackItem
	Liked     []models.TrackItem
	Recent    []models.TrackItem

	ProfileErr   error
	PlaylistsErr error
	TracksErr    map[string]error
	LikedErr     error
	RecentErr    error

	mu    sync.Mutex
	Calls []string
}

func (m *MockCatalog) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func failed(err error) error {
	return fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	m.record("profile")
	if m.ProfileErr != nil {
		return nil, failed(m.ProfileErr)
	}
	return m.Profile, nil
}

func (m *MockCatalog) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.record("playlists")
	if m.PlaylistsErr != nil {
		return []models.Playlist{}, failed(m.PlaylistsErr)
	}
	return append([]models.Playlist{}, m.Playlists...), nil
}

func (m *MockCatalog) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	m.record("playlist:" + id)
	for _, p := range m.Playlists {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, failed(shared.ErrPlaylistNotFound)
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, id string) ([]models.TrackItem, error) {
	m.record("tracks:" + id)
	if err := m.TracksErr[id]; err != nil {
		return []models.TrackItem{}, failed(err)
	}
	return append([]models.TrackItem{}, m.Tracks[id]...), nil
}

func (m *MockCatalog) LikedSongs(ctx context.Context) ([]models.TrackItem, error) {
	m.record("liked")
	if m.LikedErr != nil {
		return []models.TrackItem{}, failed(m.LikedErr)
	}
	return append([]models.TrackItem{}, m.Liked...), nil
}

func (m *MockCatalog) RecentlyPlayed(ctx context.Context, limit int) ([]models.TrackItem, error) {
	m.record(fmt.Sprintf("recent:%d", limit))
	if m.RecentErr != nil {
		return []models.TrackItem{}, failed(m.RecentErr)
	}
	items := append([]models.TrackItem{}, m.Recent...)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ErrScriptExhausted is returned by [ScriptedPrompter] once it runs out of answers.
var ErrScriptExhausted = errors.New("scripted prompter has no more answers")

// Answer is one scripted reply. Select answers use Index; Confirm uses Yes; Input uses Text.
// A non-nil Err is returned instead.
type Answer struct {
	Index int
	Yes   bool
	Text  string
	Err   error
}

// ScriptedPrompter replays answers in order and records every prompt it was shown.
type ScriptedPrompter struct {
	Answers []Answer
	Prompts []string
	Options [][]string
}

func (s *ScriptedPrompter) next(prompt string) (Answer, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Answers) == 0 {
		return Answer{}, ErrScriptExhausted
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, a.Err
}

func (s *ScriptedPrompter) Select(title string, options []string) (int, error) {
	s.Options = append(s.Options, options)
	a, err := s.next(title)
	if err != nil {
		return -1, err
	}
	if a.Index < 0 || a.Index >= len(options) {
		return -1, fmt.Errorf("scripted index %d out of range for %q", a.Index, title)
	}
	return a.Index, nil
}

func (s *ScriptedPrompter) Confirm(message string, def bool) (bool, error) {
	a, err := s.next(message)
	return a.Yes, err
}

func (s *ScriptedPrompter) Input(message string) (string, error) {
	a, err := s.next(message)
	return a.Text, err
}

// FakeDownloader writes an empty file per track unless the track name is listed in Fail.
type FakeDownloader struct {
	Fail map[string]bool

	mu   sync.Mutex
	Seen []string
}

func (f *FakeDownloader) DownloadItem(ctx context.Context, track models.Track, dir string) models.DownloadResult {
	f.mu.Lock()
	f.Seen = append(f.Seen, track.Name)
	f.mu.Unlock()

	result := models.DownloadResult{Query: track.Query()}
	if f.Fail[track.Name] {
		result.Err = fmt.Errorf("%w: no results found for %q", shared.ErrNoResults, result.Query)
		return result
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Err = err
		return result
	}

	result.Title = track.Name
	result.Path = dir + string(os.PathSeparator) + track.Name + ".mp3"
	if err := os.WriteFile(result.Path, nil, 0o644); err != nil {
		result.Err = err
	}
	return result
}

// Track builds a track item with one artist.
func Track(id, name, artist string) models.TrackItem {
	return models.TrackItem{
		AddedAt: "2024-01-01T00:00:00Z",
		Track:   &models.Track{ID: id, Name: name, Artists: []models.Artist{{Name: artist}}},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
