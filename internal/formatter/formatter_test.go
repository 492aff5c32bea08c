package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
	th "github.com/desertthunder/autospoty/internal/testing"
)

func testPlaylist() *models.EnrichedPlaylist {
	public := true
	p := models.Playlist{
		ID:          "test123",
		Name:        "Test Playlist",
		Description: "A test playlist",
		Owner:       models.Owner{ID: "me", DisplayName: "Tester"},
		Public:      &public,
		Tracks:      models.TracksRef{Total: 3},
	}
	items := []models.TrackItem{
		{
			AddedAt: "2024-02-01T10:00:00Z",
			Track: &models.Track{
				ID:          "track1",
				Name:        "Song One",
				Artists:     []models.Artist{{Name: "Artist One"}, {Name: "Guest"}},
				Album:       models.Album{Name: "Album One"},
				DurationMS:  180000,
				ExternalIDs: models.ExternalIDs{ISRC: "USRC12345678"},
			},
		},
		{AddedAt: "2024-02-02T10:00:00Z", Track: nil},
		{
			AddedAt: "2024-02-03T10:00:00Z",
			Track: &models.Track{
				ID:         "track2",
				Name:       "Song Two",
				Artists:    []models.Artist{{Name: "Artist Two"}},
				DurationMS: 240000,
			},
		},
	}
	e := models.Enrich(p, items)
	return &e
}

func TestExporters(t *testing.T) {
	playlist := testPlaylist()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(playlist)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Position,ID,Title,Artists,Album,Duration,ISRC,Added") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,track1,Song One,"Artist One, Guest",Album One,3:00,USRC12345678,2024-02-01T10:00:00Z`) {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "3,track2,Song Two") {
			t.Errorf("CSV should keep the source position of track2, got: %s", output)
		}
		if lines := strings.Count(strings.TrimSpace(output), "\n"); lines != 2 {
			t.Errorf("expected header plus 2 rows, got %d line breaks", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(playlist, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Test Playlist",
				"**Description**: A test playlist",
				"**Owner**: Tester",
				"**Tracks**: 2",
				"**Visibility**: Public",
				"## Tracks",
				"1. Artist One, Guest - Song One (Album One) [3:00]",
				"2. Artist Two - Song Two [4:00]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not reference a cover")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ExportToMarkdown(playlist, "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(playlist)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Playlist: Test Playlist",
			"Description: A test playlist",
			"Tracks: 2",
			"1. Artist One, Guest - Song One",
			"2. Artist Two - Song Two",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q", want)
			}
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(playlist.Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["name"] != "Test Playlist" {
			t.Errorf("unexpected name %v", decoded["name"])
		}
		if _, ok := decoded["tracks"].(map[string]any); !ok {
			t.Errorf("metadata tracks should be the reference object, got %T", decoded["tracks"])
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("FormatDuration", func(t *testing.T) {
		tc := map[int]string{0: "0:00", 59000: "0:59", 180000: "3:00", 3725000: "1:02:05", -5: "0:00"}
		for ms, want := range tc {
			if got := FormatDuration(ms); got != want {
				t.Errorf("FormatDuration(%d) = %q, want %q", ms, got, want)
			}
		}
	})

	t.Run("SanitizeFilename", func(t *testing.T) {
		tc := []struct{ in, want string }{
			{in: "Road Trip", want: "Road Trip"},
			{in: "AC/DC: Best?", want: "AC_DC_ Best_"},
			{in: "  ..hidden..  ", want: "hidden"},
			{in: "", want: "untitled"},
			{in: "...", want: "untitled"},
			{in: "Café del Mar ☀", want: "Café del Mar ☀"},
		}
		for _, tt := range tc {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("Truncate", func(t *testing.T) {
		if got := Truncate("abcdef", 4); got != "abc…" {
			t.Errorf("unexpected %q", got)
		}
		if got := Truncate("abc", 4); got != "abc" {
			t.Errorf("unexpected %q", got)
		}
	})
}

func TestTables(t *testing.T) {
	playlist := testPlaylist()

	t.Run("PlaylistTable", func(t *testing.T) {
		var buf bytes.Buffer
		PlaylistTable(&buf, []models.Playlist{playlist.Playlist, {Name: "Private Mix", Owner: models.Owner{DisplayName: "Other"}}})

		output := buf.String()
		for _, want := range []string{"Name", "Owner", "Test Playlist", "Tester", "Public", "Private Mix", "Private"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("TrackTable added", func(t *testing.T) {
		var buf bytes.Buffer
		TrackTable(&buf, playlist.Tracks, AddedColumn)

		output := buf.String()
		for _, want := range []string{"Added", "Song One", "Artist One, Guest", "2024-02-01", "(unavailable)"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("TrackTable played", func(t *testing.T) {
		var buf bytes.Buffer
		items := []models.TrackItem{{PlayedAt: "2024-03-04T05:06:07Z", Track: &models.Track{Name: "Now"}}}
		TrackTable(&buf, items, PlayedColumn)

		if !strings.Contains(buf.String(), "Played") || !strings.Contains(buf.String(), "2024-03-04") {
			t.Errorf("unexpected table:\n%s", buf.String())
		}
	})

	t.Run("ProfileSummary", func(t *testing.T) {
		var buf bytes.Buffer
		ProfileSummary(&buf, &models.UserProfile{
			ID:          "user1",
			DisplayName: "Test User",
			Country:     "SE",
			Product:     "premium",
			Followers:   models.Followers{Total: 12},
		})

		output := buf.String()
		for _, want := range []string{"Test User", "SE", "12", "Premium"} {
			if !strings.Contains(output, want) {
				t.Errorf("summary missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Email") {
			t.Error("empty email should be omitted")
		}
	})

	t.Run("DownloadSummary", func(t *testing.T) {
		var buf bytes.Buffer
		DownloadSummary(&buf, []models.DownloadResult{
			{Query: "Song One Artist One", Title: "Song One", Path: "downloads/x/Song One.mp3"},
			{Query: "Missing", Err: errors.New("no results found")},
		})

		output := buf.String()
		if !strings.Contains(output, "1 downloaded, 1 failed") || !strings.Contains(output, "no results found") {
			t.Errorf("unexpected summary:\n%s", output)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer server.Close()

		data, err := DownloadImage(server.URL)
		if err != nil || string(data) != "jpegdata" {
			t.Errorf("DownloadImage() = %q, %v", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriteExport(t *testing.T) {
	playlist := testPlaylist()

	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		result, err := WriteExport(playlist, FormatJSON, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		path := filepath.Join(dir, "Test Playlist.json")
		if len(result.Files) != 1 || result.Files[0] != path {
			t.Fatalf("unexpected files %v", result.Files)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if tracks, ok := decoded["tracks"].([]any); !ok || len(tracks) != 3 {
			t.Errorf("expected 3 track items, got %v", decoded["tracks"])
		}
	})

	t.Run("csv", func(t *testing.T) {
		dir := t.TempDir()
		result, err := WriteExport(playlist, FormatCSV, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if len(result.Files) != 2 {
			t.Fatalf("expected 2 files, got %v", result.Files)
		}
		th.AssertFileExists(t, filepath.Join(dir, "Test Playlist_tracks.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "Test Playlist_metadata.json"))
	})

	t.Run("markdown", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := WriteExport(playlist, FormatMarkdown, dir); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertDirExists(t, filepath.Join(dir, "Test Playlist"))
		content := th.MustReadFile(t, filepath.Join(dir, "Test Playlist", "README.md"))
		if !strings.Contains(content, "# Test Playlist") {
			t.Errorf("unexpected README: %s", content)
		}
	})

	t.Run("txt", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := WriteExport(playlist, FormatText, dir); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, filepath.Join(dir, "Test Playlist_tracks.txt"))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := WriteExport(playlist, "xml", t.TempDir())
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
