// package formatter renders catalog data as terminal tables and exports playlists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
)

// Export formats accepted by [WriteExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// playable drops items whose track could not be resolved.
func playable(items []models.TrackItem) []models.Track {
	return lo.FilterMap(items, func(item models.TrackItem, _ int) (models.Track, bool) {
		if item.Track == nil {
			return models.Track{}, false
		}
		return *item.Track, true
	})
}

// Artists joins the track's artist names with ", ".
func Artists(t models.Track) string {
	return strings.Join(t.ArtistNames(), ", ")
}

// FormatDuration renders milliseconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	secs := ms / 1000
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Visibility describes a playlist as Public or Private.
func Visibility(p models.Playlist) string {
	if p.IsPublic() {
		return "Public"
	}
	return "Private"
}

// ExportToCSV converts a playlist to CSV with columns: Position, ID, Title, Artists, Album, Duration, ISRC, Added
func ExportToCSV(p *models.EnrichedPlaylist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artists", "Album", "Duration", "ISRC", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range p.Tracks {
		if item.Track == nil {
			continue
		}
		track := item.Track
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			Artists(*track),
			track.Album.Name,
			FormatDuration(track.DurationMS),
			track.ExternalIDs.ISRC,
			item.AddedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown, optionally embedding a cover image.
func ExportToMarkdown(p *models.EnrichedPlaylist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	tracks := playable(p.Tracks)

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}

	fmt.Fprintf(&buf, "**Owner**: %s\n", p.Owner.DisplayName)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(tracks))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", Visibility(p.Playlist))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, Artists(track), track.Name, albumPart, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(p *models.EnrichedPlaylist) ([]byte, error) {
	var buf bytes.Buffer
	tracks := playable(p.Tracks)

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, Artists(track), track.Name)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// ExportResult lists the files written by an export.
type ExportResult struct {
	Format string
	Files  []string
}

// WriteExport writes p in format under dir, named after the sanitized playlist name.
func WriteExport(p *models.EnrichedPlaylist, format, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(dir, SanitizeFilename(p.Name))
	result := &ExportResult{Format: format}

	switch strings.ToLower(format) {
	case FormatCSV:
		files, err := WriteCSVExport(p, base)
		if err != nil {
			return nil, err
		}
		result.Files = files
	case FormatMarkdown, "md":
		var imageURL string
		if len(p.Images) > 0 {
			imageURL = p.Images[0].URL
		}
		files, err := WriteMarkdownExport(p, base, imageURL)
		if err != nil {
			return nil, err
		}
		result.Files = files
	case FormatText, "text":
		path, err := WriteTextExport(p, base+"_tracks.txt")
		if err != nil {
			return nil, err
		}
		result.Files = []string{path}
	case FormatJSON, "":
		path, err := WriteJSONExport(p, base+".json")
		if err != nil {
			return nil, err
		}
		result.Files = []string{path}
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (want one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}

	return result, nil
}

// WriteCSVExport writes {base}_tracks.csv and {base}_metadata.json.
func WriteCSVExport(p *models.EnrichedPlaylist, base string) ([]string, error) {
	csvData, err := ExportToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := base + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(p.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := base + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return []string{tracksFile, metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL downloads, {dir}/cover.jpg.
// A cover that cannot be fetched is left out.
func WriteMarkdownExport(p *models.EnrichedPlaylist, dir, imageURL string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	var coverImageFilename string
	if imageURL != "" {
		if imageData, err := DownloadImage(imageURL); err == nil {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				files = append(files, coverPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(p, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return append(files, mdFile), nil
}

// WriteTextExport writes the plain text export to path.
func WriteTextExport(p *models.EnrichedPlaylist, path string) (string, error) {
	textData, err := ExportToText(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the enriched playlist as indented JSON to path.
func WriteJSONExport(p *models.EnrichedPlaylist, path string) (string, error) {
	data, err := shared.MarshalJSON(p, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}
