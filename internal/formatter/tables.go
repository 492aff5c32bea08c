package formatter

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/desertthunder/autospoty/internal/models"
)

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// PlaylistTable writes one row per playlist: index, name, owner, track count, visibility.
func PlaylistTable(w io.Writer, playlists []models.Playlist) {
	table := newTable(w, "#", "Name", "Owner", "Tracks", "Visibility")
	for i, p := range playlists {
		table.Append([]string{
			strconv.Itoa(i + 1),
			Truncate(p.Name, 48),
			p.Owner.DisplayName,
			strconv.Itoa(p.TrackTotal()),
			Visibility(p),
		})
	}
	table.Render()
}

// TrackColumn selects the timestamp shown in the last column of a [TrackTable].
type TrackColumn int

const (
	AddedColumn TrackColumn = iota
	PlayedColumn
)

// TrackTable writes one row per item: index, title, artists, album and the added or played date.
// Unavailable tracks are listed with a placeholder so positions match the source.
func TrackTable(w io.Writer, items []models.TrackItem, col TrackColumn) {
	last := "Added"
	if col == PlayedColumn {
		last = "Played"
	}

	table := newTable(w, "#", "Title", "Artists", "Album", last)
	for i, item := range items {
		if item.Track == nil {
			table.Append([]string{strconv.Itoa(i + 1), "(unavailable)", "", "", ""})
			continue
		}

		when := item.AddedAt
		if col == PlayedColumn {
			when = item.PlayedAt
		}

		table.Append([]string{
			strconv.Itoa(i + 1),
			Truncate(item.Track.Name, 40),
			Truncate(Artists(*item.Track), 32),
			Truncate(item.Track.Album.Name, 32),
			shortDate(when),
		})
	}
	table.Render()
}

// shortDate keeps the date part of an RFC 3339 timestamp.
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// ProfileSummary writes the user's profile as aligned key/value lines.
func ProfileSummary(w io.Writer, u *models.UserProfile) {
	table := newTable(w)
	rows := [][]string{
		{"Name", u.Name()},
		{"ID", u.ID},
	}
	if u.Email != "" {
		rows = append(rows, []string{"Email", u.Email})
	}
	if u.Country != "" {
		rows = append(rows, []string{"Country", u.Country})
	}
	rows = append(rows,
		[]string{"Followers", strconv.Itoa(u.Followers.Total)},
		[]string{"Account", accountType(u.Product)},
	)
	table.AppendBulk(rows)
	table.Render()
}

func accountType(product string) string {
	if product == "" {
		return "unknown"
	}
	return strings.ToUpper(product[:1]) + product[1:]
}

// DownloadSummary writes per-track download outcomes followed by the totals.
func DownloadSummary(w io.Writer, results []models.DownloadResult) {
	table := newTable(w, "#", "Status", "Track", "Detail")
	ok := 0
	for i, r := range results {
		status, detail := "✗", r.Reason()
		if r.OK() {
			ok++
			status, detail = "✓", r.Path
		}
		table.Append([]string{strconv.Itoa(i + 1), status, Truncate(r.Query, 48), detail})
	}
	table.Render()
	fmt.Fprintf(w, "\n%d downloaded, %d failed\n", ok, len(results)-ok)
}

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename makes name safe to use as a single path element.
func SanitizeFilename(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	s = strings.Trim(strings.TrimSpace(s), ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	return Truncate(s, 120)
}
