package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/tasks"
)

// ProgressLine renders an engine update for the terminal.
func ProgressLine(u tasks.ProgressUpdate) string {
	if r, ok := u.Data.(models.DownloadResult); ok {
		if r.OK() {
			return Success(u.Message)
		}
		return Failure(u.Message)
	}
	switch u.Phase {
	case tasks.ResolvePlaylist, tasks.FetchPlaylists, tasks.FetchTracks:
		return Hint(u.Message)
	case tasks.WriteSnapshot:
		return Success(u.Message)
	}
	if strings.Contains(u.Message, "✗") {
		return Failure(u.Message)
	}
	return u.Message
}

// PrintProgress writes every update received on progress until it is closed, then closes done.
func PrintProgress(w io.Writer, progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		fmt.Fprintln(w, ProgressLine(u))
	}
}
