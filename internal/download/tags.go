package download

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/desertthunder/autospoty/internal/models"
)

// ErrUntaggable is returned for files ID3 tags do not apply to.
var ErrUntaggable = errors.New("file format does not carry ID3 tags")

// ID3Tagger writes title, artist, album, year and ISRC frames into mp3 files.
type ID3Tagger struct{}

func (ID3Tagger) Tag(path string, track models.Track) error {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return ErrUntaggable
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(track.Name)
	tag.SetArtist(strings.Join(track.ArtistNames(), ", "))
	tag.SetAlbum(track.Album.Name)
	if len(track.Album.ReleaseDate) >= 4 {
		tag.SetYear(track.Album.ReleaseDate[:4])
	}
	if isrc := track.ExternalIDs.ISRC; isrc != "" {
		tag.AddTextFrame(tag.CommonID("ISRC"), id3v2.EncodingUTF8, isrc)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags for %s: %w", path, err)
	}
	return nil
}
