// Package download turns track descriptions into local audio files.
//
// A [Pipeline] searches for a query with a [Searcher], picks one result with a [Matcher] and
// hands it to a [Fetcher], which downloads the best audio stream and transcodes it. [YTDLP] is
// the production Searcher and Fetcher, built on yt-dlp via go-ytdlp. Successful mp3 downloads
// can be tagged with ID3 frames by [ID3Tagger].
//
// Failures never escape the pipeline: every call returns a [models.DownloadResult] whose Err
// wraps [shared.ErrNoResults] or [shared.ErrDownloadFailed].
package download
