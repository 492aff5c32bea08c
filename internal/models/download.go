package models

// DownloadResult is the outcome of one download attempt.
//
// A nil Err means success: Title is the resolved title and Path the written file.
// Otherwise Err describes why the track was skipped.
type DownloadResult struct {
	Query string `json:"query"`
	Title string `json:"title,omitempty"`
	Path  string `json:"path,omitempty"`
	Err   error  `json:"-"`
}

// OK reports whether the download succeeded.
func (r DownloadResult) OK() bool { return r.Err == nil }

// Reason returns the failure description, or "" on success.
func (r DownloadResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
