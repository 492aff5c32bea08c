package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/autospoty/internal/shared"
)

// OAuthResult is the outcome of one authorization redirect.
type OAuthResult struct {
	Code string
	err  error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler captures the authorization code from an OAuth2 redirect.
//
// Only the first callback is processed; later ones are rejected.
type OAuthHandler struct {
	path        string
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler serving path that accepts only redirects carrying state.
func NewOAuthHandler(path, state string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		path:       path,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the redirect and publishes the code on the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	code, err := CodeFromQuery(r.URL.Query(), h.state)
	h.Send(OAuthResult{Code: code, err: err})

	if err != nil {
		http.Error(w, "Authorization failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel. It receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// CodeFromQuery extracts the authorization code from redirect query parameters.
func CodeFromQuery(q url.Values, state string) (string, error) {
	if q.Get("state") != state {
		return "", shared.ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		errParam := q.Get("error")
		if errParam == "" {
			errParam = "missing code"
		}
		if desc := q.Get("error_description"); desc != "" {
			errParam += " - " + desc
		}
		return "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)
	}
	return code, nil
}

// CodeFromRedirect extracts the authorization code from a full redirect URL pasted by the user.
func CodeFromRedirect(raw, state string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: not a URL: %w", shared.ErrInvalidArgument, err)
	}
	return CodeFromQuery(u.Query(), state)
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ autospoty is authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
