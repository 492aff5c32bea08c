package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autospoty/internal/models"
	"github.com/desertthunder/autospoty/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	maxPageSize       = 50
	maxTracksPageSize = 100
)

// DefaultScopes are requested when the configuration names none.
var DefaultScopes = []string{
	"user-read-recently-played",
	"user-library-read",
	"playlist-read-private",
}

// SpotifyOpts configures a [SpotifyService].
//
// Zero values fall back to Spotify's production endpoints and the default catalog settings.
type SpotifyOpts struct {
	Credentials shared.Credentials
	Scopes      []string
	ShowDialog  bool
	Catalog     shared.CatalogConfig

	// HTTPClient is the base client used for token exchange and, wrapped by oauth2, for API calls.
	HTTPClient *http.Client
	Logger     *log.Logger

	BaseURL  string
	AuthURL  string
	TokenURL string
}

// SpotifyService implements [Catalog] against the Spotify Web API.
// Uses [oauth2] for authentication; refreshed tokens are reported through the refresh callback.
type SpotifyService struct {
	config     *oauth2.Config
	showDialog bool

	mu         sync.RWMutex
	token      *oauth2.Token
	httpClient *http.Client
	baseClient *http.Client

	baseURL        string
	pageSize       int
	tracksPageSize int
	maxRetries     int
	limiter        *rate.Limiter
	logger         *log.Logger
	onTokenRefresh func(*oauth2.Token)
	wait           func(ctx context.Context, d time.Duration) error
}

// NewSpotifyService creates a new Spotify service from the application credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	creds := opts.Credentials
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RedirectURI == "" {
		return nil, fmt.Errorf("%w: client id, client secret and redirect uri are required", shared.ErrMissingCredentials)
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL, tokenURL, baseURL := spotifyAuthURL, spotifyTokenURL, spotifyBaseURL
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}
	if opts.TokenURL != "" {
		tokenURL = opts.TokenURL
	}
	if opts.BaseURL != "" {
		baseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}

	baseClient := opts.HTTPClient
	if baseClient == nil {
		baseClient = &http.Client{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	catalog := opts.Catalog
	pageSize := clamp(catalog.PageSize, maxPageSize)
	tracksPageSize := clamp(catalog.PlaylistTracksPageSize, maxTracksPageSize)

	limit := rate.Inf
	if catalog.RequestsPerSecond > 0 {
		limit = rate.Limit(catalog.RequestsPerSecond)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		showDialog:     opts.ShowDialog,
		baseClient:     baseClient,
		baseURL:        baseURL,
		pageSize:       pageSize,
		tracksPageSize: tracksPageSize,
		maxRetries:     max(catalog.MaxRetries, 0),
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger,
		wait:           sleepContext,
	}, nil
}

func clamp(n, upper int) int {
	if n <= 0 || n > upper {
		return upper
	}
	return n
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the underlying oauth2 configuration.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the authorization URL the user must visit. state is echoed back on the redirect.
func (s *SpotifyService) AuthURL(state string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if s.showDialog {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}
	return s.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a token and installs it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	token, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}

	s.UseToken(ctx, token)
	return token, nil
}

// UseToken installs token for subsequent API calls. Expired tokens are refreshed on demand.
func (s *SpotifyService) UseToken(ctx context.Context, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := &refreshableTokenSource{
		source:   s.config.TokenSource(s.clientContext(context.WithoutCancel(ctx)), token),
		callback: s.refreshed,
		last:     token.AccessToken,
	}

	s.token = token
	s.httpClient = oauth2.NewClient(s.clientContext(context.WithoutCancel(ctx)), source)
}

// Token returns the token currently in use, or nil.
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token has been installed.
func (s *SpotifyService) Authenticated() bool {
	return s.Token() != nil
}

// SetTokenRefreshCallback sets a function to be called when the token is refreshed.
func (s *SpotifyService) SetTokenRefreshCallback(callback func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = callback
}

func (s *SpotifyService) refreshed(token *oauth2.Token) {
	s.mu.Lock()
	s.token = token
	callback := s.onTokenRefresh
	s.mu.Unlock()

	s.logger.Debug("access token refreshed", "expiry", token.Expiry)
	if callback != nil {
		callback(token)
	}
}

// clientContext carries the base HTTP client into oauth2 so token calls use the same transport.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
}

// refreshableTokenSource wraps a token source and reports every new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// resolve turns endpoint into an absolute URL. Absolute endpoints, such as a page's next link,
// must point at the configured API host.
func (s *SpotifyService) resolve(endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if !strings.HasPrefix(endpoint, s.baseURL) {
			return "", fmt.Errorf("%w: refusing to follow %s outside %s", shared.ErrAPIRequest, endpoint, s.baseURL)
		}
		return endpoint, nil
	}
	return s.baseURL + endpoint, nil
}

// doRequest performs an authenticated GET against the API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	s.mu.RLock()
	client := s.httpClient
	s.mu.RUnlock()

	if client == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL, err := s.resolve(endpoint)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < s.maxRetries {
			delay := retryAfter(resp.Header.Get("Retry-After"))
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			s.logger.Warn("rate limited by Spotify", "retry_in", delay, "attempt", attempt+1)
			if err := s.wait(ctx, delay); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, result)
	}
}

func decodeResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, message)
		case http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, message)
		default:
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, message)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds. Missing or malformed values mean one second.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchFailed logs err and produces the empty result of a failed collection fetch.
func fetchFailed[T any](logger *log.Logger, what string, err error) ([]T, error) {
	logger.Warn("fetch failed", "what", what, "err", err)
	return []T{}, fmt.Errorf("%w: %s: %w", shared.ErrFetchFailed, what, err)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		s.logger.Warn("fetch failed", "what", "profile", "err", err)
		return nil, fmt.Errorf("%w: profile: %w", shared.ErrFetchFailed, err)
	}
	return &user, nil
}

// UserPlaylists retrieves every playlist of the current user.
func (s *SpotifyService) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	playlists, err := CollectOffset(ctx, s.pageSize,
		func(ctx context.Context, limit, offset int) (*models.Page[models.Playlist], error) {
			var page models.Page[models.Playlist]
			endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
			if err := s.doRequest(ctx, endpoint, &page); err != nil {
				return nil, err
			}
			return &page, nil
		})
	if err != nil {
		return fetchFailed[models.Playlist](s.logger, "playlists", err)
	}

	s.logger.Debug("fetched playlists", "count", len(playlists))
	return orEmpty(playlists), nil
}

// Playlist retrieves a playlist's metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist models.Playlist
	endpoint := fmt.Sprintf("/playlists/%s?fields=%s", url.PathEscape(playlistID),
		url.QueryEscape("id,name,description,owner,public,collaborative,snapshot_id,images,uri,tracks(href,total)"))
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		s.logger.Warn("fetch failed", "what", "playlist", "id", playlistID, "err", err)
		return nil, fmt.Errorf("%w: playlist %s: %w", shared.ErrFetchFailed, playlistID, err)
	}
	return &playlist, nil
}

// PlaylistTracks retrieves every item of a playlist by following the next links.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackItem, error) {
	if playlistID == "" {
		return fetchFailed[models.TrackItem](s.logger, "playlist tracks",
			fmt.Errorf("%w: playlist id", shared.ErrMissingArgument))
	}

	first := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), s.tracksPageSize)
	items, err := CollectCursor(ctx, 0, s.cursorFetcher(first))
	if err != nil {
		return fetchFailed[models.TrackItem](s.logger, "playlist tracks", err)
	}

	s.logger.Debug("fetched playlist tracks", "id", playlistID, "count", len(items))
	return orEmpty(items), nil
}

// LikedSongs retrieves the user's saved tracks.
func (s *SpotifyService) LikedSongs(ctx context.Context) ([]models.TrackItem, error) {
	items, err := CollectOffset(ctx, s.pageSize,
		func(ctx context.Context, limit, offset int) (*models.Page[models.TrackItem], error) {
			var page models.Page[models.TrackItem]
			endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)
			if err := s.doRequest(ctx, endpoint, &page); err != nil {
				return nil, err
			}
			return &page, nil
		})
	if err != nil {
		return fetchFailed[models.TrackItem](s.logger, "liked songs", err)
	}

	s.logger.Debug("fetched liked songs", "count", len(items))
	return orEmpty(items), nil
}

// RecentlyPlayed retrieves up to limit recently played items.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.TrackItem, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	first := fmt.Sprintf("/me/player/recently-played?limit=%d", min(limit, maxPageSize))
	items, err := CollectCursor(ctx, limit, s.cursorFetcher(first))
	if err != nil {
		return fetchFailed[models.TrackItem](s.logger, "recently played", err)
	}
	return orEmpty(items), nil
}

// cursorFetcher requests first, then whatever next link each page carries.
func (s *SpotifyService) cursorFetcher(first string) CursorFetcher[models.TrackItem] {
	return func(ctx context.Context, cursor string) (*models.Page[models.TrackItem], error) {
		endpoint := first
		if cursor != "" {
			endpoint = cursor
		}

		var page models.Page[models.TrackItem]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}
}
