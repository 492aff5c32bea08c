package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables holding the Spotify application credentials.
const (
	EnvClientID     = "CLIENT_ID"
	EnvClientSecret = "CLIENT_SECRET"
	EnvRedirectURI  = "REDIRECT_URI"

	legacyEnvPrefix = "SPOTIFY_"
)

// Config represents the application configuration loaded from a TOML file.
//
// Credentials never live in the file; they come from the environment (see [LoadCredentials]).
type Config struct {
	Auth      AuthConfig      `toml:"auth"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Downloads DownloadsConfig `toml:"downloads"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Log       LogConfig       `toml:"log"`
}

// AuthConfig controls the authorization code flow and the token cache.
type AuthConfig struct {
	CachePath  string   `toml:"cache_path"`
	Timeout    int      `toml:"timeout"` // seconds to wait for the browser callback
	Scopes     []string `toml:"scopes"`
	ShowDialog bool     `toml:"show_dialog"`
}

// CatalogConfig controls paging and pacing of Spotify API requests.
type CatalogConfig struct {
	PageSize               int     `toml:"page_size"`
	PlaylistTracksPageSize int     `toml:"playlist_tracks_page_size"`
	RequestsPerSecond      float64 `toml:"requests_per_second"`
	MaxRetries             int     `toml:"max_retries"`
}

// DownloadsConfig controls the search/download/transcode pipeline.
type DownloadsConfig struct {
	Dir           string `toml:"dir"`
	AudioFormat   string `toml:"audio_format"`
	Bitrate       string `toml:"bitrate"`
	SearchResults int    `toml:"search_results"`
	Matcher       string `toml:"matcher"`
	YTDLPPath     string `toml:"ytdlp_path"`
	AutoInstall   bool   `toml:"auto_install"`
	Tag           bool   `toml:"tag"`
}

// SnapshotConfig controls where the playlist snapshot is written.
type SnapshotConfig struct {
	Path string `toml:"path"`
}

// LogConfig controls logger verbosity and destination.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// AuthTimeout returns the callback wait as a [time.Duration].
func (c AuthConfig) AuthTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Timeout) * time.Second
}

// Credentials holds the delegated-authorization values read from the environment.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 50 {
		return fmt.Errorf("%w: catalog.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.Catalog.PageSize)
	}
	if c.Catalog.PlaylistTracksPageSize < 1 || c.Catalog.PlaylistTracksPageSize > 100 {
		return fmt.Errorf("%w: catalog.playlist_tracks_page_size must be between 1 and 100, got %d",
			ErrInvalidConfig, c.Catalog.PlaylistTracksPageSize)
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: catalog.requests_per_second cannot be negative", ErrInvalidConfig)
	}
	switch c.Downloads.Matcher {
	case "", "first", "scored":
	default:
		return fmt.Errorf("%w: downloads.matcher must be \"first\" or \"scored\", got %q", ErrInvalidConfig, c.Downloads.Matcher)
	}
	if c.Downloads.Dir == "" {
		return fmt.Errorf("%w: downloads.dir cannot be empty", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads variables from a .env file into the process environment.
//
// Variables already set in the environment are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// LoadCredentials reads the client identifier, client secret and redirect URI using getenv.
//
// The SPOTIFY_-prefixed names are accepted when the plain ones are unset.
// Every missing value is reported in a single [ErrMissingCredentials] error.
func LoadCredentials(getenv func(string) string) (Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	lookup := func(name string) string {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
		return strings.TrimSpace(getenv(legacyEnvPrefix + name))
	}

	creds := Credentials{
		ClientID:     lookup(EnvClientID),
		ClientSecret: lookup(EnvClientSecret),
		RedirectURI:  lookup(EnvRedirectURI),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if creds.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if creds.RedirectURI == "" {
		missing = append(missing, EnvRedirectURI)
	}

	if len(missing) > 0 {
		return creds, fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	return creds, nil
}

// Masked returns the first characters of the client id, for display.
func (c Credentials) Masked() string {
	if len(c.ClientID) <= 10 {
		return c.ClientID
	}
	return c.ClientID[:10] + "...."
}
