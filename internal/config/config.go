package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cpan115/pan115/internal/api"
	"github.com/cpan115/pan115/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".pan115", "config.json")
	DefaultDownloadDir = filepath.Join(home, "Downloads")
)

// Config is the persisted client state: endpoints, the OAuth token pair and
// transfer tuning. The file holds credentials, so it is written 0600.
type Config struct {
	APIBase      string    `json:"api_base"`
	AuthBase     string    `json:"auth_base"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`

	DownloadDir     string `json:"download_dir,omitempty"`
	UploadWorkers   int    `json:"upload_workers,omitempty"`
	DownloadWorkers int    `json:"download_workers,omitempty"`

	Path string `json:"-"`
}

// Validate fills defaults and normalizes paths. It does not require a token:
// an unauthenticated config is valid, login populates it later.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		c.APIBase = api.DefaultAPIBase
	}
	if c.AuthBase == "" {
		c.AuthBase = api.DefaultAuthBase
	}
	if c.DownloadDir == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.Path == "" {
		c.Path = DefaultConfigPath
	}

	if err := checkHTTPURL("api base", c.APIBase); err != nil {
		return err
	}
	if err := checkHTTPURL("auth base", c.AuthBase); err != nil {
		return err
	}

	path, err := utils.ResolvePath(c.Path)
	if err != nil {
		return fmt.Errorf("config path: %w", err)
	}
	c.Path = path

	dir, err := utils.ResolvePath(c.DownloadDir)
	if err != nil {
		return fmt.Errorf("download dir: %w", err)
	}
	c.DownloadDir = dir

	if c.UploadWorkers < 0 || c.DownloadWorkers < 0 {
		return fmt.Errorf("worker counts cannot be negative")
	}

	return nil
}

// LoggedIn reports whether the config carries a refresh token.
func (c *Config) LoggedIn() bool {
	return c.RefreshToken != ""
}

// Token returns the stored token pair in the API client's shape.
func (c *Config) Token() api.Token {
	return api.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

// SetToken stores a token pair. The caller persists with Save.
func (c *Config) SetToken(tok api.Token) {
	c.AccessToken = tok.AccessToken
	c.RefreshToken = tok.RefreshToken
	c.ExpiresAt = tok.ExpiresAt
}

// Save writes the config to its path.
func (c *Config) Save() error {
	if c.Path == "" {
		c.Path = DefaultConfigPath
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0o600)
}

// LoadFromFile reads and validates a config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse '%s': %w", path, err)
	}

	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func checkHTTPURL(what, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s url %q: %w", what, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s url %q: scheme must be http or https", what, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s url %q: missing host", what, raw)
	}
	return nil
}
