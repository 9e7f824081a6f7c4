// Package config loads and persists jellyrename configuration.
//
// Configuration lives in ~/.config/jellyrename/config.toml and is loaded with
// viper. Components consume either the typed Config struct or the generic
// Get/GetList/GetAPIKey accessors.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/spf13/viper"
)

// TemplatesConfig holds the naming templates applied by the planner.
// Placeholders use {field} syntax with optional zero-padding, e.g.
// {season:02d}.
type TemplatesConfig struct {
	Episode           string `mapstructure:"episode"`
	Movie             string `mapstructure:"movie"`
	Folder            string `mapstructure:"folder"`
	Subtitle          string `mapstructure:"subtitle"`
	PreserveSceneTags bool   `mapstructure:"preserve_scene_tags"`
}

// ConflictConfig selects what happens when a planned target already exists.
type ConflictConfig struct {
	// Mode is one of: skip, fail, overwrite, suffix.
	Mode string `mapstructure:"mode"`
}

// JournalConfig configures the undo journal database.
type JournalConfig struct {
	Path            string `mapstructure:"path"`
	ExpiryDays      int    `mapstructure:"expiry_days"`
	VerifyIntegrity bool   `mapstructure:"verify_integrity"`
}

// OptionsConfig holds general rename behavior switches.
type OptionsConfig struct {
	CreateFolders          bool     `mapstructure:"create_folders"`
	PreserveMtime          bool     `mapstructure:"preserve_mtime"`
	BackupDir              string   `mapstructure:"backup_dir"`
	StagingDir             string   `mapstructure:"staging_dir"`
	TrashDir               string   `mapstructure:"trash_dir"`
	VideoExtensions        []string `mapstructure:"video_extensions"`
	SubtitleExtensions     []string `mapstructure:"subtitle_extensions"`
	AssociateExtensions    []string `mapstructure:"associate_extensions"`
	DetectSubtitleEncoding bool     `mapstructure:"detect_subtitle_encoding"`
}

// MetadataConfig configures the TMDB metadata provider.
type MetadataConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	APIKey          string `mapstructure:"api_key"`
	Language        string `mapstructure:"language"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
	MaxParallel     int    `mapstructure:"max_parallel"`
	RetryAttempts   int    `mapstructure:"retry_attempts"`
	RetryDelayMs    int    `mapstructure:"retry_delay_ms"`
	RateLimitPer10s int    `mapstructure:"rate_limit_per_10s"`
}

// WatchConfig configures inbox watch mode.
type WatchConfig struct {
	Paths         []string `mapstructure:"paths"`
	SettleSeconds int      `mapstructure:"settle_seconds"`
	Recursive     bool     `mapstructure:"recursive"`
}

// ServeConfig configures the journal HTTP API.
type ServeConfig struct {
	Listen    string `mapstructure:"listen"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig mirrors logging.Config for mapstructure decoding.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type Config struct {
	Templates TemplatesConfig `mapstructure:"templates"`
	Conflict  ConflictConfig  `mapstructure:"conflict"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Options   OptionsConfig   `mapstructure:"options"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	v *viper.Viper
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Templates: TemplatesConfig{
			Episode:           "{show_title} - S{season:02d}E{episode:02d}",
			Movie:             "{movie_title} ({year})",
			Folder:            "",
			Subtitle:          "{stem}.{lang}{flags}",
			PreserveSceneTags: false,
		},
		Conflict: ConflictConfig{
			Mode: "skip",
		},
		Journal: JournalConfig{
			Path:            "",
			ExpiryDays:      30,
			VerifyIntegrity: true,
		},
		Options: OptionsConfig{
			CreateFolders: false,
			PreserveMtime: false,
			BackupDir:     "",
			StagingDir:    "",
			TrashDir:      "",
			VideoExtensions: []string{
				".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v", ".ts", ".webm",
			},
			SubtitleExtensions: []string{
				".srt", ".sub", ".ass", ".ssa", ".vtt", ".idx",
			},
			AssociateExtensions: []string{
				".nfo", ".jpg", ".png", ".txt",
			},
			DetectSubtitleEncoding: false,
		},
		Metadata: MetadataConfig{
			Enabled:         false,
			APIKey:          "",
			Language:        "en-US",
			CacheTTLMinutes: 60,
			MaxParallel:     8,
			RetryAttempts:   3,
			RetryDelayMs:    500,
			RateLimitPer10s: 35,
		},
		Watch: WatchConfig{
			Paths:         []string{},
			SettleSeconds: 5,
			Recursive:     true,
		},
		Serve: ServeConfig{
			Listen:    "127.0.0.1:8787",
			AuthToken: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
	cfg.v = viper.New()
	return cfg
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	return LoadPath(configPath)
}

// LoadPath loads configuration from a specific file
func LoadPath(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg.v = v

	return cfg, nil
}

// Get returns the raw config value for key, or def when the key is unset.
// Keys use viper dotted notation, e.g. "templates.episode".
func (c *Config) Get(key string, def interface{}) interface{} {
	if c.v != nil && c.v.IsSet(key) {
		return c.v.Get(key)
	}
	return def
}

// GetList returns a string-slice config value, or def when unset.
func (c *Config) GetList(key string, def []string) []string {
	if c.v != nil && c.v.IsSet(key) {
		return c.v.GetStringSlice(key)
	}
	return def
}

// GetAPIKey returns the API key for a service. The environment variable
// JELLYRENAME_<SERVICE>_API_KEY takes precedence over the config file.
func (c *Config) GetAPIKey(service string) string {
	env := "JELLYRENAME_" + strings.ToUpper(service) + "_API_KEY"
	if key := os.Getenv(env); key != "" {
		return key
	}
	if strings.EqualFold(service, "tmdb") {
		return c.Metadata.APIKey
	}
	return c.GetList("metadata.api_keys."+strings.ToLower(service), []string{""})[0]
}

// JournalPath returns the configured journal path, falling back to the
// default location next to the config file.
func (c *Config) JournalPath() (string, error) {
	if c.Journal.Path != "" {
		return expandHome(c.Journal.Path)
	}
	return paths.JournalPath()
}

// Save writes the configuration to the default config file location
func (c *Config) Save() error {
	configFile, err := paths.ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	return os.WriteFile(configFile, []byte(c.ToTOML()), 0644)
}

// ConfigExists reports whether a config file is present on disk
func ConfigExists() bool {
	path, err := paths.ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := paths.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// ToTOML renders the configuration as a commented TOML document
func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# jellyrename configuration
# Generated by: jellyrename config init

[templates]
episode = %q
movie = %q
folder = %q
subtitle = %q
preserve_scene_tags = %t

[conflict]
# skip, fail, overwrite, or suffix
mode = %q

[journal]
path = %q
expiry_days = %d
verify_integrity = %t

[options]
create_folders = %t
preserve_mtime = %t
backup_dir = %q
staging_dir = %q
trash_dir = %q
video_extensions = %s
subtitle_extensions = %s
associate_extensions = %s
detect_subtitle_encoding = %t

[metadata]
enabled = %t
api_key = %q
language = %q
cache_ttl_minutes = %d
max_parallel = %d
retry_attempts = %d
retry_delay_ms = %d
rate_limit_per_10s = %d

[watch]
paths = %s
settle_seconds = %d
recursive = %t

[serve]
listen = %q
auth_token = %q

[logging]
level = %q
file = %q
max_size_mb = %d
max_backups = %d
`,
		c.Templates.Episode, c.Templates.Movie, c.Templates.Folder,
		c.Templates.Subtitle, c.Templates.PreserveSceneTags,
		c.Conflict.Mode,
		c.Journal.Path, c.Journal.ExpiryDays, c.Journal.VerifyIntegrity,
		c.Options.CreateFolders, c.Options.PreserveMtime,
		c.Options.BackupDir, c.Options.StagingDir, c.Options.TrashDir,
		formatStringSlice(c.Options.VideoExtensions),
		formatStringSlice(c.Options.SubtitleExtensions),
		formatStringSlice(c.Options.AssociateExtensions),
		c.Options.DetectSubtitleEncoding,
		c.Metadata.Enabled, c.Metadata.APIKey, c.Metadata.Language,
		c.Metadata.CacheTTLMinutes, c.Metadata.MaxParallel,
		c.Metadata.RetryAttempts, c.Metadata.RetryDelayMs,
		c.Metadata.RateLimitPer10s,
		formatStringSlice(c.Watch.Paths), c.Watch.SettleSeconds, c.Watch.Recursive,
		c.Serve.Listen, c.Serve.AuthToken,
		c.Logging.Level, c.Logging.File, c.Logging.MaxSizeMB, c.Logging.MaxBackups,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
