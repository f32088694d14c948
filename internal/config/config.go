package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "FEEDFORGE_CONFIG"
	cacheDirEnv    = "FEEDFORGE_CACHE_DIR"
	feedDirEnv     = "FEEDFORGE_FEED_DIR"
	archivePathEnv = "FEEDFORGE_ARCHIVE_PATH"

	defaultCacheDir    = "cache"
	defaultFeedDir     = "feeds"
	defaultArchivePath = "feedforge.db"
	defaultMaxPages    = 50
	defaultMaxClicks   = 20
	defaultConcurrency = 2
	defaultTimeout     = 10 * time.Minute
)

// Fetch modes selecting the content-retrieval strategy for a source.
const (
	ModeDirect      = "direct"
	ModePaginated   = "paginated"
	ModeInteractive = "interactive"
)

// Duration decodes YAML duration strings like "10m" or "1h30m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses the duration from its string form.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	CacheDir string         `yaml:"cacheDir"`
	FeedDir  string         `yaml:"feedDir"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Runner   RunnerConfig   `yaml:"runner"`
	Sources  []SourceConfig `yaml:"sources"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ArchiveConfig describes the SQLite run/post archive location.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// RunnerConfig bounds the per-run worker pool and total runtime.
type RunnerConfig struct {
	Concurrency int      `yaml:"concurrency"`
	Timeout     Duration `yaml:"timeout"`
}

// SourceConfig describes one blog listing with its fetch strategy and
// extraction selectors.
type SourceConfig struct {
	Name        string         `yaml:"name"`
	URL         string         `yaml:"url"`
	BaseURL     string         `yaml:"baseUrl"`
	Mode        string         `yaml:"mode"`
	Selectors   SelectorConfig `yaml:"selectors"`
	DateFormats []string       `yaml:"dateFormats"`
	MaxPages    int            `yaml:"maxPages"`
	MaxClicks   int            `yaml:"maxClicks"`
	Feed        FeedConfig     `yaml:"feed"`
}

// SelectorConfig holds CSS selectors for locating post containers and
// their fields. Title/Date/Summary/Category are ordered fallback chains:
// the first selector yielding a value wins.
type SelectorConfig struct {
	Item     string   `yaml:"item"`
	Link     string   `yaml:"link"`
	Title    []string `yaml:"title"`
	Date     []string `yaml:"date"`
	Summary  []string `yaml:"summary"`
	Category []string `yaml:"category"`
	NextPage string   `yaml:"nextPage"`
	LoadMore []string `yaml:"loadMore"`
}

// FeedConfig carries the output feed metadata for one source.
type FeedConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Email       string `yaml:"email"`
	Language    string `yaml:"language"`
	SelfURL     string `yaml:"selfUrl"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applySourceDefaults()

	return cfg
}

// LoadFile reads the given YAML file, ignoring the config path env var.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document on top of the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := defaultConfig()
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg = mergeConfig(cfg, fileCfg)
	cfg.applyEnvOverrides()
	cfg.applySourceDefaults()
	return cfg, nil
}

// Source finds a configured source by name.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceConfig{}, false
}

// Validate rejects a source with missing required fields or an unknown
// fetch mode.
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source %s: url is required", s.Name)
	}
	switch s.Mode {
	case ModeDirect, ModePaginated, ModeInteractive:
	default:
		return fmt.Errorf("source %s: unknown mode %q", s.Name, s.Mode)
	}
	if s.Selectors.Item == "" {
		return fmt.Errorf("source %s: selectors.item is required", s.Name)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(cacheDirEnv); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(feedDirEnv); v != "" {
		c.FeedDir = v
	}
	if v := os.Getenv(archivePathEnv); v != "" {
		c.Archive.Path = v
	}
}

func (c *Config) applySourceDefaults() {
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Mode == "" {
			src.Mode = ModeDirect
		}
		if src.BaseURL == "" {
			src.BaseURL = src.URL
		}
		if src.MaxPages <= 0 {
			src.MaxPages = defaultMaxPages
		}
		if src.MaxClicks <= 0 {
			src.MaxClicks = defaultMaxClicks
		}
		if src.Feed.Title == "" {
			src.Feed.Title = src.Name
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.CacheDir != "" {
		base.CacheDir = override.CacheDir
	}
	if override.FeedDir != "" {
		base.FeedDir = override.FeedDir
	}
	if override.Archive.Path != "" {
		base.Archive = override.Archive
	}
	if override.Runner.Concurrency > 0 {
		base.Runner.Concurrency = override.Runner.Concurrency
	}
	if override.Runner.Timeout.Duration > 0 {
		base.Runner.Timeout = override.Runner.Timeout
	}
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		CacheDir: defaultCacheDir,
		FeedDir:  defaultFeedDir,
		Archive:  ArchiveConfig{Path: defaultArchivePath},
		Runner: RunnerConfig{
			Concurrency: defaultConcurrency,
			Timeout:     Duration{defaultTimeout},
		},
	}
}
