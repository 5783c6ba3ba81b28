package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SyncMode selects when a sync run may start on its own
type SyncMode string

const (
	SyncModeManualOnly SyncMode = "manual_only"
	SyncModeOnStartup  SyncMode = "on_startup"
	SyncModeWiFiOnly   SyncMode = "wifi_only"
)

// DefaultBatchSize is the number of images downloaded between cancellation checks
const DefaultBatchSize = 50

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the remote site layout
type ServerConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	StreamListPath         string `mapstructure:"stream_list_path"`
	StreamDetailPath       string `mapstructure:"stream_detail_path"` // {id} is replaced
	InvertebrateListPath   string `mapstructure:"invertebrate_list_path"`
	InvertebrateDetailPath string `mapstructure:"invertebrate_detail_path"` // {id} is replaced
	ImageListPath          string `mapstructure:"image_list_path"`
	AboutPath              string `mapstructure:"about_path"`
}

// SyncConfig holds sync behavior
type SyncConfig struct {
	Mode      SyncMode      `mapstructure:"mode"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"` // Per fetch
}

// StorageConfig holds local data locations
type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	ImageDir string `mapstructure:"image_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir := defaultDataPath()
	return &Config{
		Server: ServerConfig{
			StreamListPath:         "/api/streams.json",
			StreamDetailPath:       "/api/streams/{id}.xml",
			InvertebrateListPath:   "/api/invertebrates.json",
			InvertebrateDetailPath: "/api/invertebrates/{id}.xml",
			ImageListPath:          "/images/",
			AboutPath:              "/about.html",
		},
		Sync: SyncConfig{
			Mode:      SyncModeManualOnly,
			BatchSize: DefaultBatchSize,
			Timeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:  dataDir,
			ImageDir: filepath.Join(dataDir, "images"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(dataDir, "benthic.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "benthic")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "benthic")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "benthic")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "benthic")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "benthic")
	}
}

// DefaultConfigFile returns the file SaveConfig writes when no path is given
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// setDefaults registers every key so environment overrides resolve
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.base_url", cfg.Server.BaseURL)
	v.SetDefault("server.stream_list_path", cfg.Server.StreamListPath)
	v.SetDefault("server.stream_detail_path", cfg.Server.StreamDetailPath)
	v.SetDefault("server.invertebrate_list_path", cfg.Server.InvertebrateListPath)
	v.SetDefault("server.invertebrate_detail_path", cfg.Server.InvertebrateDetailPath)
	v.SetDefault("server.image_list_path", cfg.Server.ImageListPath)
	v.SetDefault("server.about_path", cfg.Server.AboutPath)

	v.SetDefault("sync.mode", string(cfg.Sync.Mode))
	v.SetDefault("sync.batch_size", cfg.Sync.BatchSize)
	v.SetDefault("sync.timeout", cfg.Sync.Timeout)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.image_dir", cfg.Storage.ImageDir)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment.
// An empty configFile searches the default locations.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. BENTHIC_SYNC_MODE
	v.SetEnvPrefix("BENTHIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.DataDir = ExpandPath(cfg.Storage.DataDir)
	cfg.Storage.ImageDir = ExpandPath(cfg.Storage.ImageDir)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	return cfg, nil
}

// SaveConfig writes the configuration to configFile, or to the default
// location when configFile is empty
func SaveConfig(cfg *Config, configFile string) error {
	if configFile == "" {
		configFile = DefaultConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.base_url", cfg.Server.BaseURL)
	v.Set("server.stream_list_path", cfg.Server.StreamListPath)
	v.Set("server.stream_detail_path", cfg.Server.StreamDetailPath)
	v.Set("server.invertebrate_list_path", cfg.Server.InvertebrateListPath)
	v.Set("server.invertebrate_detail_path", cfg.Server.InvertebrateDetailPath)
	v.Set("server.image_list_path", cfg.Server.ImageListPath)
	v.Set("server.about_path", cfg.Server.AboutPath)

	v.Set("sync.mode", string(cfg.Sync.Mode))
	v.Set("sync.batch_size", cfg.Sync.BatchSize)
	v.Set("sync.timeout", cfg.Sync.Timeout.String())

	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.image_dir", cfg.Storage.ImageDir)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the remote site is set
func (c *Config) IsConfigured() bool {
	return c.Server.BaseURL != ""
}

// Validate checks the values a sync run depends on
func (c *Config) Validate() error {
	if !c.IsConfigured() {
		return errors.New("server.base_url is not set")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not an absolute URL", c.Server.BaseURL)
	}
	switch c.Sync.Mode {
	case SyncModeManualOnly, SyncModeOnStartup, SyncModeWiFiOnly:
	default:
		return fmt.Errorf("unknown sync.mode %q", c.Sync.Mode)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive, got %s", c.Sync.Timeout)
	}
	return nil
}

// Resolve joins a configured path onto the base URL, substituting {id}.
func (s ServerConfig) Resolve(path, id string) (string, error) {
	base, err := url.Parse(strings.TrimRight(s.BaseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if id != "" {
		path = strings.ReplaceAll(path, "{id}", url.PathEscape(id))
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
