// Package config loads the Storefront Console configuration from a YAML file
// in the user's config directory, layered with .env and STOREFRONT_* overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
)

const (
	appDirName     = "storefront"
	configFileName = "config.yaml"

	DefaultBaseURL = "https://fakestoreapi.com"
	DefaultTimeout = 10 * time.Second
)

// Config represents the complete configuration file structure
type Config struct {
	API        APIConfig        `yaml:"api"`
	Log        LogConfig        `yaml:"log"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Theme      string           `yaml:"theme" validate:"oneof=github monokai"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url" validate:"required,url"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	RatePerSecond float64       `yaml:"rate_per_second" validate:"gte=0"`
	Burst         int           `yaml:"burst" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json pretty"`
	File   string `yaml:"file,omitempty"`
}

type TokenStoreConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=file memory redis"`
	Path    string      `yaml:"path,omitempty"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password,omitempty"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// Themes are the built-in colour palettes keyed by name.
var Themes = map[string]interfaces.Theme{
	"github": {
		Name:    "github",
		Accent:  "#0366d6",
		Success: "#28a745",
		Error:   "#dc3545",
		Warning: "#ffc107",
		Info:    "#17a2b8",
		Syntax:  "github",
	},
	"monokai": {
		Name:    "monokai",
		Accent:  "#ae81ff",
		Success: "#a6e22e",
		Error:   "#f92672",
		Warning: "#fd971f",
		Info:    "#66d9ef",
		Syntax:  "monokai",
	},
}

// ThemeFor returns the named palette, falling back to github.
func ThemeFor(name string) interfaces.Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Themes["github"]
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       DefaultBaseURL,
			Timeout:       DefaultTimeout,
			RatePerSecond: 5,
			Burst:         5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		TokenStore: TokenStoreConfig{
			Backend: "file",
			Redis: RedisConfig{
				URL:       "redis://localhost:6379/0",
				KeyPrefix: "storefront:",
			},
		},
		Theme: "github",
	}
}

// Manager reads and writes the configuration file.
type Manager struct {
	configPath   string
	dataDir      string
	envFiles     []string
	validate     *validator.Validate
	logger       *logging.Logger
	cachedConfig *Config
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConfigPath overrides the config file location.
func WithConfigPath(path string) ManagerOption {
	return func(m *Manager) {
		if path != "" {
			m.configPath = path
		}
	}
}

// WithDataDir overrides where the token, key and log files live.
func WithDataDir(dir string) ManagerOption {
	return func(m *Manager) {
		if dir != "" {
			m.dataDir = dir
		}
	}
}

// WithEnvFiles sets the dotenv files loaded before overrides are applied.
func WithEnvFiles(files ...string) ManagerOption {
	return func(m *Manager) { m.envFiles = files }
}

// NewManager creates a configuration manager with XDG paths.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		envFiles: []string{".env"},
		validate: validator.New(),
		logger:   logging.GetConfigLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.configPath == "" {
		path, err := defaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine configuration path: %w", err)
		}
		m.configPath = path
	}
	if m.dataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine data directory: %w", err)
		}
		m.dataDir = dir
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(m.dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return m, nil
}

func defaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName, configFileName), nil
}

func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// Load returns the effective configuration, creating the file with defaults
// if it does not exist yet.
func (m *Manager) Load() (*Config, error) {
	if m.cachedConfig != nil {
		return m.cachedConfig, nil
	}

	m.loadEnvFiles()

	cfg, created, err := m.readFile()
	if err != nil {
		m.logger.LogConfigError("read", err)
		return nil, err
	}
	m.logger.LogConfigLoad(m.configPath, created)

	if err := applyEnv(cfg); err != nil {
		m.logger.LogConfigError("env", err)
		return nil, err
	}
	m.fillPaths(cfg)

	if err := m.Validate(cfg); err != nil {
		m.logger.LogConfigError("validate", err)
		return nil, err
	}

	m.cachedConfig = cfg
	return cfg, nil
}

func (m *Manager) loadEnvFiles() {
	for _, file := range m.envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("Failed to load env file", "file", file, "error", err.Error())
		}
	}
}

func (m *Manager) readFile() (*Config, bool, error) {
	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := m.Save(cfg); err != nil {
			return nil, false, fmt.Errorf("failed to create default configuration: %w", err)
		}
		return cfg, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Missing keys keep their defaults.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return cfg, false, nil
}

// Save writes cfg to the config file with owner-only permissions.
func (m *Manager) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	m.cachedConfig = nil
	return nil
}

func (m *Manager) fillPaths(cfg *Config) {
	if cfg.TokenStore.Path == "" {
		cfg.TokenStore.Path = filepath.Join(m.dataDir, "token")
	}
}

// Validate checks field constraints and cross-field rules.
func (m *Manager) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := m.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.TokenStore.Backend == "redis" && strings.TrimSpace(cfg.TokenStore.Redis.URL) == "" {
		return fmt.Errorf("invalid configuration: token_store.redis.url is required for the redis backend")
	}
	return nil
}

// applyEnv layers STOREFRONT_* variables over the file values.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("STOREFRONT_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("STOREFRONT_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_TOKEN_BACKEND"); v != "" {
		cfg.TokenStore.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_REDIS_URL"); v != "" {
		cfg.TokenStore.Redis.URL = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_PASSWORD"); v != "" {
		cfg.TokenStore.Redis.Password = v
	}
	if v := os.Getenv("STOREFRONT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("STOREFRONT_THEME"); v != "" {
		cfg.Theme = strings.ToLower(v)
	}
	return nil
}

// parseDuration accepts Go durations and bare milliseconds.
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return d, nil
}

// ConfigPath returns the path to the configuration file
func (m *Manager) ConfigPath() string {
	return m.configPath
}

// DataDir returns the directory holding the token, key and log files.
func (m *Manager) DataDir() string {
	return m.dataDir
}

// LogPath is where the interactive UI writes its logs.
func (m *Manager) LogPath() string {
	return filepath.Join(m.dataDir, "storefront.log")
}

