package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix     = "PORTFOLIO_AI_"
	envConfigPath = envPrefix + "CONFIG"

	defaultHost   = "127.0.0.1"
	defaultPort   = 8000
	defaultDBName = "portfolioai.db"
)

// Config is the server configuration. Values come from defaults, then the
// YAML file, then PORTFOLIO_AI_* environment variables.
type Config struct {
	Host        string          `yaml:"host"`
	Port        int             `yaml:"port"`
	DataDir     string          `yaml:"data_dir"`
	DBName      string          `yaml:"db_name"`
	LogLevel    string          `yaml:"log_level"`
	LogFormat   string          `yaml:"log_format"`
	CORSOrigins []string        `yaml:"cors_origins"`
	LLM         LLMConfig       `yaml:"llm"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`

	// Source is the YAML file that was read, empty when none was found.
	Source string `yaml:"-"`
}

// LLMConfig holds the model defaults. APIKey is normally supplied through
// the environment or a .env file.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RateLimitConfig limits analysis requests. PerMinute <= 0 disables it.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:   defaultHost,
		Port:   defaultPort,
		DBName: defaultDBName,
		LLM: LLMConfig{
			Temperature: 0.2,
			MaxTokens:   4096,
			MaxRetries:  2,
			Timeout:     3 * time.Minute,
		},
		RateLimit: RateLimitConfig{PerMinute: 30, Burst: 5},
	}
}

func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func appConfigDir() (string, error) {
	if IsMacOS() {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "PortfolioAI"), nil
	}
	if IsWindows() {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "PortfolioAI"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "portfolioai"), nil
	}
	return filepath.Join(configDir, "portfolioai"), nil
}

// Load reads .env from the working directory, then the YAML file at path.
// An empty path falls back to PORTFOLIO_AI_CONFIG and then to config.yaml in
// the app config directory; a missing fallback file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	explicit := strings.TrimSpace(path)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(envConfigPath))
	}
	if explicit != "" {
		if err := readYAML(explicit, &cfg); err != nil {
			return Config{}, err
		}
		cfg.Source = explicit
	} else if dir, err := appConfigDir(); err == nil {
		candidate := filepath.Join(dir, "config.yaml")
		if err := readYAML(candidate, &cfg); err == nil {
			cfg.Source = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Host, "HOST")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.LLM.Provider, "PROVIDER")
	setString(&cfg.LLM.BaseURL, "BASE_URL")
	setString(&cfg.LLM.APIKey, "API_KEY")
	setString(&cfg.LLM.Model, "MODEL")
	if value, ok := lookup("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(value)
	}

	var errs []error
	errs = append(errs,
		setInt(&cfg.Port, "PORT"),
		setFloat(&cfg.LLM.Temperature, "TEMPERATURE"),
		setInt(&cfg.LLM.MaxTokens, "MAX_TOKENS"),
		setInt(&cfg.LLM.MaxRetries, "MAX_RETRIES"),
		setDuration(&cfg.LLM.Timeout, "REQUEST_TIMEOUT"),
		setInt(&cfg.RateLimit.PerMinute, "RATE_LIMIT"),
		setInt(&cfg.RateLimit.Burst, "RATE_BURST"),
		setBool(&cfg.Tracing.Enabled, "TRACING"),
	)
	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func setString(dst *string, name string) {
	if value, ok := lookup(name); ok {
		*dst = value
	}
}

func setInt(dst *int, name string) error {
	value, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, name string) error {
	value, ok := lookup(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	value, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, name string) error {
	value, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.LLM.Temperature < 0 {
		return fmt.Errorf("invalid temperature %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 || c.LLM.MaxRetries < 0 || c.LLM.Timeout < 0 {
		return errors.New("llm limits must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResolveDataDir returns the data directory, creating it if needed.
func (c Config) ResolveDataDir() (string, error) {
	dir := strings.TrimSpace(c.DataDir)
	if dir == "" {
		defaultDir, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the sqlite path inside the data directory.
func (c Config) DBPath() (string, error) {
	dir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(c.DBName)
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dir, name), nil
}

// LogDir returns the directory for daily log files.
func (c Config) LogDir() (string, error) {
	dir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}
