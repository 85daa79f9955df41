package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv(envConfigPath, "")
	return home
}

func TestIsMacOSWindows(t *testing.T) {
	if IsMacOS() != (runtime.GOOS == "darwin") {
		t.Fatalf("IsMacOS mismatch")
	}
	if IsWindows() != (runtime.GOOS == "windows") {
		t.Fatalf("IsWindows mismatch")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "" {
		t.Fatalf("expected no config source, got %q", cfg.Source)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.LLM.Temperature != 0.2 || cfg.LLM.MaxTokens != 4096 || cfg.LLM.Timeout != 3*time.Minute {
		t.Fatalf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.RateLimit.PerMinute != 30 || cfg.Tracing.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
host: 0.0.0.0
port: 9100
db_name: analysis.db
cors_origins: ["http://localhost:5173"]
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
  temperature: 0.5
  timeout: 90s
rate_limit:
  per_minute: 10
  burst: 2
tracing:
  enabled: true
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORTFOLIO_AI_MODEL", "claude-3-7-sonnet-latest")
	t.Setenv("PORTFOLIO_AI_PORT", "9200")
	t.Setenv("PORTFOLIO_AI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != path {
		t.Fatalf("unexpected source %q", cfg.Source)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9200 || cfg.DBName != "analysis.db" {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "claude-3-7-sonnet-latest" || cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.5 || cfg.LLM.Timeout != 90*time.Second || cfg.LLM.MaxTokens != 4096 {
		t.Fatalf("yaml did not merge over defaults: %+v", cfg.LLM)
	}
	if cfg.RateLimit != (RateLimitConfig{PerMinute: 10, Burst: 2}) || !cfg.Tracing.Enabled {
		t.Fatalf("unexpected limits: %+v %+v", cfg.RateLimit, cfg.Tracing)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadFromAppConfigDir(t *testing.T) {
	if IsMacOS() || IsWindows() {
		t.Skip("xdg layout only")
	}
	home := isolateHome(t)

	dir := filepath.Join(home, ".config", "portfolioai")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: 8123\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8123 || cfg.Source != filepath.Join(dir, "config.yaml") {
		t.Fatalf("expected app config dir file, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	isolateHome(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("port: [1, 2"), 0o644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}

	tests := map[string]string{
		"PORTFOLIO_AI_PORT":            "eighty",
		"PORTFOLIO_AI_TEMPERATURE":     "warm",
		"PORTFOLIO_AI_REQUEST_TIMEOUT": "soon",
		"PORTFOLIO_AI_TRACING":         "maybe",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Fatalf("expected error naming %s, got %v", name, err)
			}
		})
	}

	t.Run("port range", func(t *testing.T) {
		t.Setenv("PORTFOLIO_AI_PORT", "70000")
		if _, err := Load(""); err == nil {
			t.Fatalf("expected invalid port")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	isolateHome(t)

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(cwd)
	}()

	// Register restoration, then unset so godotenv can populate it.
	t.Setenv("PORTFOLIO_AI_BASE_URL", "placeholder")
	_ = os.Unsetenv("PORTFOLIO_AI_BASE_URL")

	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte("PORTFOLIO_AI_BASE_URL=http://localhost:11434/v1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Fatalf("expected base url from .env, got %q", cfg.LLM.BaseURL)
	}
}

func TestDBPathAndLogDir(t *testing.T) {
	home := isolateHome(t)

	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := Default()
	cfg.DataDir = dataDir
	cfg.DBName = ""

	path, err := cfg.DBPath()
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if path != filepath.Join(dataDir, defaultDBName) {
		t.Fatalf("unexpected db path %q", path)
	}
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		t.Fatalf("expected data dir to be created: %v", err)
	}

	logDir, err := cfg.LogDir()
	if err != nil {
		t.Fatalf("LogDir: %v", err)
	}
	if logDir != filepath.Join(dataDir, "logs") {
		t.Fatalf("unexpected log dir %q", logDir)
	}

	cfg.DataDir = ""
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir: %v", err)
	}
	if !strings.HasPrefix(dir, home) {
		t.Fatalf("expected default dir under home %q, got %q", home, dir)
	}
}

func TestAppConfigDirWindowsFallback(t *testing.T) {
	if !IsWindows() {
		t.Skip("windows only")
	}
	appData := t.TempDir()
	t.Setenv("APPDATA", appData)
	dir, err := appConfigDir()
	if err != nil {
		t.Fatalf("appConfigDir: %v", err)
	}
	if dir != filepath.Join(appData, "PortfolioAI") {
		t.Fatalf("unexpected dir %q", dir)
	}
}
