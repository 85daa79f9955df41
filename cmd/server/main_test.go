package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"portfolioai/internal/config"
	"portfolioai/pkg/portfolioai"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("PORTFOLIO_AI_CONFIG", "")
	t.Setenv("PORTFOLIO_AI_PORT", "")
	t.Setenv("PORTFOLIO_AI_HOST", "")
}

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-config", "app.yaml", "-port", "9000"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.configPath != "app.yaml" || f.port != 9000 {
		t.Fatalf("unexpected flags: %+v", f)
	}
	if !f.set["port"] || f.set["host"] {
		t.Fatalf("unexpected set flags: %v", f.set)
	}

	if _, err := parseFlags([]string{"-unknown"}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("host: 0.0.0.0\nport: 9100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	dataDir := t.TempDir()

	f, err := parseFlags([]string{"-config", path, "-data-dir", dataDir, "-port", "9200"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9200 || cfg.DataDir != dataDir {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	f, _ = parseFlags([]string{"-config", path, "-port", "-1"})
	if _, err := loadConfig(f); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestNewServerServesAPI(t *testing.T) {
	cfg := config.Default()
	core, err := portfolioai.OpenWithOptions(portfolioai.Options{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	defer core.Close()

	server := newServer(cfg, core, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if server.WriteTimeout != cfg.LLM.Timeout+30*time.Second {
		t.Fatalf("unexpected write timeout %v", server.WriteTimeout)
	}

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRunLifecycle(t *testing.T) {
	isolateEnv(t)
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dataDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--data-dir", dataDir, "--port", "0", "--host", "127.0.0.1"}, &out)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not exit")
	}

	if _, err := os.Stat(filepath.Join(dataDir, "portfolioai.db")); err != nil {
		t.Fatalf("expected settings database: %v", err)
	}
	logs := out.String()
	if !strings.Contains(logs, "server starting") || !strings.Contains(logs, "server shutting down") {
		t.Fatalf("expected lifecycle logs, got %q", logs)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	if err := run(context.Background(), []string{"-port", "abc"}, io.Discard); err == nil {
		t.Fatalf("expected flag error")
	}
}

func TestWatchParentExits(t *testing.T) {
	origGetppid := getppid
	origSleep := sleep
	origExit := exit
	defer func() {
		getppid = origGetppid
		sleep = origSleep
		exit = origExit
	}()

	getppid = func() int { return 1 }
	sleep = func(time.Duration) {}

	done := make(chan struct{})
	exit = func(code int) {
		close(done)
		runtime.Goexit()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	go watchParent(logger)

	select {
	case <-done:
		// ok
	case <-time.After(1 * time.Second):
		t.Fatalf("watchParent did not exit")
	}
}
