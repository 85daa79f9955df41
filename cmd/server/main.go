package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"portfolioai/internal/api"
	"portfolioai/internal/config"
	"portfolioai/internal/logging"
	"portfolioai/internal/tracing"
	"portfolioai/pkg/portfolioai"
)

var version = "dev"

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

type cliFlags struct {
	configPath string
	dataDir    string
	host       string
	port       int
	set        map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (cliFlags, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var f cliFlags
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.dataDir, "data-dir", "", "Directory for storing the settings database and logs")
	fs.StringVar(&f.host, "host", "", "Host to bind the server to")
	fs.IntVar(&f.port, "port", 0, "Port to run the server on")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// loadConfig applies explicitly set flags over the loaded config.
func loadConfig(f cliFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.set["data-dir"] {
		cfg.DataDir = f.dataDir
	}
	if f.set["host"] {
		cfg.Host = f.host
	}
	if f.set["port"] {
		cfg.Port = f.port
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logDir, err := cfg.LogDir()
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}
	logger, writer, err := logging.NewLogger(logging.Options{
		Dir:    logDir,
		Level:  logging.ParseLevel(cfg.LogLevel, slog.LevelInfo),
		Format: cfg.LogFormat,
		Stdout: stdout,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	tp, err := tracing.Init(cfg.Tracing.Enabled, version, stdout)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", "err", err)
		}
	}()

	dbPath, err := cfg.DBPath()
	if err != nil {
		return fmt.Errorf("resolve db path: %w", err)
	}
	core, err := portfolioai.OpenWithOptions(portfolioai.Options{
		DBPath: dbPath,
		Logger: logger,
		Tracer: tp.Tracer(),
		LLM: portfolioai.LLMDefaults{
			Provider:    cfg.LLM.Provider,
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxRetries:  cfg.LLM.MaxRetries,
			Timeout:     cfg.LLM.Timeout,
		},
	})
	if err != nil {
		return fmt.Errorf("initialize core: %w", err)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
	}()

	if os.Getenv("PORTFOLIO_AI_PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	server := newServer(cfg, core, logger)

	logger.Info("server starting",
		"addr", listener.Addr().String(),
		"config", cfg.Source,
		"db_path", dbPath,
		"tracing", tp.Enabled(),
	)
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	return nil
}

func newServer(cfg config.Config, core *portfolioai.Core, logger *slog.Logger) *http.Server {
	handler := api.NewRouter(core, api.Options{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     api.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
	})
	handler = middleware.Compress(5)(handler)

	// Analyses can take minutes; the write timeout covers the model call.
	writeTimeout := cfg.LLM.Timeout + 30*time.Second
	if cfg.LLM.Timeout <= 0 {
		writeTimeout = 4 * time.Minute
	}
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}
