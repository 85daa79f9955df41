package portfolioai

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"portfolioai/pkg/llm"
)

// ProviderFactory builds a language-model client from a resolved config.
type ProviderFactory func(cfg llm.Config) (llm.Client, error)

// Options controls Core initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger
	Tracer trace.Tracer
	// LLM holds the defaults used when neither the stored settings nor the
	// request set a value. Its APIKey is the only key source besides the request.
	LLM LLMDefaults
	// NewProvider overrides llm.New.
	NewProvider ProviderFactory
}

// LLMDefaults are the deployment-wide model defaults, usually from config.
type LLMDefaults struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
}

// Core provides access to the analysis pipeline and its settings store.
type Core struct {
	db          *sql.DB
	logger      *slog.Logger
	tracer      trace.Tracer
	defaults    LLMDefaults
	newProvider ProviderFactory
	dbPath      string
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = llm.New
	}

	return &Core{
		db:          db,
		logger:      logger,
		tracer:      opts.Tracer,
		defaults:    opts.LLM,
		newProvider: newProvider,
		dbPath:      cleanPath,
	}, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Logger returns the core logger.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

func defaultDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultInt(v int, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
