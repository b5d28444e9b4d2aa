package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Summarization providers
	OpenRouterAPIKey string
	CohereAPIKey     string
	PrimaryModel     string
	FallbackModel    string
	CohereModel      string

	// Library
	ShelfDir string

	// Persistence
	StoreDriver string // "sqlite", "file" or "memory"
	StorePath   string

	// Chunking
	ChunkSize       int
	ChunkOverlap    int
	MinSectionChars int

	// Reader
	PageChars       int
	RestoreDebounce time.Duration

	// Summary cache
	SummaryTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("READERCORE_API_KEY"),

		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		CohereAPIKey:     os.Getenv("COHERE_API_KEY"),
		PrimaryModel:     envOr("PRIMARY_MODEL", "deepseek/deepseek-chat-v3-0324:free"),
		FallbackModel:    envOr("FALLBACK_MODEL", "moonshotai/kimi-k2:free"),
		CohereModel:      envOr("COHERE_MODEL", "command-r-plus-08-2024"),

		ShelfDir: envOr("SHELF_DIR", "./books"),

		StoreDriver: envOr("STORE_DRIVER", "sqlite"),
		StorePath:   envOr("STORE_PATH", "./readercore.db"),

		ChunkSize:       envInt("CHUNK_SIZE", 500),
		ChunkOverlap:    envInt("CHUNK_OVERLAP", 50),
		MinSectionChars: envInt("MIN_SECTION_CHARS", 200),

		PageChars:       envInt("PAGE_CHARS", 1024),
		RestoreDebounce: envDuration("RESTORE_DEBOUNCE", 150*time.Millisecond),

		SummaryTTL: envDuration("SUMMARY_TTL", 30*24*time.Hour),
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 50
	}
	if cfg.MinSectionChars < 0 {
		cfg.MinSectionChars = 200
	}
	if cfg.PageChars <= 0 {
		cfg.PageChars = 1024
	}
	if cfg.RestoreDebounce <= 0 {
		cfg.RestoreDebounce = 150 * time.Millisecond
	}
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = 30 * 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("READERCORE_API_KEY is required")
	}
	switch c.StoreDriver {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be sqlite, file or memory, got %q", c.StoreDriver)
	}
	if c.StoreDriver != "memory" && c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is required for the %s driver", c.StoreDriver)
	}
	return nil
}

// SummarizationEnabled reports whether any LLM provider key is present.
// The reader runs fine without one; summarize and ask endpoints return
// errors instead.
func (c Config) SummarizationEnabled() bool {
	return c.OpenRouterAPIKey != "" || c.CohereAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
