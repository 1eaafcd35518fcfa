package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	GitHubAPIURL string
	GitHubRawURL string
	GitHubToken  string

	LLMBaseURL string
	GeminiKey  string

	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string

	CacheTTL time.Duration

	MaxContextFiles int
	MaxFileBytes    int
	FetchTimeout    time.Duration
	FileTimeout     time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Addr: os.Getenv("ADDR"),

		GitHubAPIURL: os.Getenv("GITHUB_API_URL"),
		GitHubRawURL: os.Getenv("GITHUB_RAW_URL"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		GeminiKey:  os.Getenv("GEMINI_API_KEY"),

		SurrealURL:  os.Getenv("SURREAL_URL"),
		SurrealNS:   os.Getenv("SURREAL_NS"),
		SurrealDB:   os.Getenv("SURREAL_DB"),
		SurrealUser: os.Getenv("SURREAL_USER"),
		SurrealPass: os.Getenv("SURREAL_PASS"),

		CacheTTL:        envDuration("CACHE_TTL_SECONDS", 3600*time.Second),
		MaxContextFiles: envInt("MAX_CONTEXT_FILES", 5),
		MaxFileBytes:    envInt("MAX_FILE_BYTES", 5000),
		FetchTimeout:    envDuration("FETCH_TIMEOUT_SECONDS", 15*time.Second),
		FileTimeout:     envDuration("FILE_TIMEOUT_SECONDS", 10*time.Second),
	}

	if cfg.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		} else {
			cfg.Addr = ":3000"
		}
	}

	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = "https://api.github.com"
	}
	if cfg.GitHubRawURL == "" {
		cfg.GitHubRawURL = "https://raw.githubusercontent.com"
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}

	// The SDK appends /rpc automatically
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/rpc")
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/")

	return cfg
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
