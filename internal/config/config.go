package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Directories
	InputDir  string
	OutputDir string

	// OCR
	TesseractPath string
	OCRLanguages  string

	// Ollama
	OllamaModel     string
	OllamaServerURL string
	AITimeout       time.Duration

	// Optional HTTP proxy for the Ollama server, with basic-auth
	// credentials for authenticated proxies.
	OllamaProxyURL  string
	OllamaProxyUser string
	OllamaProxyPass string

	// Behavior
	Offline          bool // skip all Ollama calls, heuristics only
	AISegmentation   bool // use the model to classify document starts
	Rescan           bool // reprocess files already in the catalog
	PullMissingModel bool

	// Worker pool
	WorkerCount int

	// Catalog
	CatalogPath string

	// Pages with fewer extractable characters than this are treated
	// as image-only and sent to OCR.
	MinTextChars int
}

func Load() Config {
	cfg := Config{
		InputDir:  envOr("INPUT_DIR", "data/input"),
		OutputDir: envOr("OUTPUT_DIR", "data/output"),

		TesseractPath: envOr("TESSERACT_PATH", "tesseract"),
		OCRLanguages:  envOr("OCR_LANGUAGES", "por"),

		OllamaModel:     envOr("OLLAMA_MODEL", envOr("OLLAMA_MODEL_PATH", "llava")),
		OllamaServerURL: envOr("OLLAMA_SERVER_URL", "http://localhost:11434"),
		AITimeout:       envDuration("AI_TIMEOUT", 120*time.Second),

		OllamaProxyURL:  os.Getenv("OLLAMA_PROXY_URL"),
		OllamaProxyUser: os.Getenv("OLLAMA_PROXY_USER"),
		OllamaProxyPass: os.Getenv("OLLAMA_PROXY_PASS"),

		Offline:          envBool("OFFLINE", false),
		AISegmentation:   envBool("AI_SEGMENTATION", true),
		Rescan:           envBool("RESCAN", false),
		PullMissingModel: envBool("PULL_MISSING_MODEL", true),

		WorkerCount: envInt("WORKER_COUNT", 2),

		CatalogPath: os.Getenv("CATALOG_PATH"),

		MinTextChars: envInt("MIN_TEXT_CHARS", 32),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MinTextChars < 0 {
		cfg.MinTextChars = 32
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 120 * time.Second
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(cfg.OutputDir, "catalog.db")
	}

	return cfg
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if !c.Offline {
		if c.OllamaServerURL == "" {
			return fmt.Errorf("OLLAMA_SERVER_URL is required unless running offline")
		}
		if c.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_MODEL is required unless running offline")
		}
	}
	return nil
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
