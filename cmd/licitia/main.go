package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/madmax100/licitia/internal/catalog"
	"github.com/madmax100/licitia/internal/config"
	"github.com/madmax100/licitia/internal/enrich"
	"github.com/madmax100/licitia/internal/ocr"
	"github.com/madmax100/licitia/internal/ollama"
	"github.com/madmax100/licitia/internal/pipeline"
	"github.com/madmax100/licitia/internal/segment"
)

var flagOverrides struct {
	inputDir      string
	outputDir     string
	model         string
	serverURL     string
	tesseractPath string
	workers       int
	offline       bool
	noAISegment   bool
	rescan        bool
	noPull        bool
}

var rootCmd = &cobra.Command{
	Use:   "licitia",
	Short: "Analyse scanned PDF bundles into structured document summaries",
	Long: `Scans a directory of PDF files, extracts text with OCR fallback,
splits each file into its logical documents and writes one JSON
result per input file. Flags override the corresponding environment
variables.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagOverrides.inputDir, "input", "i", "", "directory scanned for PDF files (INPUT_DIR)")
	f.StringVarP(&flagOverrides.outputDir, "output", "o", "", "directory for JSON results (OUTPUT_DIR)")
	f.StringVar(&flagOverrides.model, "model", "", "Ollama model name (OLLAMA_MODEL)")
	f.StringVar(&flagOverrides.serverURL, "server", "", "Ollama server URL (OLLAMA_SERVER_URL)")
	f.StringVar(&flagOverrides.tesseractPath, "tesseract", "", "tesseract executable (TESSERACT_PATH)")
	f.IntVarP(&flagOverrides.workers, "workers", "w", 0, "concurrent file workers (WORKER_COUNT)")
	f.BoolVar(&flagOverrides.offline, "offline", false, "skip the model, heuristics only (OFFLINE)")
	f.BoolVar(&flagOverrides.noAISegment, "no-ai-segmentation", false, "use only heuristic document boundaries")
	f.BoolVar(&flagOverrides.rescan, "rescan", false, "reprocess files already in the catalog (RESCAN)")
	f.BoolVar(&flagOverrides.noPull, "no-pull", false, "do not pull the model when it is missing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OCR is not optional: without it image-only pages are unreadable.
	engine := ocr.NewTesseract(cfg.TesseractPath, cfg.OCRLanguages)
	if err := engine.Probe(ctx); err != nil {
		log.Error("tesseract unavailable", "path", cfg.TesseractPath, "error", err)
		os.Exit(1)
	}

	enricher, classifier := buildEnricher(ctx, cfg, log)

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Error("cannot open catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	defer cat.Close()

	orch := pipeline.NewOrchestrator(cfg, engine, enricher, classifier, cat, log)
	snap, err := orch.Run(ctx)
	if err != nil {
		log.Error("run aborted", "error", err)
		os.Exit(1)
	}

	log.Info("done",
		"run_id", snap.RunID,
		"files_scanned", snap.FilesScanned,
		"files_processed", snap.FilesProcessed,
		"files_skipped", snap.FilesSkipped,
		"files_failed", snap.FilesFailed,
		"documents_found", snap.DocumentsFound,
		"pages_ocred", snap.PagesOCRed,
		"duration", snap.Duration.Round(time.Millisecond),
	)
	return nil
}

// loadConfig reads the environment and applies flag overrides on top.
func loadConfig() config.Config {
	cfg := config.Load()
	if flagOverrides.inputDir != "" {
		cfg.InputDir = flagOverrides.inputDir
	}
	if flagOverrides.outputDir != "" {
		cfg.OutputDir = flagOverrides.outputDir
		if os.Getenv("CATALOG_PATH") == "" {
			cfg.CatalogPath = filepath.Join(cfg.OutputDir, "catalog.db")
		}
	}
	if flagOverrides.model != "" {
		cfg.OllamaModel = flagOverrides.model
	}
	if flagOverrides.serverURL != "" {
		cfg.OllamaServerURL = flagOverrides.serverURL
	}
	if flagOverrides.tesseractPath != "" {
		cfg.TesseractPath = flagOverrides.tesseractPath
	}
	if flagOverrides.workers > 0 {
		cfg.WorkerCount = flagOverrides.workers
	}
	if flagOverrides.offline {
		cfg.Offline = true
	}
	if flagOverrides.noAISegment {
		cfg.AISegmentation = false
	}
	if flagOverrides.rescan {
		cfg.Rescan = true
	}
	if flagOverrides.noPull {
		cfg.PullMissingModel = false
	}
	return cfg
}

// buildEnricher wires the Ollama client when a server is reachable and
// falls back to heuristics-only mode when it is not. The classifier is
// nil unless AI segmentation is enabled and the model is available.
func buildEnricher(ctx context.Context, cfg config.Config, log *slog.Logger) (*enrich.Enricher, segment.Classifier) {
	if cfg.Offline {
		log.Info("offline mode, heuristic analysis only")
		return enrich.New(nil, log), nil
	}

	client := ollama.NewClient(cfg.OllamaServerURL, cfg.OllamaModel, cfg.AITimeout)
	if cfg.OllamaProxyURL != "" {
		if err := client.UseProxy(cfg.OllamaProxyURL, cfg.OllamaProxyUser, cfg.OllamaProxyPass); err != nil {
			log.Error("invalid proxy configuration", "proxy", cfg.OllamaProxyURL, "error", err)
			os.Exit(1)
		}
	}
	if err := client.Ping(ctx); err != nil {
		log.Warn("ollama unreachable, falling back to offline mode",
			"server", cfg.OllamaServerURL, "error", err)
		return enrich.New(nil, log), nil
	}
	if err := client.EnsureModel(ctx, cfg.PullMissingModel); err != nil {
		log.Warn("model unavailable, falling back to offline mode",
			"model", cfg.OllamaModel, "error", err)
		return enrich.New(nil, log), nil
	}

	log.Info("ollama ready", "server", cfg.OllamaServerURL, "model", cfg.OllamaModel)
	enricher := enrich.New(client, log)
	if !cfg.AISegmentation {
		return enricher, nil
	}
	return enricher, enricher
}
