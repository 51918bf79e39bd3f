// Package pipeline wires the per-file analysis stages together and
// runs them over every PDF found in the input directory. One file's
// failure never stops the batch.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/madmax100/licitia/internal/catalog"
	"github.com/madmax100/licitia/internal/config"
	"github.com/madmax100/licitia/internal/enrich"
	"github.com/madmax100/licitia/internal/ocr"
	"github.com/madmax100/licitia/internal/segment"
)

// Orchestrator runs the batch: scan the input directory, fan the
// files out to workers, collect the run report.
type Orchestrator struct {
	cfg        config.Config
	engine     ocr.Engine
	enricher   *enrich.Enricher
	classifier segment.Classifier
	cat        *catalog.Store
	log        *slog.Logger
}

func NewOrchestrator(cfg config.Config, engine ocr.Engine, enricher *enrich.Enricher, classifier segment.Classifier, cat *catalog.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		engine:     engine,
		enricher:   enricher,
		classifier: classifier,
		cat:        cat,
		log:        log,
	}
}

// Run processes every PDF under the input directory and returns the
// run report. The returned error covers environment problems only
// (output directory not writable, catalog unavailable); per-file
// failures are counted in the report instead.
func (o *Orchestrator) Run(ctx context.Context) (Snapshot, error) {
	runID := uuid.NewString()
	report := NewRunReport(runID)

	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return report.Snapshot(), fmt.Errorf("create output directory: %w", err)
	}

	files := o.scanInputDir()
	report.SetScanned(len(files))
	o.log.Info("starting run", "run_id", runID, "files", len(files), "workers", o.cfg.WorkerCount)

	if err := o.cat.BeginRun(ctx, runID); err != nil {
		return report.Snapshot(), err
	}

	queue := make(chan string)
	var wg sync.WaitGroup
	for range o.cfg.WorkerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := NewWorker(o.cfg, o.engine, o.enricher, o.classifier, o.cat, o.log, report)
			for path := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				w.Process(ctx, runID, path)
			}
		}()
	}

dispatch:
	for _, path := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- path:
		}
	}
	close(queue)
	wg.Wait()

	snap := report.Snapshot()
	if err := o.cat.FinishRun(ctx, runID, snap.FilesScanned, snap.FilesFailed); err != nil {
		o.log.Warn("catalog run update failed", "error", err)
	}

	o.log.Info("run complete",
		"run_id", runID,
		"processed", snap.FilesProcessed,
		"skipped", snap.FilesSkipped,
		"failed", snap.FilesFailed,
		"documents", snap.DocumentsFound,
		"duration", snap.Duration)
	return snap, nil
}

// scanInputDir collects PDF paths under the input directory. Walk
// errors (missing directory, unreadable subtree) are logged and
// skipped so the rest of the batch still runs.
func (o *Orchestrator) scanInputDir() []string {
	var files []string
	err := filepath.WalkDir(o.cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			o.log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		o.log.Warn("input scan incomplete", "dir", o.cfg.InputDir, "error", err)
	}
	return files
}
