package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/madmax100/licitia/internal/catalog"
	"github.com/madmax100/licitia/internal/config"
	"github.com/madmax100/licitia/internal/enrich"
	"github.com/madmax100/licitia/internal/metadata"
	"github.com/madmax100/licitia/internal/ocr"
	"github.com/madmax100/licitia/internal/pdfreader"
	"github.com/madmax100/licitia/internal/segment"
)

// Worker processes one input PDF end to end: read, OCR, segment,
// enrich, write. Failures are reported to the run report and never
// escape to stop other files.
type Worker struct {
	cfg        config.Config
	engine     ocr.Engine
	enricher   *enrich.Enricher
	classifier segment.Classifier // nil disables AI segmentation
	cat        *catalog.Store
	log        *slog.Logger
	report     *RunReport
}

func NewWorker(cfg config.Config, engine ocr.Engine, enricher *enrich.Enricher, classifier segment.Classifier, cat *catalog.Store, log *slog.Logger, report *RunReport) *Worker {
	return &Worker{
		cfg:        cfg,
		engine:     engine,
		enricher:   enricher,
		classifier: classifier,
		cat:        cat,
		log:        log,
		report:     report,
	}
}

// Process runs the full analysis pipeline for one file.
func (w *Worker) Process(ctx context.Context, runID, path string) {
	log := w.log.With("file", path)

	if err := w.processFile(ctx, log, runID, path); err != nil {
		log.Error("file failed", "error", err)
		w.report.FileFailed(path, err)
		w.recordFile(ctx, log, catalog.FileRecord{
			RunID:  runID,
			Path:   path,
			Status: catalog.StatusFailed,
		})
	}
}

func (w *Worker) processFile(ctx context.Context, log *slog.Logger, runID, path string) error {
	// Phase 1: read and validate.
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	contentHash := ContentHashHex(raw)

	// Dedup before any expensive work.
	if !w.cfg.Rescan {
		seen, err := w.cat.Seen(ctx, contentHash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if seen {
			log.Info("already analyzed, skipping", "content_hash", contentHash[:8])
			w.report.FileSkipped()
			w.recordFile(ctx, log, catalog.FileRecord{
				RunID:       runID,
				Path:        path,
				ContentHash: contentHash,
				Status:      catalog.StatusSkipped,
			})
			return nil
		}
	}

	file, err := pdfreader.Open(path)
	if err != nil {
		return err
	}

	pages, err := file.Pages()
	if err != nil {
		return err
	}
	log.Info("read pdf", "pages", len(pages))

	if len(pages) == 0 {
		// A valid but empty PDF: nothing to analyze, not a failure.
		// Still gets a result file so every input has an output.
		log.Warn("pdf has zero pages, nothing to do")
		outPath, err := WriteResult(w.cfg.OutputDir, FileResult{
			SourceFile:  path,
			ContentHash: contentHash,
			AnalyzedAt:  time.Now(),
			Documents:   []DocumentResult{},
		})
		if err != nil {
			return err
		}
		w.report.FileProcessed(0)
		w.recordFile(ctx, log, catalog.FileRecord{
			RunID:       runID,
			Path:        path,
			ContentHash: contentHash,
			OutputPath:  outPath,
			Status:      catalog.StatusProcessed,
		})
		return nil
	}

	// Phase 2: OCR image-only pages. The extracted page images must
	// outlive segmentation and enrichment: the boundary classifier and
	// multimodal prompts read them from disk.
	tmpDir, err := w.ocrPages(ctx, log, file, pages)
	if tmpDir != "" {
		defer os.RemoveAll(tmpDir)
	}
	if err != nil {
		return err
	}

	// Phase 3: segment into logical documents.
	ranges := segment.Split(ctx, pages, w.classifier)
	log.Info("segmented", "documents", len(ranges))

	// Phase 4: enrich each document.
	docs := make([]DocumentResult, 0, len(ranges))
	for i, r := range ranges {
		docs = append(docs, w.analyzeDocument(ctx, log, i+1, r, pages, file.Info))
	}

	// Phase 5: write the result file.
	outPath, err := WriteResult(w.cfg.OutputDir, FileResult{
		SourceFile:  path,
		ContentHash: contentHash,
		PageCount:   len(pages),
		AnalyzedAt:  time.Now(),
		Documents:   docs,
	})
	if err != nil {
		return err
	}
	log.Info("wrote result", "output", outPath, "documents", len(docs))

	w.report.FileProcessed(len(docs))
	w.recordFile(ctx, log, catalog.FileRecord{
		RunID:         runID,
		Path:          path,
		ContentHash:   contentHash,
		DocumentCount: len(docs),
		OutputPath:    outPath,
		Status:        catalog.StatusProcessed,
	})
	return nil
}

// ocrPages extracts page images for pages without a usable text layer
// and runs them through the OCR engine. A page that stays empty after
// OCR is kept; an unavailable engine aborts the file. The returned
// temp dir holds the extracted images; the caller removes it once the
// whole file is done, since later phases read the images again.
func (w *Worker) ocrPages(ctx context.Context, log *slog.Logger, file *pdfreader.File, pages []pdfreader.Page) (string, error) {
	var tmpDir string

	for i := range pages {
		if !pages[i].ImageOnly(w.cfg.MinTextChars) {
			continue
		}
		if !file.HasImages(pages[i].Number) {
			continue // blank page, nothing to recognize
		}

		if tmpDir == "" {
			dir, err := os.MkdirTemp("", "licitia-pages-*")
			if err != nil {
				return "", fmt.Errorf("create temp dir: %w", err)
			}
			tmpDir = dir
		}

		imgPath, err := file.ExtractPageImage(pages[i].Number, tmpDir)
		if err != nil {
			log.Warn("page image extraction failed", "page", pages[i].Number, "error", err)
			continue
		}
		if imgPath == "" {
			continue // nothing on this page to recognize
		}
		pages[i].ImagePath = imgPath

		text, err := w.engine.Recognize(ctx, imgPath)
		if err != nil {
			if errors.Is(err, ocr.ErrEngineUnavailable) {
				return tmpDir, err
			}
			log.Warn("ocr failed for page", "page", pages[i].Number, "error", err)
			continue
		}
		if text != "" {
			pages[i].Text = text
		}
		w.report.PageOCRed()
	}
	return tmpDir, nil
}

// analyzeDocument derives metadata and a summary for one page range.
// Every step degrades instead of failing: a bad document still yields
// a result entry with unknown fields.
func (w *Worker) analyzeDocument(ctx context.Context, log *slog.Logger, id int, r segment.Range, pages []pdfreader.Page, info pdfreader.DocInfo) DocumentResult {
	docPages := pages[r.Start-1 : r.End]
	text := metadata.JoinPages(docPages)
	md := metadata.Analyze(docPages, info)

	title, err := w.enricher.Title(ctx, text)
	if err != nil {
		log.Warn("title extraction degraded", "document", id, "error", err)
	}
	if title == metadata.TitleUnknown && md.Title != metadata.TitleUnknown {
		title = md.Title
	}

	date, err := w.enricher.Date(ctx, text)
	if err != nil {
		log.Warn("date extraction degraded", "document", id, "error", err)
	}
	if date == metadata.DateUnknown && md.Date != metadata.DateUnknown {
		date = md.Date
	}

	summary := w.summarizeWithRetry(ctx, log, id, text)

	return DocumentResult{
		DocumentID: id,
		StartPage:  r.Start,
		EndPage:    r.End,
		Title:      title,
		Summary:    summary,
		Date:       date,
		PageCount:  r.PageCount(),
	}
}

// summarizeWithRetry retries transient model failures with backoff and
// keeps the enricher's extractive fallback when retries are exhausted.
func (w *Worker) summarizeWithRetry(ctx context.Context, log *slog.Logger, id int, text string) string {
	var summary string
	var lastErr error
	for attempt := range MaxRetries {
		summary, lastErr = w.enricher.Summarize(ctx, text)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable summary error", "document", id, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return summary
		}
	}
	if lastErr != nil {
		log.Warn("summary degraded to extractive fallback", "document", id, "error", lastErr)
	}
	if summary == "" {
		summary = enrich.SummaryUnavailable
	}
	return summary
}

func (w *Worker) recordFile(ctx context.Context, log *slog.Logger, rec catalog.FileRecord) {
	if err := w.cat.RecordFile(ctx, rec); err != nil {
		log.Warn("catalog write failed", "error", err)
	}
}
