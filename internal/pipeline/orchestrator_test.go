package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/madmax100/licitia/internal/catalog"
	"github.com/madmax100/licitia/internal/config"
	"github.com/madmax100/licitia/internal/enrich"
	"github.com/madmax100/licitia/internal/ocr"
	"github.com/madmax100/licitia/internal/pdfreader"
	"github.com/madmax100/licitia/internal/segment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testOrchestrator(t *testing.T, cfg config.Config) *Orchestrator {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cat.Close() })

	enricher := enrich.New(nil, testLogger()) // offline
	engine := ocr.NewTesseract("tesseract", "por")
	return NewOrchestrator(cfg, engine, enricher, nil, cat, testLogger())
}

func TestScanInputDir(t *testing.T) {
	in := t.TempDir()
	mustWrite(t, filepath.Join(in, "a.pdf"))
	mustWrite(t, filepath.Join(in, "b.PDF"))
	mustWrite(t, filepath.Join(in, "notes.txt"))
	if err := os.MkdirAll(filepath.Join(in, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(in, "sub", "c.pdf"))

	o := testOrchestrator(t, config.Config{InputDir: in, WorkerCount: 1})
	files := o.scanInputDir()
	if len(files) != 3 {
		t.Errorf("expected 3 PDFs, got %d: %v", len(files), files)
	}
}

func TestScanInputDir_Missing(t *testing.T) {
	o := testOrchestrator(t, config.Config{
		InputDir:    filepath.Join(t.TempDir(), "nope"),
		WorkerCount: 1,
	})
	if files := o.scanInputDir(); len(files) != 0 {
		t.Errorf("expected no files for missing dir, got %v", files)
	}
}

func TestRun_EmptyInputSucceeds(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	o := testOrchestrator(t, config.Config{InputDir: in, OutputDir: out, WorkerCount: 2})

	snap, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if snap.FilesScanned != 0 || snap.FilesFailed != 0 {
		t.Errorf("unexpected report: %+v", snap)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			t.Errorf("no output files expected, found %s", e.Name())
		}
	}
}

func TestRun_BadFileDoesNotStopOthers(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	// Two garbage PDFs: both fail individually, the run itself succeeds.
	mustWrite(t, filepath.Join(in, "bad1.pdf"))
	mustWrite(t, filepath.Join(in, "bad2.pdf"))

	o := testOrchestrator(t, config.Config{InputDir: in, OutputDir: out, WorkerCount: 2, MinTextChars: 32})
	snap, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if snap.FilesScanned != 2 {
		t.Errorf("expected 2 scanned files, got %d", snap.FilesScanned)
	}
	if snap.FilesFailed != 2 {
		t.Errorf("expected both garbage files to fail, got %+v", snap)
	}
	if len(snap.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %v", snap.Errors)
	}
}

func TestWorker_AnalyzeDocumentOffline(t *testing.T) {
	cfg := config.Config{OutputDir: t.TempDir(), MinTextChars: 32}
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	report := NewRunReport("run-1")
	w := NewWorker(cfg, ocr.NewTesseract("tesseract", "por"), enrich.New(nil, testLogger()), nil, cat, testLogger(), report)

	pages := []pdfreader.Page{
		{Number: 1, Text: "LAUDO DE AVALIAÇÃO\nEmitido em 02/01/2024.\n\nDescrição do bem avaliado conforme vistoria realizada no local, tudo documentado em anexo fotográfico."},
		{Number: 2, Text: "continuação do laudo com os detalhes da avaliação."},
	}
	doc := w.analyzeDocument(context.Background(), testLogger(), 1, segment.Range{Start: 1, End: 2}, pages, pdfreader.DocInfo{})

	if doc.DocumentID != 1 || doc.StartPage != 1 || doc.EndPage != 2 || doc.PageCount != 2 {
		t.Errorf("unexpected document shape: %+v", doc)
	}
	if doc.Title != "LAUDO DE AVALIAÇÃO" {
		t.Errorf("unexpected title %q", doc.Title)
	}
	if doc.Date != "2024-01-02" {
		t.Errorf("unexpected date %q", doc.Date)
	}
	if doc.Summary == "" {
		t.Error("expected a non-empty summary")
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("not a real pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
}
