package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DocumentResult is the analysis of one logical document inside a PDF.
type DocumentResult struct {
	DocumentID int    `json:"document_id"` // 1-based within the source file
	StartPage  int    `json:"start_page"`
	EndPage    int    `json:"end_page"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Date       string `json:"date"`
	PageCount  int    `json:"page_count"`
}

// FileResult is the full analysis of one input PDF, serialized to the
// output directory.
type FileResult struct {
	SourceFile  string           `json:"source_file"`
	ContentHash string           `json:"content_hash"`
	PageCount   int              `json:"page_count"`
	AnalyzedAt  time.Time        `json:"analyzed_at"`
	Documents   []DocumentResult `json:"documents"`
}

// WriteResult serializes res into outputDir. The filename combines the
// source base name, a timestamp and a content-hash prefix so that
// concurrent runs and same-named inputs never collide.
func WriteResult(outputDir string, res FileResult) (string, error) {
	base := strings.TrimSuffix(filepath.Base(res.SourceFile), filepath.Ext(res.SourceFile))
	name := fmt.Sprintf("%s_%s_%s.json",
		base,
		res.AnalyzedAt.Format("20060102_150405"),
		hashPrefix(res.ContentHash))
	path := filepath.Join(outputDir, name)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

func hashPrefix(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
