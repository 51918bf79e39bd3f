// Package ocr converts page images to text through an external OCR
// engine. The engine binary is configured via TESSERACT_PATH; a page
// that recognizes to nothing is an empty result, not an error.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEngineUnavailable means the OCR executable is missing or not
// runnable. This is a configuration error and fatal for the run,
// unlike a page that simply yields no text.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in a page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract shells out to the tesseract binary.
type Tesseract struct {
	// Path is the executable name or absolute path (TESSERACT_PATH).
	Path string
	// Languages is the tesseract -l argument, e.g. "por" or "por+eng".
	Languages string
}

func NewTesseract(path, languages string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	if languages == "" {
		languages = "por"
	}
	return &Tesseract{Path: path, Languages: languages}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Probe verifies the engine can be executed. Run this once before
// processing any files so a misconfigured TESSERACT_PATH fails the
// run up front.
func (t *Tesseract) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(t.Path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, t.Path, err)
	}
	cmd := exec.CommandContext(ctx, t.Path, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, t.Path, err)
	}
	return nil
}

// Recognize runs OCR on the image at imagePath and returns the
// recognized text. An image that contains no recognizable text
// returns ("", nil).
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, imagePath, "stdout", "-l", t.Languages, "--psm", "6")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, t.Path, err)
		}
		return "", fmt.Errorf("ocr %s: %v: %s", imagePath, err, truncate(stderr.String(), 200))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
