package ocr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestNewTesseract_Defaults(t *testing.T) {
	e := NewTesseract("", "")
	if e.Path != "tesseract" {
		t.Errorf("expected default path, got %q", e.Path)
	}
	if e.Languages != "por" {
		t.Errorf("expected default language, got %q", e.Languages)
	}
	if e.Name() != "tesseract" {
		t.Errorf("unexpected engine name %q", e.Name())
	}
}

func TestProbe_MissingExecutable(t *testing.T) {
	e := NewTesseract(filepath.Join(t.TempDir(), "no-such-tesseract"), "por")
	err := e.Probe(context.Background())
	if err == nil {
		t.Fatal("expected probe failure for missing executable")
	}
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestRecognize_MissingExecutable(t *testing.T) {
	e := NewTesseract(filepath.Join(t.TempDir(), "no-such-tesseract"), "por")
	_, err := e.Recognize(context.Background(), "page.png")
	if err == nil {
		t.Fatal("expected recognize failure for missing executable")
	}
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
