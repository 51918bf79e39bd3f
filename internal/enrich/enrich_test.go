package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/madmax100/licitia/internal/metadata"
	"github.com/madmax100/licitia/internal/ollama"
	"github.com/madmax100/licitia/internal/pdfreader"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, _ ollama.GenerateOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var docText = "TERMO DE RECEBIMENTO\n\n" +
	strings.Repeat("O objeto do presente termo foi recebido em conformidade com o edital. ", 4) +
	"\n\nAssinado em 20/05/2024."

func TestSummarize_UsesModel(t *testing.T) {
	gen := &stubGenerator{response: "Resumo gerado pelo modelo."}
	e := New(gen, nil)

	got, err := e.Summarize(context.Background(), docText)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != "Resumo gerado pelo modelo." {
		t.Errorf("Summarize() = %q", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "TERMO DE RECEBIMENTO") {
		t.Errorf("prompt missing document text: %v", gen.prompts)
	}
}

func TestSummarize_ModelFailureReturnsFallbackAndError(t *testing.T) {
	gen := &stubGenerator{err: &ollama.RetryableError{Message: "connection refused"}}
	e := New(gen, nil)

	got, err := e.Summarize(context.Background(), docText)
	if err == nil {
		t.Fatal("expected error to surface for retry handling")
	}
	if got == "" || got == SummaryUnavailable {
		t.Errorf("expected extractive fallback, got %q", got)
	}
}

func TestSummarize_Offline(t *testing.T) {
	e := New(nil, nil)
	if !e.Offline() {
		t.Fatal("expected offline enricher")
	}

	got, err := e.Summarize(context.Background(), docText)
	if err != nil {
		t.Fatalf("offline Summarize() error: %v", err)
	}
	if !strings.Contains(got, "recebido em conformidade") {
		t.Errorf("expected extractive summary, got %q", got)
	}
}

func TestSummarize_EmptyTextUnavailable(t *testing.T) {
	e := New(nil, nil)
	got, err := e.Summarize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != SummaryUnavailable {
		t.Errorf("expected SummaryUnavailable, got %q", got)
	}
}

func TestTitle(t *testing.T) {
	gen := &stubGenerator{response: "Termo de Recebimento\ncom linha extra"}
	e := New(gen, nil)
	got, err := e.Title(context.Background(), docText)
	if err != nil {
		t.Fatalf("Title() error: %v", err)
	}
	if got != "Termo de Recebimento" {
		t.Errorf("Title() = %q, want model title first line", got)
	}

	offline := New(nil, nil)
	got, err = offline.Title(context.Background(), docText)
	if err != nil {
		t.Fatalf("offline Title() error: %v", err)
	}
	if got != "TERMO DE RECEBIMENTO" {
		t.Errorf("offline Title() = %q", got)
	}

	got, _ = offline.Title(context.Background(), "ab")
	if got != metadata.TitleUnknown {
		t.Errorf("expected TitleUnknown, got %q", got)
	}
}

func TestDate(t *testing.T) {
	gen := &stubGenerator{response: "15/03/2024"}
	e := New(gen, nil)
	got, err := e.Date(context.Background(), docText)
	if err != nil {
		t.Fatalf("Date() error: %v", err)
	}
	if got != "2024-03-15" {
		t.Errorf("Date() = %q", got)
	}
}

func TestDate_ModelNotFoundFallsBack(t *testing.T) {
	gen := &stubGenerator{response: "Date not found"}
	e := New(gen, nil)
	got, err := e.Date(context.Background(), docText)
	if err != nil {
		t.Fatalf("Date() error: %v", err)
	}
	if got != "2024-05-20" {
		t.Errorf("expected regex fallback date, got %q", got)
	}
}

func TestDate_NothingAnywhere(t *testing.T) {
	e := New(nil, nil)
	got, err := e.Date(context.Background(), "sem data alguma")
	if err != nil {
		t.Fatalf("Date() error: %v", err)
	}
	if got != metadata.DateUnknown {
		t.Errorf("expected DateUnknown, got %q", got)
	}
}

func TestIsDocumentStart(t *testing.T) {
	page := pdfreader.Page{Number: 2, Text: docText}

	yes := New(&stubGenerator{response: "YES, this is a cover page"}, nil)
	got, err := yes.IsDocumentStart(context.Background(), page)
	if err != nil || !got {
		t.Errorf("expected YES decision, got (%v, %v)", got, err)
	}

	no := New(&stubGenerator{response: "NO"}, nil)
	got, err = no.IsDocumentStart(context.Background(), page)
	if err != nil || got {
		t.Errorf("expected NO decision, got (%v, %v)", got, err)
	}

	failing := New(&stubGenerator{err: errors.New("timeout")}, nil)
	if _, err := failing.IsDocumentStart(context.Background(), page); err == nil {
		t.Error("expected error so segmenter can fall back")
	}

	// Gibberish answers fall back to the heuristic locally.
	vague := New(&stubGenerator{response: "maybe?"}, nil)
	got, err = vague.IsDocumentStart(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("heuristic should flag a keyword cover page as a start")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short text", 100); got != "short text" {
		t.Errorf("clip() = %q", got)
	}
	long := strings.Repeat("palavra ", 100)
	got := clip(long, 50)
	if len([]rune(got)) > 50 {
		t.Errorf("clip() exceeded budget: %d runes", len([]rune(got)))
	}
	if strings.HasSuffix(got, "palavr") {
		t.Errorf("clip() should cut at a word boundary, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should be 0 tokens")
	}
	if EstimateTokens("a") != 1 {
		t.Error("minimum is 1 token for non-empty text")
	}
	if got := EstimateTokens(strings.Repeat("word ", 100)); got < 100 {
		t.Errorf("expected >= 100 tokens for 100 words, got %d", got)
	}
}
