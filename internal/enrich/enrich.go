// Package enrich derives per-document descriptions with a local
// language model, degrading to extractive heuristics whenever the
// model is unavailable. Every method returns a usable value; AI
// failures are reported through the error so callers can retry, but
// the returned fallback text is always safe to use.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/madmax100/licitia/internal/metadata"
	"github.com/madmax100/licitia/internal/ollama"
	"github.com/madmax100/licitia/internal/pdfreader"
	"github.com/madmax100/licitia/internal/segment"
)

// SummaryUnavailable is reported when neither the model nor the
// extractive fallback could produce a summary.
const SummaryUnavailable = "Resumo indisponível"

// Generator is the model call the enricher depends on. Satisfied by
// *ollama.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ollama.GenerateOptions) (string, error)
}

// Enricher produces titles, dates, summaries and boundary decisions.
// With a nil generator (offline mode) only the heuristics run.
type Enricher struct {
	gen Generator
	log *slog.Logger
}

func New(gen Generator, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{gen: gen, log: log}
}

// Offline reports whether the enricher runs without a model.
func (e *Enricher) Offline() bool { return e.gen == nil }

// Summarize produces a short description of the document text. On
// model failure the extractive fallback is returned together with the
// error; the caller may retry and keep the fallback if retries are
// exhausted.
func (e *Enricher) Summarize(ctx context.Context, text string) (string, error) {
	if e.gen != nil {
		e.log.Debug("summarizing", "est_tokens", EstimateTokens(text))
		resp, err := e.gen.Generate(ctx, buildPrompt(summaryPrompt, text, summaryBudget), ollama.GenerateOptions{})
		if err == nil && resp != "" {
			return resp, nil
		}
		if err != nil {
			return fallbackSummary(text), err
		}
	}
	return fallbackSummary(text), nil
}

// Title extracts a document title, preferring the model.
func (e *Enricher) Title(ctx context.Context, text string) (string, error) {
	if e.gen != nil {
		resp, err := e.gen.Generate(ctx, buildPrompt(titlePrompt, text, titleBudget), ollama.GenerateOptions{})
		if err == nil && resp != "" {
			return firstLine(resp), nil
		}
		if err != nil {
			return fallbackTitle(text), err
		}
	}
	return fallbackTitle(text), nil
}

// Date extracts a creation date in ISO form, preferring the model.
func (e *Enricher) Date(ctx context.Context, text string) (string, error) {
	if e.gen != nil {
		resp, err := e.gen.Generate(ctx, buildPrompt(datePrompt, text, dateBudget), ollama.GenerateOptions{})
		if err != nil {
			return fallbackDate(text), err
		}
		if resp != "" && !strings.Contains(strings.ToLower(resp), "not found") {
			if iso, ok := metadata.ExtractDate(resp); ok {
				return iso, nil
			}
		}
	}
	return fallbackDate(text), nil
}

// IsDocumentStart implements segment.Classifier: it asks the model
// whether the page opens a new document, attaching the page image for
// multimodal models when one is available. Heuristic fallback on any
// failure.
func (e *Enricher) IsDocumentStart(ctx context.Context, page pdfreader.Page) (bool, error) {
	if e.gen == nil {
		return segment.HeuristicStart(page.Text), nil
	}
	resp, err := e.gen.Generate(ctx,
		buildPrompt(boundaryPrompt, page.Text, boundaryBudget),
		ollama.GenerateOptions{ImagePath: page.ImagePath})
	if err != nil {
		e.log.Debug("boundary classification failed, using heuristic",
			"page", page.Number, "error", err)
		return false, err
	}
	answer := strings.ToUpper(resp)
	if !strings.Contains(answer, "YES") && !strings.Contains(answer, "NO") {
		return segment.HeuristicStart(page.Text), nil
	}
	return strings.Contains(answer, "YES"), nil
}

var _ segment.Classifier = (*Enricher)(nil)

// fallbackSummary is the offline path: the first substantial
// paragraphs, capped at 500 characters.
func fallbackSummary(text string) string {
	var relevant []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) > 50 {
			relevant = append(relevant, p)
		}
		if len(relevant) == 3 {
			break
		}
	}

	if len(relevant) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return SummaryUnavailable
		}
		return "Extrato do documento: " + clip(trimmed, 500)
	}

	summary := strings.Join(relevant, "\n")
	if len([]rune(summary)) > 500 {
		summary = clip(summary, 500) + "..."
	}
	return summary
}

func fallbackTitle(text string) string {
	if t := metadata.ExtractTitle(text); t != "" {
		return t
	}
	return metadata.TitleUnknown
}

func fallbackDate(text string) string {
	if d, ok := metadata.ExtractDate(text); ok {
		return d
	}
	return metadata.DateUnknown
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
