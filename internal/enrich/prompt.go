package enrich

import (
	"fmt"
	"strings"
)

const summaryPrompt = `Create a concise summary (maximum 3 paragraphs) of the following document. Respond in the document's own language, with no preamble:

%s`

const titlePrompt = `Extract the main title or document type from the following text. Give only the title, without any additional text:

%s`

const datePrompt = `Extract the creation or issue date from the following document text. Return just the date in DD/MM/YYYY format. If no date is found, return "Date not found".

%s`

const boundaryPrompt = `Analyze this page and determine if it appears to be the start of a new document. Look for title pages, cover pages, new headers, or other indicators that this is the first page of a document rather than a continuation page. Answer with only "YES" if this is likely the start of a new document, or "NO" if it is a continuation page.

Page text:
%s`

// Character budgets per prompt, mirroring what the model can usefully
// attend to for each task.
const (
	summaryBudget  = 3000
	titleBudget    = 1000
	dateBudget     = 2000
	boundaryBudget = 1500
)

func buildPrompt(template, text string, budget int) string {
	return fmt.Sprintf(template, clip(text, budget))
}

// clip truncates text to at most budget runes, cutting at a word
// boundary where possible.
func clip(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	clipped := string(runes[:budget])
	if i := strings.LastIndexByte(clipped, ' '); i > budget/2 {
		clipped = clipped[:i]
	}
	return clipped
}

// EstimateTokens gives a rough token count using a words-based proxy.
// Exact tokenization is not required for prompt budgeting.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
