// Package metadata derives per-document metadata (title, creation
// date, page count) from extracted text. Every extraction degrades to
// an "unknown" value instead of failing: a document with garbage
// metadata must never abort the run.
package metadata

import (
	"strings"

	"github.com/madmax100/licitia/internal/pdfreader"
)

const (
	// TitleUnknown is reported when no title can be derived.
	TitleUnknown = "Documento sem título identificado"
	// DateUnknown is reported when no creation date can be derived.
	DateUnknown = "Data não identificada"
)

// Metadata is the derived description of one document.
type Metadata struct {
	Title     string `json:"title"`
	Date      string `json:"date"` // ISO YYYY-MM-DD or DateUnknown
	PageCount int    `json:"page_count"`
}

// Analyze derives metadata for a document made of the given pages.
// info carries the source PDF's info dictionary, used as a fallback
// for both title and date.
func Analyze(pages []pdfreader.Page, info pdfreader.DocInfo) Metadata {
	text := JoinPages(pages)

	title := ExtractTitle(text)
	if title == "" {
		title = strings.TrimSpace(info.Title)
	}
	if title == "" {
		title = TitleUnknown
	}

	date, ok := ExtractDate(text)
	if !ok {
		date, ok = ParsePDFDate(info.CreationDate)
	}
	if !ok {
		date = DateUnknown
	}

	return Metadata{
		Title:     title,
		Date:      date,
		PageCount: len(pages),
	}
}

// JoinPages assembles the full text of a document, one page per line
// block, in page order.
func JoinPages(pages []pdfreader.Page) string {
	var sb strings.Builder
	for _, p := range pages {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// ExtractTitle picks the first line that has the shape of a title:
// between 5 and 100 characters, among the first 10 non-blank lines.
// Returns "" when nothing qualifies.
func ExtractTitle(text string) string {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		candidates = append(candidates, line)
		if len(candidates) == 10 {
			break
		}
	}

	for _, line := range candidates {
		if n := len([]rune(line)); n > 5 && n < 100 {
			return line
		}
	}
	return ""
}
