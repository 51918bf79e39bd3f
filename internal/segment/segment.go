// Package segment splits the ordered page stream of one PDF into
// logical documents. Ranges are contiguous, non-overlapping and
// gap-free: every page belongs to exactly one document, and page 1
// always opens the first document.
package segment

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/madmax100/licitia/internal/pdfreader"
)

// Range is a 1-based inclusive page range of one logical document.
type Range struct {
	Start int
	End   int
}

// PageCount returns the number of pages covered by the range.
func (r Range) PageCount() int { return r.End - r.Start + 1 }

// Classifier decides whether a page opens a new document. An error is
// never fatal to segmentation: the caller falls back to the built-in
// heuristic for that page.
type Classifier interface {
	IsDocumentStart(ctx context.Context, page pdfreader.Page) (bool, error)
}

// Split segments pages into document ranges. classifier may be nil,
// in which case only the heuristic rule applies. An empty page slice
// yields no ranges.
func Split(ctx context.Context, pages []pdfreader.Page, classifier Classifier) []Range {
	if len(pages) == 0 {
		return nil
	}

	var ranges []Range
	start := pages[0].Number

	for i := 1; i < len(pages); i++ {
		page := pages[i]
		if !startsNewDocument(ctx, page, classifier) {
			continue
		}
		ranges = append(ranges, Range{Start: start, End: page.Number - 1})
		start = page.Number
	}

	ranges = append(ranges, Range{Start: start, End: pages[len(pages)-1].Number})
	return ranges
}

func startsNewDocument(ctx context.Context, page pdfreader.Page, classifier Classifier) bool {
	if classifier != nil {
		isStart, err := classifier.IsDocumentStart(ctx, page)
		if err == nil {
			return isStart
		}
	}
	return HeuristicStart(page.Text)
}

// startKeywords are document types that open official filings. A page
// whose first lines name one of these is treated as a cover page.
// Matched as whole words so "autos" does not count as "auto".
var startKeywords = map[string]bool{
	"termo": true, "relatório": true, "relatorio": true, "laudo": true,
	"auto": true, "ofício": true, "oficio": true, "memorando": true,
	"processo": true, "parecer": true, "despacho": true,
	"decisão": true, "decisao": true,
}

// sparsePageChars: cover pages carry little text. Pages below this
// many characters are assumed to start a document.
const sparsePageChars = 300

// HeuristicStart is the fallback boundary rule. A page starts a new
// document when any of the following holds:
//
//  1. one of the official document-type keywords appears in its first
//     five lines;
//  2. its first non-blank line is short (≤100 chars) and written
//     entirely in uppercase, the shape of a title line;
//  3. the page carries fewer than 300 characters of text.
func HeuristicStart(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < sparsePageChars {
		return true
	}

	lines := strings.Split(trimmed, "\n")

	head := lines
	if len(head) > 5 {
		head = head[:5]
	}
	headText := strings.ToLower(strings.Join(head, " "))
	for _, word := range strings.Fields(headText) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if startKeywords[word] {
			return true
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return utf8.RuneCountInString(line) <= 100 && isUpper(line)
	}
	return false
}

// isUpper reports whether s contains at least one letter and no
// lowercase letters.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
