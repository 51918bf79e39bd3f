package pdfreader

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrInvalidPDF marks a file that exists and is readable but is not a
// well-formed PDF. Missing or unreadable files surface the underlying
// os error instead.
var ErrInvalidPDF = errors.New("not a valid PDF")

// Page is one page of a source PDF. Pages are immutable once read,
// except that the OCR pass fills Text for image-only pages.
type Page struct {
	Number    int    // 1-based
	Text      string // extracted text layer, may be empty
	ImagePath string // rendered page image, set only for image-only pages
	Source    string // originating PDF path
}

// ImageOnly reports whether the page needs OCR: its text layer is
// missing or too thin to be useful.
func (p Page) ImageOnly(minTextChars int) bool {
	return len(strings.TrimSpace(p.Text)) < minTextChars
}

// DocInfo carries document-level metadata from the PDF info dictionary.
type DocInfo struct {
	Title        string
	CreationDate string // raw PDF date string, e.g. "D:20240131120000Z"
}

// File is an opened, validated PDF.
type File struct {
	Path      string
	PageCount int
	Info      DocInfo

	ctx *model.Context
}

// Open validates the PDF at path and reads its structure. It returns
// the underlying os error for missing or unreadable files, and an
// error wrapping ErrInvalidPDF for files pdfcpu rejects. A valid PDF
// with zero pages is not an error.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPDF, path, err)
	}

	file := &File{
		Path:      path,
		PageCount: ctx.PageCount,
		ctx:       ctx,
	}
	file.Info = readInfo(path)
	return file, nil
}

// Pages extracts the text layer of every page, in page order,
// 1-indexed. Pages whose text is shorter than minTextChars are
// returned with their text as-is; the caller decides whether to OCR
// them (see ImageOnly).
func (f *File) Pages() ([]Page, error) {
	if f.PageCount == 0 {
		return []Page{}, nil
	}

	texts, err := extractTextByPage(f.Path, f.PageCount)
	if err != nil {
		texts, err = extractPdftotext(f.Path, f.PageCount)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	pages := make([]Page, f.PageCount)
	for i := range pages {
		pages[i] = Page{
			Number: i + 1,
			Text:   texts[i],
			Source: f.Path,
		}
	}
	return pages, nil
}

// extractTextByPage pulls per-page text via the Go PDF library.
func extractTextByPage(path string, pageCount int) ([]string, error) {
	osFile, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer osFile.Close()

	texts := make([]string, pageCount)
	n := reader.NumPage()
	if n > pageCount {
		n = pageCount
	}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// extractPdftotext shells out to poppler's pdftotext, which emits one
// form feed per page boundary.
func extractPdftotext(path string, pageCount int) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	parts := strings.Split(string(out), "\f")
	texts := make([]string, pageCount)
	for i := 0; i < pageCount && i < len(parts); i++ {
		texts[i] = parts[i]
	}
	return texts, nil
}

// readInfo reads the PDF info dictionary. Best effort: any failure
// yields an empty DocInfo rather than an error.
func readInfo(path string) DocInfo {
	osFile, reader, err := pdflib.Open(path)
	if err != nil {
		return DocInfo{}
	}
	defer osFile.Close()

	defer func() { recover() }() // malformed info dicts panic inside the library

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return DocInfo{}
	}
	return DocInfo{
		Title:        strings.TrimSpace(info.Key("Title").RawString()),
		CreationDate: strings.TrimSpace(info.Key("CreationDate").RawString()),
	}
}
