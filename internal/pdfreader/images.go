package pdfreader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// HasImages reports whether the given page carries image XObjects.
// Scanned bundles typically have exactly one full-page image per page.
func (f *File) HasImages(pageNr int) bool {
	return len(pdfcpu.ImageObjNrs(f.ctx, pageNr)) > 0
}

// ExtractPageImage writes the first image of the given page into dir
// and returns its path. Pages without images return "" and no error:
// there is simply nothing to OCR.
func (f *File) ExtractPageImage(pageNr int, dir string) (string, error) {
	if pageNr < 1 || pageNr > f.PageCount {
		return "", fmt.Errorf("page %d out of range [1,%d]", pageNr, f.PageCount)
	}

	images, err := pdfcpu.ExtractPageImages(f.ctx, pageNr, false)
	if err != nil {
		return "", fmt.Errorf("extract images page %d: %w", pageNr, err)
	}
	if len(images) == 0 {
		return "", nil
	}

	for _, img := range images {
		ext := img.FileType
		if ext == "" {
			ext = "png"
		}
		path := filepath.Join(dir, fmt.Sprintf("page_%04d.%s", pageNr, ext))
		out, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create page image: %w", err)
		}
		if _, err := io.Copy(out, img); err != nil {
			out.Close()
			return "", fmt.Errorf("write page image: %w", err)
		}
		if err := out.Close(); err != nil {
			return "", fmt.Errorf("close page image: %w", err)
		}
		return path, nil
	}
	return "", nil
}
