package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// RunReport tracks the outcome of one batch run across workers.
type RunReport struct {
	mu sync.Mutex

	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`

	FilesScanned   int `json:"files_scanned"`
	FilesProcessed int `json:"files_processed"`
	FilesSkipped   int `json:"files_skipped"`
	FilesFailed    int `json:"files_failed"`

	DocumentsFound int `json:"documents_found"`
	PagesOCRed     int `json:"pages_ocred"`

	errors []string
}

func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

func (r *RunReport) SetScanned(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FilesScanned = n
}

func (r *RunReport) FileProcessed(documents int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FilesProcessed++
	r.DocumentsFound += documents
}

func (r *RunReport) FileSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FilesSkipped++
}

// FileFailed records a per-file failure. Failures never abort the
// batch; they surface in the final report instead.
func (r *RunReport) FileFailed(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FilesFailed++
	r.errors = append(r.errors, fmt.Sprintf("%s: %s", path, err))
}

func (r *RunReport) PageOCRed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PagesOCRed++
}

// Snapshot is a read-only copy of the report, safe to serialize.
type Snapshot struct {
	RunID          string        `json:"run_id"`
	Duration       time.Duration `json:"duration"`
	FilesScanned   int           `json:"files_scanned"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	DocumentsFound int           `json:"documents_found"`
	PagesOCRed     int           `json:"pages_ocred"`
	Errors         []string      `json:"errors"`
}

func (r *RunReport) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]string, len(r.errors))
	copy(errs, r.errors)
	return Snapshot{
		RunID:          r.RunID,
		Duration:       time.Since(r.StartedAt),
		FilesScanned:   r.FilesScanned,
		FilesProcessed: r.FilesProcessed,
		FilesSkipped:   r.FilesSkipped,
		FilesFailed:    r.FilesFailed,
		DocumentsFound: r.DocumentsFound,
		PagesOCRed:     r.PagesOCRed,
		Errors:         errs,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
