// Package pdfloader implements a ports.Loader for PDF input by
// shelling out to the "pdftotext" command-line tool (part of the
// Poppler suite). PDF rasterization and OCR are explicitly out of
// scope for this module and treated as an external collaborator; this
// package is the seam through which that collaborator is invoked.
//
// The teacher's own PDF normaliser implementation did not survive
// retrieval - only its test file did - so this package is authored
// fresh, grounded on that test's expectations: a CommandRunner seam
// for dependency injection in tests, a title-extraction heuristic that
// prefers the first short non-empty line of extracted text and falls
// back to a filename-derived title, and install-instructions/
// availability-check helpers for a missing external tool.
package pdfloader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/folio-eng/folio/internal/ports"
)

var _ ports.Loader = (*Loader)(nil)

// ErrPDFToolNotFound is returned when the "pdftotext" binary cannot be
// located on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found on PATH")

const maxTitleLineLength = 200

// CommandRunner abstracts invoking an external command, so tests can
// substitute a mock instead of actually shelling out.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Loader loads PDF files by extracting their text with pdftotext.
type Loader struct {
	runner CommandRunner
}

// New returns a Loader that shells out to the real pdftotext binary.
func New() *Loader {
	return &Loader{runner: execRunner{}}
}

// NewWithRunner returns a Loader using a caller-supplied CommandRunner,
// for testing without an actual pdftotext installation.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner}
}

// CheckAvailable reports whether the pdftotext binary is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns a human-readable message pointing at how
// to install pdftotext on common platforms.
func InstallInstructions() string {
	return "pdftotext was not found. Install it with:\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian/Ubuntu: sudo apt install poppler-utils"
}

// Supports reports whether input has a ".pdf" extension.
func (l *Loader) Supports(input string) bool {
	return strings.EqualFold(filepath.Ext(input), ".pdf")
}

// Load extracts text from the PDF at input using pdftotext -layout,
// splitting the result into pages on the form-feed characters
// pdftotext emits between pages.
func (l *Loader) Load(ctx context.Context, input string) (*ports.LoadedDocument, error) {
	out, err := l.runner.Run(ctx, "pdftotext", "-layout", input, "-")
	if err != nil {
		return nil, fmt.Errorf("pdfloader: pdftotext failed: %w", err)
	}

	content := string(out)
	rawPages := strings.Split(content, "\f")
	pages := make([]ports.Page, len(rawPages))
	for i, text := range rawPages {
		pages[i] = ports.Page{Index: i, Text: text}
	}

	return &ports.LoadedDocument{
		Name:  extractTitle(content, input),
		Pages: pages,
	}, nil
}

// extractTitle prefers the first short, non-empty line of extracted
// text as the document title, falling back to a filename-derived title
// when no line qualifies.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxTitleLineLength {
			continue
		}
		return trimmed
	}
	return titleFromPath(uri)
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
