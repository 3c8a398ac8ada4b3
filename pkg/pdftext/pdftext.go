// Package pdftext extracts plain text from PDF pages.
//
// A Cache wraps a page Source and memoizes both the extracted text and the
// underlying page handles, so repeated reads and preloading never decode the
// same page twice. The cache is scoped to one document: replace it wholesale
// when a new document is loaded.
package pdftext

import (
	"fmt"
	"strings"
)

// Page is a loaded PDF page handle.
type Page interface {
	// TextContent returns the page's raw text fragments in reading order.
	TextContent() ([]string, error)
}

// Source provides access to the pages of one PDF document.
type Source interface {
	// NumPages returns the page count of the document.
	NumPages() int

	// GetPage loads the page with the given 1-based number.
	GetPage(n int) (Page, error)
}

// NormalizeText collapses all whitespace runs to single spaces and trims.
func NormalizeText(fragments []string) string {
	joined := strings.Join(fragments, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// ErrPageOutOfRange is returned for page numbers outside 1..NumPages.
type ErrPageOutOfRange struct {
	Page  int
	Total int
}

func (e *ErrPageOutOfRange) Error() string {
	return fmt.Sprintf("pdftext: page %d out of range (document has %d pages)", e.Page, e.Total)
}
