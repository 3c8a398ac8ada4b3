package reader

import (
	"github.com/google/uuid"

	"github.com/jronit/playai-book-reader/pkg/pdftext"
)

// Document is an uploaded PDF held for the lifetime of one upload.
// It owns the text extraction cache; replacing the document drops all
// derived state.
type Document struct {
	// ID identifies this upload.
	ID uuid.UUID

	// Name is the original file name.
	Name string

	pageCount int
	cache     *pdftext.Cache
}

// NewDocument wraps a PDF source with a fresh extraction cache.
func NewDocument(name string, source pdftext.Source, opts ...pdftext.CacheOption) *Document {
	return &Document{
		ID:        uuid.New(),
		Name:      name,
		pageCount: source.NumPages(),
		cache:     pdftext.NewCache(source, opts...),
	}
}

// PageCount returns the number of pages, set once on load.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Text returns the extracted text for a page via the cache.
func (d *Document) Text(page int) (string, error) {
	return d.cache.Text(page)
}

// Cache exposes the extraction cache for preloading.
func (d *Document) Cache() *pdftext.Cache {
	return d.cache
}

// Close invalidates the extraction cache.
func (d *Document) Close() {
	d.cache.Reset()
}
