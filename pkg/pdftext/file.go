package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// File is a Source backed by a PDF document parsed with ledongthuc/pdf.
type File struct {
	reader *pdf.Reader
}

// OpenBytes parses an in-memory PDF (e.g. an upload body).
func OpenBytes(data []byte) (*File, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdftext: parse pdf: %w", err)
	}
	return &File{reader: r}, nil
}

// Open parses a PDF from disk.
func Open(path string) (*File, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdftext: open pdf: %w", err)
	}
	// The reader keeps the file open for lazy page access; it is released
	// when the File is garbage collected with the process.
	_ = f
	return &File{reader: r}, nil
}

// NumPages returns the document page count.
func (f *File) NumPages() int {
	return f.reader.NumPage()
}

// GetPage loads a 1-based page.
func (f *File) GetPage(n int) (Page, error) {
	if n < 1 || n > f.reader.NumPage() {
		return nil, &ErrPageOutOfRange{Page: n, Total: f.reader.NumPage()}
	}
	p := f.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("pdftext: page %d is missing", n)
	}
	return &filePage{page: p}, nil
}

type filePage struct {
	page pdf.Page
}

// TextContent returns the page's raw text fragments in content order.
func (p *filePage) TextContent() (fragments []string, err error) {
	// The underlying parser panics on malformed content streams; convert
	// that into an error so one bad page cannot take down a load pass.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdftext: extract text: %v", r)
		}
	}()

	content := p.page.Content()
	fragments = make([]string, 0, len(content.Text))
	for _, t := range content.Text {
		fragments = append(fragments, t.S)
	}
	return fragments, nil
}
