package pdftext

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultPreloadDebounce is how long page navigation must settle before the
// neighbor pages are extracted. Tunable; not a correctness requirement.
const DefaultPreloadDebounce = 150 * time.Millisecond

// Cache memoizes extracted page text and page handles for one document.
// Entries are immutable once stored; Reset discards everything.
type Cache struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex
	text  map[int]string
	pages map[int]Page

	debounce     time.Duration
	preloadTimer *time.Timer
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithPreloadDebounce overrides the preload debounce window.
func WithPreloadDebounce(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.debounce = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a cache over the given page source.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		source:   source,
		logger:   slog.Default().With("component", "pdftext.cache"),
		text:     make(map[int]string),
		pages:    make(map[int]Page),
		debounce: DefaultPreloadDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text returns the whitespace-normalized plain text of a page, extracting
// and caching it on first access. The result may be empty for pages with
// no text content.
func (c *Cache) Text(page int) (string, error) {
	if page < 1 || page > c.source.NumPages() {
		return "", &ErrPageOutOfRange{Page: page, Total: c.source.NumPages()}
	}

	c.mu.Lock()
	if text, ok := c.text[page]; ok {
		c.mu.Unlock()
		return text, nil
	}
	c.mu.Unlock()

	handle, err := c.source.GetPage(page)
	if err != nil {
		return "", err
	}

	fragments, err := handle.TextContent()
	if err != nil {
		return "", err
	}

	text := NormalizeText(fragments)
	if text == "" {
		c.logger.Warn("no text extracted from page", "page", page)
	}

	c.mu.Lock()
	// A concurrent extraction may have won; first write stays.
	if existing, ok := c.text[page]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.text[page] = text
	c.pages[page] = handle
	c.mu.Unlock()

	return text, nil
}

// PageHandle returns the cached page handle, if any.
func (c *Cache) PageHandle(page int) (Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[page]
	return p, ok
}

// Cached reports whether a page's text is already extracted.
func (c *Cache) Cached(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.text[page]
	return ok
}

// Preload schedules extraction of the pages adjacent to the current one.
// Rapid successive calls coalesce: only the last navigation within the
// debounce window triggers work.
func (c *Cache) Preload(current int) {
	c.mu.Lock()
	if c.preloadTimer != nil {
		c.preloadTimer.Stop()
	}
	c.preloadTimer = time.AfterFunc(c.debounce, func() {
		c.preloadNeighbors(current)
	})
	c.mu.Unlock()
}

func (c *Cache) preloadNeighbors(current int) {
	total := c.source.NumPages()
	for _, page := range []int{current - 1, current + 1} {
		if page < 1 || page > total || c.Cached(page) {
			continue
		}
		if _, err := c.Text(page); err != nil {
			c.logger.Warn("preload failed", "page", page, "error", err)
		}
	}
}

// Reset discards all cached text and page handles and cancels any pending
// preload. Call when the active document changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preloadTimer != nil {
		c.preloadTimer.Stop()
		c.preloadTimer = nil
	}
	c.text = make(map[int]string)
	c.pages = make(map[int]Page)
}
