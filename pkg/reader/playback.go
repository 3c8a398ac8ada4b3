package reader

import (
	"log/slog"
	"sync"
)

// Player is the audio-element boundary the controller drives.
// Load swaps the source and resets position to the start.
type Player interface {
	// Load replaces the player's source and resets position to the start.
	Load(audio PageAudio) error

	// Play starts or resumes the loaded source.
	Play() error

	// Pause stops playback without discarding position.
	Pause()

	// SetRate applies a playback speed multiplier immediately.
	SetRate(rate float64)

	// OnEnded registers the natural-completion callback.
	OnEnded(fn func())
}

// Controller plays the per-page audio array sequentially, advancing on
// completion and reacting to manual page navigation.
type Controller struct {
	player Player
	logger *slog.Logger

	mu         sync.Mutex
	audio      []PageAudio
	page       int // 1-based
	loadedPage int // page currently loaded into the player, 0 = none
	playing    bool
	rate       float64

	onPage  func(page int)
	onError func(err error)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the structured logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller driving the given player.
func NewController(player Player, opts ...ControllerOption) *Controller {
	c := &Controller{
		player: player,
		logger: slog.Default(),
		page:   1,
		rate:   1.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	player.OnEnded(c.handleEnded)
	return c
}

// OnPageChange registers an observer called when auto-advance moves to a
// new page.
func (c *Controller) OnPageChange(fn func(page int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = fn
}

// OnError registers an observer for recoverable playback errors.
func (c *Controller) OnError(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// CurrentPage returns the 1-based page the controller is positioned on.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// IsPlaying reports whether playback is active.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Rate returns the current playback rate.
func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Play starts or resumes the current page's audio.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot := c.slot(c.page)
	if slot == nil || slot.IsEmpty() {
		c.playing = false
		return &MediaError{Page: c.page, Err: ErrNoAudioLoaded}
	}

	if c.loadedPage != c.page {
		if err := c.player.Load(*slot); err != nil {
			c.playing = false
			return &MediaError{Page: c.page, Err: err}
		}
		c.loadedPage = c.page
		c.player.SetRate(c.rate)
	}

	if err := c.player.Play(); err != nil {
		c.playing = false
		return &MediaError{Page: c.page, Err: err}
	}

	c.playing = true
	return nil
}

// Pause stops playback without discarding position.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.player.Pause()
	c.playing = false
}

// OnPageChanged repositions the controller after manual navigation.
// If the new page has audio, the source is swapped and position reset,
// resuming automatically when playback was active. An empty placeholder
// leaves the player stopped.
func (c *Controller) OnPageChanged(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changePage(page)
}

// SetRate applies a playback speed multiplier immediately.
// Already-elapsed audio is unaffected.
func (c *Controller) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rate = rate
	c.player.SetRate(rate)
}

// ReplaceAudio swaps in a freshly loaded audio array, releasing every
// slot of the old one. Playback stops; position resets to the current
// page of the new array.
func (c *Controller) ReplaceAudio(audio []PageAudio) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.player.Pause()
	c.playing = false
	c.loadedPage = 0

	releaseAll(c.audio)
	c.audio = audio
	if c.page > len(audio) {
		c.page = 1
	}
}

// handleEnded advances to the next page when the current page's audio
// finishes unaided. At the last page the controller remains stopped.
func (c *Controller) handleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page >= len(c.audio) {
		c.playing = false
		return
	}

	next := c.page + 1
	c.changePage(next)

	if c.onPage != nil {
		fn := c.onPage
		page := next
		go fn(page)
	}
}

// changePage swaps the player source for the given page.
// Caller holds c.mu.
func (c *Controller) changePage(page int) {
	c.page = page

	slot := c.slot(page)
	if slot == nil || slot.IsEmpty() {
		c.player.Pause()
		c.playing = false
		c.loadedPage = 0
		return
	}

	wasPlaying := c.playing

	if err := c.player.Load(*slot); err != nil {
		c.fail(&MediaError{Page: page, Err: err})
		return
	}
	c.loadedPage = page
	c.player.SetRate(c.rate)

	if wasPlaying {
		if err := c.player.Play(); err != nil {
			c.fail(&MediaError{Page: page, Err: err})
			return
		}
	}
}

// fail surfaces a recoverable playback error and clears the playing
// flag. Caller holds c.mu.
func (c *Controller) fail(err *MediaError) {
	c.playing = false
	c.logger.Warn("playback error", "page", err.Page, "error", err.Err)
	if c.onError != nil {
		fn := c.onError
		go fn(err)
	}
}

// slot returns the audio slot for a 1-based page, or nil if out of range.
// Caller holds c.mu.
func (c *Controller) slot(page int) *PageAudio {
	if page < 1 || page > len(c.audio) {
		return nil
	}
	return &c.audio[page-1]
}
