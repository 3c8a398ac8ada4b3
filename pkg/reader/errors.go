package reader

import (
	"errors"
	"fmt"
)

// Sentinel errors for load preconditions and outcomes.
var (
	// ErrNoDocument is returned when no document is loaded.
	ErrNoDocument = errors.New("reader: no document loaded")

	// ErrNoVoice is returned when no voice is selected.
	ErrNoVoice = errors.New("reader: no voice selected")

	// ErrNoAudioGenerated is returned when no page produced usable audio.
	ErrNoAudioGenerated = errors.New("reader: no audio could be generated")

	// ErrNoAudioLoaded is returned when playback starts with nothing to play.
	ErrNoAudioLoaded = errors.New("reader: no audio loaded for current page")
)

// MediaError reports a recoverable playback failure for one page.
// It never aborts the broader pipeline.
type MediaError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *MediaError) Error() string {
	return fmt.Sprintf("reader: playback failed on page %d: %v", e.Page, e.Err)
}

// Unwrap returns the underlying error.
func (e *MediaError) Unwrap() error {
	return e.Err
}
