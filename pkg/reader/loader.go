package reader

import (
	"context"
	"log/slog"
	"math"

	"github.com/jronit/playai-book-reader/pkg/tts"
)

// ProviderFactory builds a TTS provider bound to the selected voice.
type ProviderFactory func(voice tts.Voice) (tts.Provider, error)

// ProgressFunc receives load progress as a percentage (0-100).
type ProgressFunc func(percent int)

// LoadResult reports the outcome of a full load pass.
type LoadResult struct {
	// Audio is the per-page array. Its length equals the page count;
	// failed pages hold the empty placeholder.
	Audio []PageAudio

	// Succeeded is the number of pages that produced usable audio.
	Succeeded int

	// Total is the document page count.
	Total int
}

// Loader synthesizes audio for every page of a document.
type Loader struct {
	newProvider ProviderFactory
	controller  *Controller
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithController attaches a playback controller that receives the
// finished audio array.
func WithController(c *Controller) LoaderOption {
	return func(l *Loader) {
		l.controller = c
	}
}

// WithLoaderLogger sets the structured logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader using factory to build per-voice providers.
func NewLoader(factory ProviderFactory, opts ...LoaderOption) *Loader {
	l := &Loader{
		newProvider: factory,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll synthesizes audio for pages 1..N strictly in order.
//
// Pages are never requested concurrently; the remote quota is rate
// sensitive and one in-flight request is the deliberate bound. A page
// whose text is empty or whose synthesis fails records the empty
// placeholder and the pass continues. Only zero successes fails the
// whole pass. Progress is reported per page, monotonically
// non-decreasing, reaching 100 on success or aggregate failure.
func (l *Loader) LoadAll(ctx context.Context, doc *Document, voice *tts.Voice, progress ProgressFunc) (*LoadResult, error) {
	if doc == nil || doc.PageCount() == 0 {
		return nil, ErrNoDocument
	}
	if voice == nil || voice.Value == "" {
		return nil, ErrNoVoice
	}

	provider, err := l.newProvider(*voice)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	// Drop audio from any previous pass before starting this one.
	if l.controller != nil {
		l.controller.ReplaceAudio(nil)
	}

	total := doc.PageCount()
	audio := make([]PageAudio, total)
	succeeded := 0

	for page := 1; page <= total; page++ {
		text, err := doc.Text(page)
		if err != nil {
			l.logger.Warn("text extraction failed, recording placeholder",
				"page", page, "error", err)
			l.report(progress, page, total)
			continue
		}
		if text == "" {
			l.logger.Debug("empty page, recording placeholder", "page", page)
			l.report(progress, page, total)
			continue
		}

		result, err := provider.Synthesize(ctx, text)
		if err != nil {
			l.logger.Warn("synthesis failed, recording placeholder",
				"page", page, "error", err)
			l.report(progress, page, total)
			continue
		}

		audio[page-1] = PageAudio{Data: result.Audio, ContentType: result.ContentType}
		succeeded++
		l.report(progress, page, total)
	}

	if succeeded == 0 {
		return nil, ErrNoAudioGenerated
	}

	// The array was built off to the side; swap it in whole.
	if l.controller != nil {
		l.controller.ReplaceAudio(audio)
	}

	l.logger.Info("audio load pass complete",
		"pages", total,
		"succeeded", succeeded,
		"voice", voice.Name,
	)

	return &LoadResult{Audio: audio, Succeeded: succeeded, Total: total}, nil
}

func (l *Loader) report(progress ProgressFunc, page, total int) {
	if progress == nil {
		return
	}
	progress(int(math.Round(float64(page) / float64(total) * 100)))
}
