// Package tts provides a text-to-speech client for the Play.ai API.
//
// The PlayAI provider converts a page of text into a complete MP3 buffer
// via the streaming synthesis endpoint. All providers implement the
// Provider interface so callers (the page loader, the web proxy route)
// never depend on a concrete backend.
//
// Example usage:
//
//	provider, _ := tts.NewPlayAI(
//	    tts.WithAPIKey(os.Getenv("PLAYAI_API_KEY")),
//	    tts.WithUserID(os.Getenv("PLAYAI_USER_ID")),
//	    tts.WithVoice(tts.DefaultVoice().Value),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3 audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and credential validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g. audio/mpeg).
	ContentType string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the round-trip synthesis time in milliseconds.
	LatencyMs int64

	// Duration is the estimated playback duration.
	Duration time.Duration
}
