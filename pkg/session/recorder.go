package session

import (
	"context"
	"sync"
	"time"

	"github.com/jronit/playai-book-reader/pkg/audioio"
)

// DefaultChunkInterval is how often the recorder emits a chunk.
const DefaultChunkInterval = 250 * time.Millisecond

// Recorder captures microphone audio and emits container-encoded
// chunks on a fixed interval. The channel closes when the recorder
// stops.
type Recorder interface {
	// Start begins capture and returns the chunk channel.
	Start(ctx context.Context) (<-chan []byte, error)

	// Stop halts capture and closes the chunk channel.
	// Safe to call multiple times.
	Stop() error
}

// sourceRecorder adapts an audioio.Source, batching its buffers into
// interval-sized chunks of raw little-endian float32 payload. Stereo
// input is downmixed and off-rate input resampled to the session's
// wire format.
type sourceRecorder struct {
	source   audioio.Source
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	level   float64
}

// NewSourceRecorder wraps an audio source as a chunked Recorder.
// A non-positive interval falls back to DefaultChunkInterval.
func NewSourceRecorder(source audioio.Source, interval time.Duration) Recorder {
	if interval <= 0 {
		interval = DefaultChunkInterval
	}
	return &sourceRecorder{source: source, interval: interval}
}

// Start begins capture and returns the chunk channel.
func (r *sourceRecorder) Start(ctx context.Context) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil, ErrAlreadyConnected
	}

	if err := r.source.Start(ctx); err != nil {
		return nil, err
	}

	r.running = true
	r.stopCh = make(chan struct{})

	out := make(chan []byte, 4)
	go r.batchLoop(out, r.stopCh)

	return out, nil
}

// batchLoop accumulates source buffers and flushes one chunk per tick.
func (r *sourceRecorder) batchLoop(out chan<- []byte, stopCh <-chan struct{}) {
	defer close(out)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var pending []float32

	flush := func() {
		if len(pending) == 0 {
			return
		}
		r.mu.Lock()
		r.level = audioio.CalculateRMS(pending)
		r.mu.Unlock()

		chunk := audioio.SamplesToBytes(pending)
		pending = nil
		select {
		case out <- chunk:
		case <-stopCh:
		}
	}

	for {
		select {
		case <-stopCh:
			return
		case buf, ok := <-r.source.Stream():
			if !ok {
				flush()
				return
			}
			samples := buf.Samples
			if buf.Channels == 2 {
				samples = audioio.StereoToMono(samples)
			}
			if buf.SampleRate > 0 && buf.SampleRate != outputSampleRate {
				samples = audioio.Resample(samples, buf.SampleRate, outputSampleRate)
			}
			pending = append(pending, samples...)
		case <-ticker.C:
			flush()
		}
	}
}

// Level returns the RMS level of the last flushed chunk, 0 to 1.
// Useful for microphone metering while recording.
func (r *sourceRecorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// Stop halts capture.
func (r *sourceRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false
	close(r.stopCh)

	return r.source.Stop()
}

// MockRecorder implements Recorder for testing. Chunks are emitted
// manually via Emit.
type MockRecorder struct {
	mu      sync.Mutex
	running bool
	out     chan []byte

	starts int
	stops  int
}

// NewMockRecorder creates a mock recorder.
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{}
}

// Start returns the chunk channel.
func (m *MockRecorder) Start(ctx context.Context) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil, ErrAlreadyConnected
	}
	m.running = true
	m.starts++
	m.out = make(chan []byte, 16)
	return m.out, nil
}

// Emit pushes one chunk to the channel. Returns false if stopped.
func (m *MockRecorder) Emit(chunk []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return false
	}
	select {
	case m.out <- chunk:
		return true
	default:
		return false
	}
}

// Stop closes the chunk channel.
func (m *MockRecorder) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.stops++
	close(m.out)
	return nil
}

// Running reports whether the recorder is active.
func (m *MockRecorder) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// StopCount returns the number of Stop calls that halted capture.
func (m *MockRecorder) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Verify implementations at compile time.
var (
	_ Recorder = (*sourceRecorder)(nil)
	_ Recorder = (*MockRecorder)(nil)
)
