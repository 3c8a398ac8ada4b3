package reader

import (
	"sync"
)

// MockPlayer implements Player for testing.
// Error returns can be injected via function fields; FinishCurrent
// simulates natural completion of the loaded audio.
type MockPlayer struct {
	// LoadFunc, if set, is consulted on every Load.
	LoadFunc func(audio PageAudio) error

	// PlayFunc, if set, is consulted on every Play.
	PlayFunc func() error

	mu      sync.Mutex
	loaded  PageAudio
	hasLoad bool
	playing bool
	rate    float64
	onEnded func()

	loads  []PageAudio
	plays  int
	pauses int
	rates  []float64
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{rate: 1.0}
}

// Load records the new source and resets position.
func (m *MockPlayer) Load(audio PageAudio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadFunc != nil {
		if err := m.LoadFunc(audio); err != nil {
			return err
		}
	}
	m.loaded = audio
	m.hasLoad = true
	m.loads = append(m.loads, audio)
	return nil
}

// Play starts playback of the loaded source.
func (m *MockPlayer) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PlayFunc != nil {
		if err := m.PlayFunc(); err != nil {
			return err
		}
	}
	m.playing = true
	m.plays++
	return nil
}

// Pause stops playback.
func (m *MockPlayer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	m.pauses++
}

// SetRate records the playback rate.
func (m *MockPlayer) SetRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rate = rate
	m.rates = append(m.rates, rate)
}

// OnEnded registers the completion callback.
func (m *MockPlayer) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// FinishCurrent simulates the loaded audio playing to its natural end.
func (m *MockPlayer) FinishCurrent() {
	m.mu.Lock()
	m.playing = false
	fn := m.onEnded
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Loaded returns the currently loaded audio.
func (m *MockPlayer) Loaded() (PageAudio, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded, m.hasLoad
}

// Playing reports whether the mock is playing.
func (m *MockPlayer) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Rate returns the last applied rate.
func (m *MockPlayer) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// LoadCount returns the number of Load calls.
func (m *MockPlayer) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loads)
}

// Rates returns every rate applied, in order.
func (m *MockPlayer) Rates() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.rates))
	copy(out, m.rates)
	return out
}

// Verify MockPlayer implements Player at compile time.
var _ Player = (*MockPlayer)(nil)
