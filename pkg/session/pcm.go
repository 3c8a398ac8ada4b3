package session

import (
	"encoding/base64"
	"fmt"
	"math"

	"github.com/jronit/playai-book-reader/pkg/audioio"
)

// Audio format contract declared in the setup message.
const (
	outputSampleRate = 44100
	outputBitDepth   = 32
	outputChannels   = 1
)

// decodePCM converts a base64 payload into little-endian float32
// samples. The decoded length must be a whole number of samples.
func decodePCM(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("session: decode audio payload: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, ErrInvalidPCM
	}
	return audioio.BytesToSamples(raw), nil
}

// lowShelf is a biquad low-shelf filter. Agent audio is played at half
// the real-time rate, which darkens the tone; a fixed +6 dB shelf below
// 1 kHz compensates. Coefficients follow the RBJ audio EQ cookbook.
type lowShelf struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// newLowShelf builds a shelf with the given corner frequency and gain
// for a fixed sample rate.
func newLowShelf(freq, gainDB float64, sampleRate int) *lowShelf {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / 2 * math.Sqrt2
	beta := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) + (a-1)*cosW0 + beta
	return &lowShelf{
		b0: a * ((a + 1) - (a-1)*cosW0 + beta) / a0,
		b1: 2 * a * ((a - 1) - (a+1)*cosW0) / a0,
		b2: a * ((a + 1) - (a-1)*cosW0 - beta) / a0,
		a1: -2 * ((a - 1) + (a+1)*cosW0) / a0,
		a2: ((a + 1) + (a-1)*cosW0 - beta) / a0,
	}
}

// process filters samples in place and returns the slice.
func (f *lowShelf) process(samples []float32) []float32 {
	for i, s := range samples {
		x := float64(s)
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = float32(y)
	}
	return samples
}
