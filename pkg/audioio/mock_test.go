package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		SampleRate:     44100,
		Channels:       1,
		BufferDuration: 5 * time.Millisecond,
	}
}

func TestMockSource(t *testing.T) {
	t.Run("produces chunks after start", func(t *testing.T) {
		src := NewMockSource(testConfig(), nil)
		defer src.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := src.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}

		chunk, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if chunk.SampleRate != 44100 {
			t.Errorf("sample rate = %d", chunk.SampleRate)
		}
		if len(chunk.Samples) == 0 {
			t.Error("empty chunk")
		}
	})

	t.Run("silence by default", func(t *testing.T) {
		src := NewMockSource(testConfig(), nil)
		defer src.Close()

		ctx := context.Background()
		src.Start(ctx)

		chunk, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		for i, s := range chunk.Samples {
			if s != 0 {
				t.Fatalf("sample %d = %f, want 0", i, s)
			}
		}
	})

	t.Run("sine wave has energy", func(t *testing.T) {
		src := NewMockSource(testConfig(), nil, WithSineWave(440, 0.8))
		defer src.Close()

		ctx := context.Background()
		src.Start(ctx)

		chunk, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if rms := CalculateRMS(chunk.Samples); rms < 0.1 {
			t.Errorf("rms = %f, want > 0.1", rms)
		}
	})

	t.Run("read after stop returns EOF", func(t *testing.T) {
		src := NewMockSource(testConfig(), nil)
		defer src.Close()

		ctx := context.Background()
		src.Start(ctx)
		src.Stop()

		// Drain whatever was buffered, then expect EOF
		for {
			_, err := src.Read(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
		}
	})

	t.Run("start after close fails", func(t *testing.T) {
		src := NewMockSource(testConfig(), nil)
		src.Close()
		if err := src.Start(context.Background()); err == nil {
			t.Error("expected error after Close")
		}
	})
}

func TestMockSink(t *testing.T) {
	t.Run("write requires start", func(t *testing.T) {
		sink := NewMockSink(testConfig(), nil)
		defer sink.Close()

		err := sink.Write(context.Background(), Chunk{Samples: []float32{0.1}})
		if err == nil {
			t.Error("expected error before Start")
		}
	})

	t.Run("records written chunks", func(t *testing.T) {
		sink := NewMockSink(testConfig(), nil)
		defer sink.Close()

		ctx := context.Background()
		sink.Start(ctx)

		sink.Write(ctx, Chunk{Samples: []float32{0.1, 0.2}, SampleRate: 44100, Channels: 1})
		sink.Write(ctx, Chunk{Samples: []float32{0.3}, SampleRate: 22050, Channels: 1})

		written := sink.Written()
		if len(written) != 2 {
			t.Fatalf("written = %d chunks, want 2", len(written))
		}
		if written[1].SampleRate != 22050 {
			t.Errorf("second chunk rate = %d", written[1].SampleRate)
		}

		stats := sink.Stats()
		if stats.ChunksWritten != 2 || stats.SamplesWritten != 3 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("clear discards buffer", func(t *testing.T) {
		sink := NewMockSink(testConfig(), nil)
		defer sink.Close()

		ctx := context.Background()
		sink.Start(ctx)
		sink.Write(ctx, Chunk{Samples: []float32{0.1}})

		sink.Clear()

		if got := len(sink.Written()); got != 0 {
			t.Errorf("buffered chunks = %d, want 0", got)
		}
		if sink.ClearCount() != 1 {
			t.Errorf("clear count = %d, want 1", sink.ClearCount())
		}
	})

	t.Run("flush empties buffer", func(t *testing.T) {
		sink := NewMockSink(testConfig(), nil)
		defer sink.Close()

		ctx := context.Background()
		sink.Start(ctx)
		sink.Write(ctx, Chunk{Samples: make([]float32, 4410), SampleRate: 44100})

		if err := sink.Flush(ctx); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if stats := sink.Stats(); stats.BufferedSamples != 0 {
			t.Errorf("buffered = %d, want 0", stats.BufferedSamples)
		}
	})
}
