package reader

import (
	"errors"
	"testing"
	"time"
)

func threePages() []PageAudio {
	return []PageAudio{
		{Data: []byte("audio-1"), ContentType: "audio/mpeg"},
		{Data: []byte("audio-2"), ContentType: "audio/mpeg"},
		{Data: []byte("audio-3"), ContentType: "audio/mpeg"},
	}
}

func TestControllerPlayPause(t *testing.T) {
	t.Run("play loads and starts current page", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())

		if err := c.Play(); err != nil {
			t.Fatalf("Play: %v", err)
		}
		if !c.IsPlaying() || !player.Playing() {
			t.Error("expected playing state")
		}
		loaded, _ := player.Loaded()
		if string(loaded.Data) != "audio-1" {
			t.Errorf("loaded = %q, want audio-1", loaded.Data)
		}
	})

	t.Run("play with no audio is a media error", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)

		err := c.Play()
		var mediaErr *MediaError
		if !errors.As(err, &mediaErr) {
			t.Fatalf("err = %v, want *MediaError", err)
		}
		if !errors.Is(err, ErrNoAudioLoaded) {
			t.Errorf("err = %v, want ErrNoAudioLoaded", err)
		}
		if c.IsPlaying() {
			t.Error("playing flag should be clear")
		}
	})

	t.Run("play failure clears playing flag", func(t *testing.T) {
		player := NewMockPlayer()
		player.PlayFunc = func() error { return errors.New("decode failed") }
		c := NewController(player)
		c.ReplaceAudio(threePages())

		err := c.Play()
		var mediaErr *MediaError
		if !errors.As(err, &mediaErr) {
			t.Fatalf("err = %v, want *MediaError", err)
		}
		if c.IsPlaying() {
			t.Error("playing flag should be clear")
		}
	})

	t.Run("pause keeps position", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())

		c.Play()
		c.Pause()
		if c.IsPlaying() || player.Playing() {
			t.Error("expected stopped state")
		}
		if c.CurrentPage() != 1 {
			t.Errorf("page = %d, want 1", c.CurrentPage())
		}
	})
}

func TestControllerPageNavigation(t *testing.T) {
	t.Run("swap resumes when playing", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())
		c.Play()

		c.OnPageChanged(3)

		if c.CurrentPage() != 3 {
			t.Errorf("page = %d, want 3", c.CurrentPage())
		}
		loaded, _ := player.Loaded()
		if string(loaded.Data) != "audio-3" {
			t.Errorf("loaded = %q, want audio-3", loaded.Data)
		}
		if !c.IsPlaying() {
			t.Error("playback should have resumed")
		}
	})

	t.Run("swap stays paused when paused", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())

		c.OnPageChanged(2)

		if c.IsPlaying() || player.Playing() {
			t.Error("expected stopped state")
		}
		loaded, _ := player.Loaded()
		if string(loaded.Data) != "audio-2" {
			t.Errorf("loaded = %q, want audio-2", loaded.Data)
		}
	})

	t.Run("empty placeholder leaves player stopped", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		audio := threePages()
		audio[1] = PageAudio{}
		c.ReplaceAudio(audio)
		c.Play()

		c.OnPageChanged(2)

		if c.IsPlaying() || player.Playing() {
			t.Error("expected stopped state on placeholder page")
		}
	})
}

func TestControllerAutoAdvance(t *testing.T) {
	t.Run("advances to next page on natural end", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())

		var advanced int
		done := make(chan struct{})
		c.OnPageChange(func(page int) {
			advanced = page
			close(done)
		})

		c.Play()
		player.FinishCurrent()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("page change observer not called")
		}

		if advanced != 2 || c.CurrentPage() != 2 {
			t.Errorf("advanced to %d / %d, want 2", advanced, c.CurrentPage())
		}
		if !c.IsPlaying() {
			t.Error("next page should auto-play")
		}
		loaded, _ := player.Loaded()
		if string(loaded.Data) != "audio-2" {
			t.Errorf("loaded = %q, want audio-2", loaded.Data)
		}
	})

	t.Run("stops at final page", func(t *testing.T) {
		player := NewMockPlayer()
		c := NewController(player)
		c.ReplaceAudio(threePages())

		c.OnPageChanged(3)
		c.Play()
		player.FinishCurrent()

		if c.IsPlaying() {
			t.Error("playback should stop at the last page")
		}
		if c.CurrentPage() != 3 {
			t.Errorf("page = %d, want 3", c.CurrentPage())
		}
	})
}

func TestControllerSetRate(t *testing.T) {
	player := NewMockPlayer()
	c := NewController(player)
	c.ReplaceAudio(threePages())
	c.Play()

	c.SetRate(1.5)

	if player.Rate() != 1.5 {
		t.Errorf("player rate = %f, want 1.5", player.Rate())
	}
	if !c.IsPlaying() {
		t.Error("rate change must not interrupt playback")
	}

	// Rate carries over to pages loaded later
	c.OnPageChanged(2)
	if player.Rate() != 1.5 {
		t.Errorf("rate after navigation = %f, want 1.5", player.Rate())
	}
}

func TestControllerReplaceAudio(t *testing.T) {
	player := NewMockPlayer()
	c := NewController(player)
	old := threePages()
	c.ReplaceAudio(old)
	c.Play()

	c.ReplaceAudio([]PageAudio{{Data: []byte("new"), ContentType: "audio/mpeg"}})

	for i := range old {
		if !old[i].IsEmpty() {
			t.Errorf("old slot %d was not released", i)
		}
	}
	if c.IsPlaying() {
		t.Error("replace should stop playback")
	}
	if c.CurrentPage() != 1 {
		t.Errorf("page = %d, want 1", c.CurrentPage())
	}
}
