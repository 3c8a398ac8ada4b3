package session

import "sync"

// frameQueue holds inbound audio chunks awaiting playback, strictly
// FIFO. The drain loop peeks the head while playing it and pops only on
// completion, so a chunk in flight still counts as queued. Clear bumps
// an epoch so a drain loop racing a barge-in never pops a chunk that
// arrived after the reset.
type frameQueue struct {
	mu     sync.Mutex
	frames [][]float32
	epoch  uint64
}

// Push appends a chunk to the tail.
func (q *frameQueue) Push(samples []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = append(q.frames, samples)
}

// Peek returns the head chunk without removing it, along with the
// current epoch for a later conditional Pop.
func (q *frameQueue) Peek() ([]float32, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return nil, q.epoch, false
	}
	return q.frames[0], q.epoch, true
}

// Pop removes the head chunk if the queue has not been cleared since
// the epoch was observed. Returns true if a chunk was removed.
func (q *frameQueue) Pop(epoch uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch || len(q.frames) == 0 {
		return false
	}
	q.frames = q.frames[1:]
	return true
}

// Clear discards all queued chunks.
func (q *frameQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = nil
	q.epoch++
}

// Len returns the number of queued chunks.
func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}
