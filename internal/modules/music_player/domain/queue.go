package domain

import (
	"context"
	"sync"
	"time"
)

// DequeueOutcome describes how a Dequeue call completed.
type DequeueOutcome int

const (
	// DequeueTrack means a track was removed from the front of the queue.
	DequeueTrack DequeueOutcome = iota
	// DequeueTimedOut means no track arrived before the timeout.
	DequeueTimedOut
	// DequeueClosed means the queue was closed while waiting.
	DequeueClosed
	// DequeueCancelled means the caller's context ended while waiting.
	DequeueCancelled
)

// String returns a human-readable representation of the outcome.
func (o DequeueOutcome) String() string {
	switch o {
	case DequeueTrack:
		return "track"
	case DequeueTimedOut:
		return "timed_out"
	case DequeueClosed:
		return "closed"
	default:
		return "cancelled"
	}
}

// DequeueResult is the result of a Dequeue call.
// Track is non-nil only when Outcome is DequeueTrack.
type DequeueResult struct {
	Track   *Track
	Outcome DequeueOutcome
}

// Queue is an unbounded FIFO of tracks owned by a single player.
// Enqueue never blocks; Dequeue waits for a track with a deadline.
type Queue struct {
	mu     sync.Mutex
	tracks []*Track
	wake   chan struct{} // closed and replaced whenever tracks are added
	closed bool
	done   chan struct{}
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		tracks: make([]*Track, 0),
		wake:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Enqueue appends tracks to the back of the queue.
// Tracks added to a closed queue are discarded.
func (q *Queue) Enqueue(tracks ...*Track) {
	if len(tracks) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.tracks = append(q.tracks, tracks...)
	q.signalLocked()
}

// PushFront inserts tracks ahead of every queued track, keeping their given order.
func (q *Queue) PushFront(tracks ...*Track) {
	if len(tracks) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	front := make([]*Track, 0, len(tracks)+len(q.tracks))
	front = append(front, tracks...)
	q.tracks = append(front, q.tracks...)
	q.signalLocked()
}

func (q *Queue) signalLocked() {
	close(q.wake)
	q.wake = make(chan struct{})
}

// Dequeue removes and returns the front track.
// If the queue is empty it waits until a track is added, the timeout
// elapses, the queue is closed or ctx is done, whichever happens first.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) DequeueResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if track := q.popLocked(); track != nil {
			q.mu.Unlock()
			return DequeueResult{Track: track, Outcome: DequeueTrack}
		}
		if q.closed {
			q.mu.Unlock()
			return DequeueResult{Outcome: DequeueClosed}
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-wake:
			// Re-check under the lock; another consumer may have taken it.
		case <-q.done:
			return DequeueResult{Outcome: DequeueClosed}
		case <-ctx.Done():
			return DequeueResult{Outcome: DequeueCancelled}
		case <-timer.C:
			// A track that raced the timer still wins.
			q.mu.Lock()
			track := q.popLocked()
			q.mu.Unlock()
			if track != nil {
				return DequeueResult{Track: track, Outcome: DequeueTrack}
			}
			return DequeueResult{Outcome: DequeueTimedOut}
		}
	}
}

func (q *Queue) popLocked() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	track := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return track
}

// Peek returns the front track without removing it, or nil if the queue is empty.
func (q *Queue) Peek() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return nil
	}
	return q.tracks[0]
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tracks)
}

// IsEmpty returns true if no track is queued.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// List returns a copy of the queued tracks in dequeue order.
func (q *Queue) List() []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]*Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Clear removes every queued track and returns how many were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tracks)
	q.tracks = make([]*Track, 0)
	return n
}

// Close discards the queued tracks and wakes every waiting Dequeue.
// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.tracks = nil
	close(q.done)
}

// IsClosed returns true once Close has been called.
func (q *Queue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}
