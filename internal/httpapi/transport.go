package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/bridge"
)

// BridgeQueue carries engine requests to the host-page collaborator. The
// collaborator long-polls Take via the HTTP API, executes each request in
// the page and posts the response back. Implements bridge.Transport.
type BridgeQueue struct {
	mu      sync.Mutex
	pending []bridge.Request
	wake    chan struct{}
}

func NewBridgeQueue() *BridgeQueue {
	return &BridgeQueue{wake: make(chan struct{}, 1)}
}

// Send enqueues a request for the collaborator to pick up.
func (q *BridgeQueue) Send(_ context.Context, req bridge.Request) error {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Take drains the queued requests, waiting up to maxWait when the queue is
// empty. It returns an empty slice on timeout or context cancellation.
func (q *BridgeQueue) Take(ctx context.Context, maxWait time.Duration) []bridge.Request {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			out := q.pending
			q.pending = nil
			q.mu.Unlock()
			return out
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// PlaybackState tracks the host player's clock from periodic reports and
// extrapolates between them while playback is running. Implements the sync
// engine's playback source; seeks are forwarded to the host page.
type PlaybackState struct {
	seek func(seconds float64)

	mu       sync.Mutex
	reported float64
	at       time.Time
	playing  bool
}

func NewPlaybackState(seek func(seconds float64)) *PlaybackState {
	return &PlaybackState{seek: seek}
}

// Report records the host player's current time.
func (p *PlaybackState) Report(seconds float64, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reported = seconds
	p.at = time.Now()
	p.playing = playing
}

// CurrentTime returns the last reported time, advanced by the elapsed wall
// time while playing so the sync engine can tick faster than reports
// arrive.
func (p *PlaybackState) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.at.IsZero() || !p.playing {
		return p.reported
	}
	return p.reported + time.Since(p.at).Seconds()
}

// SeekTo forwards the seek to the host page and updates the local clock
// optimistically so the next tick reflects the jump.
func (p *PlaybackState) SeekTo(seconds float64) {
	p.mu.Lock()
	p.reported = seconds
	p.at = time.Now()
	p.mu.Unlock()

	if p.seek != nil {
		p.seek(seconds)
	}
}
