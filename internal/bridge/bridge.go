package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/dualsub-engine/internal/track"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// Transport delivers a request to the host page. Responses come back
// asynchronously through Bridge.HandleResponse.
type Transport interface {
	Send(ctx context.Context, req Request) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) error

func (f TransportFunc) Send(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// ErrTimeout is returned when the host page does not answer within the
// request's deadline. It always resolves to "no data", never a hang.
var ErrTimeout = fmt.Errorf("timed out waiting for host page response")

const (
	// DefaultRequestTimeout bounds every request/response pair.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultInterceptTimeout bounds the passive-interception wait.
	DefaultInterceptTimeout = 10 * time.Second
)

// Bridge is the request/response RPC channel to the host page. Each
// in-flight request is identified by a correlation id; a response whose id
// matches no pending request is dropped, not misdelivered.
type Bridge struct {
	transport      Transport
	requestTimeout time.Duration

	mu         sync.Mutex
	pending    map[string]chan Response
	intercepts map[string]chan Response // keyed by language|kind
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.requestTimeout = d
		}
	}
}

func New(transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		transport:      transport,
		requestTimeout: DefaultRequestTimeout,
		pending:        make(map[string]chan Response),
		intercepts:     make(map[string]chan Response),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleResponse routes a response from the transport to whoever awaits it.
// Unmatched responses are logged and dropped.
func (b *Bridge) HandleResponse(resp Response) {
	if resp.Type == TypeIntercepted {
		b.deliverIntercept(resp)
		return
	}

	b.mu.Lock()
	ch, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()

	if !ok {
		log.Debug("dropping response with unknown correlation id %q (type %s)", resp.ID, resp.Type)
		return
	}
	ch <- resp
}

func (b *Bridge) deliverIntercept(resp Response) {
	key := interceptKey(resp.Language, resp.Kind)
	b.mu.Lock()
	ch, ok := b.intercepts[key]
	if ok {
		delete(b.intercepts, key)
	}
	b.mu.Unlock()

	if !ok {
		log.Debug("dropping intercepted payload for %s: no waiter", key)
		return
	}
	ch <- resp
}

// call sends a request and waits for its correlated response, bounded by
// the bridge timeout.
func (b *Bridge) call(ctx context.Context, req Request) (Response, error) {
	req.ID = uuid.NewString()

	ch := make(chan Response, 1)
	b.mu.Lock()
	b.pending[req.ID] = ch
	b.mu.Unlock()

	cleanup := func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}

	if err := b.transport.Send(ctx, req); err != nil {
		cleanup()
		return Response{}, fmt.Errorf("failed to send %s request: %w", req.Type, err)
	}

	timer := time.NewTimer(b.requestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return Response{}, fmt.Errorf("host page error for %s: %s", req.Type, resp.Error)
		}
		return resp, nil
	case <-timer.C:
		cleanup()
		return Response{}, ErrTimeout
	case <-ctx.Done():
		cleanup()
		return Response{}, ctx.Err()
	}
}

// ListTracks asks the host page for the available caption tracks.
func (b *Bridge) ListTracks(ctx context.Context) ([]track.Track, error) {
	resp, err := b.call(ctx, Request{Type: TypeListTracks})
	if err != nil {
		return nil, err
	}
	if len(resp.Tracks) == 0 {
		return nil, nil
	}
	return track.ParseTracks(resp.Tracks)
}

// FetchURL fetches a URL from the host page context, with its credentials.
func (b *Bridge) FetchURL(ctx context.Context, url string) (string, error) {
	resp, err := b.call(ctx, Request{Type: TypeFetchURL, URL: url})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Seek asks the playback collaborator to move to the given time.
func (b *Bridge) Seek(ctx context.Context, seconds float64) error {
	_, err := b.call(ctx, Request{Type: TypeSeek, Time: seconds})
	return err
}

// AwaitIntercept installs a standing observer for a caption payload the
// host page captures from its own requests, then triggers the native
// caption load for the given language and kind. Resolves with the captured
// payload or ErrTimeout.
func (b *Bridge) AwaitIntercept(ctx context.Context, language, kind string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultInterceptTimeout
	}

	key := interceptKey(language, kind)
	ch := make(chan Response, 1)

	// Observer must be in place before the trigger is sent, or the captured
	// response can race past us.
	b.mu.Lock()
	b.intercepts[key] = ch
	b.mu.Unlock()

	cleanup := func() {
		b.mu.Lock()
		delete(b.intercepts, key)
		b.mu.Unlock()
	}

	trigger := Request{
		Type:     TypeTriggerLoad,
		ID:       uuid.NewString(),
		Language: language,
		Kind:     kind,
	}
	if err := b.transport.Send(ctx, trigger); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to trigger native caption load: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return "", fmt.Errorf("host page error intercepting captions: %s", resp.Error)
		}
		return resp.Text, nil
	case <-timer.C:
		cleanup()
		return "", ErrTimeout
	case <-ctx.Done():
		cleanup()
		return "", ctx.Err()
	}
}

func interceptKey(language, kind string) string {
	return language + "|" + kind
}
