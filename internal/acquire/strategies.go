package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/bridge"
	"github.com/MimeLyc/dualsub-engine/internal/track"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// InterceptStrategy passively captures the subtitle payload from the host
// page's own caption request: it installs an observer, nudges the host into
// loading the desired track natively, and waits (bounded) for the captured
// response.
type InterceptStrategy struct {
	bridge  *bridge.Bridge
	timeout time.Duration
}

func NewInterceptStrategy(b *bridge.Bridge, timeout time.Duration) *InterceptStrategy {
	if timeout <= 0 {
		timeout = bridge.DefaultInterceptTimeout
	}
	return &InterceptStrategy{bridge: b, timeout: timeout}
}

func (s *InterceptStrategy) Name() string { return "intercept" }

func (s *InterceptStrategy) Fetch(ctx context.Context, tr track.Track) ([]byte, error) {
	text, err := s.bridge.AwaitIntercept(ctx, tr.LanguageCode, tr.Kind, s.timeout)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// BridgeFetchStrategy fetches the track URL through the host page context,
// which shares the host's cookies. The JSON-structured variant is tried
// first for its word-level timing, then the default XML variant.
type BridgeFetchStrategy struct {
	bridge *bridge.Bridge
}

func NewBridgeFetchStrategy(b *bridge.Bridge) *BridgeFetchStrategy {
	return &BridgeFetchStrategy{bridge: b}
}

func (s *BridgeFetchStrategy) Name() string { return "bridge-fetch" }

func (s *BridgeFetchStrategy) Fetch(ctx context.Context, tr track.Track) ([]byte, error) {
	text, err := s.bridge.FetchURL(ctx, jsonVariantURL(tr.BaseURL))
	if err == nil && text != "" {
		return []byte(text), nil
	}
	if err != nil {
		log.Debug("bridge fetch of JSON variant failed: %v", err)
	}

	text, err = s.bridge.FetchURL(ctx, tr.BaseURL)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// DirectStrategy fetches the track URL without the host page's
// credentials. Last resort: it may fail where the host-mediated paths
// succeed.
type DirectStrategy struct {
	client *http.Client
}

func NewDirectStrategy(client *http.Client) *DirectStrategy {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &DirectStrategy{client: client}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, tr track.Track) ([]byte, error) {
	for _, url := range []string{jsonVariantURL(tr.BaseURL), tr.BaseURL} {
		payload, err := s.get(ctx, url)
		if err != nil {
			log.Debug("direct fetch of %s failed: %v", url, err)
			continue
		}
		if len(payload) > 0 {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("direct fetch produced no data")
}

func (s *DirectStrategy) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DefaultChain builds the production strategy order: passive interception,
// then host-mediated fetch, then unmediated direct fetch.
func DefaultChain(b *bridge.Bridge, interceptTimeout time.Duration) *Chain {
	return NewChain(
		NewInterceptStrategy(b, interceptTimeout),
		NewBridgeFetchStrategy(b),
		NewDirectStrategy(nil),
	)
}
