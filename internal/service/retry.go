package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/dualsub-engine/internal/cache"
)

// queueRetry remembers a rate-limited request so the sweep can rerun it.
func (s *Service) queueRetry(key cache.Key, req TranslationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retry[key.String()] = req
}

func (s *Service) dropRetry(key cache.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.retry, key.String())
}

// PendingRetries returns the requests waiting for a retry sweep.
func (s *Service) PendingRetries() []TranslationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranslationRequest, 0, len(s.retry))
	for _, req := range s.retry {
		out = append(out, req)
	}
	return out
}

// RetryPending reruns every queued rate-limited request. Requests that
// fail with another rate limit are queued again; other failures are
// dropped since retrying will not help without user action.
func (s *Service) RetryPending(ctx context.Context) {
	s.mu.Lock()
	pending := make(map[string]TranslationRequest, len(s.retry))
	for k, req := range s.retry {
		pending[k] = req
	}
	s.retry = make(map[string]TranslationRequest)
	s.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	s.logf("retrying %d rate-limited translation requests", len(pending))

	for _, req := range pending {
		if err := s.StartTranslation(ctx, req); err != nil {
			if !IsErrorType(err, ErrRateLimited) {
				s.logf("dropping retry for %s: %v", req.ContentID, err)
			}
		}
	}
}

// StartRetrySweeper schedules RetryPending on the given cron expression.
// The returned stop function halts the scheduler.
func (s *Service) StartRetrySweeper(ctx context.Context, cronExpr string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		s.RetryPending(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retry schedule %q: %w", cronExpr, err)
	}
	c.Start()
	return func() {
		<-c.Stop().Done()
	}, nil
}
