package uploader

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// linearBackOff waits attempt*step between consecutive attempts: step before
// the second attempt, 2*step before the third, and so on.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// retry runs op up to maxAttempts times with linear backoff. The final
// failure carries only the last observed error.
func (s *Service) retry(ctx context.Context, op func() error) error {
	maxAttempts := s.upload.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: s.upload.Backoff()}, uint64(maxAttempts-1)),
		ctx,
	)
	return backoff.RetryNotifyWithTimer(op, policy, nil, s.timer)
}
