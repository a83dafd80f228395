package fetch

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ExponentialRetryPolicy decides retries with jittered backoff.
type ExponentialRetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewExponentialRetryPolicy builds a policy. maxAttempts is the number of
// retries after the first try; backoffFactor scales the base delay in
// seconds (0.6 means 600ms, 1.2s, 2.4s, ...).
func NewExponentialRetryPolicy(maxAttempts int, backoffFactor float64) *ExponentialRetryPolicy {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	if backoffFactor <= 0 {
		backoffFactor = 0.25
	}
	return &ExponentialRetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   time.Duration(backoffFactor * float64(time.Second)),
		maxDelay:    30 * time.Second,
	}
}

// ShouldRetry decides whether the error is retryable.
func (p *ExponentialRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

// Backoff returns the wait duration before the next attempt.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *ExponentialRetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// retryStatuses mirror the transport-level force list: transient server
// states worth another attempt.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryingGetter wraps a Getter with the retry policy. Extractors see only
// the final outcome; retries and backoff stay below this boundary.
type RetryingGetter struct {
	inner  Getter
	policy *ExponentialRetryPolicy
	logger *zap.Logger
}

// NewRetryingGetter wraps inner with policy.
func NewRetryingGetter(inner Getter, policy *ExponentialRetryPolicy, logger *zap.Logger) *RetryingGetter {
	return &RetryingGetter{inner: inner, policy: policy, logger: logger}
}

// Get fetches with retries on network faults and transient status codes.
func (g *RetryingGetter) Get(ctx context.Context, req Request) (Page, error) {
	var (
		page Page
		err  error
	)
	for attempt := 0; ; attempt++ {
		page, err = g.inner.Get(ctx, req)
		if err == nil && !retryStatuses[page.StatusCode] {
			return page, nil
		}
		retryable := err
		if retryable == nil {
			retryable = errors.New(http.StatusText(page.StatusCode))
		}
		if !g.policy.ShouldRetry(retryable, attempt) {
			return page, err
		}
		wait := g.policy.Backoff(attempt)
		g.logger.Debug("retrying fetch",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(retryable),
		)
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}
