package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls the delay between attempts of one fetch.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// delay returns the wait before retry number attempt (0-based), doubling
// from InitialInterval and capped at MaxInterval when set.
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval << attempt
	if d <= 0 || (b.MaxInterval > 0 && d > b.MaxInterval) {
		return b.MaxInterval
	}
	return d
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// classify maps a response status to nil or one of the status errors.
func classify(resp *resty.Response) error {
	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", errServerError, code)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	}
	return nil
}

// retryable reports whether another attempt may succeed. Client errors
// (4xx other than 429) and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, errUnexpected)
}

// getWithResilience issues a GET through the circuit breaker and retries
// rate limiting, server errors and transport failures with backoff.
func getWithResilience(
	ctx context.Context,
	client *resty.Client,
	backoff BackoffConfig,
	cb *gobreaker.CircuitBreaker,
	url string,
) (*resty.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if backoff.MaxRetries < 0 || (backoff.MaxRetries > 0 && backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	attemptOnce := func() (interface{}, error) {
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(url)
		if err != nil {
			return nil, err
		}
		if err := classify(resp); err != nil {
			return nil, err
		}
		return resp, nil
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := cb.Execute(attemptOnce)
		if err == nil {
			return result.(*resty.Response), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if attempt >= backoff.MaxRetries || !retryable(err) {
			return nil, err
		}

		timer := time.NewTimer(backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
