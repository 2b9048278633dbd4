package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// retryPolicy retries throttling, server errors, timeouts, and empty
// candidates with capped exponential backoff. Blocked prompts and other 4xx
// replies fail immediately.
type retryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleep    func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 3, base: time.Second, ceiling: 10 * time.Second}
}

func (p retryPolicy) do(ctx context.Context, op func() error) error {
	attempts := max(p.attempts, 1)
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		wait, ok := p.next(err, attempt)
		if !ok || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}
		if sleepErr := p.pause(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}
}

// next reports whether err is worth another try and how long to wait first.
func (p retryPolicy) next(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return p.backoff(attempt), empty.BlockReason == ""
	}
	if code, ok := apiStatus(err); ok {
		if code != http.StatusRequestTimeout &&
			code != http.StatusTooManyRequests &&
			code < http.StatusInternalServerError {
			return 0, false
		}
		return p.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles the base delay per failed attempt: base, 2*base, 4*base.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	shift := min(max(attempt-1, 0), 30)
	return p.clamp(p.base << shift)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	ceiling := p.ceiling
	if ceiling <= 0 {
		ceiling = defaultRetryPolicy().ceiling
	}
	return min(max(d, 0), ceiling)
}

func (p retryPolicy) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if p.sleep != nil {
		p.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// apiStatus extracts the HTTP status the SDK reported for a failed call.
func apiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
