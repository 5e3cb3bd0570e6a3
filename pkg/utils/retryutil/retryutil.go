package retryutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

const (
	// DefaultMaxAttempts is the attempt ceiling before the last failure
	// is propagated unmodified.
	DefaultMaxAttempts = 5

	// DefaultBackoffCap bounds exponential backoff waits.
	DefaultBackoffCap = 60 * time.Second

	// maxErrorBodySize bounds how much of an error response body is kept.
	maxErrorBodySize = 4 * 1024
)

// HTTPError is a remote call failure carrying the HTTP status and any
// server-supplied retry-after hint.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote call failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote call failed with status %d", e.StatusCode)
}

// NewHTTPError builds an HTTPError from a non-2xx response, consuming a
// bounded portion of the body and parsing the Retry-After header.
func NewHTTPError(resp *http.Response) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode}

	if body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)); err == nil {
		e.Body = string(body)
	}

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(ra); err == nil {
			if d := time.Until(t); d > 0 {
				e.RetryAfter = d
			}
		}
	}

	return e
}

// Retryable classifies a remote call failure as transient or fatal.
// Rate limiting (429), server-side 5xx gateway failures and low-level
// connection/timeout failures are transient; any other 4xx is a caller
// error and must not be retried.
func Retryable(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var ue *url.Error
	return errors.As(err, &ue)
}

// Policy wraps remote calls with retry and backoff. The zero value is not
// usable; construct with New.
type Policy struct {
	MaxAttempts int
	BackoffCap  time.Duration

	// Sleep is replaceable for tests. It must honor context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns a policy with the default attempt ceiling and backoff cap
func New() *Policy {
	return &Policy{
		MaxAttempts: DefaultMaxAttempts,
		BackoffCap:  DefaultBackoffCap,
		Sleep:       sleep,
	}
}

// Do runs fn, retrying transient failures with backoff. When the failure
// carries a retry-after hint, the wait is exactly the hinted duration;
// otherwise it is capped exponential backoff. The last failure is
// returned unmodified.
func (p *Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if attempt+1 >= p.MaxAttempts || !Retryable(err) {
			return err
		}

		wait := p.backoff(attempt, err)
		logging.From(ctx).Warn("retrying remote call",
			"call", name,
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err.Error(),
		)

		if err := p.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (p *Policy) backoff(attempt int, err error) time.Duration {
	var he *HTTPError
	if errors.As(err, &he) && he.RetryAfter > 0 {
		return he.RetryAfter
	}

	wait := time.Duration(1<<uint(attempt)) * time.Second
	if wait > p.BackoffCap {
		wait = p.BackoffCap
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
