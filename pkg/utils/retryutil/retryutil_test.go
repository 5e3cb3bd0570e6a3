package retryutil_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/scribe-lab/grimoire/pkg/utils/retryutil"
)

func newTestPolicy() (*retryutil.Policy, *[]time.Duration) {
	waits := &[]time.Duration{}
	p := retryutil.New()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p, waits
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	p, waits := newTestPolicy()

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &retryutil.HTTPError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	gt.NoError(t, err)
	gt.Number(t, calls).Equal(3)
	gt.Array(t, *waits).Length(2)
}

func TestDoHonorsRetryAfterHint(t *testing.T) {
	p, waits := newTestPolicy()

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &retryutil.HTTPError{
				StatusCode: http.StatusTooManyRequests,
				RetryAfter: 7 * time.Second,
			}
		}
		return nil
	})

	gt.NoError(t, err)
	gt.Array(t, *waits).Length(1)
	gt.Value(t, (*waits)[0]).Equal(7 * time.Second)
}

func TestDoExponentialBackoffWithoutHint(t *testing.T) {
	p, waits := newTestPolicy()

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 4 {
			return &retryutil.HTTPError{StatusCode: http.StatusBadGateway}
		}
		return nil
	})

	gt.NoError(t, err)
	gt.Array(t, *waits).Length(3)
	gt.Value(t, (*waits)[0]).Equal(1 * time.Second)
	gt.Value(t, (*waits)[1]).Equal(2 * time.Second)
	gt.Value(t, (*waits)[2]).Equal(4 * time.Second)
}

func TestDoBackoffCapped(t *testing.T) {
	p, waits := newTestPolicy()
	p.MaxAttempts = 10
	p.BackoffCap = 8 * time.Second

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 7 {
			return &retryutil.HTTPError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	gt.NoError(t, err)
	for _, w := range *waits {
		gt.Bool(t, w <= 8*time.Second).True()
	}
	gt.Value(t, (*waits)[len(*waits)-1]).Equal(8 * time.Second)
}

func TestDoAttemptCeilingReturnsLastError(t *testing.T) {
	p, waits := newTestPolicy()

	last := &retryutil.HTTPError{StatusCode: http.StatusServiceUnavailable, Body: "still down"}
	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return last
	})

	gt.Number(t, calls).Equal(retryutil.DefaultMaxAttempts)
	gt.Array(t, *waits).Length(retryutil.DefaultMaxAttempts - 1)

	var he *retryutil.HTTPError
	gt.Bool(t, errors.As(err, &he)).True()
	gt.Value(t, he).Equal(last)
}

func TestDoDoesNotRetryCallerErrors(t *testing.T) {
	p, waits := newTestPolicy()

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return &retryutil.HTTPError{StatusCode: http.StatusNotFound}
	})

	gt.Error(t, err)
	gt.Number(t, calls).Equal(1)
	gt.Array(t, *waits).Length(0)
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tc := range cases {
		got := retryutil.Retryable(&retryutil.HTTPError{StatusCode: tc.status})
		gt.Value(t, got).Equal(tc.want)
	}

	gt.Bool(t, retryutil.Retryable(errors.New("plain error"))).False()
}

func TestNewHTTPError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"12"}},
		Body:       http.NoBody,
	}
	he := retryutil.NewHTTPError(resp)
	gt.Number(t, he.StatusCode).Equal(http.StatusTooManyRequests)
	gt.Value(t, he.RetryAfter).Equal(12 * time.Second)

	resp = &http.Response{
		StatusCode: http.StatusBadRequest,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("bad filter expression")),
	}
	he = retryutil.NewHTTPError(resp)
	gt.Value(t, he.RetryAfter).Equal(time.Duration(0))
	gt.Bool(t, strings.Contains(he.Error(), "bad filter expression")).True()
}
