package event

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/devicelab-dev/crashcheck/pkg/config"
	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
)

// Fetcher resolves captured event ids against the Sentry web API. Events are
// ingested asynchronously, so a lookup is retried until the event appears.
type Fetcher struct {
	BaseURL       string
	Token         string
	RetryCount    int
	RetryInterval time.Duration
	Client        *http.Client
}

// NewFetcher creates a fetcher from the sentry section of the configuration.
func NewFetcher(cfg config.Sentry) *Fetcher {
	return &Fetcher{
		BaseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		Token:         cfg.Token,
		RetryCount:    cfg.RetryCount,
		RetryInterval: time.Duration(cfg.RetryInterval) * time.Millisecond,
		Client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// EventURL returns the API URL of an event.
func (f *Fetcher) EventURL(eventID string) string {
	return fmt.Sprintf("%s/events/%s/", f.BaseURL, eventID)
}

// FetchEvent GETs the event, retrying any non-200 answer at a constant
// interval. A 403 means the token is wrong and is not retried.
func (f *Fetcher) FetchEvent(ctx context.Context, eventID string) (*Event, error) {
	if eventID == "" {
		return nil, core.ErrFetchFailed.WithCause(fmt.Errorf("empty event id"))
	}
	if f.Token == "" {
		return nil, core.ErrFetchFailed.WithCause(fmt.Errorf("%s is not set", config.EnvSentryAuth))
	}

	url := f.EventURL(eventID)
	attempt := 0
	operation := func() (*Event, error) {
		attempt++
		ev, status, err := f.get(ctx, url)
		switch {
		case err != nil:
			return nil, err
		case status == http.StatusOK:
			return ev, nil
		case status == http.StatusForbidden:
			return nil, backoff.Permanent(fmt.Errorf("GET %s: HTTP 403, check %s", url, config.EnvSentryAuth))
		default:
			return nil, fmt.Errorf("GET %s: HTTP %d", url, status)
		}
	}

	tries := f.RetryCount + 1
	interval := f.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	logger.Info("Fetching event %s from %s", eventID, f.BaseURL)
	ev, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithMaxElapsedTime(0), // bounded by tries
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("Event %s not available yet (attempt %d): %v", eventID, attempt, err)
		}),
	)
	if err != nil {
		return nil, core.ErrFetchFailed.WithCause(err).WithDetails(map[string]interface{}{
			"eventId":  eventID,
			"attempts": attempt,
		})
	}
	return ev, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*Event, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+f.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	ev, err := Parse(string(body))
	if err != nil {
		return nil, resp.StatusCode, backoff.Permanent(err)
	}
	return ev, resp.StatusCode, nil
}
