package apify

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 5 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial  time.Duration
	cap      time.Duration
	timeout  time.Duration
	waitSecs int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// WithWaitForFinish asks the server to hold each status request open for up
// to secs seconds.
func WithWaitForFinish(secs int) PollOption {
	return func(c *pollConfig) {
		c.waitSecs = secs
	}
}

// PollRun polls GetRun until the run reaches a terminal status or the context
// expires. Uses exponential backoff: 2s -> 4s -> 8s -> 15s (capped). A run
// that ends in any status other than SUCCEEDED is returned with an error.
func PollRun(ctx context.Context, client Client, run *Run, opts ...PollOption) (*Run, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		if run.Terminal() {
			if run.Status != StatusSucceeded {
				return run, eris.Errorf("apify: run %s finished with status %s", run.ID, run.Status)
			}
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("apify: poll run %s timed out", run.ID))
		case <-time.After(interval):
		}

		next, err := client.GetRun(ctx, run.ID, cfg.waitSecs)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("apify: poll run %s", run.ID))
		}
		run = next

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}
