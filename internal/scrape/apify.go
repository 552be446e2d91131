package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/apify"
)

// DefaultActors are the Apify actors used per platform.
func DefaultActors() map[model.Platform]string {
	return map[model.Platform]string{
		model.PlatformLinkedIn: "fantastic-jobs/exa-ai-people-search",
		model.PlatformX:        "kaitoeasyapi/twitter-x-data-tweet-scraper-pay-per-result-cheapest",
		model.PlatformTikTok:   "clockworks/tiktok-scraper",
	}
}

// ApifyConfig configures ApifyProvider.
type ApifyConfig struct {
	Token        string
	Actors       map[model.Platform]string
	PageSize     int
	WaitSecs     int
	PollInterval time.Duration
	PollTimeout  time.Duration
	Policy       resilience.Policy
}

// ApifyProvider runs platform actors on Apify and streams their datasets.
type ApifyProvider struct {
	client apify.Client
	cfg    ApifyConfig
}

// NewApifyProvider wraps client. Missing actors fall back to DefaultActors.
func NewApifyProvider(client apify.Client, cfg ApifyConfig) *ApifyProvider {
	actors := DefaultActors()
	for p, a := range cfg.Actors {
		if a != "" {
			actors[p] = a
		}
	}
	cfg.Actors = actors
	if cfg.PageSize <= 0 {
		cfg.PageSize = apify.DefaultPageSize
	}
	return &ApifyProvider{client: client, cfg: cfg}
}

// Invoke starts the platform actor, waits for it to finish and returns a lazy
// stream over its default dataset.
func (p *ApifyProvider) Invoke(ctx context.Context, platform model.Platform, input map[string]any) (*Run, error) {
	if p.cfg.Token == "" {
		return nil, eris.Wrap(ErrMissingConfiguration, "APIFY_API_TOKEN is not set")
	}
	actor, ok := p.cfg.Actors[platform]
	if !ok {
		return nil, eris.Wrapf(ErrUnsupportedPlatform, "no actor configured for %s", platform)
	}

	client := &guardedClient{Client: p.client, policy: p.cfg.Policy, key: actor}

	run, err := client.StartRun(ctx, actor, input, p.cfg.WaitSecs)
	if err != nil {
		return nil, ProviderError(err)
	}

	opts := []apify.PollOption{apify.WithWaitForFinish(p.cfg.WaitSecs)}
	if p.cfg.PollInterval > 0 {
		opts = append(opts, apify.WithPollInterval(p.cfg.PollInterval))
	}
	if p.cfg.PollTimeout > 0 {
		opts = append(opts, apify.WithPollTimeout(p.cfg.PollTimeout))
	}
	run, err = apify.PollRun(ctx, client, run, opts...)
	if err != nil {
		return nil, ProviderError(err)
	}

	zap.L().Info("apify: run finished",
		zap.String("actor", actor),
		zap.String("run_id", run.ID),
		zap.String("dataset_id", run.DefaultDatasetID),
	)

	items := apify.Items(ctx, client, run.DefaultDatasetID, p.cfg.PageSize)
	return &Run{
		ID: run.ID,
		Records: func(yield func(normalize.RawRecord, error) bool) {
			for item, err := range items {
				if err != nil {
					yield(nil, ProviderError(err))
					return
				}
				if !yield(normalize.RawRecord(item), nil) {
					return
				}
			}
		},
	}, nil
}

// guardedClient runs every API call under the retry and breaker policy.
type guardedClient struct {
	apify.Client
	policy resilience.Policy
	key    string
}

func (c *guardedClient) StartRun(ctx context.Context, actorID string, input any, waitSecs int) (*apify.Run, error) {
	return call(ctx, c, "start_run", func(ctx context.Context) (*apify.Run, error) {
		return c.Client.StartRun(ctx, actorID, input, waitSecs)
	})
}

func (c *guardedClient) GetRun(ctx context.Context, runID string, waitSecs int) (*apify.Run, error) {
	return call(ctx, c, "get_run", func(ctx context.Context) (*apify.Run, error) {
		return c.Client.GetRun(ctx, runID, waitSecs)
	})
}

func (c *guardedClient) ListItems(ctx context.Context, datasetID string, offset, limit int) ([]json.RawMessage, error) {
	return call(ctx, c, "list_items", func(ctx context.Context) ([]json.RawMessage, error) {
		return c.Client.ListItems(ctx, datasetID, offset, limit)
	})
}

func call[T any](ctx context.Context, c *guardedClient, op string, fn func(context.Context) (T, error)) (T, error) {
	policy := c.policy
	if policy.Retry.OnRetry == nil {
		policy.Retry.OnRetry = resilience.RetryLogger("apify", op)
	}
	return resilience.Call(ctx, policy, c.key, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		return v, markTransient(err)
	})
}

// markTransient flags retryable HTTP statuses for the retry loop.
func markTransient(err error) error {
	var apiErr *apify.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
		return resilience.NewTransientError(err, apiErr.StatusCode)
	}
	return err
}
