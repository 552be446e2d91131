package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/jobs"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/scrape"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/apify"
	"github.com/sells-group/outreach-cli/pkg/notion"
	"github.com/sells-group/outreach-cli/pkg/salesforce"
)

// appEnv holds the store, scraper and job runner needed by the serve and
// search commands.
type appEnv struct {
	Store   store.Store
	Scraper *scrape.Scraper
	Runner  *jobs.Runner

	closers []func() error
}

// Close waits for running jobs, then releases resources in reverse order.
func (e *appEnv) Close() {
	if e.Runner != nil {
		e.Runner.Wait()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// initApp validates cfg for mode and wires the store, scraper, job registry
// and runner. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, closers: []func() error{st.Close}}

	registry, closeRegistry, err := initRegistry(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	if closeRegistry != nil {
		env.closers = append(env.closers, closeRegistry)
	}

	env.Scraper = initScraper()
	env.Runner = jobs.NewRunner(registry, env.Scraper,
		jobs.WithMaxConcurrent(cfg.Jobs.MaxConcurrent),
		jobs.WithCompletionHook(recordHistory(st)),
	)
	return env, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// initRegistry returns the configured job registry and, for shared backends,
// a close function.
func initRegistry(ctx context.Context) (jobs.Registry, func() error, error) {
	switch cfg.Jobs.Backend {
	case "", "memory":
		return jobs.NewMemoryRegistry(), nil, nil
	case "redis":
		ttl := time.Duration(cfg.Jobs.Redis.TTLHours) * time.Hour
		reg := jobs.NewRedisRegistry(cfg.Jobs.Redis.Addr, cfg.Jobs.Redis.Prefix, ttl)
		if err := reg.Ping(ctx); err != nil {
			_ = reg.Close()
			return nil, nil, eris.Wrapf(err, "connect redis at %s", cfg.Jobs.Redis.Addr)
		}
		zap.L().Info("job registry: redis", zap.String("addr", cfg.Jobs.Redis.Addr))
		return reg, reg.Close, nil
	default:
		return nil, nil, eris.Errorf("unsupported jobs backend: %s", cfg.Jobs.Backend)
	}
}

// initScraper builds the Apify-backed scraper. Missing credentials are not an
// error here; they fail the individual scrape.
func initScraper() *scrape.Scraper {
	client := apify.NewClient(cfg.Apify.Token,
		apify.WithBaseURL(cfg.Apify.BaseURL),
		apify.WithRateLimit(cfg.Apify.RateLimit),
	)

	actors := make(map[model.Platform]string)
	for name, actor := range cfg.Apify.Actors {
		p, err := model.ParsePlatform(name)
		if err != nil {
			zap.L().Warn("ignoring actor for unknown platform", zap.String("platform", name))
			continue
		}
		actors[p] = actor
	}

	provider := scrape.NewApifyProvider(client, scrape.ApifyConfig{
		Token:       cfg.Apify.Token,
		Actors:      actors,
		PageSize:    cfg.Apify.PageSize,
		WaitSecs:    cfg.Apify.WaitSecs,
		PollTimeout: time.Duration(cfg.Apify.PollTimeoutSecs) * time.Second,
		Policy: resilience.Policy{
			Retry: resilience.FromRetryConfig(
				cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs, 0, 0),
			Breakers: resilience.NewBreakers(
				resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs)),
		},
	})

	return scrape.New(provider, scrape.Config{
		DefaultMaxResults: cfg.Scrape.DefaultMaxResults,
		ExaKey:            cfg.Exa.Key,
	})
}

// recordHistory stores one history entry per completed job.
func recordHistory(st store.Store) jobs.CompletionHook {
	return func(ctx context.Context, job *model.Job) {
		if _, err := st.AddHistory(ctx, job.Params, len(job.Results), job.ID); err != nil {
			zap.L().Warn("record search history", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func initNotionSink() (export.Sink, error) {
	if err := cfg.Validate("notion"); err != nil {
		return nil, err
	}
	return export.NewNotionSink(notion.NewLeadDB(cfg.Notion.Token, cfg.Notion.LeadDB)), nil
}

func initSalesforceSink() (export.Sink, error) {
	if err := cfg.Validate("salesforce"); err != nil {
		return nil, err
	}
	client, err := salesforce.NewJWTClient(salesforce.JWTConfig{
		LoginURL: cfg.Salesforce.LoginURL,
		Username: cfg.Salesforce.Username,
		ClientID: cfg.Salesforce.ClientID,
		KeyPath:  cfg.Salesforce.KeyPath,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}
	return export.NewSalesforceSink(client, cfg.Salesforce.LeadSource), nil
}

// initSink returns the sink registered under name.
func initSink(name string) (export.Sink, error) {
	switch name {
	case "notion":
		return initNotionSink()
	case "salesforce":
		return initSalesforceSink()
	default:
		return nil, eris.Errorf("unknown sink %q (want notion or salesforce)", name)
	}
}
