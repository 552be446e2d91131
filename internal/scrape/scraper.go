// Package scrape runs keyword searches against the scraping provider and turns
// the raw results into deduplicated person leads.
package scrape

import (
	"context"
	"iter"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
)

// DefaultMaxResults applies when a request asks for zero or fewer leads.
const DefaultMaxResults = 20

// Run is one provider invocation: its ID and a lazy, single-use stream of
// dataset records.
type Run struct {
	ID      string
	Records iter.Seq2[normalize.RawRecord, error]
}

// Provider invokes the platform actor with input and returns its results.
// Implementations must fail with ErrMissingConfiguration before any network
// call when their credentials are absent.
type Provider interface {
	Invoke(ctx context.Context, platform model.Platform, input map[string]any) (*Run, error)
}

// Config holds scrape settings.
type Config struct {
	DefaultMaxResults int
	// ExaKey is forwarded to the LinkedIn people-search actor.
	ExaKey string
}

// Scraper resolves the platform, invokes the provider and normalizes results.
type Scraper struct {
	provider Provider
	cfg      Config
	opts     []normalize.Option
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithNormalizeOptions passes options to each per-invocation Normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(s *Scraper) {
		s.opts = append(s.opts, opts...)
	}
}

// New returns a Scraper backed by provider.
func New(provider Provider, cfg Config, opts ...Option) *Scraper {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = DefaultMaxResults
	}
	s := &Scraper{provider: provider, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolvePlatform maps a case-insensitive platform name to a Platform.
func ResolvePlatform(name string) (model.Platform, error) {
	if strings.EqualFold(strings.TrimSpace(name), "telegram") {
		return "", eris.Wrap(ErrUnsupportedPlatform,
			"telegram: channel scraping needs channel names, not a keyword search")
	}
	p, err := model.ParsePlatform(name)
	if err != nil {
		return "", eris.Wrapf(ErrUnsupportedPlatform, "%q: supported platforms are linkedin, x, tiktok", name)
	}
	return p, nil
}

// Scrape searches platform for keyword and location and returns at most
// params.MaxResults leads in provider order. Provider errors are returned
// as-is; a failure discards any leads already collected.
func (s *Scraper) Scrape(ctx context.Context, params model.SearchParams) ([]model.Lead, error) {
	platform, err := ResolvePlatform(params.Platform)
	if err != nil {
		return nil, err
	}

	limit := params.MaxResults
	if limit <= 0 {
		limit = s.cfg.DefaultMaxResults
	}

	input, err := s.payload(platform, params.Query(), limit)
	if err != nil {
		return nil, err
	}

	run, err := s.provider.Invoke(ctx, platform, input)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("platform", string(platform)),
		zap.String("run_id", run.ID),
	)

	n := normalize.New(platform, normalize.Query{Keyword: params.Keyword, Location: params.Location}, s.opts...)
	leads := make([]model.Lead, 0, limit)
	skipped := make(map[normalize.Reason]int)
	raw := 0

	for rec, err := range run.Records {
		if err != nil {
			return nil, ProviderError(err)
		}
		raw++
		lead, reason := n.Normalize(rec)
		if lead == nil {
			skipped[reason]++
			continue
		}
		leads = append(leads, *lead)
		if len(leads) >= limit {
			break
		}
	}

	log.Info("scrape: complete",
		zap.Int("raw", raw),
		zap.Int("leads", len(leads)),
		zap.Int("skipped_no_name", skipped[normalize.ReasonNoName]),
		zap.Int("skipped_organization", skipped[normalize.ReasonOrganization]),
		zap.Int("skipped_duplicate", skipped[normalize.ReasonDuplicate]),
	)
	return leads, nil
}

// payload builds the actor input for platform. Keyed platforms over-fetch
// since many raw items collapse into one identity.
func (s *Scraper) payload(platform model.Platform, query string, limit int) (map[string]any, error) {
	switch platform {
	case model.PlatformLinkedIn:
		if s.cfg.ExaKey == "" {
			return nil, eris.Wrap(ErrMissingCredential, "linkedin: EXA_API_KEY is required for people search")
		}
		return map[string]any{
			"query":      query,
			"exaApiKey":  s.cfg.ExaKey,
			"maxResults": limit,
		}, nil
	case model.PlatformX:
		return map[string]any{
			"twitterContent": query,
			"maxItems":       max(3*limit, 20),
			"queryType":      "Top",
		}, nil
	case model.PlatformTikTok:
		return map[string]any{
			"searchQueries":       []string{query},
			"resultsPerPage":      2 * limit,
			"searchSection":       "/user",
			"maxProfilesPerQuery": limit,
		}, nil
	default:
		return nil, eris.Wrapf(ErrUnsupportedPlatform, "%s", platform)
	}
}
