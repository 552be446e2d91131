package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
)

// fakeProvider serves canned records and counts how many were pulled.
type fakeProvider struct {
	records  []string
	failAt   int // yield an error at this index (-1: never)
	err      error
	calls    int
	consumed int
	platform model.Platform
	input    map[string]any
}

func (f *fakeProvider) Invoke(_ context.Context, platform model.Platform, input map[string]any) (*Run, error) {
	f.calls++
	f.platform = platform
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &Run{
		ID: "run-1",
		Records: func(yield func(normalize.RawRecord, error) bool) {
			for i, r := range f.records {
				if i == f.failAt {
					yield(nil, errors.New("dataset read failed"))
					return
				}
				f.consumed++
				if !yield(normalize.RawRecord(r), nil) {
					return
				}
			}
		},
	}, nil
}

func person(i int) string {
	return fmt.Sprintf(`{"author":"Person Number%d","url":"https://linkedin.com/in/p%d"}`, i, i)
}

func TestScrape_LinkedInStopsAtMax(t *testing.T) {
	// 2 organizations interleaved with 8 people.
	records := []string{
		person(1),
		`{"author":"Acme Ventures","url":"https://linkedin.com/company/acme"}`,
		person(2),
		person(3),
		`{"author":"Berlin Startup Academy","url":"https://linkedin.com/company/bsa"}`,
		person(4),
		person(5),
		person(6),
		person(7),
		person(8),
	}
	p := &fakeProvider{records: records, failAt: -1}
	s := New(p, Config{ExaKey: "exa"})

	leads, err := s.Scrape(context.Background(), model.SearchParams{
		Keyword: "AI founders", Location: "Berlin", Platform: "linkedin", MaxResults: 5,
	})
	require.NoError(t, err)
	require.Len(t, leads, 5)

	for i, l := range leads {
		assert.Equal(t, model.PlatformLinkedIn, l.Platform)
		assert.Equal(t, fmt.Sprintf("Person Number%d", i+1), l.Name)
		assert.Equal(t, "AI founders", l.Notes)
	}
	// Person 5 is the 7th record; nothing after it is pulled.
	assert.Equal(t, 7, p.consumed)

	assert.Equal(t, model.PlatformLinkedIn, p.platform)
	assert.Equal(t, "AI founders Berlin", p.input["query"])
	assert.Equal(t, "exa", p.input["exaApiKey"])
	assert.Equal(t, 5, p.input["maxResults"])
}

func TestScrape_UnsupportedPlatform(t *testing.T) {
	for _, name := range []string{"telegram", "Telegram", "facebook", ""} {
		t.Run(name, func(t *testing.T) {
			p := &fakeProvider{failAt: -1}
			_, err := New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "k", Platform: name})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedPlatform)
			assert.Equal(t, KindUnsupportedPlatform, KindOf(err))
			assert.Zero(t, p.calls)
		})
	}

	_, err := ResolvePlatform("telegram")
	assert.Contains(t, err.Error(), "channel")
}

func TestScrape_PlatformCaseInsensitive(t *testing.T) {
	for name, want := range map[string]model.Platform{
		"LinkedIn": model.PlatformLinkedIn,
		"X":        model.PlatformX,
		"twitter":  model.PlatformX,
		"TIKTOK":   model.PlatformTikTok,
	} {
		p, err := ResolvePlatform(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, p)
	}
}

func TestScrape_LinkedInNeedsExaKey(t *testing.T) {
	p := &fakeProvider{failAt: -1}
	_, err := New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "k", Platform: "linkedin"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, KindMissingCredential, KindOf(err))
	assert.Zero(t, p.calls)
}

func TestScrape_Payloads(t *testing.T) {
	p := &fakeProvider{failAt: -1}
	s := New(p, Config{})

	_, err := s.Scrape(context.Background(), model.SearchParams{Keyword: "ai", Platform: "x", MaxResults: 4})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"twitterContent": "ai", "maxItems": 20, "queryType": "Top"}, p.input)

	_, err = s.Scrape(context.Background(), model.SearchParams{Keyword: "ai", Platform: "x", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, 30, p.input["maxItems"])

	_, err = s.Scrape(context.Background(), model.SearchParams{Keyword: "ai", Location: "Berlin", Platform: "tiktok", MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"searchQueries":       []string{"ai Berlin"},
		"resultsPerPage":      10,
		"searchSection":       "/user",
		"maxProfilesPerQuery": 5,
	}, p.input)
}

func TestScrape_DefaultMaxResults(t *testing.T) {
	p := &fakeProvider{failAt: -1}
	_, err := New(p, Config{DefaultMaxResults: 7}).Scrape(context.Background(), model.SearchParams{Keyword: "ai", Platform: "tiktok"})
	require.NoError(t, err)
	assert.Equal(t, 7, p.input["maxProfilesPerQuery"])

	_, err = New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "ai", Platform: "tiktok", MaxResults: -1})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResults, p.input["maxProfilesPerQuery"])
}

func TestScrape_TwitterDeduplicates(t *testing.T) {
	p := &fakeProvider{failAt: -1, records: []string{
		`{"author":{"userName":"ada","name":"Ada Lovelace"}}`,
		`{"author":{"userName":"ada","name":"Ada Lovelace"}}`,
		`{"author":{"userName":"grace","name":"Grace Hopper"}}`,
	}}
	leads, err := New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "ai", Platform: "x", MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Ada Lovelace", leads[0].Name)
	assert.Equal(t, "Grace Hopper", leads[1].Name)
	assert.NotEqual(t, leads[0].ID, leads[1].ID)
}

func TestScrape_ProviderErrorPropagates(t *testing.T) {
	cause := fmt.Errorf("wrapped: %w", ErrMissingConfiguration)
	p := &fakeProvider{err: cause}
	_, err := New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "k", Platform: "x"})
	assert.Same(t, cause, err)
	assert.Equal(t, KindMissingConfiguration, KindOf(err))
}

func TestScrape_StreamErrorDiscardsLeads(t *testing.T) {
	p := &fakeProvider{failAt: 1, records: []string{
		`{"author":{"userName":"ada","name":"Ada Lovelace"}}`,
		`{"author":{"userName":"grace","name":"Grace Hopper"}}`,
	}}
	leads, err := New(p, Config{}).Scrape(context.Background(), model.SearchParams{Keyword: "k", Platform: "x"})
	require.Error(t, err)
	assert.Nil(t, leads)
	assert.Equal(t, KindProviderInvocation, KindOf(err))
	assert.Contains(t, err.Error(), "dataset read failed")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindProviderInvocation, KindOf(ProviderError(errors.New("boom"))))

	// Already categorized errors keep their category.
	err := ProviderError(ErrMissingConfiguration)
	assert.Equal(t, KindMissingConfiguration, KindOf(err))
	assert.Nil(t, ProviderError(nil))
}
