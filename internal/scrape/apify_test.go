package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/apify"
)

type fakeApify struct {
	startStatus  int
	runStatus    string
	items        []string
	startCalls   atomic.Int32
	itemRequests atomic.Int32
}

func (f *fakeApify) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			f.startCalls.Add(1)
			if f.startStatus != 0 {
				w.WriteHeader(f.startStatus)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`))
		case r.URL.Path == "/v2/actor-runs/run-1":
			_, _ = fmt.Fprintf(w, `{"data":{"id":"run-1","status":%q,"defaultDatasetId":"ds-1"}}`, f.runStatus)
		case r.URL.Path == "/v2/datasets/ds-1/items":
			f.itemRequests.Add(1)
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			end := min(offset+limit, len(f.items))
			page := make([]json.RawMessage, 0)
			for _, it := range f.items[min(offset, end):end] {
				page = append(page, json.RawMessage(it))
			}
			_ = json.NewEncoder(w).Encode(page)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestProvider(t *testing.T, f *fakeApify, token string) *ApifyProvider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	client := apify.NewClient(token, apify.WithBaseURL(srv.URL), apify.WithRateLimit(0))
	return NewApifyProvider(client, ApifyConfig{
		Token:        token,
		PageSize:     2,
		PollInterval: time.Millisecond,
		PollTimeout:  5 * time.Second,
		Policy: resilience.Policy{
			Retry: resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		},
	})
}

func TestApifyProvider_MissingToken(t *testing.T) {
	f := &fakeApify{runStatus: apify.StatusSucceeded}
	p := newTestProvider(t, f, "")

	_, err := p.Invoke(context.Background(), model.PlatformX, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Zero(t, f.startCalls.Load())
}

func TestApifyProvider_StreamsDataset(t *testing.T) {
	f := &fakeApify{
		runStatus: apify.StatusSucceeded,
		items:     []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`, `{"n":5}`},
	}
	p := newTestProvider(t, f, "tok")

	run, err := p.Invoke(context.Background(), model.PlatformTikTok, map[string]any{"searchQueries": []string{"ai"}})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Zero(t, f.itemRequests.Load(), "dataset is read lazily")

	var got []int64
	for rec, err := range run.Records {
		require.NoError(t, err)
		got = append(got, rec.Get("n").Int())
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
	assert.Equal(t, int32(2), f.itemRequests.Load())
}

func TestApifyProvider_RunFailed(t *testing.T) {
	f := &fakeApify{runStatus: apify.StatusFailed}
	p := newTestProvider(t, f, "tok")
	p.cfg.Policy.Retry.MaxAttempts = 1

	_, err := p.Invoke(context.Background(), model.PlatformX, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, KindProviderInvocation, KindOf(err))
	assert.Contains(t, err.Error(), "FAILED")
}

func TestApifyProvider_RetriesTransientStart(t *testing.T) {
	f := &fakeApify{startStatus: http.StatusServiceUnavailable}
	p := newTestProvider(t, f, "tok")

	_, err := p.Invoke(context.Background(), model.PlatformX, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, KindProviderInvocation, KindOf(err))
	assert.Equal(t, int32(2), f.startCalls.Load())

	var apiErr *apify.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestApifyProvider_PermanentStartErrorNotRetried(t *testing.T) {
	f := &fakeApify{startStatus: http.StatusBadRequest}
	p := newTestProvider(t, f, "tok")

	_, err := p.Invoke(context.Background(), model.PlatformX, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, int32(1), f.startCalls.Load())
}

func TestNewApifyProvider_ActorOverrides(t *testing.T) {
	p := NewApifyProvider(nil, ApifyConfig{Actors: map[model.Platform]string{
		model.PlatformX:      "me/my-x-actor",
		model.PlatformTikTok: "",
	}})
	assert.Equal(t, "me/my-x-actor", p.cfg.Actors[model.PlatformX])
	assert.Equal(t, DefaultActors()[model.PlatformTikTok], p.cfg.Actors[model.PlatformTikTok])
	assert.Equal(t, apify.DefaultPageSize, p.cfg.PageSize)
}
