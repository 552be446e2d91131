package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", WithBaseURL(srv.URL))
	return srv, c
}

func TestStartRun(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantID     string
		wantErr    bool
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v2/acts/clockworks~tiktok-scraper/runs", r.URL.Path)
				assert.Equal(t, "30", r.URL.Query().Get("waitForFinish"))
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var input map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
				assert.Equal(t, []any{"ai founders"}, input["searchQueries"])

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`))
			},
			wantID: "run-1",
		},
		{
			name: "auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"type":"token-not-valid"}}`))
			},
			wantErr:    true,
			wantStatus: 401,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`oops`))
			},
			wantErr:    true,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			run, err := c.StartRun(context.Background(), "clockworks/tiktok-scraper",
				map[string]any{"searchQueries": []string{"ai founders"}}, 30)

			if tt.wantErr {
				require.Error(t, err)
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, run.ID)
			assert.Equal(t, "ds-1", run.DefaultDatasetID)
			assert.False(t, run.Terminal())
		})
	}
}

func TestGetRun(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/actor-runs/run-1", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("waitForFinish"))
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"SUCCEEDED","defaultDatasetId":"ds-1"}}`))
	})

	run, err := c.GetRun(context.Background(), "run-1", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.True(t, run.Terminal())
}

func TestListItems(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/datasets/ds-1/items", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("clean"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "10", q.Get("offset"))
		assert.Equal(t, "5", q.Get("limit"))
		_, _ = w.Write([]byte(`[{"a":1},{"a":2}]`))
	})

	items, err := c.ListItems(context.Background(), "ds-1", 10, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"a":2}`, string(items[1]))
}

func TestListItems_DecodeError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.ListItems(context.Background(), "ds-1", 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestActorPath(t *testing.T) {
	assert.Equal(t, "user~name", ActorPath("user/name"))
	assert.Equal(t, "abc123", ActorPath("abc123"))
}

func TestRunTerminal(t *testing.T) {
	for _, s := range []string{StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted} {
		assert.True(t, (&Run{Status: s}).Terminal(), s)
	}
	for _, s := range []string{StatusReady, StatusRunning, StatusTimingOut, StatusAborting} {
		assert.False(t, (&Run{Status: s}).Terminal(), s)
	}
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient("t", WithBaseURL(srv.URL), WithRateLimit(0.001))

	_, err := c.ListItems(context.Background(), "ds", 0, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListItems(ctx, "ds", 0, 1)
	require.Error(t, err)
}
