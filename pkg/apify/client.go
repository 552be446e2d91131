package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	// Default base URL for the Apify API.
	defaultBaseURL = "https://api.apify.com"
	// Apify allows 30 req/s per resource; stay well below it.
	defaultRPS = 10
)

// Run statuses reported by the Apify API.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED-OUT"
	StatusAborted   = "ABORTED"
	StatusTimingOut = "TIMING-OUT"
	StatusAborting  = "ABORTING"
)

// Client defines the Apify v2 API operations used to run actors.
type Client interface {
	StartRun(ctx context.Context, actorID string, input any, waitSecs int) (*Run, error)
	GetRun(ctx context.Context, runID string, waitSecs int) (*Run, error)
	ListItems(ctx context.Context, datasetID string, offset, limit int) ([]json.RawMessage, error)
}

// Run is an actor run as reported by the API.
type Run struct {
	ID               string    `json:"id"`
	ActID            string    `json:"actId"`
	Status           string    `json:"status"`
	StatusMessage    string    `json:"statusMessage,omitempty"`
	DefaultDatasetID string    `json:"defaultDatasetId"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt,omitzero"`
}

// Terminal reports whether the run has finished, successfully or not.
func (r *Run) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	}
	return false
}

// runEnvelope is the {"data": ...} wrapper Apify puts around run objects.
type runEnvelope struct {
	Data Run `json:"data"`
}

// APIError is returned when Apify responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), 1),
		http: &http.Client{
			// waitForFinish can hold a request open for up to 60s.
			Timeout: 90 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ActorPath converts "user/name" into the "user~name" form used in URLs.
func ActorPath(actorID string) string {
	return strings.ReplaceAll(actorID, "/", "~")
}

func (c *httpClient) StartRun(ctx context.Context, actorID string, input any, waitSecs int) (*Run, error) {
	q := url.Values{}
	if waitSecs > 0 {
		q.Set("waitForFinish", strconv.Itoa(waitSecs))
	}
	var env runEnvelope
	path := "/v2/acts/" + url.PathEscape(ActorPath(actorID)) + "/runs"
	if err := c.post(ctx, path, q, input, &env); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("apify: start run %s", actorID))
	}
	return &env.Data, nil
}

func (c *httpClient) GetRun(ctx context.Context, runID string, waitSecs int) (*Run, error) {
	q := url.Values{}
	if waitSecs > 0 {
		q.Set("waitForFinish", strconv.Itoa(waitSecs))
	}
	var env runEnvelope
	if err := c.get(ctx, "/v2/actor-runs/"+url.PathEscape(runID), q, &env); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("apify: get run %s", runID))
	}
	return &env.Data, nil
}

func (c *httpClient) ListItems(ctx context.Context, datasetID string, offset, limit int) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("clean", "true")
	q.Set("format", "json")
	q.Set("offset", strconv.Itoa(offset))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var items []json.RawMessage
	if err := c.get(ctx, "/v2/datasets/"+url.PathEscape(datasetID)+"/items", q, &items); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("apify: list items %s", datasetID))
	}
	return items, nil
}

func (c *httpClient) post(ctx context.Context, path string, q url.Values, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, q), bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, q), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) url(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + q.Encode()
}

func (c *httpClient) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
