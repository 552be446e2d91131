package model

import (
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SearchParams describes one scrape request.
type SearchParams struct {
	Keyword    string `json:"keyword" yaml:"keyword"`
	Location   string `json:"location" yaml:"location"`
	Platform   string `json:"platform" yaml:"platform"`
	MaxResults int    `json:"max_results" yaml:"max_results"`
}

// Query returns the provider search text built from keyword and location.
func (p SearchParams) Query() string {
	if strings.TrimSpace(p.Location) == "" {
		return strings.TrimSpace(p.Keyword)
	}
	return strings.TrimSpace(p.Keyword + " " + p.Location)
}

// Job is a point-in-time snapshot of an asynchronous scrape.
// Results is set only when Completed; Error only when Failed.
type Job struct {
	ID        string       `json:"id"`
	Status    JobStatus    `json:"status"`
	Params    SearchParams `json:"params"`
	Results   []Lead       `json:"results,omitzero"`
	Error     string       `json:"error,omitempty"`
	ErrorKind string       `json:"error_kind,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (j Job) Clone() Job {
	if j.Results != nil {
		results := make([]Lead, len(j.Results))
		copy(results, j.Results)
		j.Results = results
	}
	return j
}

// HistoryEntry records one executed search.
type HistoryEntry struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Params      SearchParams `json:"params"`
	ResultCount int          `json:"result_count"`
	JobID       string       `json:"job_id,omitempty"`
}
