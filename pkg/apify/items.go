package apify

import (
	"context"
	"encoding/json"
	"iter"
)

// DefaultPageSize is the dataset page size used when none is given.
const DefaultPageSize = 100

// Items returns a lazy sequence over a dataset. Pages are fetched on demand,
// so a consumer that stops early never triggers the remaining requests. A
// fetch error is yielded once and ends the sequence.
func Items(ctx context.Context, client Client, datasetID string, pageSize int) iter.Seq2[json.RawMessage, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(yield func(json.RawMessage, error) bool) {
		offset := 0
		for {
			page, err := client.ListItems(ctx, datasetID, offset, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			offset += len(page)
		}
	}
}
