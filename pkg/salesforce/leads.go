package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// LeadObject is the sObject name for leads.
const LeadObject = "Lead"

// LeadKeyField is the Lead field used to match existing records.
const LeadKeyField = "Website"

// Lead is the subset of a Salesforce Lead record used for matching.
type Lead struct {
	ID      string `json:"Id" salesforce:"Id"`
	Website string `json:"Website" salesforce:"Website"`
}

// UpsertResult summarizes an UpsertLeads call.
type UpsertResult struct {
	Created int
	Updated int
	Failed  []CollectionResult
}

// FindLeadsByWebsite returns the IDs of existing leads keyed by website.
func FindLeadsByWebsite(ctx context.Context, c Client, websites []string) (map[string]string, error) {
	found := make(map[string]string)
	if len(websites) == 0 {
		return found, nil
	}

	quoted := make([]string, len(websites))
	for i, w := range websites {
		quoted[i] = "'" + escapeSoql(w) + "'"
	}
	soql := fmt.Sprintf("SELECT Id, Website FROM Lead WHERE Website IN (%s)", strings.Join(quoted, ", "))

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, "sf: find leads by website")
	}
	for _, l := range leads {
		if _, ok := found[l.Website]; !ok {
			found[l.Website] = l.ID
		}
	}
	return found, nil
}

// UpsertLeads writes Lead records in batches of 200. Records whose Website
// matches an existing lead update it; the rest are inserted.
func UpsertLeads(ctx context.Context, c Client, records []map[string]any) (*UpsertResult, error) {
	res := &UpsertResult{}

	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))
		batch := records[start:end]

		var websites []string
		for _, r := range batch {
			if w, _ := r[LeadKeyField].(string); w != "" {
				websites = append(websites, w)
			}
		}
		existing, err := FindLeadsByWebsite(ctx, c, websites)
		if err != nil {
			return res, err
		}

		var inserts []map[string]any
		var updates []CollectionRecord
		for _, r := range batch {
			w, _ := r[LeadKeyField].(string)
			if id, ok := existing[w]; ok && w != "" {
				updates = append(updates, CollectionRecord{ID: id, Fields: r})
				continue
			}
			inserts = append(inserts, r)
		}

		if len(updates) > 0 {
			results, err := c.UpdateCollection(ctx, LeadObject, updates)
			if err != nil {
				return res, eris.Wrapf(err, "sf: update leads batch %d-%d", start, end)
			}
			res.Updated += tally(results, &res.Failed)
		}
		if len(inserts) > 0 {
			results, err := c.InsertCollection(ctx, LeadObject, inserts)
			if err != nil {
				return res, eris.Wrapf(err, "sf: insert leads batch %d-%d", start, end)
			}
			res.Created += tally(results, &res.Failed)
		}
	}
	return res, nil
}

func tally(results []CollectionResult, failed *[]CollectionResult) int {
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			*failed = append(*failed, r)
		}
	}
	return ok
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
