package export

import (
	"context"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/notion"
	"github.com/sells-group/outreach-cli/pkg/salesforce"
)

// Summary counts the outcome of a Push.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sink publishes leads to an external system.
type Sink interface {
	Name() string
	Push(ctx context.Context, leads []model.Lead) (Summary, error)
}

// NotionSink writes each lead as a page in a Notion database, keyed by its
// contact link.
type NotionSink struct {
	db *notion.LeadDB
}

// NewNotionSink returns a sink writing to db.
func NewNotionSink(db *notion.LeadDB) *NotionSink {
	return &NotionSink{db: db}
}

func (s *NotionSink) Name() string { return "notion" }

// Push upserts one page per lead. Leads without a contact link are skipped.
func (s *NotionSink) Push(ctx context.Context, leads []model.Lead) (Summary, error) {
	var sum Summary
	if s.db.ID() == "" {
		return sum, eris.New("export: notion lead database is not configured")
	}
	for _, l := range leads {
		if l.ContactLink == "" {
			sum.Skipped++
			continue
		}
		created, err := s.db.Upsert(ctx, l.ContactLink, NotionProperties(l))
		if err != nil {
			return sum, eris.Wrapf(err, "export: notion lead %s", l.ID)
		}
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}
	zap.L().Info("export: pushed leads to notion",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

// NotionProperties maps a lead onto the lead database columns.
func NotionProperties(l model.Lead) notionapi.Properties {
	followers := float64(l.Followers)
	return notionapi.Properties{
		"Name": notion.Title(l.Name),
		notion.URLProperty: notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  l.ContactLink,
		},
		"Platform": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: string(l.Platform)},
		},
		"Role":    notion.Text(l.Role),
		"Company": notion.Text(l.Company),
		"Region":  notion.Text(l.Region),
		"Followers": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: followers,
		},
	}
}

// SalesforceSink writes leads as Salesforce Lead records.
type SalesforceSink struct {
	client     salesforce.Client
	leadSource string
}

// NewSalesforceSink returns a sink tagging records with leadSource.
func NewSalesforceSink(client salesforce.Client, leadSource string) *SalesforceSink {
	return &SalesforceSink{client: client, leadSource: leadSource}
}

func (s *SalesforceSink) Name() string { return "salesforce" }

// Push upserts leads by website. Per-record rejections are counted as
// failures and logged; only request errors abort the push.
func (s *SalesforceSink) Push(ctx context.Context, leads []model.Lead) (Summary, error) {
	records := make([]map[string]any, len(leads))
	for i, l := range leads {
		records[i] = SalesforceRecord(l, s.leadSource)
	}

	res, err := salesforce.UpsertLeads(ctx, s.client, records)
	if err != nil {
		return Summary{}, eris.Wrap(err, "export: salesforce")
	}
	for _, f := range res.Failed {
		zap.L().Warn("export: salesforce rejected lead",
			zap.String("id", f.ID),
			zap.Strings("errors", f.Errors),
		)
	}
	sum := Summary{Created: res.Created, Updated: res.Updated, Failed: len(res.Failed)}
	zap.L().Info("export: pushed leads to salesforce",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// NotProvided fills required Lead fields with no value.
const NotProvided = "[not provided]"

// SalesforceRecord maps a lead onto Lead sObject fields.
func SalesforceRecord(l model.Lead, leadSource string) map[string]any {
	first, last := splitName(l.Name)
	company := l.Company
	if company == "" {
		company = NotProvided
	}

	rec := map[string]any{
		"LastName": last,
		"Company":  company,
		"Title":    l.Role,
		"Website":  l.ContactLink,
		"Description": strings.Join([]string{
			"Platform: " + string(l.Platform),
			"Region: " + l.Region,
			"Followers: " + strconv.FormatInt(l.Followers, 10),
			"Search: " + l.Notes,
		}, "\n"),
	}
	if first != "" {
		rec["FirstName"] = first
	}
	if leadSource != "" {
		rec["LeadSource"] = leadSource
	}
	return rec
}

// splitName treats the final token as the last name.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", NotProvided
	case 1:
		return "", fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}
