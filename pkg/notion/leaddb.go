// Package notion publishes lead rows into a Notion database, one page per
// contact link.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// URLProperty is the column lead pages are keyed by.
const URLProperty = "URL"

// DefaultRPS is Notion's documented average request budget per integration.
const DefaultRPS = 3

// Pages is the part of the Notion API a LeadDB talks to.
type Pages interface {
	Query(ctx context.Context, db notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

type apiPages struct {
	c *notionapi.Client
}

func (p apiPages) Query(ctx context.Context, db notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return p.c.Database.Query(ctx, db, req)
}

func (p apiPages) Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return p.c.Page.Create(ctx, req)
}

func (p apiPages) Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return p.c.Page.Update(ctx, id, req)
}

// LeadDB is a single Notion database of leads.
type LeadDB struct {
	pages   Pages
	id      notionapi.DatabaseID
	limiter *rate.Limiter
}

// NewLeadDB connects to database dbID with an integration token, throttled
// to DefaultRPS.
func NewLeadDB(token, dbID string) *LeadDB {
	return NewLeadDBWithPages(apiPages{c: notionapi.NewClient(notionapi.Token(token))}, dbID, DefaultRPS)
}

// NewLeadDBWithPages builds a LeadDB over any Pages implementation. A
// non-positive rps disables throttling.
func NewLeadDBWithPages(pages Pages, dbID string, rps float64) *LeadDB {
	db := &LeadDB{pages: pages, id: notionapi.DatabaseID(dbID)}
	if rps > 0 {
		db.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
	return db
}

// ID returns the database ID.
func (d *LeadDB) ID() string { return string(d.id) }

func (d *LeadDB) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return eris.Wrap(d.limiter.Wait(ctx), "notion: rate limit")
}

// Find returns the lead page whose URL column equals link, or nil.
func (d *LeadDB) Find(ctx context.Context, link string) (*notionapi.Page, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := d.pages.Query(ctx, d.id, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: URLProperty,
			URL:      &notionapi.TextFilterCondition{Equals: link},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find lead %s", link)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// Upsert writes props to the page keyed by link, creating it when missing.
// It reports whether a page was created.
func (d *LeadDB) Upsert(ctx context.Context, link string, props notionapi.Properties) (bool, error) {
	if d.id == "" {
		return false, eris.New("notion: lead database is not configured")
	}
	existing, err := d.Find(ctx, link)
	if err != nil {
		return false, err
	}

	if err := d.wait(ctx); err != nil {
		return false, err
	}
	if existing != nil {
		_, err := d.pages.Update(ctx, notionapi.PageID(existing.ID), &notionapi.PageUpdateRequest{Properties: props})
		return false, eris.Wrapf(err, "notion: update lead %s", link)
	}

	_, err = d.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: d.id,
		},
		Properties: props,
	})
	if err != nil {
		return false, eris.Wrapf(err, "notion: create lead %s", link)
	}
	return true, nil
}

// Title builds a title property.
func Title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}

// Text builds a rich_text property.
func Text(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}
