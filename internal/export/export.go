// Package export writes leads to files and pushes bookmarks to external CRMs.
package export

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Format is a file export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want csv or xlsx)", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename returns a timestamped download name such as leads_20250301_120000.csv.
func Filename(f Format, now time.Time) string {
	return "leads_" + now.UTC().Format("20060102_150405") + "." + string(f)
}

// row fixes the exported column order.
type row struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	Role        string `csv:"role"`
	Company     string `csv:"company"`
	Platform    string `csv:"platform"`
	ContactLink string `csv:"contact_link"`
	Region      string `csv:"region"`
	Followers   int64  `csv:"followers"`
	Verified    bool   `csv:"verified"`
	Notes       string `csv:"notes"`
}

// Columns lists the exported header in order.
var Columns = []string{"id", "name", "role", "company", "platform", "contact_link", "region", "followers", "verified", "notes"}

func toRow(l model.Lead) row {
	return row{
		ID:          l.ID,
		Name:        l.Name,
		Role:        l.Role,
		Company:     l.Company,
		Platform:    string(l.Platform),
		ContactLink: l.ContactLink,
		Region:      l.Region,
		Followers:   l.Followers,
		Verified:    l.Verified,
		Notes:       l.Notes,
	}
}

// Write encodes leads to w in format f.
func Write(w io.Writer, f Format, leads []model.Lead) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, leads)
	case FormatXLSX:
		return WriteXLSX(w, leads)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteCSV writes a header row followed by one row per lead.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(row{}); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	for _, l := range leads {
		if err := enc.Encode(toRow(l)); err != nil {
			return eris.Wrapf(err, "export: csv lead %s", l.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: csv flush")
}

// WriteXLSX writes a single "Leads" sheet with the same columns as WriteCSV.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: xlsx sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}

	for _, l := range leads {
		r := toRow(l)
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.ID)
		xr.AddCell().SetString(r.Name)
		xr.AddCell().SetString(r.Role)
		xr.AddCell().SetString(r.Company)
		xr.AddCell().SetString(r.Platform)
		xr.AddCell().SetString(r.ContactLink)
		xr.AddCell().SetString(r.Region)
		xr.AddCell().SetInt64(r.Followers)
		xr.AddCell().SetBool(r.Verified)
		xr.AddCell().SetString(r.Notes)
	}

	return eris.Wrap(f.Write(w), "export: xlsx write")
}

// Leads strips bookmark metadata from saved leads.
func Leads(saved []model.SavedLead) []model.Lead {
	leads := make([]model.Lead, len(saved))
	for i, s := range saved {
		leads[i] = s.Lead
	}
	return leads
}
