package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Output formats for list commands.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// writeValue encodes v as JSON or YAML.
func writeValue(out io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// formatLeadsTable writes a tabular list of leads to out.
func formatLeadsTable(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPLATFORM\tROLE\tREGION\tFOLLOWERS\tLINK")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t----\t------\t---------\t----")
	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			l.ID,
			truncate(l.Name, 30),
			l.Platform,
			truncate(l.Role, 30),
			truncate(l.Region, 20),
			l.Followers,
			l.ContactLink,
		)
	}
	_ = w.Flush()
}

// writeLeads renders leads in format.
func writeLeads(out io.Writer, format string, leads []model.Lead) error {
	if format == outputTable {
		formatLeadsTable(out, leads)
		return nil
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	return writeValue(out, format, leads)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
