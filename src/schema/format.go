package schema

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// FormatColumnsTable renders a human-readable table for resolved columns.
func FormatColumnsTable(cols []Column) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "Name\tSQL Type\tArrow Type\tNullable")
	for _, c := range cols {
		nullable := "-"
		if c.Nullable {
			nullable = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.SQLType, c.Type, nullable)
	}

	_ = w.Flush()
	return buf.String()
}
