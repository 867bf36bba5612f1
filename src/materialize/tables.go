package materialize

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
)

// Tables maps a table name to its record batches in file order. The caller
// owns the records and must call Release.
type Tables map[string][]arrow.Record

// Names returns the table names in sorted order.
func (t Tables) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumRows returns the total row count of a table.
func (t Tables) NumRows(name string) int64 {
	var n int64
	for _, r := range t[name] {
		n += r.NumRows()
	}
	return n
}

// Release drops every record.
func (t Tables) Release() {
	for name, records := range t {
		releaseAll(records)
		delete(t, name)
	}
}
