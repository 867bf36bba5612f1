// Package catalog enumerates the logical tables understood by dbgen.
package catalog

import (
	"github.com/pingcap/errors"
)

// ErrUnknownTable is returned when a name is not one of the known tables.
var ErrUnknownTable = errors.Normalize("no table matching %q", errors.RFCCodeText("tpch:catalog:ErrUnknownTable"))

// Table identifies a dbgen table. Values match the table codes in dss.h.
type Table int

const (
	Part Table = iota
	PartSupp
	Supplier
	Customer
	Orders
	Lineitem
	// OrderLineitem selects orders and lineitem together.
	OrderLineitem
	// PartPartSupp selects part and partsupp together.
	PartPartSupp
	Nation
	Region
)

var names = [...]string{
	Part:          "part",
	PartSupp:      "partsupp",
	Supplier:      "supplier",
	Customer:      "customer",
	Orders:        "orders",
	Lineitem:      "lineitem",
	OrderLineitem: "order-lineitem",
	PartPartSupp:  "part-partsupp",
	Nation:        "nation",
	Region:        "region",
}

// flags are the -T selectors of the dbgen command line.
var flags = [...]string{
	Part:          "P",
	PartSupp:      "S",
	Supplier:      "s",
	Customer:      "c",
	Orders:        "O",
	Lineitem:      "L",
	OrderLineitem: "o",
	PartPartSupp:  "p",
	Nation:        "n",
	Region:        "r",
}

var byName = func() map[string]Table {
	m := make(map[string]Table, len(names))
	for i, n := range names {
		m[n] = Table(i)
	}
	return m
}()

// FromName returns the table with the given canonical name.
func FromName(name string) (Table, error) {
	t, ok := byName[name]
	if !ok {
		return 0, ErrUnknownTable.GenWithStackByArgs(name)
	}
	return t, nil
}

// String returns the canonical name of t.
func (t Table) String() string {
	if !t.valid() {
		return "unknown"
	}
	return names[t]
}

// Code returns the dbgen table code.
func (t Table) Code() int {
	return int(t)
}

// Flag returns the dbgen -T selector for t.
func (t Table) Flag() string {
	if !t.valid() {
		return ""
	}
	return flags[t]
}

// IsComposite reports whether t selects two tables at once.
func (t Table) IsComposite() bool {
	return t == OrderLineitem || t == PartPartSupp
}

// Members returns the real tables that t produces.
func (t Table) Members() []Table {
	switch t {
	case OrderLineitem:
		return []Table{Orders, Lineitem}
	case PartPartSupp:
		return []Table{Part, PartSupp}
	default:
		return []Table{t}
	}
}

func (t Table) valid() bool {
	return t >= Part && int(t) < len(names)
}

// All returns every table identifier in code order.
func All() []Table {
	out := make([]Table, 0, len(names))
	for i := range names {
		out = append(out, Table(i))
	}
	return out
}

// Real returns the eight tables that have their own schema and output files.
func Real() []Table {
	out := make([]Table, 0, len(names)-2)
	for _, t := range All() {
		if !t.IsComposite() {
			out = append(out, t)
		}
	}
	return out
}
