// Package schema assigns an Arrow schema to each generated table, either
// from the embedded TPC-H DDL or by sampling the generator's output.
package schema

import (
	"strings"

	"tpchArrow/src/catalog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pingcap/errors"
)

const (
	// StrategyStatic uses the embedded TPC-H DDL.
	StrategyStatic = "static"
	// StrategyInferred samples the generated files.
	StrategyInferred = "inferred"

	// DefaultSampleRows is the number of leading rows read for inference.
	DefaultSampleRows = 100
)

// ErrNoSchemaForCompositeTable is returned for the composite selectors,
// which stand for two tables and therefore have no single schema.
var ErrNoSchemaForCompositeTable = errors.Normalize(
	"cannot generate schema for two tables, %s",
	errors.RFCCodeText("tpch:schema:ErrNoSchemaForCompositeTable"),
)

// Column describes one field of a resolved table.
type Column struct {
	Name     string
	SQLType  string
	Type     arrow.DataType
	Nullable bool
}

// Resolved is the schema chosen for one table.
type Resolved struct {
	Table    catalog.Table
	Schema   *arrow.Schema
	Columns  []Column
	Inferred bool
}

// Resolver picks a schema for a table given its output files.
type Resolver interface {
	Resolve(table catalog.Table, files []string) (*Resolved, error)
}

// New returns the resolver for strategy.
func New(strategy string, sampleRows int) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyStatic:
		return NewStatic(), nil
	case StrategyInferred:
		return NewInferred(sampleRows), nil
	default:
		return nil, errors.Errorf("unsupported schema strategy: %s", strategy)
	}
}

func compositeError(table catalog.Table) error {
	members := table.Members()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	return ErrNoSchemaForCompositeTable.GenWithStackByArgs(strings.Join(names, " and "))
}

func newResolved(table catalog.Table, cols []Column, inferred bool) *Resolved {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
	}
	return &Resolved{
		Table:    table,
		Schema:   arrow.NewSchema(fields, nil),
		Columns:  cols,
		Inferred: inferred,
	}
}
