// Package dbgentest provides a deterministic stand-in for dbgen.
package dbgentest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"tpchArrow/src/catalog"
	"tpchArrow/src/schema"
	"tpchArrow/src/util"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pingcap/errors"
)

// BaseRows is the number of rows the fake writes per table at scale 1.
var BaseRows = map[catalog.Table]int{
	catalog.Part:     20,
	catalog.PartSupp: 80,
	catalog.Supplier: 10,
	catalog.Customer: 15,
	catalog.Orders:   30,
	catalog.Lineitem: 120,
	catalog.Nation:   25,
	catalog.Region:   5,
}

// Fake writes well-formed "|"-terminated rows for the requested tables into
// the current working directory, following dbgen's file naming.
type Fake struct {
	// Status is returned instead of running when non-zero.
	Status int
	// ShardWhole splits a full run with n_steps into one file per step.
	ShardWhole bool

	calls atomic.Int32
}

// Calls returns how many times Generate ran.
func (f *Fake) Calls() int { return int(f.calls.Load()) }

// Rows returns the row count of table at scale.
func Rows(table catalog.Table, scale int) int {
	return BaseRows[table] * scale
}

func (f *Fake) Generate(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error) {
	f.calls.Add(1)
	if f.Status != 0 {
		return f.Status, nil
	}
	if _, err := os.Stat("dists.dss"); err != nil {
		fmt.Fprintln(os.Stderr, "dists.dss not found in working directory")
		return 1, nil
	}

	tables := catalog.Real()
	if t, ok := table.Get(); ok {
		tables = t.Members()
	}

	for _, t := range tables {
		total := Rows(t, scale)
		n := nSteps.OrElse(1)
		if s, ok := step.Get(); ok {
			lo, hi := chunk(total, s, n)
			if err := writeRows(fmt.Sprintf("%s.tbl.%d", t, s), t, lo, hi); err != nil {
				return -1, err
			}
			continue
		}
		if f.ShardWhole && n > 1 {
			for s := 1; s <= n; s++ {
				lo, hi := chunk(total, s, n)
				if err := writeRows(fmt.Sprintf("%s.tbl.%d", t, s), t, lo, hi); err != nil {
					return -1, err
				}
			}
			continue
		}
		if err := writeRows(t.String()+".tbl", t, 0, total); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func chunk(total, step, nSteps int) (int, int) {
	return total * (step - 1) / nSteps, total * step / nSteps
}

func writeRows(name string, table catalog.Table, lo, hi int) error {
	res, err := schema.NewStatic().Resolve(table, nil)
	if err != nil {
		return errors.Trace(err)
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	w := bufio.NewWriter(f)
	for row := lo; row < hi; row++ {
		w.WriteString(Row(res.Schema, row))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

// Row renders row i of a table with schema s in dbgen's format.
func Row(s *arrow.Schema, i int) string {
	var sb strings.Builder
	for c, field := range s.Fields() {
		switch field.Type.ID() {
		case arrow.INT32, arrow.INT64:
			fmt.Fprintf(&sb, "%d", i+c)
		case arrow.FLOAT64:
			fmt.Fprintf(&sb, "%d.%02d", i, c)
		case arrow.DATE32:
			fmt.Fprintf(&sb, "1995-%02d-%02d", i%12+1, i%28+1)
		default:
			fmt.Fprintf(&sb, "%s #%d", field.Name, i)
		}
		sb.WriteByte('|')
	}
	sb.WriteByte('\n')
	return sb.String()
}
