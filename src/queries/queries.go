// Package queries exposes the 22 TPC-H benchmark queries as opaque text.
package queries

import (
	"embed"
	"fmt"

	"github.com/pingcap/errors"
)

// Count is the number of benchmark queries.
const Count = 22

// ErrNoSuchQuery is returned for a query number outside 1..Count.
var ErrNoSuchQuery = errors.Normalize(
	"no query %d, queries are numbered 1 to 22",
	errors.RFCCodeText("tpch:queries:ErrNoSuchQuery"),
)

//go:embed sql/*.sql
var files embed.FS

// Query returns the text of query n.
func Query(n int) (string, error) {
	if n < 1 || n > Count {
		return "", ErrNoSuchQuery.GenWithStackByArgs(n)
	}
	data, err := files.ReadFile(fmt.Sprintf("sql/%d.sql", n))
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(data), nil
}

// MustQuery is like Query but panics on an invalid number.
func MustQuery(n int) string {
	q, err := Query(n)
	if err != nil {
		panic(err)
	}
	return q
}
