package schema

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"tpchArrow/src/catalog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pingcap/errors"
)

type kind uint8

// Candidate kinds, most specific first.
const (
	kindInt64 kind = iota
	kindFloat64
	kindDate32
	kindUtf8
	numKinds
)

var kindTypes = [numKinds]arrow.DataType{
	kindInt64:   arrow.PrimitiveTypes.Int64,
	kindFloat64: arrow.PrimitiveTypes.Float64,
	kindDate32:  arrow.FixedWidthTypes.Date32,
	kindUtf8:    arrow.BinaryTypes.String,
}

var kindNames = [numKinds]string{
	kindInt64:   "bigint",
	kindFloat64: "double",
	kindDate32:  "date",
	kindUtf8:    "text",
}

const allKinds = 1<<kindInt64 | 1<<kindFloat64 | 1<<kindDate32 | 1<<kindUtf8

// Inferred derives a schema from the leading rows of a table's first file.
type Inferred struct {
	SampleRows int
	Delim      byte
}

// NewInferred returns a sampling resolver reading at most sampleRows rows.
func NewInferred(sampleRows int) Inferred {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return Inferred{SampleRows: sampleRows, Delim: Delimiter}
}

func (r Inferred) Resolve(table catalog.Table, files []string) (*Resolved, error) {
	if table.IsComposite() {
		return nil, compositeError(table)
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no files to infer schema for table %s", table)
	}

	f, err := os.Open(files[0])
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	var candidates []uint8
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	rows, line := 0, 0
	for rows < r.SampleRows && sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		fields := SplitRecord(text, r.Delim)
		if candidates == nil {
			candidates = make([]uint8, len(fields))
			for i := range candidates {
				candidates[i] = allKinds
			}
		}
		if len(fields) != len(candidates) {
			return nil, errors.Errorf("%s:%d: expected %d fields, found %d",
				files[0], line, len(candidates), len(fields))
		}
		for i, v := range fields {
			candidates[i] &= fits(v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Annotatef(err, "sample %s", files[0])
	}
	if rows == 0 {
		return nil, errors.Errorf("no rows to infer schema for table %s", table)
	}

	cols := make([]Column, len(candidates))
	for i, set := range candidates {
		k := narrowest(set)
		cols[i] = Column{
			Name:    fmt.Sprintf("column_%d", i+1),
			SQLType: kindNames[k],
			Type:    kindTypes[k],
		}
	}
	return newResolved(table, cols, true), nil
}

// fits returns the set of kinds that can represent v.
func fits(v string) uint8 {
	set := uint8(1 << kindUtf8)
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		set |= 1 << kindInt64
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		set |= 1 << kindFloat64
	}
	if _, err := ParseDate32(v); err == nil {
		set |= 1 << kindDate32
	}
	return set
}

func narrowest(set uint8) kind {
	for k := kindInt64; k < numKinds; k++ {
		if set&(1<<k) != 0 {
			return k
		}
	}
	return kindUtf8
}
