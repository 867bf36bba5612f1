// Package materialize parses generator output into Arrow record batches.
package materialize

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"tpchArrow/src/catalog"
	"tpchArrow/src/discover"
	"tpchArrow/src/schema"
	"tpchArrow/src/util"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pingcap/errors"
)

const (
	// DefaultBatchRows is the number of rows per record batch.
	DefaultBatchRows = 8192
	maxLineBytes     = 1 << 20
)

// Materializer converts delimited files into record batches.
type Materializer struct {
	mem       memory.Allocator
	batchRows int
	delim     byte
	logger    *slog.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithAllocator sets the allocator used for every builder.
func WithAllocator(mem memory.Allocator) Option {
	return func(m *Materializer) { m.mem = mem }
}

// WithBatchRows sets the maximum number of rows per record.
func WithBatchRows(n int) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.batchRows = n
		}
	}
}

// WithDelimiter overrides the field delimiter.
func WithDelimiter(d byte) Option {
	return func(m *Materializer) { m.delim = d }
}

// WithLogger sets the logger for per-file progress.
func WithLogger(l *slog.Logger) Option {
	return func(m *Materializer) { m.logger = l }
}

// New returns a Materializer using the Go allocator and 8192-row batches
// unless overridden.
func New(opts ...Option) *Materializer {
	m := &Materializer{
		mem:       memory.DefaultAllocator,
		batchRows: DefaultBatchRows,
		delim:     schema.Delimiter,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = util.OrDiscard(m.logger)
	return m
}

type appendFunc func(b array.Builder, v string) error

func appenderFor(dt arrow.DataType) (appendFunc, error) {
	switch dt.ID() {
	case arrow.INT32:
		return func(b array.Builder, v string) error {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return err
			}
			b.(*array.Int32Builder).Append(int32(n))
			return nil
		}, nil
	case arrow.INT64:
		return func(b array.Builder, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			b.(*array.Int64Builder).Append(n)
			return nil
		}, nil
	case arrow.FLOAT64:
		return func(b array.Builder, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			b.(*array.Float64Builder).Append(f)
			return nil
		}, nil
	case arrow.DATE32:
		return func(b array.Builder, v string) error {
			d, err := schema.ParseDate32(v)
			if err != nil {
				return err
			}
			b.(*array.Date32Builder).Append(d)
			return nil
		}, nil
	case arrow.STRING:
		return func(b array.Builder, v string) error {
			b.(*array.StringBuilder).Append(v)
			return nil
		}, nil
	default:
		return nil, errors.Errorf("unsupported arrow type %s", dt)
	}
}

// Table parses files, in order, into records of res.Schema. Either every
// row converts and the records are returned, or an error is returned and
// nothing is retained.
func (m *Materializer) Table(name string, res *schema.Resolved, files []string) (_ []arrow.Record, err error) {
	fields := res.Schema.Fields()
	appenders := make([]appendFunc, len(fields))
	for i, f := range fields {
		if appenders[i], err = appenderFor(f.Type); err != nil {
			return nil, errors.Annotatef(err, "table %s column %s", name, f.Name)
		}
	}

	b := array.NewRecordBuilder(m.mem, res.Schema)
	defer b.Release()

	var records []arrow.Record
	defer func() {
		if err != nil {
			releaseAll(records)
		}
	}()

	pending := 0
	flush := func() {
		if pending > 0 {
			records = append(records, b.NewRecord())
			pending = 0
		}
	}

	for _, path := range files {
		rows, err := m.readFile(name, res, path, b, appenders, func() {
			pending++
			if pending >= m.batchRows {
				flush()
			}
		})
		if err != nil {
			return nil, err
		}
		m.logger.Debug("materialized file", "table", name, "file", path, "rows", rows)
	}
	flush()
	return records, nil
}

func (m *Materializer) readFile(
	name string,
	res *schema.Resolved,
	path string,
	b *array.RecordBuilder,
	appenders []appendFunc,
	onRow func(),
) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Annotatef(err, "open %s", path)
	}
	defer f.Close()

	fields := res.Schema.Fields()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	rows, line := 0, 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		values := schema.SplitRecord(text, m.delim)
		if len(values) != len(fields) {
			return rows, errors.Trace(&RowParseError{
				Table: name,
				File:  path,
				Line:  line,
				Err:   fmt.Errorf("expected %d fields, found %d", len(fields), len(values)),
			})
		}
		for i, v := range values {
			if err := appenders[i](b.Field(i), v); err != nil {
				if res.Inferred {
					return rows, errors.Trace(&SchemaMismatchError{
						Table:  name,
						File:   path,
						Line:   line,
						Column: fields[i].Name,
						Want:   fields[i].Type,
						Value:  v,
					})
				}
				return rows, errors.Trace(&RowParseError{
					Table:  name,
					File:   path,
					Line:   line,
					Column: fields[i].Name,
					Err:    err,
				})
			}
		}
		rows++
		onRow()
	}
	if err := sc.Err(); err != nil {
		return rows, errors.Annotatef(err, "read %s", path)
	}
	return rows, nil
}

// All materializes every table in groups. On any failure the records built
// so far are released and only the error is returned.
func (m *Materializer) All(groups map[string][]string, resolver schema.Resolver) (Tables, error) {
	out := make(Tables, len(groups))
	for _, name := range discover.Names(groups) {
		files := groups[name]
		table, err := catalog.FromName(name)
		if err != nil {
			out.Release()
			return nil, errors.Trace(err)
		}
		res, err := resolver.Resolve(table, files)
		if err != nil {
			out.Release()
			return nil, errors.Trace(err)
		}
		records, err := m.Table(name, res, files)
		if err != nil {
			out.Release()
			return nil, err
		}
		out[name] = records
	}
	return out, nil
}

func releaseAll(records []arrow.Record) {
	for _, r := range records {
		r.Release()
	}
}
