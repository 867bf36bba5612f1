// Package loader copies materialized tables into a SQLite database so the
// benchmark queries can be run against them.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tpchArrow/src/materialize"
	"tpchArrow/src/schema"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pingcap/errors"
	_ "modernc.org/sqlite"
)

// Open opens and pings a SQLite database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Trace(err)
	}
	return db, nil
}

// Load creates one table per entry of tables, replacing any existing table
// of the same name, and inserts every row. Each table is loaded in its own
// transaction. It returns the number of rows inserted per table.
func Load(ctx context.Context, db *sql.DB, tables materialize.Tables) (map[string]int64, error) {
	loaded := make(map[string]int64, len(tables))
	for _, name := range tables.Names() {
		records := tables[name]
		if len(records) == 0 {
			continue
		}
		n, err := loadTable(ctx, db, name, records)
		if err != nil {
			return loaded, errors.Annotatef(err, "load %s", name)
		}
		loaded[name] = n
	}
	return loaded, nil
}

func loadTable(ctx context.Context, db *sql.DB, name string, records []arrow.Record) (n int64, err error) {
	s := records[0].Schema()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(name)); err != nil {
		return 0, errors.Trace(err)
	}
	create, err := buildCreateSQL(name, s)
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return 0, errors.Annotatef(err, "create table %s", name)
	}

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(name, s))
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer stmt.Close()

	args := make([]any, s.NumFields())
	for _, rec := range records {
		for row := 0; row < int(rec.NumRows()); row++ {
			for c := range args {
				args[c] = value(rec.Column(c), row)
			}
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				return n, errors.Trace(err)
			}
			n++
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Trace(err)
	}
	return n, nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func sqliteType(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.INT32, arrow.INT64:
		return "INTEGER", nil
	case arrow.FLOAT64:
		return "REAL", nil
	case arrow.STRING, arrow.DATE32:
		return "TEXT", nil
	default:
		return "", errors.Errorf("unsupported arrow type %s", dt)
	}
}

func buildCreateSQL(name string, s *arrow.Schema) (string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(sqlIdent(name))
	b.WriteString(" (")
	for i, f := range s.Fields() {
		typ, err := sqliteType(f.Type)
		if err != nil {
			return "", errors.Annotatef(err, "column %s", f.Name)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", sqlIdent(f.Name), typ)
		if !f.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String(), nil
}

func buildInsertSQL(name string, s *arrow.Schema) string {
	cols := make([]string, 0, s.NumFields())
	for _, f := range s.Fields() {
		cols = append(cols, sqlIdent(f.Name))
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", sqlIdent(name), strings.Join(cols, ", "), placeholders)
}

// value converts one cell into a driver value. Dates are stored as ISO
// strings so that date literals in the benchmark queries compare correctly.
func value(col arrow.Array, row int) any {
	if col.IsNull(row) {
		return nil
	}
	switch a := col.(type) {
	case *array.Int32:
		return int64(a.Value(row))
	case *array.Int64:
		return a.Value(row)
	case *array.Float64:
		return a.Value(row)
	case *array.String:
		return a.Value(row)
	case *array.Date32:
		return a.Value(row).ToTime().Format(schema.DateLayout)
	default:
		return col.ValueStr(row)
	}
}
