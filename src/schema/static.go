package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"tpchArrow/src/catalog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"github.com/pingcap/tidb/pkg/parser/types"
)

//go:embed dss.ddl
var dssDDL string

var staticTables = sync.OnceValues(func() (map[string][]Column, error) {
	return parseDDL(dssDDL)
})

// Static resolves schemas from the embedded TPC-H DDL. Files are never read.
type Static struct{}

// NewStatic returns the declarative resolver.
func NewStatic() Static { return Static{} }

func (Static) Resolve(table catalog.Table, _ []string) (*Resolved, error) {
	if table.IsComposite() {
		return nil, compositeError(table)
	}
	tables, err := staticTables()
	if err != nil {
		return nil, errors.Trace(err)
	}
	cols, ok := tables[table.String()]
	if !ok {
		return nil, errors.Errorf("no schema declared for table %s", table)
	}
	return newResolved(table, cols, false), nil
}

// DDL returns the embedded CREATE TABLE statements.
func DDL() string { return dssDDL }

func parseDDL(sql string) (map[string][]Column, error) {
	p := parser.New()
	p.SetSQLMode(mysql.ModeANSIQuotes)

	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, errors.Annotate(err, "parse tpch ddl")
	}

	tables := make(map[string][]Column, len(stmts))
	for _, stmt := range stmts {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			return nil, errors.New("not a CREATE TABLE statement")
		}
		cols := make([]Column, 0, len(create.Cols))
		for _, def := range create.Cols {
			col, err := columnFromDef(def)
			if err != nil {
				return nil, errors.Annotatef(err, "table %s", create.Table.Name.L)
			}
			cols = append(cols, col)
		}
		tables[create.Table.Name.L] = cols
	}
	return tables, nil
}

func columnFromDef(def *ast.ColumnDef) (Column, error) {
	name := def.Name.Name.L
	dt, err := arrowType(def.Tp)
	if err != nil {
		return Column{}, errors.Annotatef(err, "column %s", name)
	}
	nullable := true
	for _, opt := range def.Options {
		if opt.Tp == ast.ColumnOptionNotNull || opt.Tp == ast.ColumnOptionPrimaryKey {
			nullable = false
		}
	}
	return Column{
		Name:     name,
		SQLType:  displaySQLType(def.Tp),
		Type:     dt,
		Nullable: nullable,
	}, nil
}

// arrowType maps the SQL types used by the TPC-H DDL. Decimals are kept as
// float64 values.
func arrowType(tp *types.FieldType) (arrow.DataType, error) {
	switch tp.GetType() {
	case mysql.TypeLong, mysql.TypeInt24, mysql.TypeShort, mysql.TypeTiny:
		return arrow.PrimitiveTypes.Int32, nil
	case mysql.TypeLonglong:
		return arrow.PrimitiveTypes.Int64, nil
	case mysql.TypeNewDecimal, mysql.TypeDouble, mysql.TypeFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case mysql.TypeString, mysql.TypeVarchar, mysql.TypeVarString:
		return arrow.BinaryTypes.String, nil
	case mysql.TypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	default:
		return nil, errors.Errorf("unsupported column type: %d", tp.GetType())
	}
}

func displaySQLType(tp *types.FieldType) string {
	switch tp.GetType() {
	case mysql.TypeNewDecimal:
		return fmt.Sprintf("decimal(%d,%d)", tp.GetFlen(), tp.GetDecimal())
	case mysql.TypeString:
		return fmt.Sprintf("char(%d)", tp.GetFlen())
	case mysql.TypeVarchar, mysql.TypeVarString:
		return fmt.Sprintf("varchar(%d)", tp.GetFlen())
	case mysql.TypeLong:
		return "integer"
	case mysql.TypeLonglong:
		return "bigint"
	case mysql.TypeDate:
		return "date"
	default:
		return types.TypeToStr(tp.GetType(), tp.GetCharset())
	}
}
