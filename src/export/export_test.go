package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tpchArrow/src/catalog"
	"tpchArrow/src/config"
	"tpchArrow/src/dbgen"
	"tpchArrow/src/dbgen/dbgentest"
	"tpchArrow/src/materialize"
	"tpchArrow/src/pipeline"
	"tpchArrow/src/util"
	"tpchArrow/src/workspace"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Common.Path = t.TempDir()
	cfg.Common.Prefix = "sf1"
	cfg.Common.FileFormat = format
	require.NoError(t, config.Validate(cfg, true))
	return cfg
}

func newExporter(t *testing.T, cfg *config.Config) *Exporter {
	t.Helper()
	e, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	e.progress = nil
	t.Cleanup(e.Close)
	return e
}

func generate(t *testing.T, req dbgen.Request, opts ...pipeline.Option) materialize.Tables {
	t.Helper()
	opts = append(opts, pipeline.WithWorkspaceOptions(workspace.WithParent(t.TempDir())))
	tables, err := pipeline.New([]byte("dists"), &dbgentest.Fake{}, opts...).Run(req)
	require.NoError(t, err)
	t.Cleanup(tables.Release)
	return tables
}

func TestObjectName(t *testing.T) {
	require.Equal(t, "sf1/orders.parquet", ObjectName("sf1", "orders", util.None[int](), "parquet"))
	require.Equal(t, "sf1/orders.3.csv", ObjectName("sf1", "orders", util.Some(3), "csv"))
	require.Equal(t, "lineitem.parquet", ObjectName("", "lineitem", util.None[int](), "parquet"))
}

func TestExportParquet(t *testing.T) {
	cfg := newConfig(t, FormatParquet)
	e := newExporter(t, cfg)
	tables := generate(t, dbgen.NewRequest())

	require.NoError(t, e.Export(context.Background(), tables, util.None[int]()))

	objects := e.Objects()
	require.Len(t, objects, 8)
	for _, obj := range objects {
		require.Positive(t, obj.Bytes)
	}

	rdr, err := file.OpenParquetFile(filepath.Join(cfg.Common.Path, "sf1", "lineitem.parquet"), false)
	require.NoError(t, err)
	defer rdr.Close()

	runID := rdr.MetaData().KeyValueMetadata().FindValue("tpch.run_id")
	require.NotNil(t, runID)
	require.Equal(t, e.RunID(), *runID)

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	tbl, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	require.EqualValues(t, dbgentest.Rows(catalog.Lineitem, 1), tbl.NumRows())
	want := tables["lineitem"][0].Schema()
	require.Equal(t, want.NumFields(), tbl.Schema().NumFields())
	for i, f := range want.Fields() {
		got := tbl.Schema().Field(i)
		require.Equal(t, f.Name, got.Name)
		require.True(t, arrow.TypeEqual(f.Type, got.Type), f.Name)
	}
}

func TestExportCSVWithStep(t *testing.T) {
	cfg := newConfig(t, FormatCSV)
	cfg.CSV.Header = true
	e := newExporter(t, cfg)
	tables := generate(t, dbgen.Request{Scale: 1, Table: util.Some(catalog.Region), Step: util.Some(1), NSteps: util.Some(1)})

	require.NoError(t, e.Export(context.Background(), tables, util.Some(1)))

	data, err := os.ReadFile(filepath.Join(cfg.Common.Path, "sf1", "region.1.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, dbgentest.Rows(catalog.Region, 1)+1)
	require.Equal(t, "r_regionkey,r_name,r_comment", lines[0])
}

func TestExportUnsupportedFormat(t *testing.T) {
	cfg := newConfig(t, FormatParquet)
	cfg.Common.FileFormat = "orc"
	e := newExporter(t, cfg)
	require.Error(t, e.Export(context.Background(), materialize.Tables{}, util.None[int]()))
}

func TestUploadFilesAsHook(t *testing.T) {
	cfg := newConfig(t, FormatTbl)
	e := newExporter(t, cfg)

	hook := func(groups map[string][]string) error {
		return e.UploadFiles(context.Background(), groups)
	}
	generate(t, dbgen.Request{Scale: 1, Table: util.Some(catalog.PartPartSupp)}, pipeline.WithFileHook(hook))

	objects := e.Objects()
	require.Len(t, objects, 2)
	require.Equal(t, "sf1/part.tbl", objects[0].Name)
	require.Equal(t, "part", objects[0].Table)
	require.Equal(t, "sf1/partsupp.tbl", objects[1].Name)

	data, err := os.ReadFile(filepath.Join(cfg.Common.Path, "sf1", "partsupp.tbl"))
	require.NoError(t, err)
	require.Equal(t, dbgentest.Rows(catalog.PartSupp, 1), bytes.Count(data, []byte("|\n")))
}

func TestManifestAndSummary(t *testing.T) {
	cfg := newConfig(t, FormatParquet)
	e := newExporter(t, cfg)
	e.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	tables := generate(t, dbgen.Request{Scale: 1, Table: util.Some(catalog.Nation)})

	require.NoError(t, e.Export(context.Background(), tables, util.None[int]()))
	m, err := e.WriteManifest(context.Background(), util.None[int]())
	require.NoError(t, err)
	require.Equal(t, e.RunID(), m.RunID)

	got, err := ReadManifest(context.Background(), e.store, "sf1/manifest.json")
	require.NoError(t, err)
	require.Equal(t, m.RunID, got.RunID)
	require.Equal(t, pipeline.Version, got.Version)
	require.Nil(t, got.Step)
	require.Len(t, got.Objects, 1)
	require.EqualValues(t, dbgentest.Rows(catalog.Nation, 1), got.Objects[0].Rows)

	var buf bytes.Buffer
	e.PrintSummary(&buf, time.Second)
	out := buf.String()
	require.Contains(t, out, "Objects: 1")
	require.Contains(t, out, "Total Rows: 25")
	require.Contains(t, out, "Path: "+cfg.Common.Path)
}

func TestChooseParquetEncoding(t *testing.T) {
	cases := []struct {
		field   arrow.Field
		enc     parquet.Encoding
		useDict bool
	}{
		{arrow.Field{Name: "l_orderkey", Type: arrow.PrimitiveTypes.Int64}, parquet.Encodings.DeltaBinaryPacked, false},
		{arrow.Field{Name: "l_linenumber", Type: arrow.PrimitiveTypes.Int32}, parquet.Encodings.Plain, true},
		{arrow.Field{Name: "l_shipdate", Type: arrow.FixedWidthTypes.Date32}, parquet.Encodings.DeltaBinaryPacked, false},
		{arrow.Field{Name: "l_tax", Type: arrow.PrimitiveTypes.Float64}, parquet.Encodings.ByteStreamSplit, false},
		{arrow.Field{Name: "l_shipmode", Type: arrow.BinaryTypes.String}, parquet.Encodings.Plain, true},
		{arrow.Field{Name: "l_comment", Type: arrow.BinaryTypes.String}, parquet.Encodings.DeltaLengthByteArray, false},
	}
	for _, c := range cases {
		enc, useDict := chooseParquetEncoding(c.field)
		require.Equal(t, c.enc, enc, c.field.Name)
		require.Equal(t, c.useDict, useDict, c.field.Name)
	}
}
