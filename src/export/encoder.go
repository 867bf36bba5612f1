package export

import (
	"io"
	"strings"

	"tpchArrow/src/config"
	"tpchArrow/src/pipeline"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pingcap/errors"
)

const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatTbl     = "tbl"

	// rowGroupRows caps parquet row groups; batches are buffered up to it.
	rowGroupRows = 1 << 20
)

// encoder writes the record batches of one table as a single object.
type encoder interface {
	Suffix() string
	Encode(w io.Writer, schema *arrow.Schema, records []arrow.Record, meta map[string]string) error
}

func newEncoder(cfg *config.Config) (encoder, error) {
	switch cfg.Common.FileFormat {
	case FormatParquet:
		codec, err := config.ParquetCompression(cfg.Parquet.Compression)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &parquetEncoder{pageSize: cfg.Parquet.PageSizeBytes, compression: codec}, nil
	case FormatCSV:
		sep, endline := config.CSVSeparatorAndEndline(cfg.CSV)
		return &csvEncoder{separator: sep, crlf: endline == "\r\n", header: cfg.CSV.Header}, nil
	default:
		return nil, errors.Errorf("unsupported file format: %s", cfg.Common.FileFormat)
	}
}

type parquetEncoder struct {
	pageSize    int64
	compression compress.Compression
}

func (*parquetEncoder) Suffix() string { return FormatParquet }

func (e *parquetEncoder) writerProperties(schema *arrow.Schema) *parquet.WriterProperties {
	opts := []parquet.WriterProperty{
		parquet.WithDataPageSize(e.pageSize),
		parquet.WithDataPageVersion(parquet.DataPageV2),
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(e.compression),
		parquet.WithMaxRowGroupLength(rowGroupRows),
		parquet.WithCreatedBy("tpchArrow " + pipeline.Version),
	}
	for _, f := range schema.Fields() {
		encoding, useDict := chooseParquetEncoding(f)
		opts = append(opts, parquet.WithDictionaryFor(f.Name, useDict))
		if !useDict {
			opts = append(opts, parquet.WithEncodingFor(f.Name, encoding))
		}
	}
	return parquet.NewWriterProperties(opts...)
}

// chooseParquetEncoding picks a column encoding from the arrow type and the
// TPC-H naming conventions: keys and dates are near-sorted, short strings
// repeat, comments do not.
func chooseParquetEncoding(f arrow.Field) (parquet.Encoding, bool) {
	switch f.Type.ID() {
	case arrow.INT32, arrow.INT64, arrow.DATE32:
		if strings.HasSuffix(f.Name, "key") || f.Type.ID() == arrow.DATE32 {
			return parquet.Encodings.DeltaBinaryPacked, false
		}
		return parquet.Encodings.Plain, true
	case arrow.FLOAT32, arrow.FLOAT64:
		return parquet.Encodings.ByteStreamSplit, false
	case arrow.STRING:
		if strings.HasSuffix(f.Name, "comment") {
			return parquet.Encodings.DeltaLengthByteArray, false
		}
		return parquet.Encodings.Plain, true
	default:
		return parquet.Encodings.Plain, false
	}
}

func (e *parquetEncoder) Encode(w io.Writer, schema *arrow.Schema, records []arrow.Record, meta map[string]string) error {
	fw, err := pqarrow.NewFileWriter(schema, w, e.writerProperties(schema),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return errors.Trace(err)
	}
	for k, v := range meta {
		if err := fw.AppendKeyValueMetadata(k, v); err != nil {
			_ = fw.Close()
			return errors.Trace(err)
		}
	}
	for _, rec := range records {
		if err := fw.WriteBuffered(rec); err != nil {
			_ = fw.Close()
			return errors.Trace(err)
		}
	}
	return errors.Trace(fw.Close())
}

type csvEncoder struct {
	separator rune
	crlf      bool
	header    bool
}

func (*csvEncoder) Suffix() string { return FormatCSV }

func (e *csvEncoder) Encode(w io.Writer, schema *arrow.Schema, records []arrow.Record, _ map[string]string) error {
	cw := csv.NewWriter(w, schema,
		csv.WithComma(e.separator),
		csv.WithCRLF(e.crlf),
		csv.WithHeader(e.header),
	)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(cw.Flush())
}
