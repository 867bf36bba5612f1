package config

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/pingcap/errors"
)

// ParquetCompression maps a config name onto a parquet codec. An empty name
// means snappy.
func ParquetCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4_raw", "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "uncompressed", "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, errors.Errorf("unsupported parquet compression: %q", name)
	}
}

// CSVSeparatorAndEndline returns the configured csv delimiters with defaults.
func CSVSeparatorAndEndline(cfg CSVConfig) (rune, string) {
	separator := ','
	if r := []rune(cfg.Separator); len(r) > 0 {
		separator = r[0]
	}
	endline := cfg.EndLine
	if endline == "" {
		endline = "\n"
	}
	return separator, endline
}
