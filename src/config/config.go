package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cznic/mathutil"
	"github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
)

const (
	defaultPageSizeBytes = units.MiB
	defaultBinary        = "dbgen"
	defaultScale         = 1
	defaultSampleRows    = 100
	maxSampleRows        = 100000
	defaultBatchRows     = 8192
	maxBatchRows         = 1 << 20
	defaultWorkdirPrefix = "tpch-dbgen-"
)

type S3Config struct {
	Region          string `toml:"region,omitempty"`
	AccessKey       string `toml:"access_key,omitempty"`
	SecretAccessKey string `toml:"secret_key,omitempty"`
	Provider        string `toml:"provider,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	Force           bool   `toml:"force,omitempty"`
	RoleArn         string `toml:"role_arn,omitempty"`
}

type GCSConfig struct {
	Credential string `toml:"credential,omitempty"`
}

// GeneratorConfig selects and locates the dbgen backend.
type GeneratorConfig struct {
	Backend       string `toml:"backend"`
	Binary        string `toml:"binary"`
	Dists         string `toml:"dists"`
	WorkdirPrefix string `toml:"workdir_prefix"`
	WorkdirParent string `toml:"workdir_parent"`
	KeepWorkdir   bool   `toml:"keep_workdir"`
}

type RequestConfig struct {
	Scale int `toml:"scale"`
}

type SchemaConfig struct {
	Strategy   string `toml:"strategy"`
	SampleRows int    `toml:"sample_rows"`
}

type MaterializeConfig struct {
	BatchRows int `toml:"batch_rows"`
}

type CommonConfig struct {
	Path       string `toml:"path"`
	Prefix     string `toml:"prefix"`
	FileFormat string `toml:"format"`
	ChunkSize  string `toml:"chunk_size"`
	Threads    int    `toml:"threads"`

	// ChunkSizeBytes is derived at runtime and not read from config.
	ChunkSizeBytes int `toml:"-"`
}

type ParquetConfig struct {
	PageSize    string `toml:"page_size"`
	Compression string `toml:"compression"`

	// PageSizeBytes is derived at runtime and not read from config.
	PageSizeBytes int64 `toml:"-"`
}

type CSVConfig struct {
	Separator string `toml:"separator,omitempty"`
	EndLine   string `toml:"endline,omitempty"`
	Header    bool   `toml:"header"`
}

type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

type Config struct {
	Generator   GeneratorConfig   `toml:"generator"`
	Request     RequestConfig     `toml:"request"`
	Schema      SchemaConfig      `toml:"schema"`
	Materialize MaterializeConfig `toml:"materialize"`
	Common      CommonConfig      `toml:"common"`
	Parquet     ParquetConfig     `toml:"parquet"`
	CSV         CSVConfig         `toml:"csv"`
	Metrics     MetricsConfig     `toml:"metrics"`
	S3Config    *S3Config         `toml:"s3,omitempty"`
	GCSConfig   *GCSConfig        `toml:"gcs,omitempty"`
}

// Load reads a TOML file and normalizes it. An empty path yields the
// defaults. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Annotatef(err, "decode config %s", path)
		}
	}
	if err := Normalize(cfg); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Normalize resolves derived config values and fills defaults after loading.
func Normalize(cfg *Config) error {
	chunkBytes, err := cfg.Common.resolveChunkSizeBytes()
	if err != nil {
		return err
	}
	cfg.Common.ChunkSizeBytes = chunkBytes

	pageBytes, err := cfg.Parquet.resolvePageSizeBytes()
	if err != nil {
		return err
	}
	cfg.Parquet.PageSizeBytes = pageBytes

	cfg.Generator.Backend = strings.ToLower(strings.TrimSpace(cfg.Generator.Backend))
	if cfg.Generator.Backend == "" {
		cfg.Generator.Backend = "exec"
	}
	if cfg.Generator.Binary == "" {
		cfg.Generator.Binary = defaultBinary
	}
	if cfg.Generator.WorkdirPrefix == "" {
		cfg.Generator.WorkdirPrefix = defaultWorkdirPrefix
	}
	if cfg.Request.Scale == 0 {
		cfg.Request.Scale = defaultScale
	}

	cfg.Schema.Strategy = strings.ToLower(strings.TrimSpace(cfg.Schema.Strategy))
	if cfg.Schema.Strategy == "" {
		cfg.Schema.Strategy = "static"
	}
	if cfg.Schema.SampleRows == 0 {
		cfg.Schema.SampleRows = defaultSampleRows
	}
	cfg.Schema.SampleRows = mathutil.Clamp(cfg.Schema.SampleRows, 1, maxSampleRows)

	if cfg.Materialize.BatchRows == 0 {
		cfg.Materialize.BatchRows = defaultBatchRows
	}
	cfg.Materialize.BatchRows = mathutil.Clamp(cfg.Materialize.BatchRows, 1, maxBatchRows)

	cfg.Common.FileFormat = strings.ToLower(strings.TrimSpace(cfg.Common.FileFormat))
	if cfg.Common.FileFormat == "" {
		cfg.Common.FileFormat = "parquet"
	}
	if cfg.Common.Threads <= 0 {
		cfg.Common.Threads = 4
	}
	return nil
}

// Validate returns a user-friendly error if the configuration is invalid.
// Storage settings are only checked when needStore is set.
func Validate(cfg *Config, needStore bool) error {
	var errs []string

	switch cfg.Generator.Backend {
	case "exec", "library":
	default:
		errs = append(errs, "generator.backend must be exec or library")
	}
	if cfg.Request.Scale < 1 {
		errs = append(errs, "request.scale must be greater than 0")
	}
	switch cfg.Schema.Strategy {
	case "static", "inferred":
	default:
		errs = append(errs, "schema.strategy must be static or inferred")
	}

	if needStore {
		if cfg.Common.Path == "" {
			errs = append(errs, "common.path is required")
		}
		if cfg.Common.Prefix == "" {
			errs = append(errs, "common.prefix is required")
		}

		switch cfg.Common.FileFormat {
		case "csv", "parquet", "tbl":
		default:
			errs = append(errs, "common.format must be csv, parquet or tbl")
		}

		if cfg.Common.ChunkSize != "" && cfg.Common.ChunkSizeBytes <= 0 {
			errs = append(errs, "common.chunk_size must be greater than 0")
		}

		if cfg.Common.FileFormat == "parquet" {
			if cfg.Parquet.PageSizeBytes <= 0 {
				errs = append(errs, "parquet.page_size must be greater than 0")
			}
			if _, err := ParquetCompression(cfg.Parquet.Compression); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if cfg.Common.FileFormat == "csv" && len([]rune(cfg.CSV.Separator)) > 1 {
			errs = append(errs, "csv.separator must be a single character")
		}
	}

	if cfg.S3Config != nil && cfg.GCSConfig != nil {
		errs = append(errs, "only one of [s3] or [gcs] can be configured")
	}

	if len(errs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("invalid config:\n")
	for _, err := range errs {
		sb.WriteString(" - ")
		sb.WriteString(err)
		sb.WriteString("\n")
	}
	return errors.New(strings.TrimRight(sb.String(), "\n"))
}

func (c *CommonConfig) resolveChunkSizeBytes() (int, error) {
	if c.ChunkSize != "" {
		bytes, err := units.FromHumanSize(c.ChunkSize)
		if err != nil {
			return 0, fmt.Errorf("invalid chunk_size %q: %w", c.ChunkSize, err)
		}
		if bytes <= 0 {
			return 0, fmt.Errorf("invalid chunk_size %q: must be greater than 0", c.ChunkSize)
		}
		return int(bytes), nil
	}
	return 0, nil
}

func (c *ParquetConfig) resolvePageSizeBytes() (int64, error) {
	if c.PageSize != "" {
		bytes, err := units.FromHumanSize(c.PageSize)
		if err != nil {
			return 0, fmt.Errorf("invalid page_size %q: %w", c.PageSize, err)
		}
		if bytes <= 0 {
			return 0, fmt.Errorf("invalid page_size %q: must be greater than 0", c.PageSize)
		}
		return bytes, nil
	}
	return defaultPageSizeBytes, nil
}

// GetStore initializes and returns an ExternalStorage instance based on the provided configuration.
func GetStore(ctx context.Context, c *Config) (storage.ExternalStorage, error) {
	var op *storage.BackendOptions
	if c.S3Config != nil {
		op = &storage.BackendOptions{S3: storage.S3BackendOptions{
			Region:          c.S3Config.Region,
			AccessKey:       c.S3Config.AccessKey,
			SecretAccessKey: c.S3Config.SecretAccessKey,
			Provider:        c.S3Config.Provider,
			Endpoint:        c.S3Config.Endpoint,
			RoleARN:         c.S3Config.RoleArn,
			ForcePathStyle:  c.S3Config.Force,
		}}
	} else if c.GCSConfig != nil {
		op = &storage.BackendOptions{GCS: storage.GCSBackendOptions{
			CredentialsFile: c.GCSConfig.Credential,
		}}
	}

	s, err := storage.ParseBackend(c.Common.Path, op)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return storage.NewWithDefaultOpt(ctx, s)
}
