// Package export writes materialized tables, or the generator's raw files,
// to local or cloud storage.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"tpchArrow/src/config"
	"tpchArrow/src/discover"
	"tpchArrow/src/materialize"
	"tpchArrow/src/metrics"
	"tpchArrow/src/pipeline"
	"tpchArrow/src/util"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 64 * units.KiB

// Exporter writes tables to the storage configured in [common].
type Exporter struct {
	cfg      *config.Config
	store    storage.ExternalStorage
	logger   *slog.Logger
	progress io.Writer
	runID    string
	now      func() time.Time

	mu      sync.Mutex
	objects []Object
}

// Object describes one written object.
type Object struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Rows  int64  `json:"rows,omitempty"`
	Bytes int64  `json:"bytes"`
}

// Manifest is written next to the exported objects of one run.
type Manifest struct {
	RunID   string    `json:"run_id"`
	Version string    `json:"version"`
	Format  string    `json:"format"`
	Step    *int      `json:"step,omitempty"`
	Created time.Time `json:"created"`
	Objects []Object  `json:"objects"`
}

// New opens the configured store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Exporter, error) {
	store, err := config.GetStore(ctx, cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e := NewWithStore(cfg, store, logger)
	e.progress = os.Stderr
	return e, nil
}

// NewWithStore uses an already opened store. Progress rendering is off.
func NewWithStore(cfg *config.Config, store storage.ExternalStorage, logger *slog.Logger) *Exporter {
	return &Exporter{
		cfg:    cfg,
		store:  store,
		logger: util.OrDiscard(logger),
		runID:  uuid.NewString(),
		now:    time.Now,
	}
}

// RunID identifies this exporter's objects in manifests and file metadata.
func (e *Exporter) RunID() string { return e.runID }

// Close releases the store.
func (e *Exporter) Close() {
	e.store.Close()
}

// ObjectName returns "<prefix>/<table>[.<step>].<suffix>".
func ObjectName(prefix, table string, step util.Option[int], suffix string) string {
	name := table
	if s, ok := step.Get(); ok {
		name += "." + strconv.Itoa(s)
	}
	return path.Join(prefix, name+"."+suffix)
}

func (e *Exporter) openWriter(
	ctx context.Context,
	name string,
	progress *util.ProgressLogger,
) (*writerWithStats, error) {
	writer, err := e.store.Create(ctx, name, &storage.WriterOption{
		Concurrency: 8,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &writerWithStats{writer: writer, progress: progress}, nil
}

// chunkSize is the size of the writes issued to the store.
func (e *Exporter) chunkSize() int {
	if e.cfg.Common.ChunkSizeBytes > 0 {
		return e.cfg.Common.ChunkSizeBytes
	}
	return defaultChunkSize
}

func (e *Exporter) record(obj Object) {
	e.mu.Lock()
	e.objects = append(e.objects, obj)
	e.mu.Unlock()
}

// Export writes one object per table in the configured format, in parallel.
func (e *Exporter) Export(ctx context.Context, tables materialize.Tables, step util.Option[int]) error {
	enc, err := newEncoder(e.cfg)
	if err != nil {
		return errors.Trace(err)
	}

	start := e.now()
	names := tables.Names()
	progress := util.NewProgressLogger(len(names), "exporting", time.Second, e.progress)
	defer progress.Stop()

	meta := map[string]string{
		"tpch.run_id":  e.runID,
		"tpch.version": pipeline.Version,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Common.Threads)
	for _, name := range names {
		records := tables[name]
		if len(records) == 0 {
			e.logger.Debug("skipping empty table", "table", name)
			progress.UpdateObjects(1)
			continue
		}
		eg.Go(func() error {
			objName := ObjectName(e.cfg.Common.Prefix, name, step, enc.Suffix())
			writer, err := e.openWriter(egCtx, objName, progress)
			if err != nil {
				return errors.Annotatef(err, "create %s", objName)
			}
			bw := bufio.NewWriterSize(&writeWrapper{ctx: egCtx, Writer: writer}, e.chunkSize())
			err = enc.Encode(bw, records[0].Schema(), records, meta)
			if err == nil {
				err = bw.Flush()
			}
			if cerr := writer.Close(egCtx); err == nil {
				err = cerr
			}
			if err != nil {
				return errors.Annotatef(err, "write %s", objName)
			}

			metrics.ExportBytes.WithLabelValues(enc.Suffix()).Add(float64(writer.written))
			e.record(Object{Name: objName, Table: name, Rows: tables.NumRows(name), Bytes: writer.written})
			progress.UpdateObjects(1)
			e.logger.Debug("exported", "table", name, "object", objName, "bytes", writer.written)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errors.Trace(err)
	}

	e.logger.Info("export finished", "tables", len(names), "path", e.cfg.Common.Path,
		"elapsed", e.now().Sub(start).Round(time.Millisecond))
	return nil
}

// UploadFiles copies the generator's raw output files unchanged. It fits
// pipeline.FileHook and must run before the workspace is removed.
func (e *Exporter) UploadFiles(ctx context.Context, groups map[string][]string) error {
	var files []string
	for _, name := range discover.Names(groups) {
		files = append(files, groups[name]...)
	}
	if len(files) == 0 {
		e.logger.Info("no files to upload")
		return nil
	}

	progress := util.NewProgressLogger(len(files), "uploading", time.Second, e.progress)
	defer progress.Stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Common.Threads)
	for _, filePath := range files {
		eg.Go(func() error {
			base := filepath.Base(filePath)
			table, _, _ := discover.Split(base)
			remotePath := path.Join(e.cfg.Common.Prefix, base)

			data, err := os.ReadFile(filePath)
			if err != nil {
				return errors.Annotatef(err, "failed to read local file: %s", filePath)
			}

			writer, err := e.openWriter(egCtx, remotePath, progress)
			if err != nil {
				return errors.Annotatef(err, "failed to create remote file: %s", remotePath)
			}
			if _, err = writer.Write(egCtx, data); err != nil {
				_ = writer.Close(egCtx)
				return errors.Annotatef(err, "failed to upload file: %s", remotePath)
			}
			if err := writer.Close(egCtx); err != nil {
				return errors.Annotatef(err, "failed to upload file: %s", remotePath)
			}

			metrics.ExportBytes.WithLabelValues(FormatTbl).Add(float64(len(data)))
			e.record(Object{Name: remotePath, Table: table, Bytes: int64(len(data))})
			progress.UpdateObjects(1)
			e.logger.Debug("uploaded", "file", filePath, "object", remotePath)
			return nil
		})
	}
	return errors.Trace(eg.Wait())
}

// WriteManifest stores a JSON listing of everything written so far as
// "<prefix>/manifest[.<step>].json".
func (e *Exporter) WriteManifest(ctx context.Context, step util.Option[int]) (*Manifest, error) {
	m := &Manifest{
		RunID:   e.runID,
		Version: pipeline.Version,
		Format:  e.cfg.Common.FileFormat,
		Created: e.now().UTC(),
		Objects: e.Objects(),
	}
	if s, ok := step.Get(); ok {
		m.Step = &s
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Trace(err)
	}
	name := ObjectName(e.cfg.Common.Prefix, "manifest", step, "json")
	if err := e.store.WriteFile(ctx, name, data); err != nil {
		return nil, errors.Annotatef(err, "write %s", name)
	}
	return m, nil
}

// Objects returns the written objects sorted by name.
func (e *Exporter) Objects() []Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]Object(nil), e.objects...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PrintSummary writes a human-readable report of the run.
func (e *Exporter) PrintSummary(w io.Writer, elapsed time.Duration) {
	var rows, size int64
	objects := e.Objects()
	for _, o := range objects {
		rows += o.Rows
		size += o.Bytes
	}
	throughput := 0.0
	if elapsed.Seconds() > 0 {
		throughput = float64(size) / elapsed.Seconds()
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Run: %s\n", e.runID)
	fmt.Fprintf(w, "  Format: %s\n", e.cfg.Common.FileFormat)
	fmt.Fprintf(w, "  Objects: %d\n", len(objects))
	if rows > 0 {
		fmt.Fprintf(w, "  Total Rows: %d\n", rows)
	}
	fmt.Fprintf(w, "  Bytes: %s\n", units.BytesSize(float64(size)))
	fmt.Fprintf(w, "  Throughput: %s/s\n", units.BytesSize(throughput))
	fmt.Fprintf(w, "  Path: %s\n", e.cfg.Common.Path)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(ctx context.Context, store storage.ExternalStorage, name string) (*Manifest, error) {
	data, err := store.ReadFile(ctx, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Annotatef(err, "decode %s", name)
	}
	return &m, nil
}
