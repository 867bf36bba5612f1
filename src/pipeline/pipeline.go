// Package pipeline generates TPC-H data and returns it as Arrow tables.
//
// A Pipeline changes the process working directory while it runs and the
// generator keeps global state, so Run must not be called concurrently
// within one process. Run separate processes for parallel generation.
package pipeline

import (
	"log/slog"
	"sort"
	"time"

	"tpchArrow/src/assets"
	"tpchArrow/src/catalog"
	"tpchArrow/src/config"
	"tpchArrow/src/dbgen"
	"tpchArrow/src/discover"
	"tpchArrow/src/materialize"
	"tpchArrow/src/metrics"
	"tpchArrow/src/schema"
	"tpchArrow/src/util"
	"tpchArrow/src/workspace"

	"github.com/jonboulle/clockwork"
	"github.com/pingcap/errors"
)

// Version of the library.
const Version = "0.2.0"

// FileHook is called inside the workspace with the discovered output files,
// before they are removed.
type FileHook func(groups map[string][]string) error

// Pipeline ties generator, discovery, schema resolution and
// materialization together.
type Pipeline struct {
	seed     []byte
	gen      dbgen.Generator
	resolver schema.Resolver
	mat      *materialize.Materializer
	wsOpts   []workspace.Option
	hook     FileHook
	logger   *slog.Logger
	clock    clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithResolver sets the schema strategy. Defaults to the static schema.
func WithResolver(r schema.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithMaterializer overrides the row materializer.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(p *Pipeline) { p.mat = m }
}

// WithWorkspaceOptions passes options to every workspace.
func WithWorkspaceOptions(opts ...workspace.Option) Option {
	return func(p *Pipeline) { p.wsOpts = append(p.wsOpts, opts...) }
}

// WithFileHook registers a hook that sees the raw output files.
func WithFileHook(h FileHook) Option {
	return func(p *Pipeline) { p.hook = h }
}

// WithGenerator replaces the generator, including one chosen by FromConfig.
func WithGenerator(g dbgen.Generator) Option {
	return func(p *Pipeline) { p.gen = g }
}

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock sets the clock used for phase timings.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New returns a Pipeline that seeds each workspace with seed and runs gen.
func New(seed []byte, gen dbgen.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		seed:     seed,
		gen:      gen,
		resolver: schema.NewStatic(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = util.OrDiscard(p.logger)
	if p.mat == nil {
		p.mat = materialize.New(materialize.WithLogger(p.logger))
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	return p
}

// FromConfig builds a Pipeline from a normalized configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	seed, err := assets.Dists(cfg.Generator.Dists)
	if err != nil {
		return nil, errors.Trace(err)
	}
	gen, err := dbgen.New(cfg.Generator)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resolver, err := schema.New(cfg.Schema.Strategy, cfg.Schema.SampleRows)
	if err != nil {
		return nil, errors.Trace(err)
	}

	base := []Option{
		WithLogger(logger),
		WithResolver(resolver),
		WithMaterializer(materialize.New(
			materialize.WithBatchRows(cfg.Materialize.BatchRows),
			materialize.WithLogger(logger),
		)),
		WithWorkspaceOptions(
			workspace.WithPrefix(cfg.Generator.WorkdirPrefix),
			workspace.WithParent(cfg.Generator.WorkdirParent),
			workspace.WithKeep(cfg.Generator.KeepWorkdir),
		),
	}
	return New(seed, gen, append(base, opts...)...), nil
}

// Run generates the data described by req and returns one entry per table
// found in the generator's output. The caller owns the returned tables.
// Nothing is returned when any phase fails, including workspace teardown.
func (p *Pipeline) Run(req dbgen.Request) (materialize.Tables, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := p.clock.Now()
	p.logger.Info("generating", "request", req.String())

	var tables materialize.Tables
	err := workspace.With(p.seed, func(ws *workspace.Workspace) error {
		if err := p.generate(req); err != nil {
			return err
		}

		groups, err := discover.Tables(ws.Dir())
		if err != nil {
			return errors.Trace(err)
		}
		for _, name := range discover.Names(groups) {
			metrics.FilesDiscovered.WithLabelValues(name).Add(float64(len(groups[name])))
			p.logger.Debug("discovered", "table", name, "files", len(groups[name]))
		}
		if p.hook != nil {
			if err := p.hook(groups); err != nil {
				return errors.Trace(err)
			}
		}

		phase := p.clock.Now()
		if tables, err = p.mat.All(groups, p.resolver); err != nil {
			return err
		}
		for _, name := range tables.Names() {
			rows := tables.NumRows(name)
			metrics.RowsMaterialized.WithLabelValues(name).Add(float64(rows))
			p.logger.Info("materialized", "table", name, "batches", len(tables[name]), "rows", rows)
		}
		p.logger.Debug("materialize finished", "elapsed", p.clock.Since(phase))
		return nil
	}, p.wsOpts...)
	if err != nil {
		if tables != nil {
			tables.Release()
		}
		return nil, err
	}

	p.logger.Info("generation finished", "tables", len(tables), "elapsed", p.clock.Since(start).Round(time.Millisecond))
	return tables, nil
}

func (p *Pipeline) generate(req dbgen.Request) error {
	start := p.clock.Now()
	err := dbgen.Invoke(p.gen, req)
	metrics.GenerationDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		metrics.GenerationTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.GenerationTotal.WithLabelValues("ok").Inc()
	p.logger.Debug("dbgen finished", "elapsed", p.clock.Since(start))
	return nil
}

// ExpectedTables returns the sorted table names req should produce.
func ExpectedTables(req dbgen.Request) []string {
	tables := catalog.Real()
	if t, ok := req.Table.Get(); ok {
		tables = t.Members()
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.String()
	}
	sort.Strings(names)
	return names
}
