package main

import (
	"context"
	"log/slog"

	"tpchArrow/src/config"
	"tpchArrow/src/dbgen"
	"tpchArrow/src/loader"
	"tpchArrow/src/metrics"
	"tpchArrow/src/pipeline"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func newSQLiteCmd(g *globalOptions) *cobra.Command {
	rf := &requestFlags{}
	var dbPath string
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Generate data and load it into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := g.load(rf)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg, false); err != nil {
				return err
			}
			req, err := rf.request(cfg)
			if err != nil {
				return err
			}
			return runSQLite(cmd.Context(), cfg, req, dbPath, logger)
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().StringVar(&dbPath, "db", "tpch.db", "SQLite database file")
	return cmd
}

func runSQLite(
	ctx context.Context,
	cfg *config.Config,
	req dbgen.Request,
	dbPath string,
	logger *slog.Logger,
	opts ...pipeline.Option,
) error {
	p, err := pipeline.FromConfig(cfg, logger, opts...)
	if err != nil {
		return errors.Trace(err)
	}
	tables, err := p.Run(req)
	if err != nil {
		return err
	}
	defer tables.Release()

	db, err := loader.Open(ctx, dbPath)
	if err != nil {
		return errors.Annotatef(err, "open %s", dbPath)
	}
	defer db.Close()

	loaded, err := loader.Load(ctx, db, tables)
	if err != nil {
		return err
	}
	for _, name := range tables.Names() {
		logger.Info("loaded", "table", name, "rows", loaded[name], "db", dbPath)
	}
	return errors.Trace(metrics.WriteTextfile(cfg.Metrics.Textfile))
}
