package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"tpchArrow/src/config"
	"tpchArrow/src/dbgen"
	"tpchArrow/src/export"
	"tpchArrow/src/metrics"
	"tpchArrow/src/pipeline"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func newGenCmd(g *globalOptions) *cobra.Command {
	rf := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate data and export it to the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := g.load(rf)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg, true); err != nil {
				return err
			}
			req, err := rf.request(cfg)
			if err != nil {
				return err
			}
			return runGen(cmd.Context(), cfg, req, logger, cmd.OutOrStdout())
		},
	}
	rf.register(cmd.Flags())
	return cmd
}

// runGen generates one request and writes it out. With the tbl format the
// generator's files are uploaded as they are and nothing is converted.
func runGen(
	ctx context.Context,
	cfg *config.Config,
	req dbgen.Request,
	logger *slog.Logger,
	out io.Writer,
	opts ...pipeline.Option,
) error {
	start := time.Now()

	exp, err := export.New(ctx, cfg, logger)
	if err != nil {
		return errors.Trace(err)
	}
	defer exp.Close()

	raw := cfg.Common.FileFormat == export.FormatTbl
	if raw {
		opts = append(opts, pipeline.WithFileHook(func(groups map[string][]string) error {
			return exp.UploadFiles(ctx, groups)
		}))
	}

	p, err := pipeline.FromConfig(cfg, logger, opts...)
	if err != nil {
		return errors.Trace(err)
	}
	tables, err := p.Run(req)
	if err != nil {
		return err
	}
	defer tables.Release()

	if !raw {
		if err := exp.Export(ctx, tables, req.Step); err != nil {
			return errors.Trace(err)
		}
	}
	if _, err := exp.WriteManifest(ctx, req.Step); err != nil {
		return errors.Trace(err)
	}
	exp.PrintSummary(out, time.Since(start))

	return errors.Trace(metrics.WriteTextfile(cfg.Metrics.Textfile))
}
