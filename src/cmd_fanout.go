package main

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"tpchArrow/src/config"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newFanoutCmd(g *globalOptions) *cobra.Command {
	rf := &requestFlags{}
	var parallel int
	cmd := &cobra.Command{
		Use:   "fanout",
		Short: "Run gen once per chunk, each in its own process",
		Long: `Run gen once per chunk, each in its own process.

dbgen keeps global state and gen changes the working directory, so chunks
are generated by separate child processes rather than goroutines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !rf.changed("n-steps") || rf.nSteps < 1 {
				return errors.New("--n-steps must be set to a positive number")
			}
			if rf.changed("step") {
				return errors.New("--step is chosen by fanout; pass --n-steps only")
			}
			cfg, logger, err := g.load(rf)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg, true); err != nil {
				return err
			}
			self, err := os.Executable()
			if err != nil {
				return errors.Trace(err)
			}
			logger.Info("fanout", "n_steps", rf.nSteps, "parallel", parallel)
			return runFanout(cmd.Context(), self, fanoutArgs(g, rf, cfg), rf.nSteps, parallel)
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "maximum number of concurrent children")
	return cmd
}

// fanoutArgs are the gen arguments shared by every child.
func fanoutArgs(g *globalOptions, rf *requestFlags, cfg *config.Config) []string {
	args := []string{"gen", "--scale", strconv.Itoa(cfg.Request.Scale)}
	if g.cfgPath != "" {
		args = append(args, "--config", g.cfgPath)
	}
	if g.verbose {
		args = append(args, "--verbose")
	}
	if rf.table != "" {
		args = append(args, "--table", rf.table)
	}
	return args
}

// runFanout runs binary once per step with base plus the step flags. The
// first failing child cancels the rest.
func runFanout(ctx context.Context, binary string, base []string, nSteps, parallel int) error {
	if parallel < 1 {
		parallel = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for step := 1; step <= nSteps; step++ {
		args := append(append([]string(nil), base...),
			"--step", strconv.Itoa(step), "--n-steps", strconv.Itoa(nSteps))
		eg.Go(func() error {
			cmd := exec.CommandContext(egCtx, binary, args...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				return errors.Annotatef(err, "step %d", step)
			}
			return nil
		})
	}
	return eg.Wait()
}
