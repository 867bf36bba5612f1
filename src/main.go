package main

import (
	"fmt"
	"log/slog"
	"os"

	"tpchArrow/src/catalog"
	"tpchArrow/src/config"
	"tpchArrow/src/dbgen"
	"tpchArrow/src/pipeline"
	"tpchArrow/src/util"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalOptions struct {
	cfgPath string
	verbose bool
}

// requestFlags are the generation parameters shared by gen, fanout and
// sqlite. Unset flags fall back to the config file.
type requestFlags struct {
	scale  int
	table  string
	step   int
	nSteps int

	fs *pflag.FlagSet
}

func (r *requestFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&r.scale, "scale", 1, "scale factor")
	fs.StringVar(&r.table, "table", "", "table to generate (default all)")
	fs.IntVar(&r.step, "step", 1, "chunk number to generate")
	fs.IntVar(&r.nSteps, "n-steps", 1, "number of chunks")
	r.fs = fs
}

func (r *requestFlags) changed(name string) bool {
	return r.fs != nil && r.fs.Changed(name)
}

// apply copies explicitly set flags into cfg.
func (r *requestFlags) apply(cfg *config.Config) {
	if r.changed("scale") {
		cfg.Request.Scale = r.scale
	}
}

func (r *requestFlags) request(cfg *config.Config) (dbgen.Request, error) {
	req := dbgen.NewRequest()
	req.Scale = cfg.Request.Scale
	if r.table != "" {
		t, err := catalog.FromName(r.table)
		if err != nil {
			return req, err
		}
		req.Table = util.Some(t)
	}
	if r.changed("step") {
		req.Step = util.Some(r.step)
	}
	if r.changed("n-steps") {
		req.NSteps = util.Some(r.nSteps)
	}
	return req, req.Validate()
}

func (g *globalOptions) load(rf *requestFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if rf != nil {
		rf.apply(cfg)
	}
	return cfg, util.NewLogger(g.verbose), nil
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "tpch",
		Short:         "Generate TPC-H data with dbgen and convert it to Arrow",
		Version:       pipeline.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.cfgPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenCmd(g),
		newFanoutCmd(g),
		newSchemaCmd(),
		newQueryCmd(),
		newSQLiteCmd(g),
		newFilesCmd(g),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode forwards the generator's exit status when it failed.
func exitCode(err error) int {
	if genErr, ok := errors.Cause(err).(*dbgen.GenerationFailedError); ok && genErr.Code > 0 {
		return genErr.Code
	}
	return 1
}
