package dbgen

import (
	"io"
	"os"
	"os/exec"
	"strconv"

	"tpchArrow/src/catalog"
	"tpchArrow/src/util"

	"github.com/pingcap/errors"
)

const defaultBinary = "dbgen"

// Exec runs the standalone dbgen binary in the current working directory.
type Exec struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec backend, forwarding the child's output to the
// process's own stdout and stderr.
func NewExec(binary string) *Exec {
	if binary == "" {
		binary = defaultBinary
	}
	return &Exec{Binary: binary, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Args returns the command line for the given parameters. Absent values are
// left off the command line so dbgen applies its own defaults; n_steps
// alone produces the full dataset.
func Args(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) []string {
	args := []string{"-f", "-q", "-s", strconv.Itoa(scale)}
	if t, ok := table.Get(); ok {
		args = append(args, "-T", t.Flag())
	}
	if s, ok := step.Get(); ok {
		if n, ok := nSteps.Get(); ok {
			args = append(args, "-C", strconv.Itoa(n))
		}
		args = append(args, "-S", strconv.Itoa(s))
	}
	return args
}

func (e *Exec) Generate(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error) {
	cmd := exec.Command(e.Binary, Args(scale, table, step, nSteps)...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, errors.Annotatef(err, "start %s", e.Binary)
}
