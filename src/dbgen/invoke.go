// Package dbgen invokes the TPC-H data generator.
//
// The generator writes its output into the current working directory and
// keeps global state, so invocations must not run concurrently within one
// process.
package dbgen

import (
	"fmt"
	"strings"

	"tpchArrow/src/catalog"
	"tpchArrow/src/config"
	"tpchArrow/src/util"

	"github.com/pingcap/errors"
)

// Backends accepted by New.
const (
	// BackendExec runs the dbgen binary as a child process.
	BackendExec = "exec"
	// BackendLibrary calls a linked libdbgen; needs the dbgen_cgo build tag.
	BackendLibrary = "library"
)

// Generator runs dbgen once. The returned status is the generator's own
// exit code, zero on success; err is reserved for failing to run it at all.
type Generator interface {
	Generate(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error)

func (f GeneratorFunc) Generate(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error) {
	return f(scale, table, step, nSteps)
}

// GenerationFailedError reports a non-zero generator status. Details were
// printed by the generator itself on stderr.
type GenerationFailedError struct {
	Code int
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("failed to generate, exit code was %d; check stderr for dbgen errors", e.Code)
}

// Invoke validates req and runs gen with it in the current directory.
// Nothing is executed when validation fails.
func Invoke(gen Generator, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	code, err := gen.Generate(req.Scale, req.Table, req.Step, req.NSteps)
	if err != nil {
		return errors.Annotatef(err, "run dbgen (%s)", req)
	}
	if code != 0 {
		return errors.Trace(&GenerationFailedError{Code: code})
	}
	return nil
}

// New builds the generator backend named in cfg.
func New(cfg config.GeneratorConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendExec:
		return NewExec(cfg.Binary), nil
	case BackendLibrary:
		return NewLibrary()
	default:
		return nil, errors.Errorf("unsupported generator backend: %s", cfg.Backend)
	}
}
