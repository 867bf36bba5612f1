// Package workspace runs a function inside a throwaway directory seeded with
// the generator's distribution file.
//
// The working directory is process-wide state. Only one workspace may be
// active in a process at a time; callers are responsible for that.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

// DistsFileName is the name dbgen expects for its distribution file.
const DistsFileName = "dists.dss"

const defaultPrefix = "tpch-dbgen-"

// Error describes a failure to set up or tear down a workspace.
type Error struct {
	Op  string
	Dir string
	Err error
}

func (e *Error) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("workspace %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("workspace %s %s: %v", e.Op, e.Dir, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Workspace is an active sandbox directory.
type Workspace struct {
	dir     string
	prevDir string
}

// Dir returns the absolute path of the workspace.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

type options struct {
	parent string
	prefix string
	keep   bool
}

// Option configures With.
type Option func(*options)

// WithParent creates the workspace under dir instead of the system temp dir.
func WithParent(dir string) Option {
	return func(o *options) { o.parent = dir }
}

// WithPrefix sets the name prefix of the temporary directory.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithKeep leaves the directory on disk after body returns.
func WithKeep(keep bool) Option {
	return func(o *options) { o.keep = keep }
}

// With creates a fresh directory, writes seed into it as DistsFileName,
// makes it the working directory and runs body. The previous working
// directory is restored and the directory removed on every exit path,
// including a panic in body. Teardown failures are returned even when body
// succeeded and are combined with the body's error otherwise.
func With(seed []byte, body func(ws *Workspace) error, opts ...Option) (err error) {
	o := options{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	dir, err := os.MkdirTemp(o.parent, o.prefix)
	if err != nil {
		return &Error{Op: "create", Err: err}
	}
	ws := &Workspace{dir: dir}

	if dir, err = filepath.Abs(dir); err != nil {
		return multierr.Append(&Error{Op: "create", Dir: ws.dir, Err: err}, ws.remove(o.keep))
	}
	ws.dir = dir

	if err := os.WriteFile(ws.Path(DistsFileName), seed, 0o644); err != nil {
		return multierr.Append(&Error{Op: "seed", Dir: dir, Err: err}, ws.remove(o.keep))
	}

	if ws.prevDir, err = os.Getwd(); err != nil {
		return multierr.Append(&Error{Op: "chdir", Dir: dir, Err: err}, ws.remove(o.keep))
	}
	if err := os.Chdir(dir); err != nil {
		return multierr.Append(&Error{Op: "chdir", Dir: dir, Err: err}, ws.remove(o.keep))
	}

	defer func() {
		teardown := multierr.Append(ws.restore(), ws.remove(o.keep))
		if r := recover(); r != nil {
			// The process state is already back in order; let the panic continue.
			panic(r)
		}
		err = multierr.Append(err, teardown)
	}()

	return errors.Trace(body(ws))
}

func (w *Workspace) restore() error {
	if err := os.Chdir(w.prevDir); err != nil {
		return &Error{Op: "restore", Dir: w.prevDir, Err: err}
	}
	return nil
}

func (w *Workspace) remove(keep bool) error {
	if keep {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return &Error{Op: "remove", Dir: w.dir, Err: err}
	}
	return nil
}
