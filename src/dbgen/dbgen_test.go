package dbgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tpchArrow/src/catalog"
	"tpchArrow/src/config"
	"tpchArrow/src/util"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		err  *errors.Error
	}{
		{"default", NewRequest(), nil},
		{"step equals n_steps", Request{Scale: 1, Step: util.Some(4), NSteps: util.Some(4)}, nil},
		{"step only", Request{Scale: 2, Step: util.Some(3)}, nil},
		{"n_steps only", Request{Scale: 1, NSteps: util.Some(10)}, nil},
		{"step above n_steps", Request{Scale: 1, Step: util.Some(5), NSteps: util.Some(4)}, ErrInvalidPartition},
		{"zero scale", Request{Scale: 0}, ErrInvalidRequest},
		{"zero step", Request{Scale: 1, Step: util.Some(0)}, ErrInvalidRequest},
		{"negative n_steps", Request{Scale: 1, NSteps: util.Some(-1)}, ErrInvalidRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.Validate()
			if c.err == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, c.err.Equal(err), "got %v", err)
		})
	}
}

func TestInvokeRejectsBeforeCalling(t *testing.T) {
	called := false
	gen := GeneratorFunc(func(int, util.Option[catalog.Table], util.Option[int], util.Option[int]) (int, error) {
		called = true
		return 0, nil
	})

	err := Invoke(gen, Request{Scale: 1, Step: util.Some(3), NSteps: util.Some(2)})
	require.True(t, ErrInvalidPartition.Equal(err))
	require.False(t, called)
}

func TestInvokeForwardsParameters(t *testing.T) {
	var (
		gotScale  int
		gotTable  util.Option[catalog.Table]
		gotStep   util.Option[int]
		gotNSteps util.Option[int]
	)
	gen := GeneratorFunc(func(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error) {
		gotScale, gotTable, gotStep, gotNSteps = scale, table, step, nSteps
		return 0, nil
	})

	req := Request{Scale: 3, Table: util.Some(catalog.Nation), NSteps: util.Some(7)}
	require.NoError(t, Invoke(gen, req))
	require.Equal(t, 3, gotScale)
	require.Equal(t, util.Some(catalog.Nation), gotTable)
	require.False(t, gotStep.IsSome())
	require.Equal(t, util.Some(7), gotNSteps)
}

func TestInvokeNonZeroStatus(t *testing.T) {
	gen := GeneratorFunc(func(int, util.Option[catalog.Table], util.Option[int], util.Option[int]) (int, error) {
		return 2, nil
	})

	err := Invoke(gen, NewRequest())
	require.Error(t, err)
	failed, ok := errors.Cause(err).(*GenerationFailedError)
	require.True(t, ok)
	require.Equal(t, 2, failed.Code)
	require.Contains(t, err.Error(), "exit code was 2")
}

func TestArgs(t *testing.T) {
	cases := []struct {
		name   string
		table  util.Option[catalog.Table]
		step   util.Option[int]
		nSteps util.Option[int]
		want   string
	}{
		{"all", util.None[catalog.Table](), util.None[int](), util.None[int](), "-f -q -s 1"},
		{"table", util.Some(catalog.Lineitem), util.None[int](), util.None[int](), "-f -q -s 1 -T L"},
		{"composite", util.Some(catalog.OrderLineitem), util.None[int](), util.None[int](), "-f -q -s 1 -T o"},
		{"chunk", util.None[catalog.Table](), util.Some(2), util.Some(4), "-f -q -s 1 -C 4 -S 2"},
		{"step only", util.None[catalog.Table](), util.Some(3), util.None[int](), "-f -q -s 1 -S 3"},
		{"n_steps only", util.None[catalog.Table](), util.None[int](), util.Some(4), "-f -q -s 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, strings.Join(Args(1, c.table, c.step, c.nSteps), " "))
		})
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbgen")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecRunsInWorkingDirectory(t *testing.T) {
	bin := writeScript(t, `echo "$@" > args.txt
echo "0|AFRICA|x|" > region.tbl
`)
	dir := t.TempDir()
	t.Chdir(dir)

	code, err := NewExec(bin).Generate(1, util.Some(catalog.Region), util.None[int](), util.None[int]())
	require.NoError(t, err)
	require.Equal(t, 0, code)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	require.Equal(t, "-f -q -s 1 -T r\n", string(args))
	_, err = os.Stat(filepath.Join(dir, "region.tbl"))
	require.NoError(t, err)
}

func TestExecExitStatus(t *testing.T) {
	bin := writeScript(t, "exit 3\n")
	t.Chdir(t.TempDir())

	code, err := NewExec(bin).Generate(1, util.None[catalog.Table](), util.None[int](), util.None[int]())
	require.NoError(t, err)
	require.Equal(t, 3, code)
}

func TestExecMissingBinary(t *testing.T) {
	code, err := NewExec(filepath.Join(t.TempDir(), "missing")).Generate(1, util.None[catalog.Table](), util.None[int](), util.None[int]())
	require.Error(t, err)
	require.Equal(t, -1, code)
}

func TestNew(t *testing.T) {
	gen, err := New(config.GeneratorConfig{Backend: "exec", Binary: "/opt/dbgen"})
	require.NoError(t, err)
	require.Equal(t, "/opt/dbgen", gen.(*Exec).Binary)

	gen, err = New(config.GeneratorConfig{})
	require.NoError(t, err)
	require.Equal(t, defaultBinary, gen.(*Exec).Binary)

	_, err = New(config.GeneratorConfig{Backend: "wasm"})
	require.Error(t, err)
}

func TestRequestString(t *testing.T) {
	req := Request{Scale: 2, Table: util.Some(catalog.Orders), Step: util.Some(1), NSteps: util.Some(3)}
	require.Equal(t, "scale=2 table=orders step=1 n_steps=3", req.String())
	require.Equal(t, "scale=1 table=all step=- n_steps=-", NewRequest().String())
}
