package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func TestWithSeedsAndRestores(t *testing.T) {
	before := mustGetwd(t)
	seed := []byte("# dists\nbegin nations\n")

	var seen string
	err := With(seed, func(ws *Workspace) error {
		seen = ws.Dir()
		wd := mustGetwd(t)
		want, err := filepath.EvalSymlinks(ws.Dir())
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(wd)
		require.NoError(t, err)
		require.Equal(t, want, got)

		data, err := os.ReadFile(DistsFileName)
		require.NoError(t, err)
		require.Equal(t, seed, data)
		return os.WriteFile("region.tbl", []byte("0|AFRICA|x|\n"), 0o644)
	}, WithParent(t.TempDir()))
	require.NoError(t, err)

	require.Equal(t, before, mustGetwd(t))
	_, err = os.Stat(seen)
	require.True(t, os.IsNotExist(err))
}

func TestWithBodyErrorStillTearsDown(t *testing.T) {
	before := mustGetwd(t)
	boom := errors.New("boom")

	var seen string
	err := With(nil, func(ws *Workspace) error {
		seen = ws.Dir()
		return boom
	}, WithParent(t.TempDir()))
	require.Error(t, err)
	require.Equal(t, boom, errors.Cause(err))

	require.Equal(t, before, mustGetwd(t))
	_, err = os.Stat(seen)
	require.True(t, os.IsNotExist(err))
}

func TestWithPanicRestores(t *testing.T) {
	before := mustGetwd(t)

	var seen string
	require.PanicsWithValue(t, "generator crashed", func() {
		_ = With(nil, func(ws *Workspace) error {
			seen = ws.Dir()
			panic("generator crashed")
		}, WithParent(t.TempDir()))
	})

	require.Equal(t, before, mustGetwd(t))
	_, err := os.Stat(seen)
	require.True(t, os.IsNotExist(err))
}

func TestWithKeep(t *testing.T) {
	var seen string
	err := With([]byte("x"), func(ws *Workspace) error {
		seen = ws.Dir()
		return nil
	}, WithParent(t.TempDir()), WithKeep(true), WithPrefix("keep-"))
	require.NoError(t, err)

	require.Equal(t, "keep-", filepath.Base(seen)[:5])
	_, err = os.Stat(filepath.Join(seen, DistsFileName))
	require.NoError(t, err)
}

func TestWithCreateFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")
	called := false
	err := With(nil, func(*Workspace) error {
		called = true
		return nil
	}, WithParent(missing))
	require.Error(t, err)
	require.False(t, called)

	var wsErr *Error
	require.ErrorAs(t, err, &wsErr)
	require.Equal(t, "create", wsErr.Op)
}

func TestWithRemoveFailureIsSurfaced(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can remove read-only directories")
	}
	parent := t.TempDir()

	err := With(nil, func(ws *Workspace) error {
		require.NoError(t, os.Mkdir("locked", 0o755))
		require.NoError(t, os.WriteFile(filepath.Join("locked", "f"), nil, 0o644))
		return os.Chmod("locked", 0o555)
	}, WithParent(parent))
	require.Error(t, err)

	var wsErr *Error
	require.ErrorAs(t, err, &wsErr)
	require.Equal(t, "remove", wsErr.Op)

	entries, rerr := os.ReadDir(parent)
	require.NoError(t, rerr)
	for _, e := range entries {
		locked := filepath.Join(parent, e.Name(), "locked")
		_ = os.Chmod(locked, 0o755)
	}
}
