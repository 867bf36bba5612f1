package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func bases(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestTablesGroupsAndOrders(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"dists.dss",
		"orders.tbl.10", "orders.tbl.2", "orders.tbl", "orders.tbl.1",
		"part.tbl", "partsupp.tbl.1", "partsupp.tbl.3",
		"region.tbl",
		"notes.txt", ".tbl", "nation.tblx",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "lineitem.tbl.d"), 0o755))

	groups, err := Tables(dir)
	require.NoError(t, err)

	require.Equal(t, []string{"orders", "part", "partsupp", "region"}, Names(groups))
	require.Equal(t, []string{"orders.tbl", "orders.tbl.1", "orders.tbl.2", "orders.tbl.10"}, bases(groups["orders"]))
	require.Equal(t, []string{"partsupp.tbl.1", "partsupp.tbl.3"}, bases(groups["partsupp"]))
	for _, files := range groups {
		for _, f := range files {
			require.True(t, filepath.IsAbs(f))
		}
	}
}

func TestTablesEmptyDir(t *testing.T) {
	groups, err := Tables(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestTablesMissingDir(t *testing.T) {
	_, err := Tables(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name, table, shard string
		ok                 bool
	}{
		{"lineitem.tbl", "lineitem", "", true},
		{"lineitem.tbl.7", "lineitem", "7", true},
		{"lineitem.tbl.x", "lineitem", "x", true},
		{".tbl", "", "", false},
		{"lineitem.tblz", "", "", false},
		{"lineitem.csv", "", "", false},
	}
	for _, c := range cases {
		table, shard, ok := Split(c.name)
		require.Equal(t, c.ok, ok, c.name)
		require.Equal(t, c.table, table, c.name)
		require.Equal(t, c.shard, shard, c.name)
	}
}

func TestSortShardsNonNumericLast(t *testing.T) {
	files := []string{"/w/t.tbl.b", "/w/t.tbl.3", "/w/t.tbl.a", "/w/t.tbl", "/w/t.tbl.01", "/w/t.tbl.1"}
	SortShards(files)
	require.Equal(t, []string{"t.tbl", "t.tbl.01", "t.tbl.1", "t.tbl.3", "t.tbl.a", "t.tbl.b"}, bases(files))
}
