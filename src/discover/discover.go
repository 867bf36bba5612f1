// Package discover groups generator output files by table.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

// Suffix separates a table name from the rest of an output file name.
const Suffix = ".tbl"

// Tables scans dir once and groups every "<table>.tbl[.<n>]" file under its
// table name. Paths are absolute and ordered by shard index.
func Tables(dir string) (map[string][]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, errors.Annotatef(err, "list generator output in %s", abs)
	}

	groups := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		table, _, ok := Split(e.Name())
		if !ok {
			continue
		}
		groups[table] = append(groups[table], filepath.Join(abs, e.Name()))
	}
	for _, files := range groups {
		SortShards(files)
	}
	return groups, nil
}

// Split breaks a file name into its table name and shard suffix, e.g.
// "lineitem.tbl.3" gives ("lineitem", "3"). ok is false when the name has
// no ".tbl" part or nothing before it.
func Split(name string) (table, shard string, ok bool) {
	i := strings.Index(name, Suffix)
	if i <= 0 {
		return "", "", false
	}
	rest := name[i+len(Suffix):]
	if rest != "" && rest[0] != '.' {
		return "", "", false
	}
	return name[:i], strings.TrimPrefix(rest, "."), true
}

// SortShards orders files so that the unsuffixed file comes first, then
// numeric shards ascending, then anything else lexicographically.
func SortShards(files []string) {
	sort.SliceStable(files, func(i, j int) bool {
		return shardLess(shardOf(files[i]), shardOf(files[j]))
	})
}

func shardOf(path string) string {
	_, shard, _ := Split(filepath.Base(path))
	return shard
}

func shardLess(a, b string) bool {
	if a == "" || b == "" {
		return a == "" && b != ""
	}
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Names returns the table names of groups in sorted order.
func Names(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
