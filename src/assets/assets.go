// Package assets locates the distribution file dbgen reads at startup.
package assets

import (
	"embed"
	"io/fs"
	"os"

	"github.com/pingcap/errors"
)

//go:generate cp ${DBGEN_DIR}/dists.dss dists/dists.dss

//go:embed dists
var bundled embed.FS

const bundledName = "dists/dists.dss"

// ErrNoDists is returned when no distribution file is configured or embedded.
var ErrNoDists = errors.Normalize(
	"no dists.dss available; set generator.dists or run go generate with DBGEN_DIR set",
	errors.RFCCodeText("tpch:assets:ErrNoDists"),
)

// Dists returns the distribution file at path, or the embedded copy when
// path is empty.
func Dists(path string) ([]byte, error) {
	return dists(bundled, path)
}

func dists(fsys fs.FS, path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Annotatef(err, "read dists file")
		}
		return data, nil
	}
	data, err := fs.ReadFile(fsys, bundledName)
	if err != nil || len(data) == 0 {
		return nil, ErrNoDists.GenWithStackByArgs()
	}
	return data, nil
}

// Embedded reports whether a distribution file was bundled at build time.
func Embedded() bool {
	_, err := fs.Stat(bundled, bundledName)
	return err == nil
}
