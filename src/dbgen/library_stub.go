//go:build !dbgen_cgo

package dbgen

import "github.com/pingcap/errors"

// ErrLibraryUnavailable is returned when the binary was built without libdbgen.
var ErrLibraryUnavailable = errors.Normalize(
	"generator library backend requires building with -tags dbgen_cgo",
	errors.RFCCodeText("tpch:dbgen:ErrLibraryUnavailable"),
)

// NewLibrary fails because libdbgen is not linked into this build.
func NewLibrary() (Generator, error) {
	return nil, ErrLibraryUnavailable.GenWithStackByArgs()
}
