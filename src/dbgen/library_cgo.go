//go:build dbgen_cgo

package dbgen

/*
#cgo LDFLAGS: -ldbgen
#include <stdlib.h>

extern int dbgen(const long *scale, const long *step, const long *n_steps, const int *table);
*/
import "C"

import (
	"tpchArrow/src/catalog"
	"tpchArrow/src/util"
)

// Library calls the dbgen entry point of a linked libdbgen.
type Library struct{}

// NewLibrary returns the linked generator.
func NewLibrary() (Generator, error) {
	return Library{}, nil
}

func (Library) Generate(scale int, table util.Option[catalog.Table], step, nSteps util.Option[int]) (int, error) {
	cScale := C.long(scale)

	var cStep, cNSteps *C.long
	if v, ok := step.Get(); ok {
		s := C.long(v)
		cStep = &s
	}
	if v, ok := nSteps.Get(); ok {
		n := C.long(v)
		cNSteps = &n
	}
	var cTable *C.int
	if t, ok := table.Get(); ok {
		c := C.int(t.Code())
		cTable = &c
	}

	return int(C.dbgen(&cScale, cStep, cNSteps, cTable)), nil
}
