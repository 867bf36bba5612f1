package dbgen

import (
	"fmt"

	"tpchArrow/src/catalog"
	"tpchArrow/src/util"

	"github.com/pingcap/errors"
)

var (
	// ErrInvalidPartition is returned when step is greater than n_steps.
	ErrInvalidPartition = errors.Normalize(
		"trying to set step=%d and n_steps=%d; step must be <= n_steps",
		errors.RFCCodeText("tpch:dbgen:ErrInvalidPartition"),
	)
	// ErrInvalidRequest is returned for out-of-range scale or step values.
	ErrInvalidRequest = errors.Normalize(
		"invalid generation request: %s",
		errors.RFCCodeText("tpch:dbgen:ErrInvalidRequest"),
	)
)

// Request holds the parameters of one generator invocation.
type Request struct {
	// Scale is the TPC-H scale factor, 1 is roughly one gigabyte.
	Scale int
	// Table restricts generation to a single table (or composite pair).
	Table util.Option[catalog.Table]
	// Step selects which chunk to produce, 1-based.
	Step util.Option[int]
	// NSteps is the number of chunks the dataset is divided into.
	NSteps util.Option[int]
}

// NewRequest returns a request for the whole dataset at scale 1.
func NewRequest() Request {
	return Request{Scale: 1}
}

// Validate checks the request without touching the filesystem.
func (r Request) Validate() error {
	if r.Scale < 1 {
		return ErrInvalidRequest.GenWithStackByArgs(fmt.Sprintf("scale must be >= 1, got %d", r.Scale))
	}
	step, hasStep := r.Step.Get()
	if hasStep && step < 1 {
		return ErrInvalidRequest.GenWithStackByArgs(fmt.Sprintf("step must be >= 1, got %d", step))
	}
	nSteps, hasNSteps := r.NSteps.Get()
	if hasNSteps && nSteps < 1 {
		return ErrInvalidRequest.GenWithStackByArgs(fmt.Sprintf("n_steps must be >= 1, got %d", nSteps))
	}
	if hasStep && hasNSteps && step > nSteps {
		return ErrInvalidPartition.GenWithStackByArgs(step, nSteps)
	}
	return nil
}

// String renders the request for logs.
func (r Request) String() string {
	table := "all"
	if t, ok := r.Table.Get(); ok {
		table = t.String()
	}
	return fmt.Sprintf("scale=%d table=%s step=%s n_steps=%s",
		r.Scale, table, util.FormatInt(r.Step), util.FormatInt(r.NSteps))
}
