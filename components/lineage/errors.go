package lineage

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoServiceContext = errors.New("no service context")
	ErrNoMessage        = errors.New("no incoming message")
)

// ResolutionError is returned when lineage headers of the incoming message are malformed.
// The hop is tagged as the first one of a new chain.
type ResolutionError struct {
	Header string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("cannot resolve lineage: %s", e.Err)
	}
	return fmt.Sprintf("cannot resolve lineage from header %s: %s", e.Header, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Cause() error {
	return e.Err
}

// RecoveredPanicError is returned when tagging panics.
type RecoveredPanicError struct {
	V          interface{}
	Stacktrace string
}

func (p RecoveredPanicError) Error() string {
	return fmt.Sprintf("panic occurred: %#v, stacktrace: \n%s", p.V, p.Stacktrace)
}
