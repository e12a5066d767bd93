package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay/pipeline"
)

// RecoveredPanicError holds the value of a panic raised by a step.
type RecoveredPanicError struct {
	V          interface{}
	Stacktrace string
}

func (p RecoveredPanicError) Error() string {
	return fmt.Sprintf("panic occurred: %#v, stacktrace: \n%s", p.V, p.Stacktrace)
}

// Recoverer turns a panic of the step into an error of the hop.
func Recoverer(h pipeline.StepFunc) pipeline.StepFunc {
	return func(sc *pipeline.ServiceContext) (err error) {
		defer func() {
			if r := recover(); r != nil {
				panicErr := errors.WithStack(RecoveredPanicError{V: r, Stacktrace: string(debug.Stack())})
				err = multierror.Append(err, panicErr)
			}
		}()

		return h(sc)
	}
}
