package middleware

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/relay/pipeline"
)

// Timeout cancels the context of the hop after the given time.
// Steps should watch sc.Context().Done() to give up.
// The original context is restored before returning, so outer middlewares see it unchanged.
func Timeout(timeout time.Duration) pipeline.StepMiddleware {
	return func(h pipeline.StepFunc) pipeline.StepFunc {
		return func(sc *pipeline.ServiceContext) error {
			orgCtx := sc.Context()

			ctx, cancel := context.WithTimeout(orgCtx, timeout)
			defer func() {
				sc.SetContext(orgCtx)
				cancel()
			}()

			sc.SetContext(ctx)
			return h(sc)
		}
	}
}
