package pipeline

// StepFunc is a service step hosted by the pipeline.
//
// The step reads incoming envelopes from the service context and queues outgoing ones.
// Returned error fails the hop.
type StepFunc func(sc *ServiceContext) error

// StepMiddleware allows us to write something like decorators to StepFunc.
// It can execute something before the step (for example: modify the incoming message)
// and after (modify the outgoing messages, inspect the error).
type StepMiddleware func(h StepFunc) StepFunc

// Interceptor is notified before and after every step invocation.
//
// Interceptors must not change the outcome of the step:
// the step is invoked regardless of OnBeforeStep, and its error is returned unchanged.
type Interceptor interface {
	OnBeforeStep(sc *ServiceContext)
	OnAfterStep(sc *ServiceContext, stepErr error)
}

// InterceptorMiddleware adapts an Interceptor to a StepMiddleware.
func InterceptorMiddleware(interceptor Interceptor) StepMiddleware {
	return func(h StepFunc) StepFunc {
		return func(sc *ServiceContext) error {
			interceptor.OnBeforeStep(sc)

			err := h(sc)

			interceptor.OnAfterStep(sc, err)

			return err
		}
	}
}

// Intercept decorates the step with interceptors.
// The first interceptor is the outermost one, so it is notified first before the step
// and last after it.
func Intercept(step StepFunc, interceptors ...Interceptor) StepFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		step = InterceptorMiddleware(interceptors[i])(step)
	}

	return step
}

// PassThrough forwards all incoming envelopes to the outgoing queue unchanged.
func PassThrough(sc *ServiceContext) error {
	sc.AddOutgoing(sc.Incoming()...)
	return nil
}
