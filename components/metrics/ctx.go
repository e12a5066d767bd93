package metrics

import "context"

type contextValue int

const (
	sendObserved contextValue = iota
)

// setSendObservedToCtx is used to achieve metrics idempotency in case of double decorated sink
func setSendObservedToCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, sendObserved, true)
}

func sendAlreadyObserved(ctx context.Context) bool {
	return ctx.Value(sendObserved) != nil
}
