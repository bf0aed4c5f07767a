package status

import "context"

type contextKey string

const statusChannelKey contextKey = "status-channel"

// WithChannel returns a context carrying ch. The channel should be buffered;
// Send drops updates rather than block on it.
func WithChannel(ctx context.Context, ch chan<- Update) context.Context {
	return context.WithValue(ctx, statusChannelKey, ch)
}

func getChannel(ctx context.Context) chan<- Update {
	if ctx == nil {
		return nil
	}
	ch, ok := ctx.Value(statusChannelKey).(chan<- Update)
	if !ok {
		return nil
	}
	return ch
}

// HasChannel reports whether ctx carries a status channel.
func HasChannel(ctx context.Context) bool {
	return getChannel(ctx) != nil
}
