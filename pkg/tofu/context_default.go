//go:build !linux

package tofu

import "context"

// signalSafeContext detaches tofu runs from cancellation. Outside Linux,
// terraform-exec leaves tofu in the terminal's process group, so Ctrl+C
// already reaches tofu directly; cancelling the context as well would send it
// a second interrupt and make it abort without cleaning up.
func signalSafeContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
