package tofu

import "context"

// signalSafeContext passes ctx through. On Linux terraform-exec starts tofu in
// its own process group, so context cancellation is the only interrupt it gets.
func signalSafeContext(ctx context.Context) context.Context {
	return ctx
}
