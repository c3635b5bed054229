package ports

import "context"

// OperatorPrompter is the blocking operator interaction surface. All calls
// must honor ctx cancellation: an interrupt during a prompt aborts the wait
// with ctx.Err().
type OperatorPrompter interface {
	// Confirm prints msg and blocks until the operator presses Enter.
	Confirm(ctx context.Context, msg string) error
	// Ask prints prompt and returns the operator's line, trimmed.
	Ask(ctx context.Context, prompt string) (string, error)
	// Reveal opens path in the OS file manager. Best effort.
	Reveal(path string) error
}
