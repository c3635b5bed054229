package ports

import "context"

type ProcessHandle struct {
	PID  int32
	Name string
}

// LockInspector enumerates processes holding a file open. The capability is
// optional: a nil inspector disables the automatic-kill branch of lock
// recovery, nothing else.
type LockInspector interface {
	OpenHandles(ctx context.Context, path string) ([]ProcessHandle, error)
}

type TerminationResult struct {
	Handle ProcessHandle
	Err    error
}

type ProcessTerminator interface {
	Terminate(ctx context.Context, pid int32) error
	// FindByName lists running processes whose executable name matches one
	// of names.
	FindByName(ctx context.Context, names []string) ([]ProcessHandle, error)
	// TerminateByName terminates every matching process, reporting
	// per-process results.
	TerminateByName(ctx context.Context, names []string) ([]TerminationResult, error)
}
