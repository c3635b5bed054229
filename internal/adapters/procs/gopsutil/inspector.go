// Package gopsutil backs the lock-inspection and process-termination ports
// with system process enumeration.
package gopsutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

type Inspector struct {
	logger *zap.Logger
}

var (
	_ ports.LockInspector     = (*Inspector)(nil)
	_ ports.ProcessTerminator = (*Inspector)(nil)
)

func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Inspector{logger: logger}
}

// OpenHandles scans every process for an open handle on path. Processes that
// disappear or deny access mid-scan are skipped, not errors.
func (i *Inspector) OpenHandles(ctx context.Context, path string) ([]ports.ProcessHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var handles []ports.ProcessHandle
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := p.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}

		for _, f := range files {
			if !samePath(f.Path, path) {
				continue
			}

			name, err := p.NameWithContext(ctx)
			if err != nil {
				name = ""
			}
			handles = append(handles, ports.ProcessHandle{PID: p.Pid, Name: name})
			break
		}
	}

	i.logger.Debug("open handle scan finished",
		zap.String("path", path),
		zap.Int("holders", len(handles)))

	return handles, nil
}

func (i *Inspector) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}

	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}

	i.logger.Info("process terminated", zap.Int32("pid", pid))
	return nil
}

func (i *Inspector) FindByName(ctx context.Context, names []string) ([]ports.ProcessHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var handles []ports.ProcessHandle
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, err := p.NameWithContext(ctx)
		if err != nil || !domain.MatchesExecutable(name, names) {
			continue
		}
		handles = append(handles, ports.ProcessHandle{PID: p.Pid, Name: name})
	}

	return handles, nil
}

func (i *Inspector) TerminateByName(ctx context.Context, names []string) ([]ports.TerminationResult, error) {
	handles, err := i.FindByName(ctx, names)
	if err != nil {
		return nil, err
	}

	var results []ports.TerminationResult
	for _, handle := range handles {
		result := ports.TerminationResult{Handle: handle}
		result.Err = i.Terminate(ctx, handle.PID)
		if result.Err != nil {
			i.logger.Warn("terminate failed", zap.Int32("pid", handle.PID), zap.Error(result.Err))
		}
		results = append(results, result)
	}

	return results, nil
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}
