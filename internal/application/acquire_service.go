package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

// AcquireService produces a working copy of a source profile that the
// browser can be launched against. The source directory is never handed
// to the browser directly.
type AcquireService struct {
	copier     ports.ProfileCopier
	prompter   ports.OperatorPrompter
	inspector  ports.LockInspector
	terminator ports.ProcessTerminator
	logger     *zap.Logger

	browserNames []string
	tempName     func() string
}

// NewAcquireService wires the resolver. inspector and terminator may be
// nil; without them every lock falls through to the operator prompt.
func NewAcquireService(
	copier ports.ProfileCopier,
	prompter ports.OperatorPrompter,
	inspector ports.LockInspector,
	terminator ports.ProcessTerminator,
	logger *zap.Logger,
	browserNames []string,
) *AcquireService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AcquireService{
		copier:       copier,
		prompter:     prompter,
		inspector:    inspector,
		terminator:   terminator,
		logger:       logger,
		browserNames: browserNames,
		tempName:     func() string { return "es-profile-" + uuid.NewString() },
	}
}

func (s *AcquireService) Acquire(ctx context.Context, desc domain.ProfileDescriptor, policy domain.CopyPolicy) (domain.WorkingProfile, error) {
	switch policy {
	case domain.PolicyAssisted:
		return s.acquireAssisted(ctx, desc)
	case domain.PolicyAutomatic:
		return s.acquireAutomatic(ctx, desc)
	default:
		return domain.WorkingProfile{}, fmt.Errorf("unknown copy policy %q", policy)
	}
}

// acquireAssisted trusts an existing sibling copy and otherwise walks the
// operator through making one, polling until it appears.
func (s *AcquireService) acquireAssisted(ctx context.Context, desc domain.ProfileDescriptor) (domain.WorkingProfile, error) {
	tempDir := domain.TempDirFor(desc)
	if dirExists(tempDir) {
		s.logger.Info("reusing working copy", zap.String("dir", tempDir))
		return domain.WorkingProfile{Source: desc, Dir: tempDir, Ready: true}, nil
	}

	if err := s.prompter.Reveal(desc.RootDir); err != nil {
		s.logger.Warn("open file manager", zap.Error(err))
	}

	msg := fmt.Sprintf("Copy %q to %q, then press Enter", desc.Path, tempDir)
	for {
		if err := s.prompter.Confirm(ctx, msg); err != nil {
			return domain.WorkingProfile{}, err
		}
		if dirExists(tempDir) {
			return domain.WorkingProfile{Source: desc, Dir: tempDir, Ready: true}, nil
		}
		msg = fmt.Sprintf("%s still missing. Copy the profile and press Enter", tempDir)
	}
}

// acquireAutomatic copies the profile itself. A copy interrupted by a file
// lock is discarded and restarted from scratch once the lock is cleared,
// either by terminating browser-owned holders or by the operator.
func (s *AcquireService) acquireAutomatic(ctx context.Context, desc domain.ProfileDescriptor) (domain.WorkingProfile, error) {
	workingDir := filepath.Join(os.TempDir(), s.tempName())

	for {
		if err := ctx.Err(); err != nil {
			return domain.WorkingProfile{}, err
		}

		if err := os.RemoveAll(workingDir); err != nil {
			return domain.WorkingProfile{}, fmt.Errorf("clear working dir: %w", err)
		}

		copied, err := s.copier.CopyTree(ctx, desc.Path, workingDir)
		if err == nil {
			s.logger.Info("profile copied",
				zap.String("source", desc.Path),
				zap.String("dir", workingDir),
				zap.Int("files", copied))
			return domain.WorkingProfile{Source: desc, Dir: workingDir, Ready: true, Ephemeral: true}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.WorkingProfile{}, ctxErr
		}

		if !errors.Is(err, domain.ErrLockContention) {
			return domain.WorkingProfile{}, fmt.Errorf("%w: copy profile: %v", domain.ErrUnexpectedFailure, err)
		}

		lockedPath := lockSubject(err)
		s.logger.Warn("copy blocked by file lock", zap.String("path", lockedPath))

		if s.clearLock(ctx, lockedPath) {
			continue
		}

		prompt := fmt.Sprintf("%s is held open by another process. Close the browser and press Enter to retry", lockedPath)
		if err := s.prompter.Confirm(ctx, prompt); err != nil {
			return domain.WorkingProfile{}, err
		}
	}
}

// clearLock reports whether every process holding path was a browser
// process and was terminated, so the copy can retry without the operator.
func (s *AcquireService) clearLock(ctx context.Context, path string) bool {
	if s.inspector == nil || s.terminator == nil {
		return false
	}

	handles, err := s.inspector.OpenHandles(ctx, path)
	if err != nil {
		s.logger.Warn("lock inspection failed", zap.Error(err))
		return false
	}
	if len(handles) == 0 {
		s.logger.Info("no holder found for locked file", zap.String("path", path))
		return false
	}

	for _, handle := range handles {
		if !domain.MatchesExecutable(handle.Name, s.browserNames) {
			s.logger.Warn("lock held by foreign process",
				zap.Int32("pid", handle.PID),
				zap.String("name", handle.Name))
			return false
		}
	}

	for _, handle := range handles {
		if err := s.terminator.Terminate(ctx, handle.PID); err != nil {
			s.logger.Warn("terminate lock holder",
				zap.Int32("pid", handle.PID),
				zap.Error(err))
			return false
		}
	}

	s.logger.Info("lock holders terminated", zap.Int("count", len(handles)))
	return true
}

// Cleanup removes an ephemeral working copy. Assisted copies are kept for
// reuse on the next run.
func (s *AcquireService) Cleanup(profile domain.WorkingProfile) error {
	if !profile.Ephemeral || profile.Dir == "" {
		return nil
	}

	if err := os.RemoveAll(profile.Dir); err != nil {
		return fmt.Errorf("remove working dir: %w", err)
	}

	s.logger.Debug("working copy removed", zap.String("dir", profile.Dir))
	return nil
}

// FindBrowserProcesses lists running processes matching the configured
// browser executables.
func (s *AcquireService) FindBrowserProcesses(ctx context.Context) ([]ports.ProcessHandle, error) {
	if s.terminator == nil {
		return nil, errors.New("process control unavailable on this platform")
	}

	return s.terminator.FindByName(ctx, s.browserNames)
}

// SweepBrowser terminates every running browser process.
func (s *AcquireService) SweepBrowser(ctx context.Context) ([]ports.TerminationResult, error) {
	if s.terminator == nil {
		return nil, errors.New("process control unavailable on this platform")
	}

	results, err := s.terminator.TerminateByName(ctx, s.browserNames)
	if err != nil {
		return nil, fmt.Errorf("terminate browser processes: %w", err)
	}

	return results, nil
}

func lockSubject(err error) string {
	var locked interface{ LockedPath() string }
	if errors.As(err, &locked) {
		return locked.LockedPath()
	}

	return "a profile file"
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
