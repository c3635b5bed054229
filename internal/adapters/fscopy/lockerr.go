package fscopy

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"

	"github.com/kverel/edge-search-cli/internal/domain"
)

// Windows sharing/lock violation codes surfaced when a file is exclusively
// held open by another process.
const (
	errorSharingViolation = syscall.Errno(32)
	errorLockViolation    = syscall.Errno(33)
)

// LockedFileError reports the path that a copy failed on because another
// process holds it open. errors.Is(err, domain.ErrLockContention) matches.
type LockedFileError struct {
	Path string
	Err  error
}

func (e *LockedFileError) Error() string {
	return fmt.Sprintf("file in use: %s: %v", e.Path, e.Err)
}

func (e *LockedFileError) Unwrap() error { return e.Err }

func (e *LockedFileError) Is(target error) bool { return target == domain.ErrLockContention }

// LockedPath lets callers recover the blocking path without depending on
// this package's concrete type.
func (e *LockedFileError) LockedPath() string { return e.Path }

func isFileInUse(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	if runtime.GOOS == "windows" {
		return errno == errorSharingViolation || errno == errorLockViolation
	}

	return errno == syscall.EBUSY || errno == syscall.ETXTBSY
}
