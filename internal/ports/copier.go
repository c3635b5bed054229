package ports

import "context"

// ProfileCopier clones a profile directory tree. Implementations report
// in-use files through errors matching domain.ErrLockContention.
type ProfileCopier interface {
	// CopyTree copies src recursively into dst, returning the number of
	// files written.
	CopyTree(ctx context.Context, src, dst string) (int, error)
}
