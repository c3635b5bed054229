// Package fscopy copies browser profile trees. A copy is all-or-nothing:
// callers discard the destination wholesale on any failure, so no resume
// logic exists here.
package fscopy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/ports"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

type Copier struct {
	logger *zap.Logger
}

var _ ports.ProfileCopier = (*Copier)(nil)

func NewCopier(logger *zap.Logger) *Copier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Copier{logger: logger}
}

// CopyTree copies the full directory tree at src into dst, preserving
// structure. Lockfiles (*.lock, *.tmp) and symlinks are skipped: both are
// live-instance artifacts that are invalid in a copied profile. Returns the
// number of files copied. A file held open by another process surfaces as
// *LockedFileError.
func (c *Copier) CopyTree(ctx context.Context, src, dst string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("source %s is not a directory", src)
	}

	copied := 0
	err = filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, dirMode)
		}

		if entry.Type()&fs.ModeSymlink != 0 || skipName(entry.Name()) {
			return nil
		}

		if err := copyFile(path, target); err != nil {
			if isFileInUse(err) {
				return &LockedFileError{Path: path, Err: err}
			}
			return err
		}

		copied++
		return nil
	})
	if err != nil {
		return copied, err
	}

	c.logger.Debug("profile tree copied",
		zap.String("source", src),
		zap.String("target", dst),
		zap.Int("files", copied))

	return copied, nil
}

func skipName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".lock") || strings.HasSuffix(lower, ".tmp")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
