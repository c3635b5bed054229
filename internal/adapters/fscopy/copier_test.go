package fscopy

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverel/edge-search-cli/internal/domain"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestCopyTreePreservesStructure(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "working")
	writeTree(t, src, map[string]string{
		"Preferences":  `{"profile":{}}`,
		"Cookies":      "cookie-db",
		"Cache/data_0": "blob",
		"Local Storage/leveldb/000001.log": "kv",
	})

	copier := NewCopier(nil)
	copied, err := copier.CopyTree(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 4, copied)

	got, err := os.ReadFile(filepath.Join(dst, "Local Storage", "leveldb", "000001.log"))
	require.NoError(t, err)
	assert.Equal(t, "kv", string(got))
}

func TestCopyTreeSkipsLockAndTempFiles(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "working")
	writeTree(t, src, map[string]string{
		"Preferences":   "p",
		"lockfile.lock": "held",
		"staging.TMP":   "partial",
		"History":       "h",
	})

	copier := NewCopier(nil)
	copied, err := copier.CopyTree(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, copied)

	assert.NoFileExists(t, filepath.Join(dst, "lockfile.lock"))
	assert.NoFileExists(t, filepath.Join(dst, "staging.TMP"))
	assert.FileExists(t, filepath.Join(dst, "History"))
}

func TestCopyTreeSkipsSymlinks(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "working")
	writeTree(t, src, map[string]string{"Preferences": "p"})
	// Dangling singleton-style symlink, as a live profile leaves behind.
	require.NoError(t, os.Symlink("gone-host-1234", filepath.Join(src, "SingletonLock")))

	copier := NewCopier(nil)
	copied, err := copier.CopyTree(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
	_, err = os.Lstat(filepath.Join(dst, "SingletonLock"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCopyTreeCancelledContext(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"Preferences": "p"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	copier := NewCopier(nil)
	_, err := copier.CopyTree(ctx, src, filepath.Join(t.TempDir(), "working"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCopyTreeMissingSource(t *testing.T) {
	t.Parallel()

	copier := NewCopier(nil)
	_, err := copier.CopyTree(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	assert.Error(t, err)
}

func TestLockedFileErrorMatchesLockContention(t *testing.T) {
	t.Parallel()

	inner := &fs.PathError{Op: "open", Path: "/p/Cookies", Err: syscall.EBUSY}
	err := error(&LockedFileError{Path: "/p/Cookies", Err: inner})

	assert.ErrorIs(t, err, domain.ErrLockContention)

	var lockErr *LockedFileError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "/p/Cookies", lockErr.Path)
}

func TestIsFileInUse(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("posix errno branch")
	}

	busy := &fs.PathError{Op: "open", Path: "x", Err: syscall.EBUSY}
	assert.True(t, isFileInUse(busy))

	txtBusy := &fs.PathError{Op: "open", Path: "x", Err: syscall.ETXTBSY}
	assert.True(t, isFileInUse(txtBusy))

	denied := &fs.PathError{Op: "open", Path: "x", Err: syscall.EACCES}
	assert.False(t, isFileInUse(denied))

	assert.False(t, isFileInUse(fs.ErrNotExist))
	assert.False(t, isFileInUse(nil))
}
