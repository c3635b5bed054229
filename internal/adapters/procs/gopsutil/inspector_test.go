package gopsutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamePath(t *testing.T) {
	t.Parallel()

	a := filepath.Join("profile", "Default", "Cookies")
	assert.True(t, samePath(a, filepath.Join("profile", "Default", "..", "Default", "Cookies")))
	assert.False(t, samePath(a, filepath.Join("profile", "Default", "History")))

	if runtime.GOOS == "windows" {
		assert.True(t, samePath(`C:\Data\Cookies`, `c:\data\cookies`))
	}
}
