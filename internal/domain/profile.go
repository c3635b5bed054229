package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ProfileDescriptor struct {
	RootDir string
	Name    string
	Path    string
}

const (
	baseHome         = "home"
	baseLocalAppData = "localappdata"
)

type edgeRoot struct {
	base string
	rel  []string
}

var edgeRoots = map[string]edgeRoot{
	"windows": {base: baseLocalAppData, rel: []string{"Microsoft", "Edge", "User Data"}},
	"darwin":  {base: baseHome, rel: []string{"Library", "Application Support", "Microsoft Edge"}},
	"linux":   {base: baseHome, rel: []string{".config", "microsoft-edge"}},
}

// EdgeUserDataRoot resolves the browser-data root for a GOOS value.
// Unknown platforms are a hard error, not a silent fallback.
func EdgeUserDataRoot(goos string) (string, error) {
	root, ok := edgeRoots[goos]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}

	var base string
	switch root.base {
	case baseLocalAppData:
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			return "", fmt.Errorf("%w: LOCALAPPDATA is not set", ErrProfileRootNotFound)
		}
	case baseHome:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = home
	}

	return filepath.Join(append([]string{base}, root.rel...)...), nil
}

// IsCandidateProfile reports whether a directory name is a selectable browser
// profile: exactly "Default" or a name starting with "Profile", both
// case-insensitive.
func IsCandidateProfile(name string) bool {
	if strings.EqualFold(name, "Default") {
		return true
	}
	const prefix = "Profile"
	return len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}
