package domain

import (
	"fmt"
	"strings"
)

type CopyPolicy string

const (
	// PolicyAssisted reuses or waits for an operator-made "<profile>-temp"
	// copy next to the source profile.
	PolicyAssisted CopyPolicy = "assisted"
	// PolicyAutomatic copies the profile into a fresh unique temp directory,
	// resolving file locks along the way.
	PolicyAutomatic CopyPolicy = "auto"
)

func ParseCopyPolicy(s string) (CopyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PolicyAutomatic), "automatic":
		return PolicyAutomatic, nil
	case string(PolicyAssisted), "manual":
		return PolicyAssisted, nil
	default:
		return "", fmt.Errorf("unknown copy policy %q", s)
	}
}

// WorkingProfile is the exclusive, lock-free copy of a profile handed to the
// session driver. Ready is set only once the copy is complete; a partially
// copied directory is never handed over.
type WorkingProfile struct {
	Source    ProfileDescriptor
	Dir       string
	Ready     bool
	Ephemeral bool
}

// TempDirFor returns the operator-assisted working directory convention for
// a profile: the profile path with a "-temp" suffix.
func TempDirFor(desc ProfileDescriptor) string {
	return desc.Path + "-temp"
}
