package domain

import "strings"

// MatchesExecutable reports whether a process name refers to one of the
// candidate executable names, ignoring case and a ".exe" suffix.
func MatchesExecutable(name string, candidates []string) bool {
	norm := normalizeExecutable(name)
	if norm == "" {
		return false
	}

	for _, candidate := range candidates {
		if norm == normalizeExecutable(candidate) {
			return true
		}
	}

	return false
}

func normalizeExecutable(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}
