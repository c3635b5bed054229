package application

import "github.com/kverel/edge-search-cli/internal/domain"

// RunSessionCommand describes one search run against an acquired working
// profile.
type RunSessionCommand struct {
	Profile     domain.WorkingProfile
	Pool        *domain.QueryPool
	SearchCount int
	Policy      domain.CopyPolicy
}
