package toml

import "fmt"

const currentSchemaVersion = 1

// maxStoredRuns bounds the history file; older runs fall off the end.
const maxStoredRuns = 20

type fileSchema struct {
	Version int         `toml:"version"`
	Runs    []runSchema `toml:"runs"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported runs schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type runSchema struct {
	ID         string          `toml:"id"`
	Profile    string          `toml:"profile"`
	WorkingDir string          `toml:"working_dir,omitempty"`
	Policy     string          `toml:"policy"`
	Final      string          `toml:"final"`
	StartedAt  string          `toml:"started_at"`
	FinishedAt string          `toml:"finished_at"`
	Attempts   []attemptSchema `toml:"attempts,omitempty"`
}

type attemptSchema struct {
	Number     int           `toml:"number"`
	Terminal   string        `toml:"terminal"`
	StartedAt  string        `toml:"started_at,omitempty"`
	FinishedAt string        `toml:"finished_at,omitempty"`
	Queries    []querySchema `toml:"queries,omitempty"`
}

type querySchema struct {
	Query   string `toml:"query,omitempty"`
	Outcome string `toml:"outcome"`
}
