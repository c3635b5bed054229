package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

const (
	configName      = "config"
	configType      = "toml"
	runsPathKey     = "runs.path"
	runsFileMode    = 0o600
	runsDirMode     = 0o700
	configDirEnv    = "ES_CONFIG_DIR"
	defaultDirName  = ".es"
	runsFileName    = "runs.toml"
	tempFilePattern = ".runs-*.toml.tmp"
)

// Repository persists run reports in a single TOML file, newest first.
type Repository struct {
	runsPath string
	mu       *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RunRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return nil, err
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(configDir)
	cfg.SetDefault(runsPathKey, filepath.Join(configDir, runsFileName))

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	runsPath := cfg.GetString(runsPathKey)
	if runsPath == "" {
		return nil, errors.New("runs path is empty")
	}
	runsPath, err = normalizeRunsPath(runsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{runsPath: runsPath, mu: lockForPath(runsPath)}, nil
}

// Save stores report at the head of the history. Saving an ID that already
// exists updates it in place; beyond the retention cap the oldest runs are
// dropped.
func (r *Repository) Save(ctx context.Context, report domain.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(report)
	updated := false
	for i := range file.Runs {
		if file.Runs[i].ID == encoded.ID {
			file.Runs[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Runs = append([]runSchema{encoded}, file.Runs...)
	}
	if len(file.Runs) > maxStoredRuns {
		file.Runs = file.Runs[:maxStoredRuns]
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// List returns the stored history, most recent run first.
func (r *Repository) List(ctx context.Context) ([]domain.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	runs := make([]domain.RunReport, 0, len(file.Runs))
	for _, entry := range file.Runs {
		runs = append(runs, fromSchema(entry))
	}

	return runs, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.runsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read runs file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode runs file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.runsPath), runsDirMode); err != nil {
		return fmt.Errorf("create runs directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode runs file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.runsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp runs file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp runs file: %w", err)
	}

	if err := tempFile.Chmod(runsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp runs file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp runs file: %w", err)
	}

	if err := os.Rename(tempName, r.runsPath); err != nil {
		return fmt.Errorf("replace runs file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.runsPath, runsFileMode); err != nil {
		return fmt.Errorf("chmod runs file: %w", err)
	}

	return nil
}

func defaultConfigDir() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, defaultDirName), nil
}

func normalizeRunsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve runs path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(report domain.RunReport) runSchema {
	attempts := make([]attemptSchema, 0, len(report.Attempts))
	for _, attempt := range report.Attempts {
		queries := make([]querySchema, 0, len(attempt.Queries))
		for _, q := range attempt.Queries {
			queries = append(queries, querySchema{Query: q.Query, Outcome: string(q.Outcome)})
		}
		attempts = append(attempts, attemptSchema{
			Number:     attempt.Number,
			Terminal:   string(attempt.Terminal),
			StartedAt:  formatTime(attempt.StartedAt),
			FinishedAt: formatTime(attempt.FinishedAt),
			Queries:    queries,
		})
	}

	return runSchema{
		ID:         report.ID,
		Profile:    report.Profile,
		WorkingDir: report.WorkingDir,
		Policy:     string(report.Policy),
		Final:      string(report.Final),
		StartedAt:  formatTime(report.StartedAt),
		FinishedAt: formatTime(report.FinishedAt),
		Attempts:   attempts,
	}
}

func fromSchema(entry runSchema) domain.RunReport {
	var attempts []domain.AttemptReport
	for _, attempt := range entry.Attempts {
		var queries []domain.QueryResult
		for _, q := range attempt.Queries {
			queries = append(queries, domain.QueryResult{Query: q.Query, Outcome: domain.QueryOutcome(q.Outcome)})
		}
		attempts = append(attempts, domain.AttemptReport{
			Number:     attempt.Number,
			Terminal:   domain.AttemptOutcome(attempt.Terminal),
			StartedAt:  parseTime(attempt.StartedAt),
			FinishedAt: parseTime(attempt.FinishedAt),
			Queries:    queries,
		})
	}

	return domain.RunReport{
		ID:         entry.ID,
		Profile:    entry.Profile,
		WorkingDir: entry.WorkingDir,
		Policy:     domain.CopyPolicy(entry.Policy),
		Final:      domain.SessionState(entry.Final),
		StartedAt:  parseTime(entry.StartedAt),
		FinishedAt: parseTime(entry.FinishedAt),
		Attempts:   attempts,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
