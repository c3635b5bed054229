package application

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/domain"
)

// ProfileService enumerates browser profiles on the local machine and
// resolves operator selections against them.
type ProfileService struct {
	logger *zap.Logger
}

func NewProfileService(logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProfileService{logger: logger}
}

// ListCandidates returns the selectable profile directories under root,
// in directory order.
func (s *ProfileService) ListCandidates(root string) ([]domain.ProfileDescriptor, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProfileRootNotFound, root)
		}
		return nil, fmt.Errorf("read profile root: %w", err)
	}

	var candidates []domain.ProfileDescriptor
	for _, entry := range entries {
		if !entry.IsDir() || !domain.IsCandidateProfile(entry.Name()) {
			continue
		}
		candidates = append(candidates, domain.ProfileDescriptor{
			RootDir: root,
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
		})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoProfiles, root)
	}

	s.logger.Debug("profiles enumerated",
		zap.String("root", root),
		zap.Int("count", len(candidates)))

	return candidates, nil
}

// SelectByIndex resolves a 1-based operator selection. Blank input picks
// the first candidate.
func (s *ProfileService) SelectByIndex(candidates []domain.ProfileDescriptor, input string) (domain.ProfileDescriptor, error) {
	index := 1
	if trimmed := strings.TrimSpace(input); trimmed != "" {
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return domain.ProfileDescriptor{}, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidSelection, trimmed)
		}
		index = parsed
	}

	if index < 1 || index > len(candidates) {
		return domain.ProfileDescriptor{}, fmt.Errorf("%w: %d is outside 1..%d", domain.ErrInvalidSelection, index, len(candidates))
	}

	return candidates[index-1], nil
}
