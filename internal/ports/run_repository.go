package ports

import (
	"context"

	"github.com/kverel/edge-search-cli/internal/domain"
)

type RunRepository interface {
	Save(ctx context.Context, report domain.RunReport) error
	// List returns persisted runs, most recent first.
	List(ctx context.Context) ([]domain.RunReport, error)
}
