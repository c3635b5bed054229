package ports

import "github.com/kverel/edge-search-cli/internal/domain"

// RunObserver consumes session driver events. Implementations must be cheap:
// the driver calls them inline from its control loop.
type RunObserver interface {
	StateChanged(state domain.SessionState)
	QueryFinished(result domain.QueryResult)
	AttemptFinished(attempt domain.AttemptReport)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) StateChanged(domain.SessionState)     {}
func (NopObserver) QueryFinished(domain.QueryResult)     {}
func (NopObserver) AttemptFinished(domain.AttemptReport) {}
