package domain

import "time"

type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateLaunching  SessionState = "launching"
	StateRunning    SessionState = "running"
	StateRestarting SessionState = "restarting"
	StateCompleted  SessionState = "completed"
	StateAborted    SessionState = "aborted"
)

type QueryOutcome string

const (
	QuerySuccess           QueryOutcome = "success"
	QuerySkippedNoMore     QueryOutcome = "skipped_no_more_queries"
	QueryFailedNavigation  QueryOutcome = "failed_navigation"
	QueryFailedInteraction QueryOutcome = "failed_interaction"
)

func (o QueryOutcome) Label() string {
	switch o {
	case QuerySuccess:
		return "ok"
	case QuerySkippedNoMore:
		return "skipped"
	case QueryFailedNavigation:
		return "nav failed"
	case QueryFailedInteraction:
		return "interaction failed"
	default:
		return string(o)
	}
}

type AttemptOutcome string

const (
	AttemptCompleted        AttemptOutcome = "completed"
	AttemptRetryableFailure AttemptOutcome = "retryable_failure"
	AttemptFatalFailure     AttemptOutcome = "fatal_failure"
)

type QueryResult struct {
	Query   string
	Outcome QueryOutcome
}

// AttemptReport records one launch-run-or-fail cycle of the session driver.
type AttemptReport struct {
	Number     int
	Queries    []QueryResult
	Terminal   AttemptOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

func (a AttemptReport) CountByOutcome(outcome QueryOutcome) int {
	n := 0
	for _, q := range a.Queries {
		if q.Outcome == outcome {
			n++
		}
	}

	return n
}

// RunReport aggregates all attempts of a single run; the last attempt's
// outcome determines Final.
type RunReport struct {
	ID         string
	Profile    string
	WorkingDir string
	Policy     CopyPolicy
	Attempts   []AttemptReport
	Final      SessionState
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r RunReport) TotalByOutcome(outcome QueryOutcome) int {
	n := 0
	for _, attempt := range r.Attempts {
		n += attempt.CountByOutcome(outcome)
	}

	return n
}

func (r RunReport) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}
