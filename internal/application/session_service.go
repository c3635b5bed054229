package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

// SessionConfig carries the tunables of a search session. Zero values fall
// back to the documented defaults.
type SessionConfig struct {
	SearchURL      string
	BoxSelector    string
	SignInSelector string
	Launch         ports.LaunchOptions

	MaxAttempts        int
	NavRetries         int
	NavTimeout         time.Duration
	WaitVisibleTimeout time.Duration
	NetworkIdleTimeout time.Duration
	SettleDelay        time.Duration
	RestartBackoff     time.Duration

	VerifyLogin bool
	LoginWait   time.Duration

	HumanizedTyping bool
	MinKeyDelay     time.Duration
	MaxKeyDelay     time.Duration
	PreSubmitMin    time.Duration
	PreSubmitMax    time.Duration
	BetweenMin      time.Duration
	BetweenMax      time.Duration
}

func (c *SessionConfig) applyDefaults() {
	if c.SearchURL == "" {
		c.SearchURL = "https://www.bing.com"
	}
	if c.BoxSelector == "" {
		c.BoxSelector = "#sb_form_q"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.NavRetries <= 0 {
		c.NavRetries = 3
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.WaitVisibleTimeout <= 0 {
		c.WaitVisibleTimeout = 10 * time.Second
	}
	if c.NetworkIdleTimeout <= 0 {
		c.NetworkIdleTimeout = 30 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 3 * time.Second
	}
	if c.RestartBackoff <= 0 {
		c.RestartBackoff = 5 * time.Second
	}
	if c.LoginWait <= 0 {
		c.LoginWait = 60 * time.Second
	}
	if c.MinKeyDelay <= 0 {
		c.MinKeyDelay = 20 * time.Millisecond
	}
	if c.MaxKeyDelay <= 0 {
		c.MaxKeyDelay = 80 * time.Millisecond
	}
	if c.PreSubmitMin <= 0 {
		c.PreSubmitMin = 200 * time.Millisecond
	}
	if c.PreSubmitMax <= 0 {
		c.PreSubmitMax = 500 * time.Millisecond
	}
	if c.BetweenMin <= 0 {
		c.BetweenMin = time.Second
	}
	if c.BetweenMax <= 0 {
		c.BetweenMax = 3 * time.Second
	}
}

// SessionService drives search sessions against a working profile. A run
// survives browser deaths by relaunching with a fresh query pool, up to
// MaxAttempts; any other failure aborts it.
type SessionService struct {
	driver   ports.BrowserDriver
	prompter ports.OperatorPrompter
	observer ports.RunObserver
	clock    ports.Clock
	rng      *rand.Rand
	logger   *zap.Logger
	cfg      SessionConfig
}

func NewSessionService(
	driver ports.BrowserDriver,
	prompter ports.OperatorPrompter,
	observer ports.RunObserver,
	clock ports.Clock,
	rng *rand.Rand,
	logger *zap.Logger,
	cfg SessionConfig,
) *SessionService {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	return &SessionService{
		driver:   driver,
		prompter: prompter,
		observer: observer,
		clock:    clock,
		rng:      rng,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run executes cmd and always returns the report, even when the run ends
// in an error.
func (s *SessionService) Run(ctx context.Context, cmd RunSessionCommand) (domain.RunReport, error) {
	report := domain.RunReport{
		ID:         uuid.NewString(),
		Profile:    cmd.Profile.Source.Name,
		WorkingDir: cmd.Profile.Dir,
		Policy:     cmd.Policy,
		StartedAt:  s.clock.Now(),
	}
	s.setState(&report, domain.StateIdle)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		// Every attempt starts over with the full pool. Queries burned by a
		// dead session may repeat; within one attempt they never do.
		cmd.Pool.ResetRemaining()

		attemptReport, err := s.runAttempt(ctx, cmd, attempt, &report)
		report.Attempts = append(report.Attempts, attemptReport)
		s.observer.AttemptFinished(attemptReport)

		switch {
		case err == nil:
			return s.finish(&report, domain.StateCompleted), nil

		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return s.finish(&report, domain.StateAborted), err

		case !errors.Is(err, domain.ErrSessionDeath):
			s.logger.Error("session attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return s.finish(&report, domain.StateAborted), err
		}

		s.logger.Warn("browser session died",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == s.cfg.MaxAttempts {
			return s.finish(&report, domain.StateAborted),
				fmt.Errorf("retry budget exhausted after %d attempts: %w", attempt, err)
		}

		s.setState(&report, domain.StateRestarting)
		if err := s.clock.Sleep(ctx, s.cfg.RestartBackoff); err != nil {
			return s.finish(&report, domain.StateAborted), err
		}
	}

	// MaxAttempts >= 1, so the loop always returns.
	return s.finish(&report, domain.StateAborted), domain.ErrUnexpectedFailure
}

func (s *SessionService) runAttempt(ctx context.Context, cmd RunSessionCommand, number int, report *domain.RunReport) (domain.AttemptReport, error) {
	attempt := domain.AttemptReport{Number: number, StartedAt: s.clock.Now()}
	fail := func(terminal domain.AttemptOutcome, err error) (domain.AttemptReport, error) {
		attempt.Terminal = terminal
		attempt.FinishedAt = s.clock.Now()
		return attempt, err
	}

	s.setState(report, domain.StateLaunching)

	sess, err := s.driver.LaunchPersistent(ctx, cmd.Profile.Dir, s.cfg.Launch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(domain.AttemptFatalFailure, ctxErr)
		}
		// Flattened on purpose: a launch that never produced a usable
		// session is not retried, whatever its cause.
		return fail(domain.AttemptFatalFailure, fmt.Errorf("%w: launch browser: %v", domain.ErrUnexpectedFailure, err))
	}

	page, err := sess.ActivePage()
	if err != nil {
		s.closeSession(sess)
		if errors.Is(err, domain.ErrSessionDeath) {
			return fail(domain.AttemptRetryableFailure, err)
		}
		return fail(domain.AttemptFatalFailure, fmt.Errorf("%w: obtain page: %v", domain.ErrUnexpectedFailure, err))
	}

	s.setState(report, domain.StateRunning)

	if s.cfg.VerifyLogin {
		if err := s.verifyLogin(ctx, page); err != nil {
			s.closeSession(sess)
			if errors.Is(err, domain.ErrSessionDeath) {
				return fail(domain.AttemptRetryableFailure, err)
			}
			return fail(domain.AttemptFatalFailure, err)
		}
	}

	for performed := 0; performed < cmd.SearchCount; performed++ {
		if err := ctx.Err(); err != nil {
			s.closeSession(sess)
			return fail(domain.AttemptFatalFailure, err)
		}

		query, ok := cmd.Pool.DrawRandom(s.rng)
		if !ok {
			s.logger.Info("query pool exhausted",
				zap.Int("performed", performed),
				zap.Int("requested", cmd.SearchCount))
			for ; performed < cmd.SearchCount; performed++ {
				s.recordQuery(&attempt, domain.QueryResult{Outcome: domain.QuerySkippedNoMore})
			}
			break
		}
		query = domain.TrimQueryTail(query)

		outcome, err := s.performSearch(ctx, page, query)
		if err != nil {
			s.closeSession(sess)
			switch {
			case errors.Is(err, domain.ErrSessionDeath):
				return fail(domain.AttemptRetryableFailure, err)
			case isCtxErr(err):
				return fail(domain.AttemptFatalFailure, err)
			default:
				if !errors.Is(err, domain.ErrUnexpectedFailure) {
					err = fmt.Errorf("%w: %v", domain.ErrUnexpectedFailure, err)
				}
				return fail(domain.AttemptFatalFailure, err)
			}
		}
		s.recordQuery(&attempt, domain.QueryResult{Query: query, Outcome: outcome})

		if performed+1 < cmd.SearchCount {
			pause := randBetween(s.rng, s.cfg.BetweenMin, s.cfg.BetweenMax)
			if err := s.clock.Sleep(ctx, pause); err != nil {
				s.closeSession(sess)
				return fail(domain.AttemptFatalFailure, err)
			}
		}
	}

	s.closeSession(sess)
	attempt.Terminal = domain.AttemptCompleted
	attempt.FinishedAt = s.clock.Now()
	return attempt, nil
}

// verifyLogin looks for the sign-in button; a visible button means nobody
// is signed in, so the operator gets a bounded window to log in. The session
// proceeds either way; only a dead browser or a cancelled run stop it.
func (s *SessionService) verifyLogin(ctx context.Context, page ports.BrowserPage) error {
	if s.cfg.SignInSelector == "" {
		return nil
	}

	if err := s.navigate(ctx, page); err != nil {
		if errors.Is(err, domain.ErrSessionDeath) || isCtxErr(err) {
			return err
		}
		s.logger.Warn("login check navigation failed", zap.Error(err))
		return nil
	}

	visible, err := page.IsVisible(s.cfg.SignInSelector)
	if err != nil {
		if errors.Is(err, domain.ErrSessionDeath) || isCtxErr(err) {
			return err
		}
		s.logger.Warn("sign-in check failed, assuming signed in", zap.Error(err))
		return nil
	}
	if !visible {
		s.logger.Debug("no sign-in button, account already signed in")
		return nil
	}

	s.logger.Warn("sign-in button visible, no account signed in")

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LoginWait)
	defer cancel()
	if err := s.prompter.Confirm(waitCtx, "Sign in to the browser, then press Enter"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("login wait elapsed, continuing", zap.Error(err))
	}

	return nil
}

// performSearch runs one query end to end. Navigation and interaction
// failures are absorbed into the outcome; everything else, session death
// included, comes back as an error.
func (s *SessionService) performSearch(ctx context.Context, page ports.BrowserPage, query string) (domain.QueryOutcome, error) {
	if err := s.navigate(ctx, page); err != nil {
		if errors.Is(err, domain.ErrNavigationFailure) {
			s.logger.Warn("navigation failed, skipping query",
				zap.String("query", query),
				zap.Error(err))
			return domain.QueryFailedNavigation, nil
		}
		return "", err
	}

	if err := s.interact(ctx, page, query); err != nil {
		if errors.Is(err, domain.ErrInteractionFailure) {
			s.logger.Warn("interaction failed, skipping query",
				zap.String("query", query),
				zap.Error(err))
			return domain.QueryFailedInteraction, nil
		}
		return "", err
	}

	return domain.QuerySuccess, nil
}

func (s *SessionService) navigate(ctx context.Context, page ports.BrowserPage) error {
	var lastErr error
	for try := 1; try <= s.cfg.NavRetries; try++ {
		err := page.Navigate(s.cfg.SearchURL, s.cfg.NavTimeout)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrSessionDeath) || !errors.Is(err, domain.ErrNavigationFailure) {
			return err
		}

		lastErr = err
		s.logger.Debug("navigation retry",
			zap.Int("try", try),
			zap.Int("budget", s.cfg.NavRetries),
			zap.Error(err))

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return lastErr
}

func (s *SessionService) interact(ctx context.Context, page ports.BrowserPage, query string) error {
	if err := page.WaitVisible(s.cfg.BoxSelector, s.cfg.WaitVisibleTimeout); err != nil {
		return err
	}
	if err := page.Fill(s.cfg.BoxSelector, ""); err != nil {
		return err
	}

	if s.cfg.HumanizedTyping {
		if err := page.TypeSequentially(s.cfg.BoxSelector, query, s.cfg.MinKeyDelay, s.cfg.MaxKeyDelay); err != nil {
			return err
		}
	} else {
		if err := page.Fill(s.cfg.BoxSelector, query); err != nil {
			return err
		}
	}

	if err := s.clock.Sleep(ctx, randBetween(s.rng, s.cfg.PreSubmitMin, s.cfg.PreSubmitMax)); err != nil {
		return err
	}
	if err := page.PressEnter(s.cfg.BoxSelector); err != nil {
		return err
	}
	if err := page.WaitNetworkIdle(s.cfg.NetworkIdleTimeout); err != nil {
		return err
	}

	// Let result rendering and background beacons finish before the next
	// navigation tears the page down.
	return s.clock.Sleep(ctx, s.cfg.SettleDelay)
}

func (s *SessionService) recordQuery(attempt *domain.AttemptReport, result domain.QueryResult) {
	attempt.Queries = append(attempt.Queries, result)
	s.observer.QueryFinished(result)
}

func (s *SessionService) setState(report *domain.RunReport, state domain.SessionState) {
	report.Final = state
	s.observer.StateChanged(state)
	s.logger.Debug("session state", zap.String("state", string(state)))
}

func (s *SessionService) finish(report *domain.RunReport, state domain.SessionState) domain.RunReport {
	s.setState(report, state)
	report.FinishedAt = s.clock.Now()
	return *report
}

func (s *SessionService) closeSession(sess ports.BrowserSession) {
	if err := sess.Close(); err != nil {
		s.logger.Warn("close browser session", zap.Error(err))
	}
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func randBetween(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}

	return min + time.Duration(rng.Int63n(int64(max-min)))
}
