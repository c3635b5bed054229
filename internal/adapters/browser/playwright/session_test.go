package playwright

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kverel/edge-search-cli/internal/domain"
)

func TestClassifyTargetClosedAlwaysSessionDeath(t *testing.T) {
	t.Parallel()

	err := classify(errors.New("Target page, context or browser has been closed"),
		domain.ErrNavigationFailure, "https://www.bing.com")

	assert.ErrorIs(t, err, domain.ErrSessionDeath)
	assert.NotErrorIs(t, err, domain.ErrNavigationFailure)
}

func TestClassifyOtherErrorsKeepKind(t *testing.T) {
	t.Parallel()

	navErr := classify(errors.New("net::ERR_NAME_NOT_RESOLVED"), domain.ErrNavigationFailure, "https://x")
	assert.ErrorIs(t, navErr, domain.ErrNavigationFailure)

	interactionErr := classify(errors.New("timeout 10000ms exceeded"), domain.ErrInteractionFailure, "#sb_form_q")
	assert.ErrorIs(t, interactionErr, domain.ErrInteractionFailure)
}

func TestIsTargetClosedMarkers(t *testing.T) {
	t.Parallel()

	assert.True(t, isTargetClosed(errors.New("Target closed")))
	assert.True(t, isTargetClosed(errors.New("context has been closed")))
	assert.False(t, isTargetClosed(errors.New("timeout 5000ms exceeded")))
	assert.False(t, isTargetClosed(nil))
}

func TestRandDelayStaysInRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	min, max := 20*time.Millisecond, 80*time.Millisecond

	for i := 0; i < 100; i++ {
		d := randDelay(rng, min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max)
	}

	assert.Equal(t, min, randDelay(rng, min, min))
}
