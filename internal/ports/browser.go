package ports

import (
	"context"
	"time"
)

// LaunchOptions describes how the persistent browser session is started.
type LaunchOptions struct {
	Channel  string
	Headless bool
	Args     []string
}

// BrowserDriver is the single point of browser-process creation.
type BrowserDriver interface {
	LaunchPersistent(ctx context.Context, userDataDir string, opts LaunchOptions) (BrowserSession, error)
}

type BrowserSession interface {
	// ActivePage returns the first open page, creating one if none exists.
	ActivePage() (BrowserPage, error)
	Close() error
}

// BrowserPage is the capability surface the session driver consumes.
// Implementations classify failures into the domain error kinds: a dead
// target wraps domain.ErrSessionDeath, a failed navigation wraps
// domain.ErrNavigationFailure, element failures wrap
// domain.ErrInteractionFailure.
type BrowserPage interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	// IsVisible reports whether selector currently resolves to a visible
	// element, without waiting for it to appear.
	IsVisible(selector string) (bool, error)
	Fill(selector, text string) error
	TypeSequentially(selector, text string, minKeyDelay, maxKeyDelay time.Duration) error
	PressEnter(selector string) error
	WaitNetworkIdle(timeout time.Duration) error
}
