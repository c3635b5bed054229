package playwright

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

type session struct {
	browser pw.BrowserContext
	logger  *zap.Logger
	rng     *rand.Rand
}

var _ ports.BrowserSession = (*session)(nil)

func (s *session) ActivePage() (ports.BrowserPage, error) {
	pages := s.browser.Pages()
	if len(pages) > 0 {
		return &page{page: pages[0], rng: s.rng}, nil
	}

	p, err := s.browser.NewPage()
	if err != nil {
		return nil, classify(err, domain.ErrUnexpectedFailure, "create page")
	}

	return &page{page: p, rng: s.rng}, nil
}

func (s *session) Close() error {
	if err := s.browser.Close(); err != nil && !isTargetClosed(err) {
		return fmt.Errorf("close browser context: %w", err)
	}
	s.logger.Debug("browser session closed")

	return nil
}

type page struct {
	page pw.Page
	rng  *rand.Rand
}

var _ ports.BrowserPage = (*page)(nil)

func (p *page) Navigate(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(millis(timeout)),
	})
	if err != nil {
		return classify(err, domain.ErrNavigationFailure, url)
	}

	return nil
}

func (p *page) WaitVisible(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, pw.PageWaitForSelectorOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(millis(timeout)),
	})
	if err != nil {
		return classify(err, domain.ErrInteractionFailure, selector)
	}

	return nil
}

func (p *page) IsVisible(selector string) (bool, error) {
	visible, err := p.page.Locator(selector).IsVisible()
	if err != nil {
		return false, classify(err, domain.ErrInteractionFailure, selector)
	}

	return visible, nil
}

func (p *page) Fill(selector, text string) error {
	if err := p.page.Fill(selector, text); err != nil {
		return classify(err, domain.ErrInteractionFailure, selector)
	}

	return nil
}

// TypeSequentially types text one character at a time with a randomized
// per-key delay, approximating a human typist.
func (p *page) TypeSequentially(selector, text string, minKeyDelay, maxKeyDelay time.Duration) error {
	if err := p.page.Focus(selector); err != nil {
		return classify(err, domain.ErrInteractionFailure, selector)
	}

	keyboard := p.page.Keyboard()
	for _, r := range text {
		if err := keyboard.Type(string(r)); err != nil {
			return classify(err, domain.ErrInteractionFailure, selector)
		}
		time.Sleep(randDelay(p.rng, minKeyDelay, maxKeyDelay))
	}

	return nil
}

func (p *page) PressEnter(selector string) error {
	if err := p.page.Press(selector, "Enter"); err != nil {
		return classify(err, domain.ErrInteractionFailure, selector)
	}

	return nil
}

func (p *page) WaitNetworkIdle(timeout time.Duration) error {
	err := p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(millis(timeout)),
	})
	if err != nil {
		return classify(err, domain.ErrInteractionFailure, "network idle")
	}

	return nil
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func randDelay(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}

	return min + time.Duration(rng.Int63n(int64(max-min)))
}

// classify maps a driver error onto the domain taxonomy: a dead target is
// always domain.ErrSessionDeath, anything else wraps kind.
func classify(err error, kind error, subject string) error {
	if isTargetClosed(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrSessionDeath, subject, err)
	}

	return fmt.Errorf("%w: %s: %v", kind, subject, err)
}

func isTargetClosed(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, marker := range []string{
		"has been closed",
		"Target closed",
		"Connection closed",
		"browser closed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
