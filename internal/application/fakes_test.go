package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

var (
	_ ports.BrowserDriver     = (*fakeDriver)(nil)
	_ ports.BrowserSession    = (*fakeSession)(nil)
	_ ports.BrowserPage       = (*fakePage)(nil)
	_ ports.OperatorPrompter  = (*fakePrompter)(nil)
	_ ports.ProfileCopier     = (*fakeCopier)(nil)
	_ ports.LockInspector     = (*fakeInspector)(nil)
	_ ports.ProcessTerminator = (*fakeTerminator)(nil)
	_ ports.Clock             = (*fakeClock)(nil)
	_ ports.RunObserver       = (*fakeObserver)(nil)
)

// fakeDriver hands out scripted sessions in launch order. A position with a
// non-nil error fails that launch; past the end of the script the last
// session repeats.
type fakeDriver struct {
	sessions []ports.BrowserSession
	errs     []error
	launches []string
}

func (d *fakeDriver) LaunchPersistent(_ context.Context, userDataDir string, _ ports.LaunchOptions) (ports.BrowserSession, error) {
	i := len(d.launches)
	d.launches = append(d.launches, userDataDir)

	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i < len(d.sessions) {
		return d.sessions[i], nil
	}
	if len(d.sessions) > 0 {
		return d.sessions[len(d.sessions)-1], nil
	}

	return nil, errors.New("no session scripted")
}

type fakeSession struct {
	page      *fakePage
	activeErr error
	closed    int
}

func (s *fakeSession) ActivePage() (ports.BrowserPage, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}

	return s.page, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

// fakePage records every call and pops errors from per-method queues; an
// exhausted queue means success. IsVisible pops results from visible, an
// exhausted queue reporting false.
type fakePage struct {
	calls   []string
	typed   []string
	visible []bool
	errs    map[string][]error
	onCall  func(method string)
}

func (p *fakePage) step(method string) error {
	p.calls = append(p.calls, method)
	if p.onCall != nil {
		p.onCall(method)
	}

	queue := p.errs[method]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	p.errs[method] = queue[1:]
	return err
}

func (p *fakePage) count(method string) int {
	n := 0
	for _, call := range p.calls {
		if call == method {
			n++
		}
	}
	return n
}

func (p *fakePage) Navigate(string, time.Duration) error { return p.step("navigate") }

func (p *fakePage) WaitVisible(string, time.Duration) error { return p.step("wait_visible") }

func (p *fakePage) IsVisible(string) (bool, error) {
	if err := p.step("is_visible"); err != nil {
		return false, err
	}
	if len(p.visible) == 0 {
		return false, nil
	}
	v := p.visible[0]
	p.visible = p.visible[1:]
	return v, nil
}

func (p *fakePage) Fill(_, text string) error {
	if text != "" {
		p.typed = append(p.typed, text)
	}
	return p.step("fill")
}

func (p *fakePage) TypeSequentially(_, text string, _, _ time.Duration) error {
	p.typed = append(p.typed, text)
	return p.step("type")
}

func (p *fakePage) PressEnter(string) error { return p.step("press_enter") }

func (p *fakePage) WaitNetworkIdle(time.Duration) error { return p.step("network_idle") }

type fakePrompter struct {
	confirms  []string
	answers   []string
	revealed  []string
	confirmFn func(msg string) error
}

func (p *fakePrompter) Confirm(ctx context.Context, msg string) error {
	p.confirms = append(p.confirms, msg)
	if p.confirmFn != nil {
		return p.confirmFn(msg)
	}

	return ctx.Err()
}

func (p *fakePrompter) Ask(_ context.Context, _ string) (string, error) {
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *fakePrompter) Reveal(path string) error {
	p.revealed = append(p.revealed, path)
	return nil
}

type copyResult struct {
	copied int
	err    error
}

type fakeCopier struct {
	script []copyResult
	srcs   []string
	dsts   []string
}

func (c *fakeCopier) CopyTree(_ context.Context, src, dst string) (int, error) {
	i := len(c.dsts)
	c.srcs = append(c.srcs, src)
	c.dsts = append(c.dsts, dst)

	if i < len(c.script) {
		return c.script[i].copied, c.script[i].err
	}

	return 0, nil
}

type fakeInspector struct {
	handles []ports.ProcessHandle
	err     error
	paths   []string
}

func (f *fakeInspector) OpenHandles(_ context.Context, path string) ([]ports.ProcessHandle, error) {
	f.paths = append(f.paths, path)
	return f.handles, f.err
}

type fakeTerminator struct {
	terminated []int32
	failPID    int32
	failErr    error
	found      []ports.ProcessHandle
	results    []ports.TerminationResult
}

func (f *fakeTerminator) Terminate(_ context.Context, pid int32) error {
	if f.failErr != nil && pid == f.failPID {
		return f.failErr
	}
	f.terminated = append(f.terminated, pid)
	return nil
}

func (f *fakeTerminator) FindByName(context.Context, []string) ([]ports.ProcessHandle, error) {
	return f.found, nil
}

func (f *fakeTerminator) TerminateByName(context.Context, []string) ([]ports.TerminationResult, error) {
	return f.results, nil
}

// fakeClock records sleeps instead of blocking. Cancellation still wins.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	return nil
}

type fakeObserver struct {
	states   []domain.SessionState
	queries  []domain.QueryResult
	attempts []domain.AttemptReport
}

func (o *fakeObserver) StateChanged(state domain.SessionState) {
	o.states = append(o.states, state)
}

func (o *fakeObserver) QueryFinished(result domain.QueryResult) {
	o.queries = append(o.queries, result)
}

func (o *fakeObserver) AttemptFinished(report domain.AttemptReport) {
	o.attempts = append(o.attempts, report)
}
