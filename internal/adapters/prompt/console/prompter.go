// Package console implements the operator prompt surface on stdin/stdout.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/kverel/edge-search-cli/internal/ports"
)

type Prompter struct {
	in    io.Reader
	out   io.Writer
	lines chan string
	once  sync.Once
}

var _ ports.OperatorPrompter = (*Prompter)(nil)

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, lines: make(chan string)}
}

// Ask prints prompt and waits for one input line. Reads happen on a single
// long-lived goroutine so a context cancellation interrupts the wait even
// while the reader blocks.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	p.once.Do(func() { go p.readLoop() })

	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (p *Prompter) Confirm(ctx context.Context, msg string) error {
	_, err := p.Ask(ctx, msg)
	return err
}

// Reveal opens path in the platform file manager without waiting for it.
func (p *Prompter) Reveal(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open file manager: %w", err)
	}
	go func() { _ = cmd.Wait() }()

	return nil
}

func (p *Prompter) readLoop() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
	close(p.lines)
}
