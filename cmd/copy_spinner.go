package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type acquireDoneMsg struct {
	err error
}

type acquireSpinnerModel struct {
	spinner spinner.Model
	label   string
	acquire tea.Cmd
	err     error
	done    bool
}

func newAcquireSpinnerModel(label string, acquire tea.Cmd) acquireSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return acquireSpinnerModel{
		spinner: s,
		label:   label,
		acquire: acquire,
	}
}

func (m acquireSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.acquire)
}

func (m acquireSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case acquireDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m acquireSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runAcquireSpinner shows a spinner on output while op runs. Operator prompts
// issued by op land on stdout and stay readable next to the spinner line.
func runAcquireSpinner(ctx context.Context, output io.Writer, label string, op func(context.Context) error) error {
	acquireCmd := func() tea.Msg {
		return acquireDoneMsg{err: op(ctx)}
	}

	p := tea.NewProgram(
		newAcquireSpinnerModel(label, acquireCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(acquireSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
