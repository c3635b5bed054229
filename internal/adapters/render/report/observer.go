package report

import (
	"fmt"
	"io"

	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

// ConsoleObserver narrates session progress to out as it happens. The
// styled report is rendered separately once the run finishes.
type ConsoleObserver struct {
	out    io.Writer
	styles styles
}

var _ ports.RunObserver = (*ConsoleObserver)(nil)

func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out, styles: newStyles()}
}

func (o *ConsoleObserver) StateChanged(state domain.SessionState) {
	var line string
	switch state {
	case domain.StateLaunching:
		line = o.styles.faint.Render("launching browser")
	case domain.StateRestarting:
		line = o.styles.warning.Render("browser died, restarting")
	case domain.StateCompleted:
		line = o.styles.success.Render("run completed")
	case domain.StateAborted:
		line = o.styles.failure.Render("run aborted")
	default:
		return
	}

	fmt.Fprintln(o.out, line)
}

func (o *ConsoleObserver) QueryFinished(result domain.QueryResult) {
	label := outcomeStyle(result.Outcome, o.styles).Render(result.Outcome.Label())
	text := result.Query
	if text == "" {
		text = "(pool exhausted)"
	}

	fmt.Fprintf(o.out, "%s  %s\n", label, o.styles.value.Render(text))
}

func (o *ConsoleObserver) AttemptFinished(report domain.AttemptReport) {
	if report.Terminal != domain.AttemptCompleted {
		return
	}

	ok := report.CountByOutcome(domain.QuerySuccess)
	line := fmt.Sprintf("attempt %d finished: %d of %d ok", report.Number, ok, len(report.Queries))
	fmt.Fprintln(o.out, o.styles.faint.Render(line))
}
