package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kverel/edge-search-cli/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

// duplicateSampleLimit caps how many duplicated queries are spelled out
// before the list is elided.
const duplicateSampleLimit = 5

func renderRun(r domain.RunReport, _ RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Search Session Report"),
		s.header.Render(fmt.Sprintf("run %s | profile %s | policy %s", shortID(r.ID), r.Profile, r.Policy)),
		summaryLine(r, s),
		searchTotalsLine(r, s),
	}

	for _, attempt := range r.Attempts {
		lines = append(lines, s.section.Render(renderAttempt(attempt, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func summaryLine(r domain.RunReport, s styles) string {
	state := s.success.Render(string(r.Final))
	if r.Final != domain.StateCompleted {
		state = s.failure.Render(string(r.Final))
	}

	meta := fmt.Sprintf("in %s over %d %s",
		formatDuration(r.Duration()),
		len(r.Attempts),
		plural(len(r.Attempts), "attempt", "attempts"))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("outcome:"),
		" ",
		state,
		" ",
		s.faint.Render(meta),
	)
}

func searchTotalsLine(r domain.RunReport, s styles) string {
	ok := r.TotalByOutcome(domain.QuerySuccess)
	total := 0
	for _, attempt := range r.Attempts {
		total += len(attempt.Queries)
	}
	if total == 0 {
		return s.empty.Render("no searches were performed")
	}

	bar := renderProgressBar(float64(ok)/float64(total), 24, s)
	meta := []string{fmt.Sprintf("%d/%d ok", ok, total)}
	if n := r.TotalByOutcome(domain.QuerySkippedNoMore); n > 0 {
		meta = append(meta, fmt.Sprintf("%d skipped", n))
	}
	if n := r.TotalByOutcome(domain.QueryFailedNavigation); n > 0 {
		meta = append(meta, fmt.Sprintf("%d nav failed", n))
	}
	if n := r.TotalByOutcome(domain.QueryFailedInteraction); n > 0 {
		meta = append(meta, fmt.Sprintf("%d interaction failed", n))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("searches:"),
		" ",
		bar,
		" ",
		s.value.Render(strings.Join(meta, ", ")),
	)
}

func renderAttempt(attempt domain.AttemptReport, s styles) string {
	header := fmt.Sprintf("attempt %d", attempt.Number)
	switch attempt.Terminal {
	case domain.AttemptCompleted:
		header += " " + s.success.Render("(completed)")
	case domain.AttemptRetryableFailure:
		header += " " + s.warning.Render("(browser died)")
	case domain.AttemptFatalFailure:
		header += " " + s.failure.Render("(fatal)")
	}

	parts := []string{s.value.Render(header)}
	for _, q := range attempt.Queries {
		label := outcomeStyle(q.Outcome, s).Render(fmt.Sprintf("%-18s", q.Outcome.Label()))
		text := q.Query
		if text == "" {
			text = "-"
		}
		parts = append(parts, "  "+label+" "+s.faint.Render(text))
	}
	if len(attempt.Queries) == 0 {
		parts = append(parts, s.empty.Render("  no queries reached"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderHistory(runs []domain.RunReport, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Run History"),
		s.header.Render(fmt.Sprintf("runs: %d", len(runs))),
	}

	if len(runs) == 0 {
		lines = append(lines, s.empty.Render("No runs recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, r := range runs {
		lines = append(lines, historyLine(r, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func historyLine(r domain.RunReport, opts RenderOptions, s styles) string {
	ok := r.TotalByOutcome(domain.QuerySuccess)
	total := 0
	for _, attempt := range r.Attempts {
		total += len(attempt.Queries)
	}

	state := s.success.Render(fmt.Sprintf("%-9s", r.Final))
	if r.Final != domain.StateCompleted {
		state = s.failure.Render(fmt.Sprintf("%-9s", r.Final))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.faint.Render(shortID(r.ID)),
		"  ",
		s.value.Render(fmt.Sprintf("%-14s", r.Profile)),
		" ",
		state,
		" ",
		s.value.Render(fmt.Sprintf("%3d/%-3d ok", ok, total)),
		"  ",
		s.faint.Render(relativeTime(r.StartedAt, opts.Now)),
	)
}

func renderProfiles(candidates []domain.ProfileDescriptor, s styles) string {
	lines := []string{s.title.Render("Edge Profiles")}

	if len(candidates) == 0 {
		lines = append(lines, s.empty.Render("No profiles found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.header.Render(fmt.Sprintf("root: %s", candidates[0].RootDir)))
	for i, candidate := range candidates {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.faint.Render(fmt.Sprintf("%3d. ", i+1)),
			s.value.Render(candidate.Name),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderQueries(pool *domain.QueryPool, s styles) string {
	lines := []string{
		s.title.Render("Query Pool"),
		s.header.Render(fmt.Sprintf("%d unique of %d total", len(pool.Unique), len(pool.All))),
	}

	if len(pool.Unique) == 0 {
		lines = append(lines, s.empty.Render("No queries loaded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	if len(pool.Duplicates) > 0 {
		lines = append(lines, s.section.Render(renderDuplicates(pool.Duplicates, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDuplicates(duplicates map[string]int, s styles) string {
	queries := make([]string, 0, len(duplicates))
	for query := range duplicates {
		queries = append(queries, query)
	}
	sort.Strings(queries)

	title := fmt.Sprintf("%d %s appear more than once; extra copies are ignored",
		len(queries), plural(len(queries), "query", "queries"))
	parts := []string{s.warning.Render(title)}

	shown := queries
	if len(shown) > duplicateSampleLimit {
		shown = shown[:duplicateSampleLimit]
	}
	for _, query := range shown {
		parts = append(parts, s.faint.Render(fmt.Sprintf("  %q seen %d times", query, duplicates[query])))
	}
	if hidden := len(queries) - len(shown); hidden > 0 {
		parts = append(parts, s.faint.Render(fmt.Sprintf("  and %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func outcomeStyle(outcome domain.QueryOutcome, s styles) lipgloss.Style {
	switch outcome {
	case domain.QuerySuccess:
		return s.success
	case domain.QuerySkippedNoMore:
		return s.faint
	default:
		return s.warning
	}
}

func renderProgressBar(fraction float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(math.Round(float64(width) * fraction))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if now.IsZero() || t.After(now) {
		return t.Format("15:04 on 02 Jan")
	}

	elapsed := now.Sub(t)
	switch {
	case elapsed < 2*time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}

	return d.Round(time.Second).String()
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}

	return pluralForm
}
