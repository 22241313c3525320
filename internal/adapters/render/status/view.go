package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now      time.Time
	Cooldown time.Duration
}

func renderView(statuses []application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Account Checkpoints"),
		s.header.Render(fmt.Sprintf("accounts: %d  cooldown: %s", len(statuses), formatDuration(opts.Cooldown))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderAccount(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(status application.Status, opts RenderOptions, s styles) string {
	title := s.account.Render(accountTitle(status.Account))
	if status.Account.Disabled {
		title += " " + s.warning.Render("[disabled]")
	}

	parts := []string{
		title,
		s.detail.Render("token: " + status.Account.SessionToken),
	}
	if status.Account.Proxy != "" {
		parts = append(parts, s.detail.Render("proxy: "+status.Account.Proxy))
	}
	parts = append(parts, cooldownLine(status, opts, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func cooldownLine(status application.Status, opts RenderOptions, s styles) string {
	label := s.key.Render("cooldown:")
	if status.LastSuccess.IsZero() {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", s.ready.Render("never run, eligible now"))
	}

	elapsed := cooldownElapsedPercent(status.LastSuccess, opts.Now, opts.Cooldown)
	bar := renderProgressBar(elapsed, 24, s)
	last := s.meta.Render(fmt.Sprintf("last success %s", formatAt(status.LastSuccess, opts.Now)))

	var next string
	if status.Eligible || opts.Now.IsZero() || !status.NextEligibleAt.After(opts.Now) {
		next = s.ready.Render("eligible now")
	} else {
		nextColor := interpolateColor(elapsed, 0, 100)
		next = lipgloss.NewStyle().Foreground(nextColor).Render(formatNextRelative(status.NextEligibleAt, opts.Now))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", next, " ", last)
}

func renderHistory(results []domain.JobResult, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Job History"),
		s.header.Render(fmt.Sprintf("runs: %d", len(results))),
	}

	if len(results) == 0 {
		lines = append(lines, s.empty.Render("No recorded runs."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, result := range results {
		lines = append(lines, historyLine(result, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func historyLine(result domain.JobResult, opts RenderOptions, s styles) string {
	var kind lipgloss.Style
	switch result.Kind {
	case domain.ResultSuccess:
		kind = s.success
	case domain.ResultFailed:
		kind = s.failed
	default:
		kind = s.skipped
	}

	detail := fmt.Sprintf("attempts=%d", result.Attempts)
	if result.Reason != "" {
		detail = result.Reason
	}
	if msg := result.ErrorMessage(); msg != "" {
		detail += ": " + msg
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.meta.Render(formatAt(result.StartedAt, opts.Now)),
		"  ",
		s.account.Render(string(result.AccountID)),
		"  ",
		kind.Render(fmt.Sprintf("%-7s", result.Kind)),
		"  ",
		s.detail.Render(detail),
	)
}

func cooldownElapsedPercent(lastSuccess, now time.Time, cooldown time.Duration) float64 {
	if cooldown <= 0 || now.IsZero() {
		return 100
	}

	return clampPercent(now.Sub(lastSuccess).Seconds() / cooldown.Seconds() * 100)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatAt(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := at.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return at.Format("15:04")
	}

	return at.Format("15:04 on 02 Jan")
}

func formatNextRelative(next, now time.Time) string {
	remaining := next.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("next in %dm (%s)", minutes, formatAt(next, now))
	}

	hours := int(math.Ceil(remaining.Hours()))
	suffix := "hours"
	if hours == 1 {
		suffix = "hour"
	}

	return fmt.Sprintf("next in %d %s (%s)", hours, suffix, formatAt(next, now))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return d.String()
}

func accountTitle(account domain.Account) string {
	name := strings.TrimSpace(account.Name)
	if name == "" || name == string(account.ID) {
		return string(account.ID)
	}
	return fmt.Sprintf("%s (%s)", name, account.ID)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240 (faded) at min, 255 (bright) at max on the ANSI greyscale ramp.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
