package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kmoriarty/airprobe/internal/scenario"
)

const timeRounding = time.Millisecond

// RenderReport renders a styled summary of a completed run.
func RenderReport(res *scenario.Result) string {
	s := DefaultStyles()

	var b strings.Builder
	b.WriteString(s.Title.Render("Reset Survival Report"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n", s.Header.Render("Scenario:"), res.Scenario))
	b.WriteString(fmt.Sprintf("%s %s\n", s.Header.Render("Outcome: "), renderOutcome(res.Outcome, s)))
	if res.IDCode != 0 {
		b.WriteString(fmt.Sprintf("%s 0x%08X\n", s.Header.Render("IDCODE:  "), res.IDCode))
	}
	if res.Outcome == scenario.OutcomePassed {
		b.WriteString(fmt.Sprintf("%s 0x%08X\n", s.Header.Render("DHCSR:   "), res.DHCSR))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", s.Header.Render("Duration:"), res.Duration.Round(timeRounding)))

	if res.Err != nil {
		b.WriteString("\n")
		label := "Error:"
		if res.Outcome == scenario.OutcomeAborted {
			label = fmt.Sprintf("Aborted during %s:", res.FailedPhase)
		}
		b.WriteString(s.Fail.Render(label))
		b.WriteString(" " + res.Err.Error() + "\n")
	}

	if len(res.Steps) > 0 {
		b.WriteString("\n")
		b.WriteString(renderSteps(res.Steps, s))
	}

	return s.Box.Render(b.String())
}

func renderOutcome(o scenario.Outcome, s Styles) string {
	switch o {
	case scenario.OutcomePassed:
		return s.Pass.Render(string(o))
	case scenario.OutcomeFailed:
		return s.Fail.Render(string(o))
	default:
		return s.Abort.Render(string(o))
	}
}

func renderSteps(steps []scenario.StepResult, s Styles) string {
	labelWidth := len("Step")
	for _, st := range steps {
		if w := lipgloss.Width(st.Label); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(s.Header.Render(padRight("Step", labelWidth)))
	b.WriteString("  ")
	b.WriteString(s.Header.Render(padRight("Phase", 16)))
	b.WriteString("  ")
	b.WriteString(s.Header.Render("Result"))
	b.WriteString("\n")
	b.WriteString(s.Dim.Render(strings.Repeat("─", labelWidth+16+12)))
	b.WriteString("\n")

	for _, st := range steps {
		b.WriteString(padRight(st.Label, labelWidth))
		b.WriteString("  ")
		b.WriteString(s.Dim.Render(padRight(string(st.Phase), 16)))
		b.WriteString("  ")
		if st.Err != nil {
			b.WriteString(s.Fail.Render("✗ " + st.Err.Error()))
		} else {
			b.WriteString(s.Pass.Render("✓"))
			b.WriteString(s.Dim.Render(fmt.Sprintf(" %s", st.Duration.Round(timeRounding))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func padRight(text string, width int) string {
	if w := lipgloss.Width(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

// PlainReport renders the report without ANSI styling, suitable for
// clipboard export and log files.
func PlainReport(res *scenario.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", res.Scenario)
	fmt.Fprintf(&b, "Outcome:  %s\n", res.Outcome)
	if res.IDCode != 0 {
		fmt.Fprintf(&b, "IDCODE:   0x%08X\n", res.IDCode)
	}
	if res.Outcome == scenario.OutcomePassed {
		fmt.Fprintf(&b, "DHCSR:    0x%08X\n", res.DHCSR)
	}
	fmt.Fprintf(&b, "Duration: %s\n", res.Duration.Round(timeRounding))
	if res.Err != nil {
		fmt.Fprintf(&b, "Error:    %v\n", res.Err)
	}
	for _, st := range res.Steps {
		status := "ok"
		if st.Err != nil {
			status = "FAILED: " + st.Err.Error()
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", st.Phase, st.Label, status)
	}
	return b.String()
}
