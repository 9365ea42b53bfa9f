package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmoriarty/airprobe/internal/config"
	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/scenario"
)

// stepMsg carries one completed step from the scenario goroutine.
type stepMsg struct {
	step scenario.StepResult
}

// runDoneMsg is sent when the scenario run returns.
type runDoneMsg struct {
	result *scenario.Result
	err    error
}

// clipboardMsg is sent after a clipboard copy attempt.
type clipboardMsg struct {
	err error
}

// RunModel is a bubbletea model that executes one scenario and shows
// step progress live, then the final report.
type RunModel struct {
	def    config.ScenarioDef
	params scenario.Params
	client probe.Client

	msgs   chan tea.Msg
	cancel context.CancelFunc

	steps   []scenario.StepResult
	result  *scenario.Result
	runErr  error
	done    bool
	copied  bool
	copyErr error

	styles Styles
}

// NewRunModel builds a run view for the given scenario definition.
func NewRunModel(client probe.Client, def config.ScenarioDef, params scenario.Params) *RunModel {
	m := &RunModel{
		def:    def,
		params: params,
		client: client,
		msgs:   make(chan tea.Msg, 16),
		styles: DefaultStyles(),
	}
	m.params.OnStep = func(s scenario.StepResult) {
		m.msgs <- stepMsg{step: s}
	}
	return m
}

// Init starts the scenario goroutine.
func (m *RunModel) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go func() {
		res, err := scenario.Run(ctx, m.client, m.def, m.params)
		m.msgs <- runDoneMsg{result: res, err: err}
	}()
	return m.waitForMsg()
}

// waitForMsg relays the next message from the scenario goroutine.
func (m *RunModel) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

// Update handles bubbletea messages.
func (m *RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.steps = append(m.steps, msg.step)
		return m, m.waitForMsg()

	case runDoneMsg:
		m.result = msg.result
		m.runErr = msg.err
		m.done = true
		return m, nil

	case clipboardMsg:
		m.copied = msg.err == nil
		m.copyErr = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "c":
			if m.done && m.result != nil {
				text := PlainReport(m.result)
				return m, func() tea.Msg {
					return clipboardMsg{err: clipboard.WriteAll(text)}
				}
			}
		}
	}
	return m, nil
}

// View renders the current run state.
func (m *RunModel) View() string {
	var b strings.Builder

	if !m.done {
		b.WriteString(m.styles.Title.Render(fmt.Sprintf("Running %q", m.def.Name)))
		b.WriteString("\n\n")
		for _, s := range m.steps {
			if s.Err != nil {
				b.WriteString(m.styles.Fail.Render("✗ "))
			} else {
				b.WriteString(m.styles.Pass.Render("✓ "))
			}
			b.WriteString(s.Label)
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Running.Render("…"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Dim.Render("q to cancel"))
		return b.String()
	}

	if m.result != nil {
		b.WriteString(RenderReport(m.result))
	} else if m.runErr != nil {
		b.WriteString(m.styles.Fail.Render("run failed: " + m.runErr.Error()))
	}
	b.WriteString("\n")
	if m.copied {
		b.WriteString(m.styles.Pass.Render("report copied to clipboard"))
		b.WriteString("\n")
	} else if m.copyErr != nil {
		b.WriteString(m.styles.Fail.Render("clipboard: " + m.copyErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Dim.Render("c to copy report · q to quit"))
	return b.String()
}

// RunInteractive runs the scenario under the bubbletea program and
// returns the result once the user quits the view.
func RunInteractive(client probe.Client, def config.ScenarioDef, params scenario.Params) (*scenario.Result, error) {
	model := NewRunModel(client, def, params)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return nil, fmt.Errorf("run view: %w", err)
	}
	if model.result == nil && model.runErr == nil {
		return nil, fmt.Errorf("run cancelled")
	}
	return model.result, model.runErr
}
