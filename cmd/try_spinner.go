package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tryDoneMsg struct {
	err error
}

type trySpinnerModel struct {
	spinner spinner.Model
	label   string
	try   tea.Cmd
	err     error
	done    bool
}

func newTrySpinnerModel(label string, try tea.Cmd) trySpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return trySpinnerModel{
		spinner: s,
		label:   label,
		try:   try,
	}
}

func (m trySpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.try)
}

func (m trySpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tryDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m trySpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runTrySpinner(ctx context.Context, output io.Writer, label string, try func(context.Context) error) error {
	tryCmd := func() tea.Msg {
		return tryDoneMsg{err: try(ctx)}
	}

	p := tea.NewProgram(
		newTrySpinnerModel(label, tryCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(trySpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
