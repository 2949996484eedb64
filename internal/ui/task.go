package ui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/terrawatch/terrawatch/internal/ui/components"
)

// ErrInterrupted is returned by RunTask when the user presses ctrl+c
var ErrInterrupted = errors.New("interrupted")

type taskDoneMsg struct {
	err error
}

// TaskModel shows a spinner while one blocking call runs
type TaskModel struct {
	run     func() error
	spinner *components.Spinner
	done    bool
	err     error
}

// NewTaskModel creates a spinner for run
func NewTaskModel(label string, run func() error) *TaskModel {
	s := components.NewSpinner()
	s.SetLabel(label)
	return &TaskModel{run: run, spinner: s}
}

// Init starts the call and the spinner
func (m *TaskModel) Init() tea.Cmd {
	return tea.Batch(tick(), func() tea.Msg {
		return taskDoneMsg{err: m.run()}
	})
}

// Update handles messages
func (m *TaskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.spinner.Tick()
		return m, tick()
	case taskDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the spinner until the call returns
func (m *TaskModel) View() string {
	if m.done {
		return ""
	}
	theme := GetTheme()
	return m.spinner.Render(theme.Palette()) + "\n"
}

// Err returns the outcome of the call
func (m *TaskModel) Err() error {
	return m.err
}

// RunTask runs fn behind a spinner drawn on out and returns its error
func RunTask(label string, out io.Writer, fn func() error) error {
	model := NewTaskModel(label, fn)
	if _, err := tea.NewProgram(model, tea.WithOutput(out)).Run(); err != nil {
		return err
	}
	return model.Err()
}
