// Package tui renders pipeline progress for interactive runs. CI runs
// bypass it entirely.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#5D5FEF")
	subtleColor  = lipgloss.Color("#626262")
	successColor = lipgloss.Color("#04B575")
	warnColor    = lipgloss.Color("#D9A404")
	errorColor   = lipgloss.Color("#FF4D4D")

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	activeStepStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	doneStepStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStepStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	closedStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)
)

// StatusMsg is a progress update from a running pipeline step.
type StatusMsg struct {
	Step    string
	Status  string // "started", "success", "error", "skipped"
	Message string
}

// DoneMsg carries the terminal outcome once the pipeline has finished.
type DoneMsg struct {
	Outcome string // "approved", "skipped", "closed", "failed"
	Reason  string
}

// Model drives the interactive progress view.
type Model struct {
	spinner  spinner.Model
	steps    []string
	current  int
	status   map[string]string
	logs     []string
	outcome  string
	reason   string
	quitting bool
	updates  <-chan StatusMsg
	done     <-chan DoneMsg
}

// NewModel creates a model that tracks the given step names, consuming
// progress from updates and the terminal outcome from done.
func NewModel(steps []string, updates <-chan StatusMsg, done <-chan DoneMsg) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		spinner: s,
		steps:   steps,
		status:  make(map[string]string),
		updates: updates,
		done:    done,
	}
}

// Init starts the spinner and the pipeline listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForActivity(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.status[msg.Step] = msg.Status
		if msg.Message != "" {
			m.logs = append(m.logs, fmt.Sprintf("[%s] %s: %s",
				time.Now().Format("15:04:05"), msg.Step, msg.Message))
		}
		for i, s := range m.steps {
			if s == msg.Step {
				m.current = i
				break
			}
		}
		return m, m.waitForActivity()

	case DoneMsg:
		m.outcome = msg.Outcome
		m.reason = msg.Reason
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-m.updates:
			if !ok {
				return m.waitForDone()
			}
			return msg
		case msg := <-m.done:
			return msg
		case <-time.After(2 * time.Minute):
			return DoneMsg{Outcome: "failed", Reason: "timed out waiting for pipeline activity"}
		}
	}
}

func (m Model) waitForDone() tea.Msg {
	select {
	case msg := <-m.done:
		return msg
	case <-time.After(2 * time.Minute):
		return DoneMsg{Outcome: "failed", Reason: "timed out waiting for pipeline outcome"}
	}
}

// View renders the step list, recent logs, and the final outcome line.
func (m Model) View() string {
	var s strings.Builder

	if m.quitting {
		if m.outcome != "" {
			s.WriteString(m.renderOutcome())
			s.WriteString("\n")
		}
		return s.String()
	}

	s.WriteString(titleStyle.Render("Warden Bot"))
	s.WriteString("\n\n")

	for i, step := range m.steps {
		s.WriteString(m.renderStep(i, step))
	}

	if len(m.logs) > 0 {
		s.WriteString("\n")
		start := 0
		if len(m.logs) > 5 {
			start = len(m.logs) - 5
		}
		for _, entry := range m.logs[start:] {
			s.WriteString(subtleStyle.Render(entry) + "\n")
		}
	}

	s.WriteString(subtleStyle.Render("\nPress q to quit\n"))

	return s.String()
}

func (m Model) renderStep(i int, step string) string {
	prefix := "  "
	style := stepStyle

	if i == m.current {
		prefix = m.spinner.View() + " "
		style = activeStepStyle
	}

	switch m.status[step] {
	case "success":
		prefix = "✓ "
		style = doneStepStyle
	case "error":
		prefix = "✗ "
		style = errorStepStyle
	case "skipped":
		prefix = "○ "
		style = stepStyle.Faint(true)
	}

	return style.Render(fmt.Sprintf("%s%s\n", prefix, step))
}

func (m Model) renderOutcome() string {
	line := "Outcome: " + m.outcome
	if m.reason != "" {
		line += " (" + m.reason + ")"
	}

	switch m.outcome {
	case "approved":
		return doneStepStyle.Render(line)
	case "closed":
		return closedStyle.Render(line)
	case "failed":
		return errorStepStyle.Render(line)
	default:
		return subtleStyle.Render(line)
	}
}
