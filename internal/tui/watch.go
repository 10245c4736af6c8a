// Package tui renders the interactive campaign watch view: live step status,
// phase, and notices while the workflow streams events.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/outreach-agent/internal/campaign"
)

// StateMsg carries a fresh controller snapshot into the view.
type StateMsg campaign.Snapshot

// NoticeMsg carries a user-facing notification into the view.
type NoticeMsg campaign.Notice

// ClosedMsg tells the view the update source is gone.
type ClosedMsg struct{}

const maxNotices = 4

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)
)

// Model is the bubbletea model for campaign watch.
type Model struct {
	updates <-chan tea.Msg
	spinner spinner.Model

	snap    campaign.Snapshot
	notices []campaign.Notice
	loaded  bool
	closed  bool
	width   int
}

// New builds a watch model fed by updates. The channel is typically filled
// from campaign.Hooks by the command layer.
func New(updates <-chan tea.Msg) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return Model{updates: updates, spinner: sp}
}

func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return ClosedMsg{}
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case StateMsg:
		m.snap = campaign.Snapshot(msg)
		m.loaded = true
		return m, waitForUpdate(m.updates)
	case NoticeMsg:
		m.notices = append(m.notices, campaign.Notice(msg))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
		return m, waitForUpdate(m.updates)
	case ClosedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) stepLine(step campaign.StepName) string {
	status, ok := m.snap.State.Steps[step]
	if !ok {
		return watchMutedStyle.Render(fmt.Sprintf("  · %s", step))
	}
	switch status.Status {
	case campaign.StepStatusDone:
		return watchOKStyle.Render("  ✓ ") + string(step)
	case campaign.StepStatusRunning:
		return "  " + m.spinner.View() + " " + watchActiveStyle.Render(string(step))
	case campaign.StepStatusError:
		return watchErrorStyle.Render("  ✗ ") + string(step)
	default:
		return watchMutedStyle.Render(fmt.Sprintf("  · %s", step))
	}
}

func (m Model) View() string {
	if !m.loaded {
		return "\n  " + m.spinner.View() + " loading campaign...\n"
	}

	var b strings.Builder
	title := fmt.Sprintf("%s @ %s", m.snap.Job.Title, m.snap.Job.CompanyName)
	b.WriteString(watchTitleStyle.Render(title) + "\n")
	b.WriteString(watchMutedStyle.Render("campaign "+m.snap.ID) + "\n\n")

	for _, step := range campaign.AllSteps() {
		b.WriteString(m.stepLine(step) + "\n")
	}
	b.WriteString("\n")

	phase := string(m.snap.State.Phase)
	switch m.snap.State.Phase {
	case campaign.PhaseError:
		b.WriteString(watchErrorStyle.Render("phase: "+phase) + "\n")
	case campaign.PhaseWaitingUser:
		b.WriteString(watchOKStyle.Render("phase: "+phase) + "\n")
	default:
		b.WriteString("phase: " + phase + "\n")
	}
	if m.snap.Streaming {
		b.WriteString(watchMutedStyle.Render("streaming live events") + "\n")
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			switch n.Level {
			case campaign.NoticeError:
				b.WriteString(watchErrorStyle.Render("✗ "+n.Message) + "\n")
			case campaign.NoticeSuccess:
				b.WriteString(watchOKStyle.Render("✓ "+n.Message) + "\n")
			default:
				b.WriteString(watchMutedStyle.Render("• "+n.Message) + "\n")
			}
		}
	}

	b.WriteString("\n" + watchMutedStyle.Render("q: quit"))
	return watchPanelStyle.Render(b.String()) + "\n"
}
