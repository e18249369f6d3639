package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/notify"
	"github.com/kelsos/rotki-client/internal/tasks"
)

const maxNotifications = 8

// TaskEventMsg reports a task added to or removed from the manager.
type TaskEventMsg tasks.Event

// NotificationMsg carries a new notification.
type NotificationMsg notify.Notification

// RefreshDoneMsg is sent once the refresh finished.
type RefreshDoneMsg struct {
	Err      error
	NetValue string
}

type taskRow struct {
	task  models.Task
	added time.Time
}

type Model struct {
	pending       []taskRow
	notifications []notify.Notification
	spinner       spinner.Model
	progress      progress.Model
	started       int
	finished      int
	done          bool
	refreshErr    error
	netValue      string
	logPath       string
	width         int
	height        int
	quit          bool
	now           func() time.Time
}

func NewModel(logPath string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		logPath:  logPath,
		width:    80,
		height:   24,
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKeyMsg(msg) {
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case TaskEventMsg:
		m = m.handleTaskEvent(msg)

	case NotificationMsg:
		m = m.handleNotification(msg)

	case RefreshDoneMsg:
		m.done = true
		m.refreshErr = msg.Err
		m.netValue = msg.NetValue

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if progressModel, ok := progressModel.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = max(msg.Width-40, 10)
	return m
}

func (m Model) handleTaskEvent(msg TaskEventMsg) Model {
	switch msg.Kind {
	case tasks.EventTaskAdded:
		m.started++
		rows := make([]taskRow, 0, len(m.pending)+1)
		for _, row := range m.pending {
			if row.task.ID != msg.Task.ID {
				rows = append(rows, row)
			}
		}
		m.pending = append(rows, taskRow{task: msg.Task, added: msg.At})
	case tasks.EventTaskRemoved:
		for i, row := range m.pending {
			if row.task.ID == msg.Task.ID {
				m.pending = append(m.pending[:i:i], m.pending[i+1:]...)
				m.finished++
				break
			}
		}
	}
	return m
}

func (m Model) handleNotification(msg NotificationMsg) Model {
	m.notifications = append(m.notifications, notify.Notification(msg))
	if len(m.notifications) > maxNotifications {
		m.notifications = m.notifications[len(m.notifications)-maxNotifications:]
	}
	return m
}

// completion is the share of the tasks seen so far that finished.
func (m Model) completion() float64 {
	if m.started == 0 {
		return 0
	}
	return float64(m.finished) / float64(m.started)
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("rotki task monitor"))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	summary := fmt.Sprintf("Pending: %d | Finished: %d/%d | Notifications: %d",
		len(m.pending), m.finished, m.started, len(m.notifications))
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n")
	s.WriteString(m.statusLine())
	s.WriteString("\n\n")

	taskSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var taskSection strings.Builder
	taskSection.WriteString("Tasks\n")
	taskSection.WriteString(strings.Repeat("─", 60) + "\n")
	if len(m.pending) == 0 {
		taskSection.WriteString("No pending tasks\n")
	}
	for _, row := range m.pending {
		title := row.task.Meta.Title
		if title == "" {
			title = row.task.Type.String()
		}
		line := fmt.Sprintf("%s %6s %-26s %-30s %s",
			m.spinner.View(),
			taskIDLabel(row.task.ID),
			row.task.Type,
			truncate(title, 30),
			formatAge(m.now().Sub(row.added)))
		taskSection.WriteString(line + "\n")
	}
	s.WriteString(taskSectionStyle.Render(taskSection.String()))
	s.WriteString("\n\n")

	notificationSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(maxNotifications + 1)

	var notifications strings.Builder
	notifications.WriteString("Notifications\n")
	for _, n := range m.notifications {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(severityColor(n.Severity)))
		line := fmt.Sprintf("[%s] %s: %s", n.CreatedAt.Format("15:04:05"), n.Title, n.Message)
		notifications.WriteString(style.Render(line) + "\n")
	}
	s.WriteString(notificationSectionStyle.Render(notifications.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	footer := "Press 'q' to quit"
	if m.logPath != "" {
		footer += " | Logs: " + m.logPath
	}
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func (m Model) statusLine() string {
	if !m.done {
		return m.spinner.View() + " Refreshing " + m.progress.ViewAs(m.completion())
	}
	if m.refreshErr != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		return errorStyle.Render(fmt.Sprintf("Refresh finished with errors: %v", m.refreshErr))
	}
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	line := "Refresh complete"
	if m.netValue != "" {
		line += ", net value " + m.netValue
	}
	return doneStyle.Render(line)
}

func taskIDLabel(id models.TaskID) string {
	if !id.Valid() {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}

func severityColor(severity notify.Severity) string {
	switch severity {
	case notify.SeverityError:
		return "196"
	case notify.SeverityWarning:
		return "214"
	default:
		return "244"
	}
}

func formatAge(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	return d.Truncate(time.Second).String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
