package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/services"
	"github.com/kelsos/rotki-client/internal/tasks"
)

const eventBuffer = 256

// Monitor runs a refresh while showing its tasks and notifications.
type Monitor struct {
	app     *services.App
	logPath string
	program *tea.Program
}

func NewMonitor(app *services.App, logPath string) *Monitor {
	return &Monitor{app: app, logPath: logPath}
}

// Run blocks until the user quits the interface.
func (m *Monitor) Run(ctx context.Context, opts services.RefreshOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.program = tea.NewProgram(NewModel(m.logPath), tea.WithAltScreen(), tea.WithContext(ctx))

	// the manager calls observers synchronously, so events are queued and
	// forwarded from a separate goroutine
	events := make(chan tea.Msg, eventBuffer)
	m.app.Tasks.AddObserver(func(e tasks.Event) {
		select {
		case events <- TaskEventMsg(e):
		default:
			logger.Warn("Dropping task event for task %d", e.Task.ID)
		}
	})

	notifications, unsubscribe := m.app.Notifications.Subscribe(eventBuffer)
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-events:
				m.program.Send(msg)
			case n, ok := <-notifications:
				if !ok {
					return
				}
				m.program.Send(NotificationMsg(n))
			}
		}
	}()

	go func() {
		err := m.app.Refresher.Refresh(ctx, opts)
		done := RefreshDoneMsg{Err: err}
		if err == nil {
			done.NetValue = m.app.Balances.Converter(ctx).Format(m.app.Store.TrackedValue())
		}
		m.program.Send(done)
	}()

	if _, err := m.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
