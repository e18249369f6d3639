package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kelsos/rotki-client/internal/convert"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/notify"
)

const (
	DefaultPollInterval = 2 * time.Second

	notificationCategory = "tasks"
	notFoundTemplate     = "The task with id %d could not be found on the backend. It may have been lost after a restart."
)

// TaskNotFoundMessage is the failure message handlers receive when the
// backend no longer knows a task.
func TaskNotFoundMessage(id models.TaskID) string {
	return fmt.Sprintf(notFoundTemplate, id)
}

// Backend fetches the outcome of a task.
type Backend interface {
	// QueryTaskResult returns the outcome of a finished task,
	// models.ErrTaskPending while it runs and an error matching
	// models.ErrTaskNotFound when the id is unknown.
	QueryTaskResult(ctx context.Context, id models.TaskID) (*models.ActionResult, error)
}

type EventKind string

const (
	EventTaskAdded   EventKind = "added"
	EventTaskRemoved EventKind = "removed"
)

// Event describes a change to the set of pending tasks.
type Event struct {
	Kind EventKind
	Task models.Task
	At   time.Time
}

// Observer is called synchronously for every Event and must not block.
type Observer func(Event)

// Manager tracks backend tasks, polls them and routes their outcomes to
// registered handlers.
type Manager struct {
	backend  Backend
	notifier notify.Notifier
	registry *Registry
	handlers *handlerRegistry

	pollInterval time.Duration
	inflight     sync.WaitGroup

	mu              sync.Mutex
	pollingActive   bool
	cancelPolling   context.CancelFunc
	loopDone        chan struct{}
	reportedMissing map[models.TaskID]struct{}
	observers       []Observer
}

func NewManager(backend Backend, notifier notify.Notifier, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if notifier == nil {
		notifier = notify.NotifierFunc(func(notify.Notification) {})
	}
	return &Manager{
		backend:         backend,
		notifier:        notifier,
		registry:        NewRegistry(),
		handlers:        newHandlerRegistry(),
		pollInterval:    pollInterval,
		reportedMissing: make(map[models.TaskID]struct{}),
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// RegisterHandler sets the handler used for every task of taskType that has
// no instance handler.
func (m *Manager) RegisterHandler(taskType models.TaskType, handler Handler) {
	m.handlers.register(taskType, handler)
}

func (m *Manager) UnregisterHandler(taskType models.TaskType) {
	m.handlers.unregister(taskType)
}

// RegisterInstanceHandler sets the handler for a single task.
func (m *Manager) RegisterInstanceHandler(taskType models.TaskType, id models.TaskID, handler Handler) {
	m.handlers.registerInstance(taskType, id, handler)
}

func (m *Manager) UnregisterInstanceHandler(taskType models.TaskType, id models.TaskID) {
	m.handlers.unregisterInstance(taskType, id)
}

func (m *Manager) AddObserver(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

// Add registers a task for monitoring.
func (m *Manager) Add(task models.Task) {
	task.ID = m.registry.Add(task)
	logger.Task(zerolog.DebugLevel, int64(task.ID), task.Type.String(), "Registered task %q", task.Meta.Title)
	m.emit(Event{Kind: EventTaskAdded, Task: task, At: time.Now()})
}

// Reserve claims the slot for a task of taskType matching filter before it
// is submitted. See Registry.Reserve.
func (m *Manager) Reserve(taskType models.TaskType, filter models.TaskFilter) (func(), error) {
	return m.registry.Reserve(taskType, filter)
}

func (m *Manager) IsTaskRunning(taskType models.TaskType, filter models.TaskFilter) bool {
	return m.registry.IsTaskRunning(taskType, filter)
}

// Tasks returns the tasks waiting for a result.
func (m *Manager) Tasks() []models.Task {
	return m.registry.Tasks()
}

// Monitor starts a poll for every registered task that is not already being
// polled. It does not wait for the polls to finish.
func (m *Manager) Monitor(ctx context.Context) {
	for _, task := range m.registry.Tasks() {
		if !task.ID.Valid() {
			m.reportMissingID(task)
			continue
		}
		if !m.registry.TryLock(task.ID) {
			continue
		}

		m.inflight.Add(1)
		go func(task models.Task) {
			defer m.inflight.Done()
			m.resolve(ctx, task)
		}(task)
	}
}

// Wait blocks until every poll started by Monitor has finished.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// Start runs Monitor every poll interval until Stop is called or ctx ends.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pollingActive {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.pollingActive = true
	m.cancelPolling = cancel
	m.loopDone = done

	go m.pollTasks(pollCtx, done)
	logger.Debug("Task polling started with interval %s", m.pollInterval)
}

// Stop ends the poll loop and waits for outstanding polls.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.pollingActive {
		m.mu.Unlock()
		m.inflight.Wait()
		return
	}
	cancel, done := m.cancelPolling, m.loopDone
	m.mu.Unlock()

	cancel()
	<-done
	m.inflight.Wait()
	logger.Debug("Task polling stopped")
}

func (m *Manager) pollTasks(ctx context.Context, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		if m.loopDone == done {
			m.pollingActive = false
		}
		m.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Monitor(ctx)
		}
	}
}

func (m *Manager) resolve(ctx context.Context, task models.Task) {
	result, err := m.backend.QueryTaskResult(ctx, task.ID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTaskNotFound):
			stored, ok := m.remove(task.ID)
			if !ok {
				return
			}
			logger.Task(zerolog.WarnLevel, int64(task.ID), task.Type.String(), "Task not found on the backend")
			if stored.Meta.IgnoreResult {
				return
			}
			m.dispatch(stored, models.ActionResult{Message: TaskNotFoundMessage(task.ID)})
		case errors.Is(err, models.ErrTaskPending):
			m.registry.Unlock(task.ID)
		default:
			logger.Task(zerolog.WarnLevel, int64(task.ID), task.Type.String(), "Failed to query task: %v", err)
			m.registry.Unlock(task.ID)
		}
		return
	}

	stored, ok := m.remove(task.ID)
	if !ok {
		return
	}
	if stored.Meta.IgnoreResult {
		logger.Task(zerolog.DebugLevel, int64(task.ID), task.Type.String(), "Dropping ignored task result")
		return
	}
	m.dispatch(stored, *result)
}

func (m *Manager) remove(id models.TaskID) (models.Task, bool) {
	task, ok := m.registry.Remove(id)
	if ok {
		m.emit(Event{Kind: EventTaskRemoved, Task: task, At: time.Now()})
	}
	return task, ok
}

func (m *Manager) dispatch(task models.Task, result models.ActionResult) {
	handler, ok := m.handlers.lookup(task.Type, task.ID)
	if !ok {
		logger.Task(zerolog.ErrorLevel, int64(task.ID), task.Type.String(), "No handler registered")
		m.notifier.Notify(notify.Notification{
			Title:    "Task handler missing",
			Message:  fmt.Sprintf("No handler was found for task %d (%s). Its result was discarded.", task.ID, task.Type),
			Severity: notify.SeverityError,
			Category: notificationCategory,
		})
		return
	}

	if result.HasResult() && len(task.Meta.NumericKeys) > 0 {
		normalized, err := convert.NormalizeNumbers(result.Result, task.Meta.NumericKeys)
		if err != nil {
			result = models.ActionResult{Message: fmt.Sprintf("invalid result: %v", err)}
		} else {
			result.Result = normalized
		}
	}

	err := invoke(handler, result, task.Meta)
	if err == nil {
		return
	}

	logger.Task(zerolog.ErrorLevel, int64(task.ID), task.Type.String(), "Task handler failed: %v", err)
	failure := models.ActionResult{Message: err.Error()}
	if err := invoke(handler, failure, task.Meta); err != nil {
		logger.Task(zerolog.ErrorLevel, int64(task.ID), task.Type.String(), "Task handler failed on failure result: %v", err)
	}
}

func invoke(handler Handler, result models.ActionResult, meta models.TaskMeta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panicked: %v", r)
		}
	}()
	return handler(result, meta)
}

func (m *Manager) reportMissingID(task models.Task) {
	m.mu.Lock()
	_, reported := m.reportedMissing[task.ID]
	m.reportedMissing[task.ID] = struct{}{}
	m.mu.Unlock()
	if reported {
		return
	}

	logger.Task(zerolog.ErrorLevel, int64(task.ID), task.Type.String(), "Task has no id and cannot be polled")
	m.notifier.Notify(notify.Notification{
		Title:    "Task without id",
		Message:  fmt.Sprintf("The backend did not return an id for %q (%s). Its progress cannot be tracked.", task.Meta.Title, task.Type),
		Severity: notify.SeverityError,
		Category: notificationCategory,
	})
}

func (m *Manager) emit(event Event) {
	m.mu.Lock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, observer := range observers {
		observer(event)
	}
}
