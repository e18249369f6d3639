package tasks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/notify"
)

type reply struct {
	result *models.ActionResult
	err    error
}

func completed(result string, message string) reply {
	var raw json.RawMessage
	if result != "" {
		raw = json.RawMessage(result)
	}
	return reply{result: &models.ActionResult{Result: raw, Message: message}}
}

func pending() reply {
	return reply{err: models.ErrTaskPending}
}

func notFound(id models.TaskID) reply {
	return reply{err: &models.TaskNotFoundError{ID: id}}
}

// fakeBackend answers task queries from a script. The last reply for an id
// repeats. When gate is set every query waits for it to be closed.
type fakeBackend struct {
	mu      sync.Mutex
	replies map[models.TaskID][]reply
	calls   map[models.TaskID]int
	gate    chan struct{}
	started chan models.TaskID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		replies: make(map[models.TaskID][]reply),
		calls:   make(map[models.TaskID]int),
		started: make(chan models.TaskID, 64),
	}
}

func (b *fakeBackend) script(id models.TaskID, replies ...reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[id] = replies
}

func (b *fakeBackend) QueryTaskResult(ctx context.Context, id models.TaskID) (*models.ActionResult, error) {
	b.mu.Lock()
	b.calls[id]++
	gate := b.gate
	var next reply
	if queue := b.replies[id]; len(queue) > 0 {
		next = queue[0]
		if len(queue) > 1 {
			b.replies[id] = queue[1:]
		}
	} else {
		next = pending()
	}
	b.mu.Unlock()

	select {
	case b.started <- id:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next.result, next.err
}

func (b *fakeBackend) callCount(id models.TaskID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[id]
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

type handlerCall struct {
	result models.ActionResult
	meta   models.TaskMeta
}

type recordingHandler struct {
	mu    sync.Mutex
	calls []handlerCall
	err   error
}

func (h *recordingHandler) handle(result models.ActionResult, meta models.TaskMeta) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, handlerCall{result: result, meta: meta})
	return h.err
}

func (h *recordingHandler) recorded() []handlerCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]handlerCall, len(h.calls))
	copy(out, h.calls)
	return out
}

func newTestManager() (*Manager, *fakeBackend, *recordingNotifier) {
	backend := newFakeBackend()
	notifier := &recordingNotifier{}
	return NewManager(backend, notifier, 0), backend, notifier
}

// monitorOnce runs a single monitoring pass and waits for its polls.
func monitorOnce(m *Manager) {
	m.Monitor(context.Background())
	m.Wait()
}
