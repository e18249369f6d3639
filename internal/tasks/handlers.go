package tasks

import (
	"sync"

	"github.com/kelsos/rotki-client/internal/models"
)

// Handler consumes the outcome of a finished task. Returning an error makes
// the manager deliver a failure outcome carrying the error message to the
// same handler.
type Handler func(result models.ActionResult, meta models.TaskMeta) error

type instanceKey struct {
	taskType models.TaskType
	id       models.TaskID
}

type handlerRegistry struct {
	mu         sync.RWMutex
	byType     map[models.TaskType]Handler
	byInstance map[instanceKey]Handler
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		byType:     make(map[models.TaskType]Handler),
		byInstance: make(map[instanceKey]Handler),
	}
}

func (h *handlerRegistry) register(taskType models.TaskType, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byType[taskType] = handler
}

func (h *handlerRegistry) unregister(taskType models.TaskType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byType, taskType)
}

func (h *handlerRegistry) registerInstance(taskType models.TaskType, id models.TaskID, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byInstance[instanceKey{taskType, id}] = handler
}

func (h *handlerRegistry) unregisterInstance(taskType models.TaskType, id models.TaskID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byInstance, instanceKey{taskType, id})
}

// lookup prefers the handler registered for the task instance.
func (h *handlerRegistry) lookup(taskType models.TaskType, id models.TaskID) (Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if handler, ok := h.byInstance[instanceKey{taskType, id}]; ok {
		return handler, true
	}
	handler, ok := h.byType[taskType]
	return handler, ok
}
