package tasks

import (
	"errors"
	"sort"
	"sync"

	"github.com/kelsos/rotki-client/internal/models"
)

// ErrTaskRunning is returned when a task of the same kind is already in flight.
var ErrTaskRunning = errors.New("a task of this kind is already running")

type reservation struct {
	taskType models.TaskType
	filter   models.TaskFilter
}

// Registry holds the tasks waiting for a result. A task is locked while a
// poll for it is outstanding.
type Registry struct {
	mu       sync.RWMutex
	tasks    map[models.TaskID]models.Task
	locked   map[models.TaskID]struct{}
	reserved map[*reservation]struct{}
	// next placeholder key for tasks without an id
	missing models.TaskID
}

func NewRegistry() *Registry {
	return &Registry{
		tasks:    make(map[models.TaskID]models.Task),
		locked:   make(map[models.TaskID]struct{}),
		reserved: make(map[*reservation]struct{}),
		missing:  models.InvalidTaskID,
	}
}

// Add stores a task and returns the key it is stored under. A task with an
// id replaces any task with the same id and keeps its lock, so an outstanding
// poll is not doubled. Tasks without an id each get their own negative key,
// which stays invalid.
func (r *Registry) Add(task models.Task) models.TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !task.ID.Valid() {
		task.ID = r.missing
		r.missing--
	}
	r.tasks[task.ID] = task
	return task.ID
}

// Remove deletes a task and its lock, returning the stored task.
func (r *Registry) Remove(id models.TaskID) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	delete(r.tasks, id)
	delete(r.locked, id)
	return task, ok
}

func (r *Registry) Get(id models.TaskID) (models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	return task, ok
}

// Tasks returns the registered tasks ordered by id.
func (r *Registry) Tasks() []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// TryLock locks a registered task. It fails when the task is unknown or
// already locked.
func (r *Registry) TryLock(id models.TaskID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return false
	}
	if _, locked := r.locked[id]; locked {
		return false
	}
	r.locked[id] = struct{}{}
	return true
}

func (r *Registry) Unlock(id models.TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, id)
}

func (r *Registry) IsLocked(id models.TaskID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, locked := r.locked[id]
	return locked
}

// SetIgnoreResult marks a task so that its result is dropped once it arrives.
func (r *Registry) SetIgnoreResult(id models.TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		task.Meta.IgnoreResult = true
		r.tasks[id] = task
	}
}

// IsTaskRunning reports whether a task of the type matching filter is
// registered or about to be.
func (r *Registry) IsTaskRunning(taskType models.TaskType, filter models.TaskFilter) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunningLocked(taskType, filter)
}

func (r *Registry) isRunningLocked(taskType models.TaskType, filter models.TaskFilter) bool {
	for _, task := range r.tasks {
		// tasks without an id are never resolved and must not block new work
		if !task.ID.Valid() {
			continue
		}
		if task.Type == taskType && filter.Matches(task.Meta) {
			return true
		}
	}
	for res := range r.reserved {
		if res.taskType == taskType && overlaps(res.filter, filter) {
			return true
		}
	}
	return false
}

// Reserve claims the (type, filter) slot for a task that is being submitted.
// It fails with ErrTaskRunning when an overlapping task is registered or
// reserved. The returned function releases the reservation.
func (r *Registry) Reserve(taskType models.TaskType, filter models.TaskFilter) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunningLocked(taskType, filter) {
		return nil, ErrTaskRunning
	}

	res := &reservation{taskType: taskType, filter: filter}
	r.reserved[res] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.reserved, res)
		})
	}, nil
}

func overlaps(a, b models.TaskFilter) bool {
	return fieldOverlaps(a.Chain, b.Chain) && fieldOverlaps(a.Location, b.Location)
}

func fieldOverlaps(a, b string) bool {
	return a == "" || b == "" || a == b
}
