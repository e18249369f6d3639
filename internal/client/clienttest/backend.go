// Package clienttest provides an in-process fake of the rotki REST backend.
package clienttest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/models"
)

// Request is a request received by the fake backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type fakeTask struct {
	outcome      any
	message      string
	pendingPolls int
}

// Backend serves the subset of the rotki API the client uses. Sync endpoints
// answer canned envelopes, async endpoints create tasks that are resolved
// through the /tasks/{id} endpoint.
type Backend struct {
	server *httptest.Server
	router chi.Router

	mu           sync.Mutex
	nextID       models.TaskID
	tasks        map[models.TaskID]*fakeTask
	pendingPolls int
	requests     []Request
}

// New starts a fake backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		router: chi.NewRouter(),
		tasks:  make(map[models.TaskID]*fakeTask),
		nextID: 1,
	}
	b.router.Use(b.record)
	b.router.Get("/api/1/ping", func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, http.StatusOK, true, "")
	})
	b.router.Get("/api/1/tasks", b.listTasks)
	b.router.Get("/api/1/tasks/{id}", b.taskResult)

	b.server = httptest.NewServer(b.router)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.server.URL
}

// Config returns a client configuration pointing at the fake backend.
func (b *Backend) Config() *config.Config {
	cfg := config.NewConfig()
	cfg.BaseURL = b.server.URL
	cfg.APIReadyTimeout = 1
	cfg.PollInterval = 10 * time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

// Respond registers a sync endpoint answering with the given envelope.
func (b *Backend) Respond(method, path string, status int, result any, message string) {
	b.router.Method(method, "/api/1"+path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, status, result, message)
	}))
}

// Handle registers a custom handler below the /api/1 prefix.
func (b *Backend) Handle(method, path string, handler http.HandlerFunc) {
	b.router.Method(method, "/api/1"+path, handler)
}

// RespondAsync registers an async endpoint. Every call creates a task whose
// outcome is the given result and message.
func (b *Backend) RespondAsync(method, path string, result any, message string) {
	b.router.Method(method, "/api/1"+path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := b.AddTask(result, message)
		WriteEnvelope(w, http.StatusOK, map[string]any{"task_id": id}, "")
	}))
}

// RespondAsyncWithoutID registers an async endpoint that answers without a task id.
func (b *Backend) RespondAsyncWithoutID(method, path string) {
	b.router.Method(method, "/api/1"+path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, http.StatusOK, map[string]any{"task_id": nil}, "")
	}))
}

// SetPendingPolls makes tasks created from now on report pending for n polls.
func (b *Backend) SetPendingPolls(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingPolls = n
}

// AddTask creates a task with the given outcome and returns its id.
func (b *Backend) AddTask(result any, message string) models.TaskID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.tasks[id] = &fakeTask{outcome: result, message: message, pendingPolls: b.pendingPolls}
	return id
}

// ForgetTasks drops all tasks, as a restarted backend would.
func (b *Backend) ForgetTasks() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = make(map[models.TaskID]*fakeTask)
}

// TaskCount returns the number of unresolved tasks.
func (b *Backend) TaskCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// Requests returns the recorded requests matching method and path.
func (b *Backend) Requests(method, path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matching []Request
	for _, req := range b.requests {
		if req.Method == method && req.Path == "/api/1"+path {
			matching = append(matching, req)
		}
	}
	return matching
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}

		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
			if len(body) > 0 {
				_ = json.Unmarshal(body, &recorded.Body)
			}
		}

		b.mu.Lock()
		b.requests = append(b.requests, recorded)
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	response := models.TasksResponse{Pending: []models.TaskID{}, Completed: []models.TaskID{}}
	for id, task := range b.tasks {
		if task.pendingPolls > 0 {
			response.Pending = append(response.Pending, id)
		} else {
			response.Completed = append(response.Completed, id)
		}
	}
	b.mu.Unlock()

	WriteEnvelope(w, http.StatusOK, response, "")
}

func (b *Backend) taskResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteEnvelope(w, http.StatusBadRequest, nil, "invalid task id")
		return
	}

	b.mu.Lock()
	task, ok := b.tasks[models.TaskID(id)]
	if !ok {
		b.mu.Unlock()
		WriteEnvelope(w, http.StatusNotFound, map[string]any{"status": models.TaskStatusNotFound, "outcome": nil},
			fmt.Sprintf("Could not find task with id %d", id))
		return
	}
	if task.pendingPolls > 0 {
		task.pendingPolls--
		b.mu.Unlock()
		WriteEnvelope(w, http.StatusOK, map[string]any{"status": models.TaskStatusPending, "outcome": nil}, "")
		return
	}
	delete(b.tasks, models.TaskID(id))
	b.mu.Unlock()

	outcome := map[string]any{"result": task.outcome}
	if task.message != "" {
		outcome["message"] = task.message
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{"status": models.TaskStatusCompleted, "outcome": outcome}, "")
}

// WriteEnvelope writes a {result, message} response.
func WriteEnvelope(w http.ResponseWriter, status int, result any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "message": message})
}
