package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusNotFound  TaskStatus = "not-found"
)

type TaskID int64

// InvalidTaskID stands in for a task id the backend did not return.
const InvalidTaskID TaskID = -1

// Valid reports whether the id was assigned by the backend.
func (id TaskID) Valid() bool {
	return id >= 0
}

// TaskType identifies the kind of backend job a task tracks.
type TaskType int

const (
	TaskUnknown TaskType = iota
	TaskQueryBalances
	TaskQueryBlockchainBalances
	TaskQueryExchangeBalances
	TaskAddAccount
	TaskRemoveAccount
	TaskQueryExchangeEvents
	TaskQueryOnlineEvents
	TaskTransactionsDecoding
)

var taskTypeNames = map[TaskType]string{
	TaskUnknown:                 "UNKNOWN",
	TaskQueryBalances:           "QUERY_BALANCES",
	TaskQueryBlockchainBalances: "QUERY_BLOCKCHAIN_BALANCES",
	TaskQueryExchangeBalances:   "QUERY_EXCHANGE_BALANCES",
	TaskAddAccount:              "ADD_ACCOUNT",
	TaskRemoveAccount:           "REMOVE_ACCOUNT",
	TaskQueryExchangeEvents:     "QUERY_EXCHANGE_EVENTS",
	TaskQueryOnlineEvents:       "QUERY_ONLINE_EVENTS",
	TaskTransactionsDecoding:    "TRANSACTIONS_DECODING",
}

func (t TaskType) String() string {
	if name, ok := taskTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TaskType(%d)", int(t))
}

// TaskMeta is descriptive data attached to a task.
type TaskMeta struct {
	Title        string
	Description  string
	NumericKeys  []string
	IgnoreResult bool
	Chain        string
	Location     string
	Extra        map[string]any
}

// Task is a backend job tracked by id until its result is consumed.
type Task struct {
	ID   TaskID
	Type TaskType
	Meta TaskMeta
}

// TaskFilter narrows a task type to a discriminator; empty fields match anything.
type TaskFilter struct {
	Chain    string
	Location string
}

// Matches reports whether the meta satisfies every non-empty field of the filter.
func (f TaskFilter) Matches(meta TaskMeta) bool {
	if f.Chain != "" && !strings.EqualFold(f.Chain, meta.Chain) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(f.Location, meta.Location) {
		return false
	}
	return true
}

func (f TaskFilter) String() string {
	parts := make([]string, 0, 2)
	if f.Chain != "" {
		parts = append(parts, "chain="+strings.ToLower(f.Chain))
	}
	if f.Location != "" {
		parts = append(parts, "location="+strings.ToLower(f.Location))
	}
	return strings.Join(parts, ",")
}

type TasksResponse struct {
	Pending   []TaskID `json:"pending"`
	Completed []TaskID `json:"completed"`
}

type TaskResult struct {
	Status  TaskStatus      `json:"status"`
	Outcome json.RawMessage `json:"outcome"`
}

// AsyncTaskResponse is returned by endpoints called with async_query.
type AsyncTaskResponse struct {
	TaskID *TaskID `json:"task_id"`
}

// ID returns the task id or InvalidTaskID when the backend sent none.
func (r AsyncTaskResponse) ID() TaskID {
	if r.TaskID == nil {
		return InvalidTaskID
	}
	return *r.TaskID
}
