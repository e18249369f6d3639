package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/rotki-client/internal/models"
)

func TestRegistryLocking(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: 3, Type: models.TaskQueryBalances})

	assert.True(t, r.TryLock(3))
	assert.False(t, r.TryLock(3), "second lock must fail while held")
	assert.True(t, r.IsLocked(3))

	r.Unlock(3)
	assert.False(t, r.IsLocked(3))
	assert.True(t, r.TryLock(3))

	assert.False(t, r.TryLock(99), "unknown tasks cannot be locked")

	_, ok := r.Remove(3)
	require.True(t, ok)
	assert.False(t, r.IsLocked(3))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryTasksAreOrdered(t *testing.T) {
	r := NewRegistry()
	for _, id := range []models.TaskID{9, 2, 5} {
		r.Add(models.Task{ID: id, Type: models.TaskAddAccount})
	}

	var ids []models.TaskID
	for _, task := range r.Tasks() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []models.TaskID{2, 5, 9}, ids)
}

func TestRegistryIsTaskRunning(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: 1, Type: models.TaskQueryBlockchainBalances, Meta: models.TaskMeta{Chain: "eth"}})

	assert.True(t, r.IsTaskRunning(models.TaskQueryBlockchainBalances, models.TaskFilter{}))
	assert.True(t, r.IsTaskRunning(models.TaskQueryBlockchainBalances, models.TaskFilter{Chain: "ETH"}))
	assert.False(t, r.IsTaskRunning(models.TaskQueryBlockchainBalances, models.TaskFilter{Chain: "btc"}))
	assert.False(t, r.IsTaskRunning(models.TaskQueryExchangeBalances, models.TaskFilter{}))
}

func TestRegistryReserve(t *testing.T) {
	r := NewRegistry()

	release, err := r.Reserve(models.TaskQueryExchangeBalances, models.TaskFilter{Location: "kraken"})
	require.NoError(t, err)

	_, err = r.Reserve(models.TaskQueryExchangeBalances, models.TaskFilter{Location: "kraken"})
	assert.ErrorIs(t, err, ErrTaskRunning)

	_, err = r.Reserve(models.TaskQueryExchangeBalances, models.TaskFilter{})
	assert.ErrorIs(t, err, ErrTaskRunning, "an unfiltered reservation overlaps every location")

	other, err := r.Reserve(models.TaskQueryExchangeBalances, models.TaskFilter{Location: "binance"})
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := r.Reserve(models.TaskQueryExchangeBalances, models.TaskFilter{Location: "kraken"})
	require.NoError(t, err)
	again()
}

func TestRegistryReserveBlockedByRegisteredTask(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: 4, Type: models.TaskQueryBalances})

	_, err := r.Reserve(models.TaskQueryBalances, models.TaskFilter{})
	assert.ErrorIs(t, err, ErrTaskRunning)
}

func TestRegistrySetIgnoreResult(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: 8, Type: models.TaskQueryOnlineEvents})
	r.SetIgnoreResult(8)
	r.SetIgnoreResult(42)

	task, ok := r.Get(8)
	require.True(t, ok)
	assert.True(t, task.Meta.IgnoreResult)
	_, ok = r.Get(42)
	assert.False(t, ok)
}

func TestRegistryTaskWithoutIDDoesNotBlock(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: models.InvalidTaskID, Type: models.TaskQueryBalances})

	assert.False(t, r.IsTaskRunning(models.TaskQueryBalances, models.TaskFilter{}))
	release, err := r.Reserve(models.TaskQueryBalances, models.TaskFilter{})
	require.NoError(t, err)
	release()
}

func TestRegistryReAddKeepsLock(t *testing.T) {
	r := NewRegistry()
	r.Add(models.Task{ID: 6, Type: models.TaskQueryBalances})
	require.True(t, r.TryLock(6))

	r.Add(models.Task{ID: 6, Type: models.TaskQueryBalances, Meta: models.TaskMeta{Title: "again"}})

	assert.True(t, r.IsLocked(6))
	assert.False(t, r.TryLock(6))
	task, ok := r.Get(6)
	require.True(t, ok)
	assert.Equal(t, "again", task.Meta.Title)

	r.Unlock(6)
	assert.True(t, r.TryLock(6))
}

func TestRegistryTasksWithoutIDAreKeptApart(t *testing.T) {
	r := NewRegistry()
	first := r.Add(models.Task{ID: models.InvalidTaskID, Type: models.TaskQueryBalances})
	second := r.Add(models.Task{ID: models.InvalidTaskID, Type: models.TaskAddAccount})

	assert.NotEqual(t, first, second)
	assert.False(t, first.Valid())
	assert.False(t, second.Valid())
	assert.Equal(t, 2, r.Len())

	task, ok := r.Get(second)
	require.True(t, ok)
	assert.Equal(t, models.TaskAddAccount, task.Type)
	assert.Equal(t, second, task.ID)
}
