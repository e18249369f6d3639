package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/tasks"
)

// HistoryService pulls history events and decodes transactions.
type HistoryService struct {
	deps
}

func newHistoryService(d deps) *HistoryService {
	s := &HistoryService{deps: d}
	d.tasks.RegisterHandler(models.TaskTransactionsDecoding, s.onTransactionsDecoded)
	return s
}

// QueryOnlineEvents pulls online events of the given kind, such as staking
// withdrawals.
func (s *HistoryService) QueryOnlineEvents(ctx context.Context, queryType models.QueryType) error {
	_, err := runTask[bool](ctx, s.deps, taskRequest{
		taskType: models.TaskQueryOnlineEvents,
		meta: models.TaskMeta{
			Title:       "Query online events",
			Description: string(queryType),
			Extra:       map[string]any{"queryType": string(queryType)},
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.QueryOnlineEventsAsync(ctx, queryType)
		},
		failure: failureTitle("query online events", string(queryType)),
	})
	if err != nil {
		return err
	}

	s.store.MarkHistoryQueried(string(queryType), time.Now())
	logger.Info("Fetched %s events", queryType)
	return nil
}

// DecodeTransactions starts decoding the undecoded transactions of the
// chains and returns without waiting. The outcome is reported through a
// notification.
func (s *HistoryService) DecodeTransactions(ctx context.Context, chains []string) (models.TaskID, error) {
	release, err := s.tasks.Reserve(models.TaskTransactionsDecoding, models.TaskFilter{})
	if err != nil {
		return models.InvalidTaskID, err
	}
	defer release()

	id, err := s.client.DecodeTransactionsAsync(ctx, chains)
	if err != nil {
		s.fail("Failed to decode transactions", err)
		return models.InvalidTaskID, err
	}

	s.tasks.Add(models.Task{
		ID:   id,
		Type: models.TaskTransactionsDecoding,
		Meta: models.TaskMeta{
			Title:       "Decode transactions",
			Description: strings.Join(chains, ", "),
		},
	})
	if !id.Valid() {
		return id, tasks.ErrMissingTaskID
	}
	logger.Info("Started decoding transactions of %s as task %d", strings.Join(chains, ", "), id)
	return id, nil
}

func (s *HistoryService) onTransactionsDecoded(result models.ActionResult, meta models.TaskMeta) error {
	if result.Failed() {
		s.fail("Failed to decode transactions", fmt.Errorf("%s", result.Message))
		return nil
	}

	var decoded models.EvmTransactionDecodeResult
	if result.HasResult() {
		if err := json.Unmarshal(result.Result, &decoded); err != nil {
			return fmt.Errorf("invalid decoding result: %w", err)
		}
	}

	s.store.RecordDecoded(decoded.DecodedTxNumber)

	total := 0
	for _, count := range decoded.DecodedTxNumber {
		total += count
	}
	s.info("Transactions decoded", fmt.Sprintf("Decoded %d transactions of %s", total, meta.Description))
	return nil
}
