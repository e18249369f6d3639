package services

import (
	"context"
	"time"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// ExchangeService manages connected exchanges and their history.
type ExchangeService struct {
	deps
}

func newExchangeService(d deps) *ExchangeService {
	return &ExchangeService{deps: d}
}

// FetchConnected loads the exchanges with stored credentials.
func (s *ExchangeService) FetchConnected(ctx context.Context) ([]models.Exchange, error) {
	exchanges, err := s.client.ConnectedExchanges(ctx)
	if err != nil {
		s.fail("Failed to fetch connected exchanges", err)
		return nil, err
	}

	s.store.SetExchanges(exchanges)
	logger.Info("Found %d connected exchanges", len(exchanges))
	return exchanges, nil
}

// Setup stores the API credentials of an exchange.
func (s *ExchangeService) Setup(ctx context.Context, payload models.ExchangeSetupPayload) error {
	if err := s.client.SetupExchange(ctx, payload); err != nil {
		s.fail(failureTitle("setup exchange", payload.Name), err)
		return err
	}

	s.store.AddExchange(models.Exchange{Name: payload.Name, Location: payload.Location})
	logger.Info("Connected exchange %s (%s)", payload.Name, payload.Location)
	return nil
}

// Remove deletes the credentials of an exchange.
func (s *ExchangeService) Remove(ctx context.Context, exchange models.Exchange) error {
	if err := s.client.RemoveExchange(ctx, exchange); err != nil {
		s.fail(failureTitle("remove exchange", exchange.Name), err)
		return err
	}

	s.store.RemoveExchange(exchange)
	logger.Info("Removed exchange %s (%s)", exchange.Name, exchange.Location)
	return nil
}

// QueryEvents pulls the trade history of an exchange location.
func (s *ExchangeService) QueryEvents(ctx context.Context, exchange models.Exchange) error {
	_, err := runTask[bool](ctx, s.deps, taskRequest{
		taskType: models.TaskQueryExchangeEvents,
		filter:   models.TaskFilter{Location: exchange.Location},
		meta: models.TaskMeta{
			Title:       "Query " + exchange.Location + " events",
			Description: exchange.Name,
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.QueryExchangeEventsAsync(ctx, models.ExchangeEventsQueryPayload{
				Name:     exchange.Name,
				Location: exchange.Location,
			})
		},
		failure: failureTitle("query exchange events", exchange.Location),
	})
	if err != nil {
		return err
	}

	s.store.MarkHistoryQueried(exchange.Location, time.Now())
	logger.Info("Fetched events of exchange %s", exchange.Name)
	return nil
}
