package delivery

import (
	"context"

	"push-service/internal/logging"
	"push-service/internal/models"
	"push-service/internal/providers"
	"push-service/internal/utils"
)

// DefaultMaxRetries is the number of retries after the first send of a batch.
const DefaultMaxRetries = 3

// Engine sends one batch at a time with bounded retries. A batch gets one
// send plus up to maxRetries retries. It never touches storage.
type Engine struct {
	sender     providers.Sender
	maxRetries int
	backoff    utils.Backoff
	logger     *logging.Logger
}

func NewEngine(sender providers.Sender, maxRetries int, backoff utils.Backoff, logger *logging.Logger) *Engine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Engine{sender: sender, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

// Deliver returns the provider response, or nil when every attempt failed or
// the provider rejected the batch outright. A nil result means the whole
// batch failed.
func (e *Engine) Deliver(ctx context.Context, batch models.NotificationBatch) *models.ProviderResponse {
	var resp *models.ProviderResponse
	err := utils.Retry(ctx, e.logger, e.maxRetries+1, e.backoff, func(attempt int) error {
		r, err := e.sender.Send(ctx, batch)
		if err != nil {
			if providers.IsTerminal(err) {
				return utils.Terminal(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		e.logger.Errorf("Batch of %d targets failed: %v", len(batch.Targets()), err)
		return nil
	}
	return resp
}
