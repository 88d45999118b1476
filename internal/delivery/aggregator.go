package delivery

import (
	"push-service/internal/logging"
	"push-service/internal/models"
)

// Aggregator folds batch results into one DeliveryOutcome.
type Aggregator struct {
	logger  *logging.Logger
	outcome models.DeliveryOutcome
	seen    map[string]struct{}
}

func NewAggregator(logger *logging.Logger) *Aggregator {
	return &Aggregator{logger: logger, seen: make(map[string]struct{})}
}

// Add records one batch. A nil resp counts every target as failed.
func (a *Aggregator) Add(batch models.NotificationBatch, resp *models.ProviderResponse) {
	targets := batch.Targets()
	if resp == nil {
		a.outcome.TotalFailure += len(targets)
		return
	}

	a.outcome.TotalSuccess += resp.Success
	a.outcome.TotalFailure += resp.Failure

	// Results carry no token, only their position.
	if len(resp.Results) != len(targets) {
		a.logger.Warnf("Provider returned %d results for %d targets, skipping invalid token attribution",
			len(resp.Results), len(targets))
		return
	}
	for i, r := range resp.Results {
		if !isInvalidEndpoint(r.Error) {
			continue
		}
		endpoint := targets[i]
		if _, dup := a.seen[endpoint]; dup {
			continue
		}
		a.seen[endpoint] = struct{}{}
		a.outcome.InvalidEndpoints = append(a.outcome.InvalidEndpoints, endpoint)
	}
}

// Outcome returns a copy of the totals so far.
func (a *Aggregator) Outcome() models.DeliveryOutcome {
	out := a.outcome
	out.InvalidEndpoints = append([]string(nil), a.outcome.InvalidEndpoints...)
	return out
}

func isInvalidEndpoint(code string) bool {
	return code == models.ErrorInvalidRegistration || code == models.ErrorNotRegistered
}
