package providers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"push-service/internal/models"
)

// InstrumentedSender records request counts, outcomes and latency around a Sender.
type InstrumentedSender struct {
	sender         Sender
	name           string
	sendDuration   *prometheus.HistogramVec
	sendStatus     *prometheus.CounterVec
	targetOutcomes *prometheus.CounterVec
}

func NewInstrumentedSender(name string, sender Sender, reg prometheus.Registerer) *InstrumentedSender {
	sendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_provider_send_duration_seconds",
			Help:    "Latency of push provider requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)
	sendStatus := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_provider_requests_total",
			Help: "Push provider requests by HTTP status (0 for transport errors).",
		},
		[]string{"provider", "status"},
	)
	targetOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_provider_targets_total",
			Help: "Per-target results reported by the push provider.",
		},
		[]string{"provider", "result"},
	)
	reg.MustRegister(sendDuration, sendStatus, targetOutcomes)

	return &InstrumentedSender{
		sender:         sender,
		name:           name,
		sendDuration:   sendDuration,
		sendStatus:     sendStatus,
		targetOutcomes: targetOutcomes,
	}
}

func (s *InstrumentedSender) Send(ctx context.Context, batch models.NotificationBatch) (*models.ProviderResponse, error) {
	start := time.Now()
	resp, err := s.sender.Send(ctx, batch)

	status := "200"
	var perr *Error
	switch {
	case errors.As(err, &perr):
		status = strconv.Itoa(perr.StatusCode)
	case err != nil:
		status = "error"
	}
	s.sendDuration.WithLabelValues(s.name, status).Observe(time.Since(start).Seconds())
	s.sendStatus.WithLabelValues(s.name, status).Inc()

	if resp != nil {
		s.targetOutcomes.WithLabelValues(s.name, "success").Add(float64(resp.Success))
		s.targetOutcomes.WithLabelValues(s.name, "failure").Add(float64(resp.Failure))
	}
	return resp, err
}
