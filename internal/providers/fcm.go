package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"push-service/internal/config"
	"push-service/internal/models"
)

// Error is a failed provider call. StatusCode is 0 for transport errors.
type Error struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fcm request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("fcm returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fcm returned status %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is presumed transient. Every 4xx is
// a caller-side error and is not retried.
func (e *Error) Retryable() bool {
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// IsTerminal reports whether err is a provider failure that must not be retried.
func IsTerminal(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && !perr.Retryable()
}

// Sender delivers one batch to the push provider.
type Sender interface {
	Send(ctx context.Context, batch models.NotificationBatch) (*models.ProviderResponse, error)
}

// FCMClient talks to the FCM legacy HTTP endpoint.
type FCMClient struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewFCMClient(endpoint, serverKey string, timeout time.Duration, ratePerSecond int) *FCMClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 50
	}
	return &FCMClient{
		endpoint:   endpoint,
		serverKey:  serverKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
	}
}

// NewFCMClientFromConfig builds the client from the push section of cfg.
func NewFCMClientFromConfig(cfg config.Config) *FCMClient {
	return NewFCMClient(cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.Timeout, cfg.Push.RatePerSecond)
}

func (c *FCMClient) Name() string { return "fcm" }

// Send posts one batch. Non-2xx responses and transport errors come back as *Error.
func (c *FCMClient) Send(ctx context.Context, batch models.NotificationBatch) (*models.ProviderResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create fcm request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	var out models.ProviderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode fcm response: %w", err)}
	}
	return &out, nil
}
