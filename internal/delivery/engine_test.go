package delivery

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"push-service/internal/logging"
	"push-service/internal/models"
	"push-service/internal/providers"
	"push-service/internal/utils"
)

type scriptedSender struct {
	calls   int
	replies []func() (*models.ProviderResponse, error)
}

func (s *scriptedSender) Send(context.Context, models.NotificationBatch) (*models.ProviderResponse, error) {
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	return s.replies[i]()
}

func status(code int) func() (*models.ProviderResponse, error) {
	return func() (*models.ProviderResponse, error) {
		return nil, &providers.Error{StatusCode: code}
	}
}

func ok(resp *models.ProviderResponse) func() (*models.ProviderResponse, error) {
	return func() (*models.ProviderResponse, error) { return resp, nil }
}

type recordingBackoff struct {
	delays []time.Duration
}

func (r *recordingBackoff) Wait(_ context.Context, attempt int) error {
	r.delays = append(r.delays, utils.ExponentialBackoff{Base: time.Second}.Delay(attempt))
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func batchOf(targets ...string) models.NotificationBatch {
	if len(targets) == 1 {
		return models.NotificationBatch{To: targets[0]}
	}
	return models.NotificationBatch{RegistrationIDs: targets}
}

func TestDeliverAlways503(t *testing.T) {
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){status(503)}}
	backoff := &recordingBackoff{}
	engine := NewEngine(sender, 3, backoff, testLogger())

	resp := engine.Deliver(context.Background(), batchOf("a", "b"))

	assert.Nil(t, resp)
	// One send plus three retries, with a wait before each retry only.
	assert.Equal(t, 4, sender.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, backoff.delays)
}

func TestDeliverElapsedMatchesWaitsBetweenSends(t *testing.T) {
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){status(503)}}
	engine := NewEngine(sender, 2, utils.ExponentialBackoff{Base: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	assert.Nil(t, engine.Deliver(context.Background(), batchOf("a")))
	elapsed := time.Since(start)

	// 40ms + 80ms between the three sends; a trailing 160ms wait would push past 280ms.
	assert.Equal(t, 3, sender.calls)
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond)
	assert.Less(t, elapsed, 280*time.Millisecond)
}

func TestDeliver400NotRetried(t *testing.T) {
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){status(400)}}
	backoff := &recordingBackoff{}
	engine := NewEngine(sender, 3, backoff, testLogger())

	resp := engine.Deliver(context.Background(), batchOf("a"))

	assert.Nil(t, resp)
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, backoff.delays)
}

func TestDeliverRecoversAfterTransientFailure(t *testing.T) {
	want := &models.ProviderResponse{Success: 2}
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){
		status(500),
		func() (*models.ProviderResponse, error) { return nil, &providers.Error{Err: errors.New("timeout")} },
		ok(want),
	}}
	backoff := &recordingBackoff{}
	engine := NewEngine(sender, 3, backoff, testLogger())

	resp := engine.Deliver(context.Background(), batchOf("a", "b"))

	assert.Same(t, want, resp)
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, backoff.delays)
}

func TestDeliverTerminalAfterRetry(t *testing.T) {
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){status(502), status(401)}}
	engine := NewEngine(sender, 5, &recordingBackoff{}, testLogger())

	assert.Nil(t, engine.Deliver(context.Background(), batchOf("a")))
	assert.Equal(t, 2, sender.calls)
}

func TestDeliverStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &scriptedSender{replies: []func() (*models.ProviderResponse, error){status(503)}}
	engine := NewEngine(sender, 3, utils.ExponentialBackoff{Base: time.Hour}, testLogger())

	assert.Nil(t, engine.Deliver(ctx, batchOf("a")))
	assert.Equal(t, 1, sender.calls)
}

func TestNewEngineDefaultsRetries(t *testing.T) {
	engine := NewEngine(&scriptedSender{}, 0, &recordingBackoff{}, testLogger())
	require.Equal(t, DefaultMaxRetries, engine.maxRetries)
}
