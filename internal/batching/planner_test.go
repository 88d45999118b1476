package batching

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"push-service/internal/models"
)

func request(n int) models.NotificationRequest {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%04d", i)
	}
	issue := "issue-1"
	distance := 0.75
	return models.NotificationRequest{
		UserID:            "user-1",
		Title:             "New issue nearby",
		Message:           "Streetlight out",
		IssueID:           &issue,
		DistanceKm:        &distance,
		DeviceEndpoints:   tokens,
		Priority:          models.PriorityHigh,
		TimeToLiveSeconds: 3600,
	}
}

func TestPlanPartitions(t *testing.T) {
	for _, n := range []int{1, 2, 499, 500, 501, 999, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			req := request(n)
			batches := Plan(req, 500)

			require.Len(t, batches, (n+499)/500)

			var joined []string
			for i, b := range batches {
				targets := b.Targets()
				assert.LessOrEqual(t, len(targets), 500)
				assert.Equal(t, req.DeviceEndpoints[i*500:min((i+1)*500, n)], targets)
				joined = append(joined, targets...)
			}
			assert.Equal(t, req.DeviceEndpoints, joined)
		})
	}
}

func TestPlanShapesTargets(t *testing.T) {
	req := request(501)
	batches := Plan(req, 500)
	require.Len(t, batches, 2)

	assert.Empty(t, batches[0].To)
	assert.Len(t, batches[0].RegistrationIDs, 500)

	assert.Equal(t, "tok-0500", batches[1].To)
	assert.Nil(t, batches[1].RegistrationIDs)
}

func TestPlanCopiesSharedFields(t *testing.T) {
	req := request(2)
	b := Plan(req, 500)[0]

	assert.Equal(t, models.PushNotification{Title: "New issue nearby", Body: "Streetlight out", Sound: "default", Badge: 1}, b.Notification)
	assert.Equal(t, "issue-1", b.Data.IssueID)
	assert.Equal(t, "0.75", b.Data.DistanceKm)
	assert.Equal(t, "new_issue_alert", b.Data.Type)
	assert.Equal(t, "FLUTTER_NOTIFICATION_CLICK", b.Data.ClickAction)
	assert.Equal(t, models.PriorityHigh, b.Priority)
	assert.Equal(t, 3600, b.TimeToLive)

	// batches must not alias the request's slice
	b.RegistrationIDs[0] = "changed"
	assert.Equal(t, "tok-0000", req.DeviceEndpoints[0])
}

func TestPlanClampsLimit(t *testing.T) {
	assert.Len(t, Plan(request(1000), 0), 2)
	assert.Len(t, Plan(request(1000), 5000), 2)
	assert.Len(t, Plan(request(10), 3), 4)
}

func TestBatchWireShape(t *testing.T) {
	single := Plan(request(1), 500)[0]
	raw, err := json.Marshal(single)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "tok-0000", body["to"])
	assert.NotContains(t, body, "registration_ids")
	assert.Equal(t, "high", body["priority"])
	assert.EqualValues(t, 3600, body["time_to_live"])
}
