package batching

import (
	"strconv"

	"push-service/internal/config"
	"push-service/internal/models"
)

const (
	notificationType = "new_issue_alert"
	clickAction      = "FLUTTER_NOTIFICATION_CLICK"
)

// Plan splits the request's endpoints into contiguous, order-preserving
// batches of at most limit targets. A batch of one uses the single-target
// form; larger batches use registration_ids.
func Plan(req models.NotificationRequest, limit int) []models.NotificationBatch {
	if limit <= 0 || limit > config.MaxBatchSize {
		limit = config.MaxBatchSize
	}

	notification := models.PushNotification{
		Title: req.Title,
		Body:  req.Message,
		Sound: "default",
		Badge: 1,
	}
	data := models.PushData{
		Type:        notificationType,
		ClickAction: clickAction,
	}
	if req.IssueID != nil {
		data.IssueID = *req.IssueID
	}
	if req.DistanceKm != nil {
		data.DistanceKm = strconv.FormatFloat(*req.DistanceKm, 'f', -1, 64)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityHigh
	}

	n := len(req.DeviceEndpoints)
	batches := make([]models.NotificationBatch, 0, (n+limit-1)/limit)
	for start := 0; start < n; start += limit {
		end := min(start+limit, n)
		chunk := req.DeviceEndpoints[start:end]

		batch := models.NotificationBatch{
			Notification: notification,
			Data:         data,
			Priority:     priority,
			TimeToLive:   req.TimeToLiveSeconds,
		}
		if len(chunk) == 1 {
			batch.To = chunk[0]
		} else {
			batch.RegistrationIDs = append([]string(nil), chunk...)
		}
		batches = append(batches, batch)
	}
	return batches
}
