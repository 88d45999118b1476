package models

import "time"

// Priority is the FCM delivery priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

const (
	// DefaultTimeToLive is one day, in seconds.
	DefaultTimeToLive = 86400
	// MaxTimeToLive is the FCM maximum of four weeks, in seconds.
	MaxTimeToLive = 2419200
	// MaxDeviceEndpoints bounds one request's fan-out.
	MaxDeviceEndpoints = 1000
)

// NotificationRequest is a validated push request for one user.
type NotificationRequest struct {
	UserID            string   `json:"userId" validate:"required"`
	Title             string   `json:"title" validate:"required"`
	Message           string   `json:"message" validate:"required"`
	IssueID           *string  `json:"issueId,omitempty"`
	DistanceKm        *float64 `json:"distanceKm,omitempty"`
	DeviceEndpoints   []string `json:"deviceTokens" validate:"min=1,max=1000,dive,required"`
	Priority          Priority `json:"priority" validate:"oneof=high normal"`
	TimeToLiveSeconds int      `json:"timeToLive" validate:"gte=0,lte=2419200"`
}

// PreferenceRecord is a user's stored push preferences.
type PreferenceRecord struct {
	PushEnabled     bool    `json:"pushEnabled"`
	QuietHoursStart *string `json:"quietHoursStart,omitempty"`
	QuietHoursEnd   *string `json:"quietHoursEnd,omitempty"`
}

// Alert is the row written when an issue alert reached at least one device.
type Alert struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	IssueID    string    `json:"issue_id"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationLog is one audit row per processed request.
type NotificationLog struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	LogStatusSent   = "sent"
	LogStatusFailed = "failed"
)

// SendResult is the JSON body returned to callers.
type SendResult struct {
	Success              bool   `json:"success"`
	Sent                 int    `json:"sent"`
	Failed               int    `json:"failed"`
	InvalidTokensRemoved int    `json:"invalidTokensRemoved"`
	Message              string `json:"message"`
	Blocked              string `json:"blocked,omitempty"`
}
