package models

import "time"

// Task is a queued push request taken off the message bus.
type Task struct {
	RequestID string
	Request   NotificationRequest
	Timestamp time.Time
}
