package models

// Provider error codes that mark a registration token as dead.
const (
	ErrorInvalidRegistration = "InvalidRegistration"
	ErrorNotRegistered       = "NotRegistered"
)

// PushNotification is the visible part of an FCM message.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

// PushData is the data payload the app reads on open.
type PushData struct {
	IssueID     string `json:"issueId,omitempty"`
	DistanceKm  string `json:"distanceKm,omitempty"`
	Type        string `json:"type"`
	ClickAction string `json:"click_action"`
}

// NotificationBatch is one FCM legacy request body. Exactly one of To and
// RegistrationIDs is set.
type NotificationBatch struct {
	To              string           `json:"to,omitempty"`
	RegistrationIDs []string         `json:"registration_ids,omitempty"`
	Notification    PushNotification `json:"notification"`
	Data            PushData         `json:"data"`
	Priority        Priority         `json:"priority"`
	TimeToLive      int              `json:"time_to_live"`
}

// Targets returns the batch's endpoints in send order.
func (b NotificationBatch) Targets() []string {
	if b.To != "" {
		return []string{b.To}
	}
	return b.RegistrationIDs
}

// TargetResult is the provider's verdict for one target.
type TargetResult struct {
	MessageID      string `json:"message_id,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ProviderResponse is the FCM legacy response. Results line up with the
// batch's targets by position.
type ProviderResponse struct {
	MulticastID  int64          `json:"multicast_id"`
	Success      int            `json:"success"`
	Failure      int            `json:"failure"`
	CanonicalIDs int            `json:"canonical_ids"`
	Results      []TargetResult `json:"results"`
}

// DeliveryOutcome totals every batch of one request.
type DeliveryOutcome struct {
	TotalSuccess     int
	TotalFailure     int
	InvalidEndpoints []string
}
