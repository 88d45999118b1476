package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"push-service/internal/models"
)

// ValidationError names the first constraint a payload violates.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s %s", e.Field, e.Reason)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes a raw JSON body and validates it.
func Parse(raw []byte) (models.NotificationRequest, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.NotificationRequest{}, &ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	return Validate(payload)
}

// Validate turns an untyped payload into a NotificationRequest. The checks
// for userId, title, message and the endpoint list run first and in that
// order.
func Validate(payload map[string]any) (models.NotificationRequest, error) {
	if payload == nil {
		return models.NotificationRequest{}, &ValidationError{Field: "body", Reason: "must be a JSON object"}
	}

	var req models.NotificationRequest
	var err error
	if req.UserID, err = requiredString(payload, "userId"); err != nil {
		return models.NotificationRequest{}, err
	}
	if req.Title, err = requiredString(payload, "title"); err != nil {
		return models.NotificationRequest{}, err
	}
	if req.Message, err = requiredString(payload, "message"); err != nil {
		return models.NotificationRequest{}, err
	}

	field, rawEndpoints := endpointsField(payload)
	list, ok := rawEndpoints.([]any)
	if !ok || len(list) == 0 {
		return models.NotificationRequest{}, &ValidationError{Field: field, Reason: "must be a non-empty list"}
	}
	if len(list) > models.MaxDeviceEndpoints {
		return models.NotificationRequest{}, &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must contain at most %d entries", models.MaxDeviceEndpoints),
		}
	}
	req.DeviceEndpoints = make([]string, 0, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok || s == "" {
			return models.NotificationRequest{}, &ValidationError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: "must be a non-empty string",
			}
		}
		req.DeviceEndpoints = append(req.DeviceEndpoints, s)
	}

	if v, ok := payload["issueId"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return models.NotificationRequest{}, &ValidationError{Field: "issueId", Reason: "must be a string"}
		}
		req.IssueID = &s
	}
	if v, ok := payload["distanceKm"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok {
			return models.NotificationRequest{}, &ValidationError{Field: "distanceKm", Reason: "must be a number"}
		}
		req.DistanceKm = &f
	}

	req.Priority = models.PriorityHigh
	if v, ok := payload["priority"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return models.NotificationRequest{}, &ValidationError{Field: "priority", Reason: "must be a string"}
		}
		req.Priority = models.Priority(s)
	}

	req.TimeToLiveSeconds = models.DefaultTimeToLive
	if v, ok := payload["timeToLive"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return models.NotificationRequest{}, &ValidationError{Field: "timeToLive", Reason: "must be an integer"}
		}
		req.TimeToLiveSeconds = int(f)
	}

	if err := structValidator.Struct(req); err != nil {
		return models.NotificationRequest{}, fromValidatorError(err)
	}
	return req, nil
}

func requiredString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return "", &ValidationError{Field: field, Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: "must be a string"}
	}
	if s == "" {
		return "", &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return s, nil
}

// endpointsField accepts both the deviceTokens name used by the mobile
// clients and deviceEndpoints. A null deviceTokens does not shadow
// deviceEndpoints.
func endpointsField(payload map[string]any) (string, any) {
	if v := payload["deviceTokens"]; v != nil {
		return "deviceTokens", v
	}
	if v := payload["deviceEndpoints"]; v != nil {
		return "deviceEndpoints", v
	}
	if _, ok := payload["deviceTokens"]; ok {
		return "deviceTokens", nil
	}
	return "deviceEndpoints", nil
}

func fromValidatorError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "oneof":
		return &ValidationError{Field: field, Reason: "must be one of: " + fe.Param()}
	case "gte":
		return &ValidationError{Field: field, Reason: "must be at least " + fe.Param()}
	case "lte":
		return &ValidationError{Field: field, Reason: "must be at most " + fe.Param()}
	default:
		return &ValidationError{Field: field, Reason: "failed " + fe.Tag() + " check"}
	}
}
