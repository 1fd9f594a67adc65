package model

import "time"

// NotificationDeliveryLog is one provider-reported status transition for a
// communication log. Append-only; one row per webhook/status update.
type NotificationDeliveryLog struct {
	ID                 int64          `json:"id"`
	CommunicationLogID int64          `json:"communication_log_id"`
	DeliveryProvider   string         `json:"delivery_provider"`
	ExternalID         string         `json:"external_id"`
	Status             DeliveryStatus `json:"status"`
	StatusDetails      string         `json:"status_details,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// DeliveryWebhook is the payload a provider posts back when the delivery
// state of a previously sent communication changes. EventID is the provider's
// unique id for the callback itself and drives idempotent processing.
type DeliveryWebhook struct {
	EventID           string         `json:"event_id"`
	Provider          string         `json:"provider"`
	ExternalMessageID string         `json:"external_message_id"`
	Status            DeliveryStatus `json:"status"`
	StatusDetails     string         `json:"status_details,omitempty"`
	OccurredAt        time.Time      `json:"occurred_at"`
}
