package model

import (
	"errors"
	"time"
)

// CommunicationType is the channel a communication event went out on.
type CommunicationType string

const (
	CommunicationTypeEmail   CommunicationType = "email"
	CommunicationTypeSMS     CommunicationType = "sms"
	CommunicationTypeMessage CommunicationType = "message"
)

// DeliveryStatus is the provider-reported state of a communication event.
type DeliveryStatus string

const (
	DeliveryStatusQueued    DeliveryStatus = "queued"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
	DeliveryStatusBounced   DeliveryStatus = "bounced"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Valid reports whether s is one of the known delivery statuses.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusQueued, DeliveryStatusSent, DeliveryStatusDelivered,
		DeliveryStatusRead, DeliveryStatusBounced, DeliveryStatusFailed:
		return true
	}
	return false
}

// CommunicationLog is one outbound or inbound notification event.
// Rows are a compliance record and are never deleted.
type CommunicationLog struct {
	ID                int64             `json:"id"`
	OrderID           int64             `json:"order_id"`
	Type              CommunicationType `json:"communication_type"`
	SenderID          int64             `json:"sender_id"`
	RecipientID       *int64            `json:"recipient_id,omitempty"`
	RecipientEmail    string            `json:"recipient_email,omitempty"`
	RecipientPhone    string            `json:"recipient_phone,omitempty"`
	Subject           string            `json:"subject"`
	Content           string            `json:"content,omitempty"`
	TemplateUsed      string            `json:"template_used,omitempty"`
	DeliveryStatus    DeliveryStatus    `json:"delivery_status"`
	ExternalMessageID *string           `json:"external_message_id,omitempty"` // provider correlation id, unique when present
	SentAt            time.Time         `json:"sent_at"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	ReadAt            *time.Time        `json:"read_at,omitempty"`
	FailureReason     string            `json:"failure_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Recipient returns the best available recipient identifier for display/export.
func (l *CommunicationLog) Recipient() string {
	switch {
	case l.RecipientEmail != "":
		return l.RecipientEmail
	case l.RecipientPhone != "":
		return l.RecipientPhone
	default:
		return ""
	}
}

func (l *CommunicationLog) Validate() error {
	if l.OrderID == 0 {
		return errors.New("order_id is required")
	}
	if l.Type == "" {
		return errors.New("communication_type is required")
	}
	if l.RecipientID == nil && l.RecipientEmail == "" && l.RecipientPhone == "" {
		return errors.New("a recipient is required")
	}
	return nil
}

// CommunicationLogFilter controls Search queries. Unset fields are no-ops;
// all set fields combine conjunctively.
type CommunicationLogFilter struct {
	OrganizationID *int64
	OrderID        *int64
	Types          []CommunicationType
	SenderID       *int64
	RecipientID    *int64
	Statuses       []DeliveryStatus
	From           *time.Time
	To             *time.Time
	SearchTerm     string // case-insensitive match over subject and content
	SortBy         string // sent_at (default), created_at, delivery_status, communication_type
	Asc            bool   // default ordering is sent_at descending
	Limit          int
	Offset         int
}
