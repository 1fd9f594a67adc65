package model

import "time"

// MessageAuditTrail is the 1:1 compliance companion of an order-thread
// message. Created lazily on the first audit-relevant event; creation is
// idempotent.
type MessageAuditTrail struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageEdit is one entry in the append-only edit history of a message.
// PreviousContent captures the pre-edit state; the current content lives on
// the message row itself.
type MessageEdit struct {
	ID                  int64     `json:"id"`
	MessageAuditTrailID int64     `json:"message_audit_trail_id"`
	EditedAt            time.Time `json:"edited_at"`
	EditedBy            int64     `json:"edited_by"`
	EditorName          string    `json:"editor_name,omitempty"` // joined from users on retrieval
	PreviousContent     string    `json:"previous_content"`
	ChangeReason        string    `json:"change_reason,omitempty"`
}
