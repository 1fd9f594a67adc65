package repository

import (
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

type MessageAuditTrailEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	MessageID int64     `db:"message_id" gorm:"column:message_id;not null;uniqueIndex"`
	IPAddress string    `db:"ip_address" gorm:"column:ip_address"`
	UserAgent string    `db:"user_agent" gorm:"column:user_agent"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (MessageAuditTrailEntity) TableName() string {
	return "message_audit_trails"
}

type MessageEditEntity struct {
	ID                  int64     `db:"id"                     gorm:"primaryKey;autoIncrement;column:id"`
	MessageAuditTrailID int64     `db:"message_audit_trail_id" gorm:"column:message_audit_trail_id;not null;index"`
	EditedAt            time.Time `db:"edited_at"              gorm:"column:edited_at;not null;index"`
	EditedBy            int64     `db:"edited_by"              gorm:"column:edited_by;not null"`
	PreviousContent     string    `db:"previous_content"       gorm:"column:previous_content;not null"`
	ChangeReason        string    `db:"change_reason"          gorm:"column:change_reason"`
}

func (MessageEditEntity) TableName() string {
	return "message_edits"
}

func toAuditTrailModel(e *MessageAuditTrailEntity) *model.MessageAuditTrail {
	if e == nil {
		return nil
	}
	return &model.MessageAuditTrail{
		ID:        e.ID,
		MessageID: e.MessageID,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
	}
}

// messageEditRow carries the editor name joined from users.
type messageEditRow struct {
	ID                  int64     `gorm:"column:id"`
	MessageAuditTrailID int64     `gorm:"column:message_audit_trail_id"`
	EditedAt            time.Time `gorm:"column:edited_at"`
	EditedBy            int64     `gorm:"column:edited_by"`
	EditorName          string    `gorm:"column:editor_name"`
	PreviousContent     string    `gorm:"column:previous_content"`
	ChangeReason        string    `gorm:"column:change_reason"`
}

func toMessageEditModel(r *messageEditRow) *model.MessageEdit {
	if r == nil {
		return nil
	}
	return &model.MessageEdit{
		ID:                  r.ID,
		MessageAuditTrailID: r.MessageAuditTrailID,
		EditedAt:            r.EditedAt,
		EditedBy:            r.EditedBy,
		EditorName:          r.EditorName,
		PreviousContent:     r.PreviousContent,
		ChangeReason:        r.ChangeReason,
	}
}
