package repository

import (
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

type CommunicationLogEntity struct {
	ID                int64      `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	OrderID           int64      `db:"order_id"            gorm:"column:order_id;not null;index"`
	Type              string     `db:"communication_type"  gorm:"column:communication_type;not null;index"`
	SenderID          int64      `db:"sender_id"           gorm:"column:sender_id;index"`
	RecipientID       *int64     `db:"recipient_id"        gorm:"column:recipient_id;index"`
	RecipientEmail    string     `db:"recipient_email"     gorm:"column:recipient_email"`
	RecipientPhone    string     `db:"recipient_phone"     gorm:"column:recipient_phone"`
	Subject           string     `db:"subject"             gorm:"column:subject"`
	Content           string     `db:"content"             gorm:"column:content"`
	TemplateUsed      string     `db:"template_used"       gorm:"column:template_used"`
	DeliveryStatus    string     `db:"delivery_status"     gorm:"column:delivery_status;not null;index"`
	ExternalMessageID *string    `db:"external_message_id" gorm:"column:external_message_id;uniqueIndex"`
	SentAt            time.Time  `db:"sent_at"             gorm:"column:sent_at;not null;index"`
	DeliveredAt       *time.Time `db:"delivered_at"        gorm:"column:delivered_at"`
	ReadAt            *time.Time `db:"read_at"             gorm:"column:read_at"`
	FailureReason     string     `db:"failure_reason"      gorm:"column:failure_reason"`
	CreatedAt         time.Time  `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
}

func (CommunicationLogEntity) TableName() string {
	return "communication_logs"
}

type NotificationDeliveryLogEntity struct {
	ID                 int64     `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	CommunicationLogID int64     `db:"communication_log_id" gorm:"column:communication_log_id;not null;index"`
	DeliveryProvider   string    `db:"delivery_provider"    gorm:"column:delivery_provider"`
	ExternalID         string    `db:"external_id"          gorm:"column:external_id;index"`
	Status             string    `db:"status"               gorm:"column:status;not null"`
	StatusDetails      string    `db:"status_details"       gorm:"column:status_details"`
	UpdatedAt          time.Time `db:"updated_at"           gorm:"column:updated_at;autoCreateTime"`
}

func (NotificationDeliveryLogEntity) TableName() string {
	return "notification_delivery_logs"
}

func toCommunicationLogEntity(l *model.CommunicationLog) *CommunicationLogEntity {
	if l == nil {
		return nil
	}
	return &CommunicationLogEntity{
		ID:                l.ID,
		OrderID:           l.OrderID,
		Type:              string(l.Type),
		SenderID:          l.SenderID,
		RecipientID:       l.RecipientID,
		RecipientEmail:    l.RecipientEmail,
		RecipientPhone:    l.RecipientPhone,
		Subject:           l.Subject,
		Content:           l.Content,
		TemplateUsed:      l.TemplateUsed,
		DeliveryStatus:    string(l.DeliveryStatus),
		ExternalMessageID: l.ExternalMessageID,
		SentAt:            l.SentAt,
		DeliveredAt:       l.DeliveredAt,
		ReadAt:            l.ReadAt,
		FailureReason:     l.FailureReason,
		CreatedAt:         l.CreatedAt,
	}
}

func toCommunicationLogModel(e *CommunicationLogEntity) *model.CommunicationLog {
	if e == nil {
		return nil
	}
	return &model.CommunicationLog{
		ID:                e.ID,
		OrderID:           e.OrderID,
		Type:              model.CommunicationType(e.Type),
		SenderID:          e.SenderID,
		RecipientID:       e.RecipientID,
		RecipientEmail:    e.RecipientEmail,
		RecipientPhone:    e.RecipientPhone,
		Subject:           e.Subject,
		Content:           e.Content,
		TemplateUsed:      e.TemplateUsed,
		DeliveryStatus:    model.DeliveryStatus(e.DeliveryStatus),
		ExternalMessageID: e.ExternalMessageID,
		SentAt:            e.SentAt,
		DeliveredAt:       e.DeliveredAt,
		ReadAt:            e.ReadAt,
		FailureReason:     e.FailureReason,
		CreatedAt:         e.CreatedAt,
	}
}

func toCommunicationLogModels(entities []*CommunicationLogEntity) []*model.CommunicationLog {
	models := make([]*model.CommunicationLog, len(entities))
	for i, e := range entities {
		models[i] = toCommunicationLogModel(e)
	}
	return models
}

func toDeliveryLogEntity(dl *model.NotificationDeliveryLog) *NotificationDeliveryLogEntity {
	if dl == nil {
		return nil
	}
	return &NotificationDeliveryLogEntity{
		ID:                 dl.ID,
		CommunicationLogID: dl.CommunicationLogID,
		DeliveryProvider:   dl.DeliveryProvider,
		ExternalID:         dl.ExternalID,
		Status:             string(dl.Status),
		StatusDetails:      dl.StatusDetails,
		UpdatedAt:          dl.UpdatedAt,
	}
}

func toDeliveryLogModel(e *NotificationDeliveryLogEntity) *model.NotificationDeliveryLog {
	if e == nil {
		return nil
	}
	return &model.NotificationDeliveryLog{
		ID:                 e.ID,
		CommunicationLogID: e.CommunicationLogID,
		DeliveryProvider:   e.DeliveryProvider,
		ExternalID:         e.ExternalID,
		Status:             model.DeliveryStatus(e.Status),
		StatusDetails:      e.StatusDetails,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toDeliveryLogModels(entities []*NotificationDeliveryLogEntity) []*model.NotificationDeliveryLog {
	models := make([]*model.NotificationDeliveryLog, len(entities))
	for i, e := range entities {
		models[i] = toDeliveryLogModel(e)
	}
	return models
}
