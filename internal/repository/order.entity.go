package repository

import (
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

type OrderEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	OrganizationID int64     `db:"organization_id" gorm:"column:organization_id;not null;index"`
	OrderNumber    string    `db:"order_number"    gorm:"column:order_number;not null"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

type UserEntity struct {
	ID             int64  `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	OrganizationID int64  `db:"organization_id" gorm:"column:organization_id;index"`
	Name           string `db:"name"            gorm:"column:name"`
	Email          string `db:"email"           gorm:"column:email"`
	Role           string `db:"role"            gorm:"column:role"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	return &model.Order{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		OrderNumber:    e.OrderNumber,
		CreatedAt:      e.CreatedAt,
	}
}
