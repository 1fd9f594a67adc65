package repository

import (
	"context"
	"errors"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/pg"
	"gorm.io/gorm"
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toOrderModel(&entity), nil
}
