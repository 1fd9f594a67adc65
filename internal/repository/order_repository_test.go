package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db.DB)
	ctx := context.Background()

	orderID := seedOrder(t, db, 42, "CG-2025-100")

	t.Run("found", func(t *testing.T) {
		order, err := repo.Get(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), order.OrganizationID)
		assert.Equal(t, "CG-2025-100", order.OrderNumber)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
