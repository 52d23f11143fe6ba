package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/usecase"
	"github.com/tiendamx/shop-api/internal/usecase/mocks"
)

func TestAdminOrders_List(t *testing.T) {
	ctx := context.TODO()

	t.Run("clamps page and limit", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		uc := usecase.NewAdminOrders(orders, nil, nil)

		orders.On("List", ctx, usecase.OrderFilter{Page: 1, Limit: 10}).
			Return([]domain.Order{}, 0, nil).Once()

		res, err := uc.List(ctx, usecase.OrderFilter{Page: -3, Limit: 9999})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 10, res.Limit)
		orders.AssertExpectations(t)
	})

	t.Run("computes total pages", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		uc := usecase.NewAdminOrders(orders, nil, nil)

		orders.On("List", ctx, mock.Anything).Return([]domain.Order{{ID: "a"}}, 21, nil).Once()

		res, err := uc.List(ctx, usecase.OrderFilter{Page: 1, Limit: 10})

		assert.NoError(t, err)
		assert.Equal(t, 21, res.Total)
		assert.Equal(t, 3, res.TotalPages)
	})
}

func TestAdminOrders_UpdateStatus(t *testing.T) {
	ctx := context.TODO()

	t.Run("rejects unknown status", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		uc := usecase.NewAdminOrders(orders, nil, nil)

		_, err := uc.UpdateStatus(ctx, "ord-1", domain.Status("paid"))

		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("updates then fans out cache and event", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		cache := new(mocks.MockOrderCache)
		events := new(mocks.MockStatusEvents)
		uc := usecase.NewAdminOrders(orders, cache, events)

		shipped := &domain.Order{ID: "ord-1", OrderNumber: "ORD-1-0001", Status: domain.StatusShipped, PaymentStatus: domain.PaymentApproved}
		orders.On("UpdateStatus", ctx, "ord-1", domain.StatusShipped).Return(nil).Once()
		orders.On("GetByID", ctx, "ord-1").Return(shipped, nil).Once()
		cache.On("SetStatus", ctx, "ord-1", "shipped").Return(nil).Once()
		events.On("PublishStatusChanged", ctx, usecase.OrderStatusChangedMsg{
			OrderID: "ord-1", OrderNumber: "ORD-1-0001", Status: "shipped", PaymentStatus: "approved",
		}).Return(nil).Once()

		order, err := uc.UpdateStatus(ctx, "ord-1", domain.StatusShipped)

		assert.NoError(t, err)
		assert.Equal(t, domain.StatusShipped, order.Status)
		orders.AssertExpectations(t)
		cache.AssertExpectations(t)
		events.AssertExpectations(t)
	})
}

func TestAdminOrders_ArchiveLifecycle(t *testing.T) {
	ctx := context.TODO()

	t.Run("archive and restore never touch status", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		uc := usecase.NewAdminOrders(orders, nil, nil)

		orders.On("SetArchived", ctx, "ord-1", true, "duplicate order").Return(nil).Once()
		orders.On("SetArchived", ctx, "ord-1", false, "").Return(nil).Once()

		assert.NoError(t, uc.Archive(ctx, "ord-1", "duplicate order"))
		assert.NoError(t, uc.Restore(ctx, "ord-1"))

		orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		orders.AssertExpectations(t)
	})

	t.Run("delete archives, permanent delete destroys", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		uc := usecase.NewAdminOrders(orders, nil, nil)

		orders.On("SetArchived", ctx, "ord-1", true, "deleted by admin").Return(nil).Once()
		orders.On("Delete", ctx, "ord-2").Return(nil).Once()

		assert.NoError(t, uc.Delete(ctx, "ord-1"))
		assert.NoError(t, uc.PermanentDelete(ctx, "ord-2"))

		orders.AssertExpectations(t)
	})
}

func TestAdminOrders_Status(t *testing.T) {
	ctx := context.TODO()

	t.Run("cache hit skips storage", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		cache := new(mocks.MockOrderCache)
		uc := usecase.NewAdminOrders(orders, cache, nil)

		cache.On("GetStatus", ctx, "ord-1").Return("shipped", nil).Once()

		s, err := uc.Status(ctx, "ord-1")

		assert.NoError(t, err)
		assert.Equal(t, "shipped", s)
		orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("miss falls back to storage and warms cache", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		cache := new(mocks.MockOrderCache)
		uc := usecase.NewAdminOrders(orders, cache, nil)

		cache.On("GetStatus", ctx, "ord-1").Return("", nil).Once()
		orders.On("GetByID", ctx, "ord-1").
			Return(&domain.Order{ID: "ord-1", Status: domain.StatusConfirmed}, nil).Once()
		cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()

		s, err := uc.Status(ctx, "ord-1")

		assert.NoError(t, err)
		assert.Equal(t, "confirmed", s)
		cache.AssertExpectations(t)
	})

	t.Run("unknown order", func(t *testing.T) {
		orders := new(mocks.MockOrderRepo)
		cache := new(mocks.MockOrderCache)
		uc := usecase.NewAdminOrders(orders, cache, nil)

		cache.On("GetStatus", ctx, "missing").Return("", nil).Once()
		orders.On("GetByID", ctx, "missing").Return(nil, nil).Once()

		_, err := uc.Status(ctx, "missing")

		assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
	})
}

func TestAdminOrders_Get(t *testing.T) {
	ctx := context.TODO()
	orders := new(mocks.MockOrderRepo)
	uc := usecase.NewAdminOrders(orders, nil, nil)

	orders.On("GetByID", ctx, "missing").Return(nil, nil).Once()

	_, err := uc.Get(ctx, "missing")

	assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
}
