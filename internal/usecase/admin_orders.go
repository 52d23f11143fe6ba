package usecase

import (
	"context"
	"fmt"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/logging"
)

// AdminOrders is the administrative surface over persisted orders.
type AdminOrders struct {
	orders OrderRepo
	cache  OrderCache
	events StatusEvents
}

func NewAdminOrders(orders OrderRepo, cache OrderCache, events StatusEvents) *AdminOrders {
	return &AdminOrders{orders: orders, cache: cache, events: events}
}

type ListResult struct {
	Orders     []domain.Order `json:"orders"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func (uc *AdminOrders) List(ctx context.Context, f OrderFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	orders, total, err := uc.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := (total + f.Limit - 1) / f.Limit
	return &ListResult{Orders: orders, Total: total, Page: f.Page, Limit: f.Limit, TotalPages: pages}, nil
}

func (uc *AdminOrders) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus moves the fulfillment axis. The repo stamps the per-status
// timestamp on the first transition into shipped/delivered/cancelled.
func (uc *AdminOrders) UpdateStatus(ctx context.Context, id string, to domain.Status) (*domain.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStatus, to)
	}
	if err := uc.orders.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}

	order, err := uc.orders.GetByID(ctx, id)
	if err != nil || order == nil {
		return nil, ErrOrderNotFound
	}

	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, id, string(to)); err != nil {
			logging.FromCtx(ctx).Warn("status cache update failed", "order_id", id, "err", err)
		}
	}
	if uc.events != nil {
		err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        string(order.Status),
			PaymentStatus: string(order.PaymentStatus),
		})
		if err != nil {
			logging.FromCtx(ctx).Warn("status event publish failed", "order_id", id, "err", err)
		}
	}
	return order, nil
}

// Status serves storefront polling: cache first, storage on a miss (warming
// the cache on the way out).
func (uc *AdminOrders) Status(ctx context.Context, id string) (string, error) {
	if uc.cache != nil {
		if s, err := uc.cache.GetStatus(ctx, id); err == nil && s != "" {
			return s, nil
		}
	}
	order, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", ErrOrderNotFound
	}
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, id, string(order.Status)); err != nil {
			logging.FromCtx(ctx).Warn("status cache warm failed", "order_id", id, "err", err)
		}
	}
	return string(order.Status), nil
}

// Archive flags the order out of the default listing without touching either
// status axis.
func (uc *AdminOrders) Archive(ctx context.Context, id, reason string) error {
	return uc.orders.SetArchived(ctx, id, true, reason)
}

func (uc *AdminOrders) Restore(ctx context.Context, id string) error {
	return uc.orders.SetArchived(ctx, id, false, "")
}

// Delete is the soft path: it archives. Only PermanentDelete destroys rows.
func (uc *AdminOrders) Delete(ctx context.Context, id string) error {
	return uc.orders.SetArchived(ctx, id, true, "deleted by admin")
}

// PermanentDelete removes the order row irreversibly.
func (uc *AdminOrders) PermanentDelete(ctx context.Context, id string) error {
	return uc.orders.Delete(ctx, id)
}
