// Package mocks holds hand-written testify mocks for the usecase ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/usecase"
)

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepo) GetByCheckoutRef(ctx context.Context, provider, ref string) (*domain.Order, error) {
	args := m.Called(ctx, provider, ref)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepo) List(ctx context.Context, f usecase.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, f)
	if o := args.Get(0); o != nil {
		return o.([]domain.Order), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockOrderRepo) AttachCheckoutRef(ctx context.Context, id, provider, ref string) error {
	args := m.Called(ctx, id, provider, ref)
	return args.Error(0)
}

func (m *MockOrderRepo) ApprovePaymentIf(ctx context.Context, id, paymentRef string) (bool, error) {
	args := m.Called(ctx, id, paymentRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id string, to domain.Status) error {
	args := m.Called(ctx, id, to)
	return args.Error(0)
}

func (m *MockOrderRepo) UpdateShipping(ctx context.Context, id string, email, zipCode string) error {
	args := m.Called(ctx, id, email, zipCode)
	return args.Error(0)
}

func (m *MockOrderRepo) SetArchived(ctx context.Context, id string, archived bool, reason string) error {
	args := m.Called(ctx, id, archived, reason)
	return args.Error(0)
}

func (m *MockOrderRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepo) DecrementStock(ctx context.Context, productID, size string, qty int) error {
	args := m.Called(ctx, productID, size, qty)
	return args.Error(0)
}

type MockProcessedPayments struct {
	mock.Mock
}

func (m *MockProcessedPayments) MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error) {
	args := m.Called(ctx, provider, paymentID)
	return args.Bool(0), args.Error(1)
}

type MockOrderCache struct {
	mock.Mock
}

func (m *MockOrderCache) SetStatus(ctx context.Context, orderID string, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderCache) GetStatus(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

type MockStatusEvents struct {
	mock.Mock
}

func (m *MockStatusEvents) PublishStatusChanged(ctx context.Context, msg usecase.OrderStatusChangedMsg) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockNotifications struct {
	mock.Mock
}

func (m *MockNotifications) PublishConfirmed(ctx context.Context, msg usecase.OrderConfirmedMsg) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockWebhookLog struct {
	mock.Mock
}

func (m *MockWebhookLog) Record(ctx context.Context, e usecase.WebhookRecord) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockCheckoutGateway struct {
	mock.Mock
}

func (m *MockCheckoutGateway) CreateCheckout(ctx context.Context, provider string, req payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	args := m.Called(ctx, provider, req)
	if r := args.Get(0); r != nil {
		return r.(*payment.CheckoutResult), args.Error(1)
	}
	return nil, args.Error(1)
}
