package http_test

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*cart.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) GetOrCreate(ctx context.Context, id cart.Identity) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id))
}

func (m *MockCartService) AddItem(ctx context.Context, id cart.Identity, variantID uuid.UUID, quantity int) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id, variantID, quantity))
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, id cart.Identity, itemID uuid.UUID, quantity int) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id, itemID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, id cart.Identity, itemID uuid.UUID) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id, itemID))
}

func (m *MockCartService) Clear(ctx context.Context, id cart.Identity) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id))
}

func (m *MockCartService) TransferAnonymousToUser(ctx context.Context, sessionToken string, userID uuid.UUID) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, sessionToken, userID))
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Validate(ctx context.Context, code string, amount decimal.Decimal) (*coupon.ValidationResult, error) {
	args := m.Called(ctx, code, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.ValidationResult), args.Error(1)
}

func (m *MockCouponService) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponService) Redeem(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) one(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) many(args mock.Arguments) ([]order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) CreateFromCart(ctx context.Context, userID uuid.UUID, req order.CreateRequest) (*order.Order, error) {
	return m.one(m.Called(ctx, userID, req))
}

func (m *MockOrderService) CancelByUser(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	return m.one(m.Called(ctx, userID, orderID))
}

func (m *MockOrderService) ChangeStatusAdmin(ctx context.Context, orderID uuid.UUID, newStatus order.Status) (*order.Order, error) {
	return m.one(m.Called(ctx, orderID, newStatus))
}

func (m *MockOrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	return m.one(m.Called(ctx, userID, orderID))
}

func (m *MockOrderService) GetByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*order.Order, error) {
	return m.one(m.Called(ctx, userID, number))
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.many(m.Called(ctx, userID))
}

func (m *MockOrderService) Get(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return m.one(m.Called(ctx, orderID))
}

func (m *MockOrderService) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return m.one(m.Called(ctx, number))
}

func (m *MockOrderService) List(ctx context.Context, req order.ListRequest) ([]order.Order, error) {
	return m.many(m.Called(ctx, req))
}

func (m *MockOrderService) ListPending(ctx context.Context) ([]order.Order, error) {
	return m.many(m.Called(ctx))
}

func (m *MockOrderService) ListRecent(ctx context.Context) ([]order.Order, error) {
	return m.many(m.Called(ctx))
}

func (m *MockOrderService) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[order.Status]int64), args.Error(1)
}
