package cart_test

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) cart(args mock.Arguments) (*cart.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, id))
}

func (m *MockCartRepository) GetBySession(ctx context.Context, token string) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, token))
}

func (m *MockCartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockCartRepository) Create(ctx context.Context, c *cart.Cart) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) AssignToUser(ctx context.Context, cartID, userID uuid.UUID) error {
	return m.Called(ctx, cartID, userID).Error(0)
}

func (m *MockCartRepository) Touch(ctx context.Context, cartID uuid.UUID, updatedAt, expiresAt time.Time) error {
	return m.Called(ctx, cartID, updatedAt, expiresAt).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockCartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*cart.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartRepository) InsertItem(ctx context.Context, item *cart.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) UpdateItem(ctx context.Context, item *cart.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error {
	return m.Called(ctx, itemID, cartID).Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockCartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

type MockVariantLookup struct {
	mock.Mock
}

func (m *MockVariantLookup) GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
