package coupon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
)

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo coupon.Repository) coupon.Service {
	return coupon.NewService(repo, func() time.Time { return fixedNow })
}

func TestCouponService_Validate_Success(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := newTestService(mockRepo)

	c := baseCoupon()
	c.MinPurchase = nullDec("50")
	mockRepo.On("GetActiveByCode", mock.Anything, "SAVE10").Return(&c, nil).Once()

	result, err := svc.Validate(context.Background(), " save10 ", dec("200.00"))
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, coupon.ReasonNone, result.Reason)
	assert.True(t, dec("20").Equal(result.Discount))
	require.NotNil(t, result.Coupon)
	assert.Equal(t, "SAVE10", result.Coupon.Code)
	mockRepo.AssertExpectations(t)
}

func TestCouponService_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		amount     string
		setupMock  func(m *MockCouponRepository)
		wantReason coupon.Reason
		wantMsg    string
	}{
		{
			name:       "blank_code",
			code:       "  ",
			amount:     "10",
			wantReason: coupon.ReasonCodeRequired,
		},
		{
			name:       "zero_amount",
			code:       "SAVE10",
			amount:     "0",
			wantReason: coupon.ReasonInvalidAmount,
		},
		{
			name:   "not_found",
			code:   "NOPE",
			amount: "10",
			setupMock: func(m *MockCouponRepository) {
				m.On("GetActiveByCode", mock.Anything, "NOPE").Return(nil, apperr.NotFound("Coupon", "code", "NOPE")).Once()
			},
			wantReason: coupon.ReasonNotFound,
		},
		{
			name:   "below_minimum",
			code:   "SAVE10",
			amount: "30",
			setupMock: func(m *MockCouponRepository) {
				c := baseCoupon()
				c.MinPurchase = nullDec("50")
				m.On("GetActiveByCode", mock.Anything, "SAVE10").Return(&c, nil).Once()
			},
			wantReason: coupon.ReasonBelowMinimum,
			wantMsg:    "minimum purchase of 50.00 required",
		},
		{
			name:   "expired",
			code:   "SAVE10",
			amount: "100",
			setupMock: func(m *MockCouponRepository) {
				c := baseCoupon()
				c.EndsAt = fixedNow.Add(-time.Hour)
				m.On("GetActiveByCode", mock.Anything, "SAVE10").Return(&c, nil).Once()
			},
			wantReason: coupon.ReasonExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockCouponRepository)
			if tt.setupMock != nil {
				tt.setupMock(mockRepo)
			}
			svc := newTestService(mockRepo)

			result, err := svc.Validate(context.Background(), tt.code, dec(tt.amount))
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.wantReason, result.Reason)
			assert.True(t, result.Discount.IsZero())
			assert.NotEmpty(t, result.Message)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, result.Message)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCouponService_Validate_RepositoryError(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := newTestService(mockRepo)

	dbErr := errors.New("connection reset")
	mockRepo.On("GetActiveByCode", mock.Anything, "SAVE10").Return(nil, dbErr).Once()

	result, err := svc.Validate(context.Background(), "SAVE10", dec("10"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, result)
}

func TestCouponService_Redeem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockCouponRepository)
		mockRepo.On("IncrementUsage", mock.Anything, "FLAT15").Return(true, nil).Once()

		require.NoError(t, newTestService(mockRepo).Redeem(context.Background(), "flat15"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("exhausted", func(t *testing.T) {
		mockRepo := new(MockCouponRepository)
		mockRepo.On("IncrementUsage", mock.Anything, "FLAT15").Return(false, nil).Once()

		err := newTestService(mockRepo).Redeem(context.Background(), "FLAT15")
		assert.ErrorIs(t, err, coupon.ErrCouponExhausted)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("not_found", func(t *testing.T) {
		mockRepo := new(MockCouponRepository)
		mockRepo.On("IncrementUsage", mock.Anything, "GONE").Return(false, apperr.NotFound("Coupon", "code", "GONE")).Once()

		err := newTestService(mockRepo).Redeem(context.Background(), "GONE")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCouponService_GetByCode(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	c := baseCoupon()
	mockRepo.On("GetActiveByCode", mock.Anything, "SAVE10").Return(&c, nil).Once()

	svc := newTestService(mockRepo)
	got, err := svc.GetByCode(context.Background(), "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.Code)

	_, err = svc.GetByCode(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}
