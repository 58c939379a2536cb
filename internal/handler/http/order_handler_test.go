package http_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	shophttp "github.com/vasiliy-maslov/shop-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

func sampleOrder(status order.Status) *order.Order {
	code := "SAVE10"
	o := &order.Order{
		ID:              newID(),
		Number:          "PED-20250510-00042",
		UserID:          newID(),
		Status:          status,
		ShippingCost:    dec("0"),
		Discount:        dec("20"),
		CouponCode:      &code,
		ShippingAddress: "Calle Falsa 123",
		ShippingCity:    "Springfield",
		PaymentMethod:   order.PaymentCreditCard,
		PlacedAt:        testNow,
		UpdatedAt:       testNow,
		Lines: []order.Line{
			{ID: newID(), VariantID: newID(), ProductName: "Tee", Quantity: 2, UnitPrice: dec("100"), Subtotal: dec("200")},
		},
	}
	o.RecalculateTotals()
	return o
}

func TestOrderHandler_Create(t *testing.T) {
	userID := newID()
	payload := `{
		"shipping_address": "Calle Falsa 123",
		"shipping_city": "Springfield",
		"payment_method": "CREDIT_CARD",
		"coupon_code": "save10"
	}`

	t.Run("success", func(t *testing.T) {
		s := newServices()

		var got order.CreateRequest
		s.orders.On("CreateFromCart", mock.Anything, userID, mock.AnythingOfType("order.CreateRequest")).
			Run(func(args mock.Arguments) { got = args.Get(2).(order.CreateRequest) }).
			Return(sampleOrder(order.StatusPending), nil).Once()

		rr := s.do(http.MethodPost, "/api/orders", payload, userHeader(userID))

		require.Equal(t, http.StatusCreated, rr.Code)
		want := order.CreateRequest{
			ShippingAddress: "Calle Falsa 123",
			ShippingCity:    "Springfield",
			PaymentMethod:   order.PaymentCreditCard,
			CouponCode:      "save10",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CreateRequest mismatch (-want +got):\n%s", diff)
		}

		body := decodeBody[shophttp.OrderResponse](t, rr)
		assert.Equal(t, "200.00", body.Subtotal)
		assert.Equal(t, "20.00", body.Discount)
		assert.Equal(t, "180.00", body.Total)
		assert.Equal(t, "PENDING", body.Status)
		assert.Equal(t, 2, body.ItemCount)
		require.NotNil(t, body.CouponCode)
		assert.Equal(t, "SAVE10", *body.CouponCode)
		s.assertExpectations(t)
	})

	t.Run("requires user", func(t *testing.T) {
		s := newServices()

		rr := s.do(http.MethodPost, "/api/orders", payload, nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[shophttp.ErrorResponse](t, rr)
		assert.Equal(t, "X-User-Id header is required", body.Error)
	})

	t.Run("validation", func(t *testing.T) {
		s := newServices()

		rr := s.do(http.MethodPost, "/api/orders",
			`{"shipping_city":"X","payment_method":"BITCOIN"}`, userHeader(userID))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[shophttp.ValidationErrorResponse](t, rr)
		assert.Equal(t, "is required", body.Details["shipping_address"])
		assert.Contains(t, body.Details["payment_method"], "must be one of CREDIT_CARD")
	})

	t.Run("fields wider than their columns", func(t *testing.T) {
		s := newServices()
		oversized, err := json.Marshal(map[string]string{
			"shipping_address":     strings.Repeat("a", 300),
			"shipping_city":        strings.Repeat("c", 101),
			"shipping_postal_code": strings.Repeat("1", 15),
			"contact_phone":        strings.Repeat("9", 25),
			"notes":                strings.Repeat("n", 800),
			"payment_method":       "CASH_ON_DELIVERY",
		})
		require.NoError(t, err)

		rr := s.do(http.MethodPost, "/api/orders", string(oversized), userHeader(userID))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[shophttp.ValidationErrorResponse](t, rr)
		assert.Equal(t, map[string]string{
			"shipping_address":     "must be at most 255",
			"shipping_city":        "must be at most 100",
			"shipping_postal_code": "must be at most 10",
			"contact_phone":        "must be at most 20",
			"notes":                "must be at most 500",
		}, body.Details)
		s.orders.AssertNotCalled(t, "CreateFromCart", mock.Anything, mock.Anything, mock.Anything)
	})

	errCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty cart", apperr.CartEmpty("cannot create an order from an empty cart"), http.StatusBadRequest, "CART_EMPTY"},
		{"coupon rejected", apperr.BadRequest("invalid coupon: minimum purchase of 500.00 required"), http.StatusBadRequest, "BAD_REQUEST"},
		{"stock", apperr.InsufficientStock(newID(), 2, 1), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"unknown user", apperr.NotFound("User", "id", userID), http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServices()
			s.orders.On("CreateFromCart", mock.Anything, userID, mock.Anything).Return(nil, tc.err).Once()

			rr := s.do(http.MethodPost, "/api/orders", payload, userHeader(userID))

			require.Equal(t, tc.status, rr.Code)
			body := decodeBody[shophttp.ErrorResponse](t, rr)
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, apperr.Message(tc.err), body.Error)
		})
	}
}

func TestOrderHandler_Reads(t *testing.T) {
	s := newServices()
	userID := newID()
	o := sampleOrder(order.StatusPaid)

	s.orders.On("ListForUser", mock.Anything, userID).Return([]order.Order{*o}, nil).Once()
	s.orders.On("GetForUser", mock.Anything, userID, o.ID).Return(o, nil).Once()
	s.orders.On("GetByNumberForUser", mock.Anything, userID, o.Number).Return(o, nil).Once()

	rr := s.do(http.MethodGet, "/api/orders", "", userHeader(userID))
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]shophttp.OrderResponse](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, o.Number, list[0].Number)

	rr = s.do(http.MethodGet, "/api/orders/"+o.ID.String(), "", userHeader(userID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/orders/number/"+o.Number, "", userHeader(userID))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[shophttp.OrderResponse](t, rr)
	assert.Equal(t, o.ID, body.ID)

	s.assertExpectations(t)
}

func TestOrderHandler_GetNotFound(t *testing.T) {
	s := newServices()
	userID := newID()
	orderID := newID()
	s.orders.On("GetForUser", mock.Anything, userID, orderID).
		Return(nil, apperr.NotFound("Order", "id", orderID)).Once()

	rr := s.do(http.MethodGet, "/api/orders/"+orderID.String(), "", userHeader(userID))

	require.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeBody[shophttp.ErrorResponse](t, rr)
	assert.Equal(t, "Order not found with id '"+orderID.String()+"'", body.Error)
}

func TestOrderHandler_Cancel(t *testing.T) {
	userID := newID()

	t.Run("success", func(t *testing.T) {
		s := newServices()
		o := sampleOrder(order.StatusCancelled)
		s.orders.On("CancelByUser", mock.Anything, userID, o.ID).Return(o, nil).Once()

		rr := s.do(http.MethodPut, "/api/orders/"+o.ID.String()+"/cancel", "", userHeader(userID))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody[shophttp.OrderResponse](t, rr)
		assert.Equal(t, "CANCELLED", body.Status)
	})

	t.Run("too late", func(t *testing.T) {
		s := newServices()
		orderID := newID()
		s.orders.On("CancelByUser", mock.Anything, userID, orderID).
			Return(nil, apperr.BadRequest("order cannot be cancelled in status SHIPPED")).Once()

		rr := s.do(http.MethodPut, "/api/orders/"+orderID.String()+"/cancel", "", userHeader(userID))

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		s := newServices()

		rr := s.do(http.MethodPut, "/api/orders/123/cancel", "", userHeader(userID))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[shophttp.ErrorResponse](t, rr)
		assert.Equal(t, "invalid order ID format", body.Error)
	})
}
