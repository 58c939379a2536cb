package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	shophttp "github.com/vasiliy-maslov/shop-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

func TestAdminOrderHandler_List(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		s := newServices()
		s.orders.On("List", mock.Anything, order.ListRequest{Status: order.StatusPaid, Limit: 5, Offset: 10}).
			Return([]order.Order{}, nil).Once()

		rr := s.do(http.MethodGet, "/api/admin/orders?status=paid&limit=5&offset=10", "", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
		s.assertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		s := newServices()

		rr := s.do(http.MethodGet, "/api/admin/orders?limit=abc", "", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		s := newServices()
		s.orders.On("List", mock.Anything, order.ListRequest{Status: "LOST"}).
			Return(nil, apperr.BadRequest(`unknown order status "LOST"`)).Once()

		rr := s.do(http.MethodGet, "/api/admin/orders?status=lost", "", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAdminOrderHandler_PendingRecentStats(t *testing.T) {
	s := newServices()
	s.orders.On("ListPending", mock.Anything).Return([]order.Order{*sampleOrder(order.StatusPending)}, nil).Once()
	s.orders.On("ListRecent", mock.Anything).Return([]order.Order{}, nil).Once()
	s.orders.On("CountByStatus", mock.Anything).Return(map[order.Status]int64{
		order.StatusPending:   2,
		order.StatusPaid:      1,
		order.StatusCancelled: 0,
	}, nil).Once()

	rr := s.do(http.MethodGet, "/api/admin/orders/pending", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]shophttp.OrderResponse](t, rr), 1)

	rr = s.do(http.MethodGet, "/api/admin/orders/recent", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/admin/orders/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decodeBody[shophttp.StatusCountResponse](t, rr)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Counts["PENDING"])
	assert.Contains(t, stats.Counts, "CANCELLED")

	s.assertExpectations(t)
}

func TestAdminOrderHandler_GetByIDAndNumber(t *testing.T) {
	s := newServices()
	o := sampleOrder(order.StatusConfirmed)
	s.orders.On("Get", mock.Anything, o.ID).Return(o, nil).Once()
	s.orders.On("GetByNumber", mock.Anything, o.Number).Return(o, nil).Once()

	rr := s.do(http.MethodGet, "/api/admin/orders/"+o.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/admin/orders/number/"+o.Number, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	s.assertExpectations(t)
}

func TestAdminOrderHandler_ChangeStatus(t *testing.T) {
	t.Run("explicit status", func(t *testing.T) {
		s := newServices()
		o := sampleOrder(order.StatusDelivered)
		s.orders.On("ChangeStatusAdmin", mock.Anything, o.ID, order.StatusDelivered).Return(o, nil).Once()

		rr := s.do(http.MethodPut, "/api/admin/orders/"+o.ID.String()+"/status", `{"status":"delivered"}`, nil)

		require.Equal(t, http.StatusOK, rr.Code)
		s.assertExpectations(t)
	})

	t.Run("missing status", func(t *testing.T) {
		s := newServices()

		rr := s.do(http.MethodPut, "/api/admin/orders/"+newID().String()+"/status", `{}`, nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		s := newServices()
		orderID := newID()
		s.orders.On("ChangeStatusAdmin", mock.Anything, orderID, order.StatusShipped).
			Return(nil, order.CanTransition(order.StatusPending, order.StatusShipped)).Once()

		rr := s.do(http.MethodPut, "/api/admin/orders/"+orderID.String()+"/ship", "", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[shophttp.ErrorResponse](t, rr)
		assert.Equal(t, "from PENDING the order can only move to CONFIRMED or CANCELLED", body.Error)
	})

	shortcuts := map[string]order.Status{
		"confirm": order.StatusConfirmed,
		"pay":     order.StatusPaid,
		"prepare": order.StatusPreparing,
		"ship":    order.StatusShipped,
		"deliver": order.StatusDelivered,
		"cancel":  order.StatusCancelled,
	}
	for action, status := range shortcuts {
		t.Run("shortcut "+action, func(t *testing.T) {
			s := newServices()
			o := sampleOrder(status)
			s.orders.On("ChangeStatusAdmin", mock.Anything, o.ID, status).Return(o, nil).Once()

			rr := s.do(http.MethodPut, "/api/admin/orders/"+o.ID.String()+"/"+action, "", nil)

			require.Equal(t, http.StatusOK, rr.Code)
			body := decodeBody[shophttp.OrderResponse](t, rr)
			assert.Equal(t, status.String(), body.Status)
			s.assertExpectations(t)
		})
	}
}
