package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

// Limits follow the widths of the orders columns.
type CreateOrderRequest struct {
	ShippingAddress    string `json:"shipping_address" validate:"required,max=255"`
	ShippingCity       string `json:"shipping_city" validate:"required,max=100"`
	ShippingPostalCode string `json:"shipping_postal_code" validate:"omitempty,max=10"`
	ContactPhone       string `json:"contact_phone" validate:"omitempty,max=20"`
	Notes              string `json:"notes" validate:"omitempty,max=500"`
	PaymentMethod      string `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD BANK_TRANSFER MERCADO_PAGO CASH_ON_DELIVERY"`
	CouponCode         string `json:"coupon_code" validate:"omitempty,max=50"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Get("/", h.handleListOrders)
		r.Get("/number/{number}", h.handleGetOrderByNumber)
		r.Get("/{id}", h.handleGetOrder)
		r.Put("/{id}/cancel", h.handleCancelOrder)
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}

	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateFromCart(r.Context(), userID, order.CreateRequest{
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingPostalCode: req.ShippingPostalCode,
		ContactPhone:       req.ContactPhone,
		Notes:              req.Notes,
		PaymentMethod:      order.PaymentMethod(req.PaymentMethod),
		CouponCode:         req.CouponCode,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	log.Info().Stringer("order_id", created.ID).Str("number", created.Number).Msg("Order placed")
	respondWithJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}

	orders, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}
	orderID, err := parseUUIDParam(chi.URLParam(r, "id"), "order ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid order ID")
		return
	}

	o, err := h.service.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleGetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}

	o, err := h.service.GetByNumberForUser(r.Context(), userID, chi.URLParam(r, "number"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}
	orderID, err := parseUUIDParam(chi.URLParam(r, "id"), "order ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid order ID")
		return
	}

	o, err := h.service.CancelByUser(r.Context(), userID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}
