package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type StatusCountResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// Shortcut routes for the usual forward moves.
var statusShortcuts = map[string]order.Status{
	"confirm": order.StatusConfirmed,
	"pay":     order.StatusPaid,
	"prepare": order.StatusPreparing,
	"ship":    order.StatusShipped,
	"deliver": order.StatusDelivered,
	"cancel":  order.StatusCancelled,
}

type AdminOrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewAdminOrderHandler(service order.Service) *AdminOrderHandler {
	return &AdminOrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *AdminOrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/admin/orders", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/pending", h.handleListPending)
		r.Get("/recent", h.handleListRecent)
		r.Get("/stats", h.handleStats)
		r.Get("/number/{number}", h.handleGetByNumber)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}/status", h.handleChangeStatus)
		for action, status := range statusShortcuts {
			r.Put("/{id}/"+action, h.shortcut(status))
		}
	})
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func (h *AdminOrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	orders, err := h.service.List(r.Context(), order.ListRequest{
		Status: order.Status(strings.ToUpper(r.URL.Query().Get("status"))),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *AdminOrderHandler) handleListPending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListPending(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list pending orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *AdminOrderHandler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListRecent(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list recent orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *AdminOrderHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountByStatus(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to count orders")
		return
	}

	resp := StatusCountResponse{Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.Counts[status.String()] = n
		resp.Total += n
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminOrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseUUIDParam(chi.URLParam(r, "id"), "order ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid order ID")
		return
	}

	o, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *AdminOrderHandler) handleGetByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *AdminOrderHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	h.changeStatus(w, r, order.Status(strings.ToUpper(strings.TrimSpace(req.Status))))
}

func (h *AdminOrderHandler) shortcut(status order.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.changeStatus(w, r, status)
	}
}

func (h *AdminOrderHandler) changeStatus(w http.ResponseWriter, r *http.Request, status order.Status) {
	orderID, err := parseUUIDParam(chi.URLParam(r, "id"), "order ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid order ID")
		return
	}

	o, err := h.service.ChangeStatusAdmin(r.Context(), orderID, status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to change order status")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}
