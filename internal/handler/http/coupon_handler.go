package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
)

// Amount stays a string so validation sees exactly what the client sent.
type ValidateCouponRequest struct {
	Code   string `json:"code"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type CouponHandler struct {
	service  coupon.Service
	validate *validator.Validate
}

func NewCouponHandler(service coupon.Service) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CouponHandler) RegisterRoutes(router chi.Router) {
	router.Post("/coupons/validate", h.handleValidate)
	router.Get("/coupons/{code}", h.handleGetByCode)
}

func (h *CouponHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	// A rejected coupon is still a 200: the verdict is in the body.
	res, err := h.service.Validate(r.Context(), req.Code, amount)
	if err != nil {
		respondWithServiceError(w, err, "Failed to validate coupon")
		return
	}
	respondWithJSON(w, http.StatusOK, toCouponValidationResponse(res))
}

func (h *CouponHandler) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get coupon")
		return
	}
	respondWithJSON(w, http.StatusOK, toCouponSummary(c.Summary()))
}
