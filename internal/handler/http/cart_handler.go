package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
)

type AddItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Put("/items/{itemID}", h.handleUpdateQuantity)
		r.Delete("/items/{itemID}", h.handleRemoveItem)
		r.Post("/transfer", h.handleTransfer)
	})
}

// identity resolves the caller and echoes the session token back so anonymous
// clients learn the token of a freshly minted cart.
func (h *CartHandler) identity(w http.ResponseWriter, r *http.Request) (cart.Identity, bool) {
	id, minted, err := identityFromRequest(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return cart.Identity{}, false
	}
	if !id.IsUser() {
		w.Header().Set(headerSessionID, id.SessionToken)
		if minted {
			log.Debug().Str("session_token", id.SessionToken).Msg("Issued new cart session")
		}
	}
	return id, true
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	c, err := h.service.GetOrCreate(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load cart")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	variantID, err := uuid.FromString(req.VariantID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid variant ID format")
		return
	}

	c, err := h.service.AddItem(r.Context(), id, variantID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseUUIDParam(chi.URLParam(r, "itemID"), "item ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid item ID")
		return
	}

	var req UpdateQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	c, err := h.service.UpdateQuantity(r.Context(), id, itemID, *req.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart item")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseUUIDParam(chi.URLParam(r, "itemID"), "item ID")
	if err != nil {
		respondWithServiceError(w, err, "Invalid item ID")
		return
	}

	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	c, err := h.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove cart item")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	c, err := h.service.Clear(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}

	token, err := sessionToken(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to resolve caller")
		return
	}
	if token == "" {
		respondWithError(w, http.StatusBadRequest, headerSessionID+" header is required")
		return
	}

	c, err := h.service.TransferAnonymousToUser(r.Context(), token, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to transfer cart")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(c))
}
