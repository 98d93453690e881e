package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   *cart.Registry
	catalog catalog.Catalog
	timeout time.Duration
}

func NewCartHandler(carts *cart.Registry, c catalog.Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: c,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), sessionFrom(r.Context()))
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		catalogError(w, r, err)
		return
	}
	if !product.HasSize(req.Size) {
		respondError(w, http.StatusBadRequest, "invalid_size", "size is not offered for this product")
		return
	}

	store := h.carts.Get(r.Context(), sessionFrom(r.Context()))
	respondJSON(w, http.StatusCreated, store.AddItem(*product, req.Size))
}

// PUT /api/v1/cart/items/{product_id}/{size}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store := h.carts.Get(r.Context(), sessionFrom(r.Context()))
	snapshot := store.SetQuantity(chi.URLParam(r, "product_id"), chi.URLParam(r, "size"), req.Quantity)
	respondJSON(w, http.StatusOK, snapshot)
}

// DELETE /api/v1/cart/items/{product_id}/{size}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), sessionFrom(r.Context()))
	snapshot := store.RemoveItem(chi.URLParam(r, "product_id"), chi.URLParam(r, "size"))
	respondJSON(w, http.StatusOK, snapshot)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), sessionFrom(r.Context()))
	respondJSON(w, http.StatusOK, store.Clear())
}
