package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/cart"
)

type cartResponse struct {
	Items     []cart.Line     `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

func toCartResponse(c cart.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Line{}
	}
	return cartResponse{
		Items:     items,
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
	}
}

// GetCart returns the caller's saved cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	c, err := h.carts.Get(r.Context(), claims.Subject)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem merges a product line into the cart, looking the product up
// so the stored line carries its current name and price.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "quantity must be greater than 0")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	c, err := h.carts.Get(r.Context(), claims.Subject)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	c = c.Add(cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  req.Quantity,
	})
	if err := h.carts.Save(r.Context(), claims.Subject, c); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

type updateCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateCart sets a line's quantity; zero or less removes the line.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req updateCartRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.Get(r.Context(), claims.Subject)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	c = c.UpdateQuantity(req.ProductID, req.Quantity)
	if err := h.carts.Save(r.Context(), claims.Subject, c); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if err := h.carts.Delete(r.Context(), claims.Subject); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart.Cart{}))
}
