package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/product"
)

type productResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image,omitempty"`

	// CostPrice is only populated for admin callers.
	CostPrice *decimal.Decimal `json:"cost_price,omitempty"`
}

// ListProducts returns the active catalogue. Admin tokens additionally see
// cost prices.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	admin := false
	if header := r.Header.Get("Authorization"); len(header) > 7 {
		if claims, err := h.tokens.Verify(header[7:]); err == nil {
			admin = claims.Admin
		}
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p, admin)
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": resp})
}

func toProductResponse(p product.Product, admin bool) productResponse {
	resp := productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Image:    p.Image,
	}
	if admin {
		cost := p.CostPrice
		resp.CostPrice = &cost
	}
	return resp
}
