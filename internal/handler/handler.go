// Package handler exposes the storefront over JSON REST. Handlers decode
// requests, delegate to domain services, and map domain errors to
// {code,message} bodies.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/TessaEngelbrecht/artos-pos/internal/auth"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/customer"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/product"
	"github.com/TessaEngelbrecht/artos-pos/internal/filestore"
	"github.com/TessaEngelbrecht/artos-pos/internal/notify"
	"github.com/TessaEngelbrecht/artos-pos/internal/report"
	"github.com/TessaEngelbrecht/artos-pos/internal/storage/redis"
	"github.com/TessaEngelbrecht/artos-pos/internal/verify"
)

// PickupLocation is one configured collection point shown at checkout.
type PickupLocation struct {
	Label   string `json:"label"`
	Address string `json:"address"`
	Times   string `json:"times"`
}

// BankDetails is the EFT account shown at checkout.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	BranchCode    string `json:"branch_code"`
}

// Config holds checkout metadata the handlers serve verbatim.
type Config struct {
	PickupLocations []PickupLocation
	Bank            BankDetails
	// OrderDeadline is the human copy for the weekly cutoff, e.g.
	// "Order by Wednesday 16:00 for this week's bake".
	OrderDeadline string
}

// Handler carries every dependency the HTTP surface needs.
type Handler struct {
	cfg       Config
	products  product.Repository
	customers customer.Repository
	orders    *order.Service
	orderRepo order.Repository
	carts     *redis.CartStore
	tokens    *auth.Manager
	reports   *report.Service
	verifier  *verify.Client
	mailer    *notify.Mailer
	proofs    *filestore.Store
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	customers customer.Repository,
	orders *order.Service,
	orderRepo order.Repository,
	carts *redis.CartStore,
	tokens *auth.Manager,
	reports *report.Service,
	verifier *verify.Client,
	mailer *notify.Mailer,
	proofs *filestore.Store,
) *Handler {
	return &Handler{
		cfg:       cfg,
		products:  products,
		customers: customers,
		orders:    orders,
		orderRepo: orderRepo,
		carts:     carts,
		tokens:    tokens,
		reports:   reports,
		verifier:  verifier,
		mailer:    mailer,
		proofs:    proofs,
	}
}

// Routes registers every API route on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/login", h.Login)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/checkout/info", h.CheckoutInfo)

	mux.Handle("GET /api/cart", h.requireAuth(h.GetCart))
	mux.Handle("POST /api/cart/items", h.requireAuth(h.AddCartItem))
	mux.Handle("PUT /api/cart", h.requireAuth(h.UpdateCart))
	mux.Handle("DELETE /api/cart", h.requireAuth(h.ClearCart))

	mux.Handle("POST /api/orders", h.requireAuth(h.PlaceOrder))
	mux.Handle("GET /api/orders/{id}/qr", h.requireAuth(h.OrderQR))
	mux.Handle("POST /api/orders/{id}/proof", h.requireAuth(h.UploadProof))

	mux.Handle("GET /api/admin/orders", h.requireAdmin(h.AdminListOrders))
	mux.Handle("POST /api/admin/orders/{id}/complete", h.requireAdmin(h.AdminCompleteOrder))
	mux.Handle("GET /api/admin/orders/{id}/proof", h.requireAdmin(h.AdminOrderProof))
	mux.Handle("PUT /api/admin/orders/{id}/notes", h.requireAdmin(h.AdminUpdateNotes))
	mux.Handle("DELETE /api/admin/orders/{id}", h.requireAdmin(h.AdminDeleteOrder))
	mux.Handle("GET /api/admin/summary", h.requireAdmin(h.AdminSummary))
	mux.Handle("GET /api/admin/summary/export", h.requireAdmin(h.AdminExport))
	mux.Handle("GET /api/admin/summary/export.pdf", h.requireAdmin(h.AdminExportPDF))
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Code: status, Message: message})
}

// respondDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and surfaced as 500 without leaking internals.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *order.InvalidQuantityError
		pnfErr *order.ProductNotFoundError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrUnknownLocation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr):
		respondError(w, http.StatusUnprocessableEntity, iqErr.Error())
	case errors.As(err, &pnfErr):
		respondError(w, http.StatusUnprocessableEntity, pnfErr.Error())
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, customer.ErrNotFound):
		respondError(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, customer.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// CheckoutInfo serves the pickup locations, EFT details, and deadline copy.
func (h *Handler) CheckoutInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"pickup_locations": h.cfg.PickupLocations,
		"bank":             h.cfg.Bank,
		"order_deadline":   h.cfg.OrderDeadline,
	})
}
