package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
	"github.com/TessaEngelbrecht/artos-pos/internal/verify"
)

// maxProofSize bounds payment proof uploads.
const maxProofSize = 10 << 20

type placeOrderRequest struct {
	PickupLocation string `json:"pickup_location"`
	Items          []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type lineItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID             string             `json:"id"`
	OrderedAt      time.Time          `json:"ordered_at"`
	PickupLocation string             `json:"pickup_location"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Status         string             `json:"status"`
	Notes          string             `json:"notes,omitempty"`
	Items          []lineItemResponse `json:"items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = lineItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return orderResponse{
		ID:             o.ID,
		OrderedAt:      o.OrderedAt,
		PickupLocation: o.PickupLocation,
		TotalAmount:    o.TotalAmount,
		Status:         string(o.Status),
		Notes:          o.Notes,
		Items:          items,
	}
}

// PlaceOrder checks out the requested items for the authenticated customer,
// clears their cart, and kicks off the confirmation email.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	placed, err := h.orders.Place(r.Context(), order.PlaceRequest{
		CustomerID:     claims.Subject,
		PickupLocation: req.PickupLocation,
		Items:          items,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if err := h.carts.Delete(r.Context(), claims.Subject); err != nil {
		zctx.From(r.Context()).Warn("Clearing cart after checkout failed",
			zap.String("order_id", placed.ID), zap.Error(err))
	}

	h.sendConfirmation(r.Context(), placed)

	respondJSON(w, http.StatusCreated, toOrderResponse(placed))
}

// sendConfirmation emails the customer in the background. Failures are
// logged, never surfaced to the checkout response.
func (h *Handler) sendConfirmation(ctx context.Context, o *order.Order) {
	lg := zctx.From(ctx)

	c, err := h.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		lg.Warn("Loading customer for confirmation email failed",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	o.Customer = *c

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.mailer.OrderConfirmation(sendCtx, o); err != nil {
			lg.Warn("Confirmation email failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}()
}

// loadOwnedOrder fetches an order and checks the caller owns it or is admin.
func (h *Handler) loadOwnedOrder(w http.ResponseWriter, r *http.Request) *order.Order {
	claims := claimsFrom(r.Context())

	o, err := h.orderRepo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil
	}
	if o.CustomerID != claims.Subject && !claims.Admin {
		respondError(w, http.StatusForbidden, "not your order")
		return nil
	}
	return o
}

// OrderQR renders the EFT payment details for an order as a QR code PNG.
func (h *Handler) OrderQR(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}

	content := fmt.Sprintf("Pay R%s to %s, %s, acc %s, branch %s. Reference: %s",
		o.TotalAmount.StringFixed(2),
		h.cfg.Bank.AccountHolder, h.cfg.Bank.Bank,
		h.cfg.Bank.AccountNumber, h.cfg.Bank.BranchCode,
		o.Customer.DisplayName(),
	)

	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type proofResponse struct {
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
	Summary  string `json:"summary"`
}

// UploadProof accepts a payment proof (image or PDF), stores it, runs
// verification, and moves the order to verified when the proof checks out.
// A verifier failure never fails the upload; the outcome records it.
func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofSize)
	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		respondError(w, http.StatusBadRequest, "proof file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading proof failed")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	path, err := h.proofs.SaveProof(o.ID, data, mimeType)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if err := h.orderRepo.AttachPaymentProof(r.Context(), o.ID, path); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	outcome := h.verifier.Verify(r.Context(), verify.Request{
		Data:              data,
		MimeType:          mimeType,
		ExpectedAmount:    o.TotalAmount,
		ExpectedReference: o.Customer.DisplayName(),
	})

	status := o.Status
	if outcome.Accepted() && status == order.StatusPending {
		status = order.StatusVerified
	}
	if err := h.orderRepo.SaveVerification(r.Context(), o.ID, outcome, status); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, proofResponse{
		Status:   string(status),
		Verified: outcome.Accepted(),
		Summary:  outcome.Summary(),
	})
}
