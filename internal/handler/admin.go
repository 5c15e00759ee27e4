package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
	"github.com/TessaEngelbrecht/artos-pos/internal/report"
)

type adminOrderResponse struct {
	orderResponse
	Customer     customerResponse `json:"customer"`
	PaymentProof string           `json:"payment_proof,omitempty"`
	Verification *verificationView `json:"verification,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

type verificationView struct {
	Verified   bool             `json:"verified"`
	Summary    string           `json:"summary"`
	Confidence int              `json:"confidence,omitempty"`
	Amount     *decimal.Decimal `json:"detected_amount,omitempty"`
	Issues     []string         `json:"issues,omitempty"`
	Failure    string           `json:"failure,omitempty"`
}

func toAdminOrderResponse(o *order.Order, isAdmin func(email string) bool) adminOrderResponse {
	resp := adminOrderResponse{
		orderResponse: toOrderResponse(o),
		Customer: customerResponse{
			ID:            o.Customer.ID,
			Name:          o.Customer.Name,
			Surname:       o.Customer.Surname,
			Email:         o.Customer.Email,
			ContactNumber: o.Customer.ContactNumber,
			Admin:         isAdmin(o.Customer.Email),
		},
		PaymentProof: o.PaymentProof,
		CompletedAt:  o.CompletedAt,
	}

	if v := o.Verification; v != nil {
		view := &verificationView{
			Verified: v.Accepted(),
			Summary:  v.Summary(),
		}
		if v.Failed() {
			view.Failure = v.Failure
		} else {
			view.Confidence = v.Result.Confidence
			view.Amount = v.Result.DetectedAmount
			view.Issues = v.Result.Issues
		}
		resp.Verification = view
	}
	return resp
}

// AdminListOrders returns every order, newest first.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.ListAll(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	resp := make([]adminOrderResponse, len(orders))
	for i := range orders {
		resp[i] = toAdminOrderResponse(&orders[i], h.tokens.IsAdmin)
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

// AdminCompleteOrder marks an order as handed over.
func (h *Handler) AdminCompleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.MarkCompleted(r.Context(), r.PathValue("id")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(order.StatusCompleted)})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// AdminUpdateNotes replaces the notes on an order.
func (h *Handler) AdminUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.orders.AddNotes(r.Context(), r.PathValue("id"), req.Notes); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"notes": req.Notes})
}

// AdminOrderProof serves the stored payment-proof document for an order.
func (h *Handler) AdminOrderProof(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderRepo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if o.PaymentProof == "" {
		respondError(w, http.StatusNotFound, "no payment proof uploaded")
		return
	}

	data, err := h.proofs.Open(o.PaymentProof)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	switch filepath.Ext(o.PaymentProof) {
	case ".pdf":
		w.Header().Set("Content-Type", "application/pdf")
	case ".png":
		w.Header().Set("Content-Type", "image/png")
	default:
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AdminDeleteOrder removes an order entirely.
func (h *Handler) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// weekRef parses the optional ?week=RFC3339 query parameter, defaulting to
// the current time. Any instant inside a bakery week selects that week.
func weekRef(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return time.Now(), nil
	}
	ref, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week parameter %q", raw)
	}
	return ref, nil
}

// AdminSummary computes and returns the weekly summary for the selected week.
func (h *Handler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := weekRef(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	week, err := h.reports.ForWeek(r.Context(), ref)
	if err != nil {
		h.respondValidationOrDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"week_start": week.Start,
		"week_end":   report.WeekEndDisplay(week.Start),
		"summary":    week.Summary,
	})
}

// AdminExport streams the weekly export document as JSON, gzip-compressed
// when the client accepts it.
func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	week, doc, ok := h.exportDocument(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("weekly-report-%s.json", week.Start.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/json")

	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		if err := doc.EncodeJSONGzip(w); err != nil {
			h.respondDomainError(w, r, err)
		}
		return
	}
	if err := doc.EncodeJSON(w); err != nil {
		h.respondDomainError(w, r, err)
	}
}

// AdminExportPDF streams the printable bake sheet.
func (h *Handler) AdminExportPDF(w http.ResponseWriter, r *http.Request) {
	week, doc, ok := h.exportDocument(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("weekly-report-%s.pdf", week.Start.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/pdf")

	if err := doc.EncodePDF(w); err != nil {
		h.respondDomainError(w, r, err)
	}
}

func (h *Handler) exportDocument(w http.ResponseWriter, r *http.Request) (*report.Week, *report.Document, bool) {
	ref, err := weekRef(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	week, err := h.reports.ForWeek(r.Context(), ref)
	if err != nil {
		h.respondValidationOrDomainError(w, r, err)
		return nil, nil, false
	}
	return week, week.Export(), true
}

// respondValidationOrDomainError surfaces aggregation validation failures
// as 422 so the admin sees which order is malformed.
func (h *Handler) respondValidationOrDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *report.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, http.StatusUnprocessableEntity, vErr.Error())
		return
	}
	h.respondDomainError(w, r, err)
}
