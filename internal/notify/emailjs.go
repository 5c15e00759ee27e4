// Package notify sends order confirmation emails through the EmailJS REST
// API, matching the template the storefront already uses.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
)

const sendURL = "https://api.emailjs.com/api/v1.0/email/send"

// Config identifies the EmailJS service and template to use.
type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	Timeout    time.Duration
}

// Mailer sends transactional emails for placed orders.
type Mailer struct {
	cfg  Config
	http *http.Client
}

// NewMailer creates a Mailer. A zero Timeout defaults to 15s.
func NewMailer(cfg Config) *Mailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Mailer{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the mailer has credentials configured. An
// unconfigured mailer is a no-op so local setups work without EmailJS.
func (m *Mailer) Enabled() bool {
	return m.cfg.ServiceID != "" && m.cfg.TemplateID != "" && m.cfg.PublicKey != ""
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// OrderConfirmation emails the customer a summary of their placed order.
func (m *Mailer) OrderConfirmation(ctx context.Context, o *order.Order) error {
	if !m.Enabled() {
		return nil
	}

	lines := make([]string, len(o.Items))
	for i, item := range o.Items {
		lines[i] = fmt.Sprintf("%s x%d", item.ProductName, item.Quantity)
	}

	req := sendRequest{
		ServiceID:  m.cfg.ServiceID,
		TemplateID: m.cfg.TemplateID,
		UserID:     m.cfg.PublicKey,
		TemplateParams: map[string]string{
			"to_email":        o.Customer.Email,
			"customer_name":   o.Customer.DisplayName(),
			"order_id":        o.ID,
			"order_items":     strings.Join(lines, ", "),
			"total_amount":    "R" + o.TotalAmount.StringFixed(2),
			"pickup_location": o.PickupLocation,
			"order_date":      o.OrderedAt.Format("Mon Jan 02 2006"),
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode email request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create email request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "send email")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("emailjs returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}
