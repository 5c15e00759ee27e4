package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	err      error
}

func (m *mockProductRepo) List(context.Context) ([]product.Product, error) {
	return m.products, m.err
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		for _, p := range m.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type mockCustomerRepo struct {
	byEmail map[string]*customer.Customer
	byID    map[string]*customer.Customer
	created *customer.Customer
	err     error
}

func (m *mockCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	if m.err != nil {
		return m.err
	}
	m.created = c
	return nil
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

func (m *mockCustomerRepo) GetByEmail(_ context.Context, email string) (*customer.Customer, error) {
	if c, ok := m.byEmail[email]; ok {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

type mockOrderRepo struct {
	orders  []order.Order
	created *order.Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.created = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) ListAll(context.Context) ([]order.Order, error) {
	return m.orders, m.err
}

func (m *mockOrderRepo) ListInRange(context.Context, time.Time, time.Time) ([]order.Order, error) {
	return m.orders, m.err
}

func (m *mockOrderRepo) MarkCompleted(context.Context, string, time.Time) error { return m.err }
func (m *mockOrderRepo) UpdateNotes(context.Context, string, string) error      { return m.err }
func (m *mockOrderRepo) Delete(context.Context, string) error                   { return m.err }
func (m *mockOrderRepo) AttachPaymentProof(context.Context, string, string) error {
	return m.err
}
func (m *mockOrderRepo) SaveVerification(context.Context, string, *verify.Outcome, order.Status) error {
	return m.err
}

// --- Fixture ---

type fixture struct {
	handler   *Handler
	mux       *http.ServeMux
	tokens    *auth.Manager
	products  *mockProductRepo
	customers *mockCustomerRepo
	orders    *mockOrderRepo
	proofs    *filestore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockProductRepo{products: []product.Product{
		{
			ID: "p1", Name: "Rye", Category: "bread", Active: true,
			Price:     decimal.RequireFromString("75.00"),
			CostPrice: decimal.RequireFromString("45.00"),
		},
	}}
	customers := &mockCustomerRepo{
		byEmail: map[string]*customer.Customer{},
		byID:    map[string]*customer.Customer{},
	}
	orders := &mockOrderRepo{}

	tokens := auth.NewManager("test-secret", time.Hour, []string{"admin@artos.co.za"})
	orderService := order.NewService(products, orders, []string{"Centurion", "Doxa"})
	reportService := report.NewService(orders)

	proofs, err := filestore.NewStore(t.TempDir())
	require.NoError(t, err)

	// Cart endpoints are not exercised here; the client points nowhere.
	carts := redis.NewCartStore(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}))

	h := NewHandler(
		Config{
			PickupLocations: []PickupLocation{{Label: "Centurion"}, {Label: "Doxa"}},
			Bank:            BankDetails{AccountHolder: "Artos Bakery", Bank: "FNB"},
			OrderDeadline:   "Order by Wednesday 16:00",
		},
		products, customers, orderService, orders, carts, tokens,
		reportService, verify.NewClient(verify.Config{BaseURL: "http://127.0.0.1:1"}),
		notify.NewMailer(notify.Config{}), proofs,
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	return &fixture{
		handler: h, mux: mux, tokens: tokens,
		products: products, customers: customers, orders: orders,
		proofs: proofs,
	}
}

func (f *fixture) token(t *testing.T, id, email string) string {
	t.Helper()
	token, err := f.tokens.Issue(id, email)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestSignup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Tessa", "surname": "Engelbrecht",
		"email": "Tessa@Example.com", "contact_number": "0821234567",
		"password": "long enough password",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Customer struct {
			Email string `json:"email"`
			Admin bool   `json:"admin"`
		} `json:"customer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "tessa@example.com", resp.Customer.Email)
	assert.False(t, resp.Customer.Admin)

	require.NotNil(t, f.customers.created)
	assert.NotEqual(t, "long enough password", f.customers.created.PasswordHash)
}

func TestSignup_ShortPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "T", "email": "t@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.customers.err = customer.ErrEmailTaken

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "T", "email": "t@example.com", "password": "long enough password",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	hash, err := auth.HashPassword("open sesame please")
	require.NoError(t, err)
	f.customers.byEmail["tessa@example.com"] = &customer.Customer{
		ID: "c1", Name: "Tessa", Email: "tessa@example.com", PasswordHash: hash,
	}

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "tessa@example.com", "password": "open sesame please",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	hash, err := auth.HashPassword("open sesame please")
	require.NoError(t, err)
	f.customers.byEmail["tessa@example.com"] = &customer.Customer{
		ID: "c1", Email: "tessa@example.com", PasswordHash: hash,
	}

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "tessa@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownEmailSameResponse(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "whatever here",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProducts_HidesCostPrice(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cost_price")
}

func TestListProducts_AdminSeesCostPrice(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", f.token(t, "a1", "admin@artos.co.za"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cost_price")
	assert.Contains(t, rec.Body.String(), "45")
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders", "garbage-token", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/orders", f.token(t, "c1", "customer@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/orders", f.token(t, "a1", "admin@artos.co.za"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.customers.byID["c1"] = &customer.Customer{ID: "c1", Name: "Tessa", Email: "t@example.com"}

	rec := f.do(t, http.MethodPost, "/api/orders", f.token(t, "c1", "t@example.com"), map[string]any{
		"pickup_location": "Centurion",
		"items":           []map[string]any{{"product_id": "p1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("150.00")))

	require.NotNil(t, f.orders.created)
	assert.Equal(t, "c1", f.orders.created.CustomerID)
}

func TestPlaceOrder_UnknownLocation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.token(t, "c1", "t@example.com"), map[string]any{
		"pickup_location": "Hatfield",
		"items":           []map[string]any{{"product_id": "p1", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", f.token(t, "c1", "t@example.com"), map[string]any{
		"pickup_location": "Centurion",
		"items":           []map[string]any{{"product_id": "missing", "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderQR_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []order.Order{{
		ID: "o1", CustomerID: "c1",
		Customer:    customer.Customer{Name: "Tessa", Surname: "E"},
		TotalAmount: decimal.RequireFromString("150.00"),
		Status:      order.StatusPending,
	}}

	rec := f.do(t, http.MethodGet, "/api/orders/o1/qr", f.token(t, "c2", "other@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/orders/o1/qr", f.token(t, "c1", "t@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestAdminSummary(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []order.Order{
		{
			ID: "o1", PickupLocation: "Centurion", Status: order.StatusCompleted,
			TotalAmount: decimal.RequireFromString("150.00"),
			Items: []order.LineItem{{
				ProductName: "Rye", Quantity: 2,
				Price:     decimal.RequireFromString("75.00"),
				CostPrice: decimal.RequireFromString("45.00"),
			}},
		},
	}

	rec := f.do(t, http.MethodGet, "/api/admin/summary?week=2024-01-12T10:00:00Z",
		f.token(t, "a1", "admin@artos.co.za"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Summary struct {
			TotalOrders     int            `json:"total_orders"`
			BreadQuantities map[string]int `json:"bread_quantities"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.TotalOrders)
	assert.Equal(t, map[string]int{"Rye": 2}, resp.Summary.BreadQuantities)
}

func TestAdminSummary_BadWeekParam(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/summary?week=tomorrow",
		f.token(t, "a1", "admin@artos.co.za"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminExport_PlainAndGzip(t *testing.T) {
	f := newFixture(t)

	token := f.token(t, "a1", "admin@artos.co.za")
	rec := f.do(t, http.MethodGet, "/api/admin/summary/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "weekly-report-")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "{"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/summary/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Encoding", "gzip")
	gzRec := httptest.NewRecorder()
	f.mux.ServeHTTP(gzRec, req)
	require.Equal(t, http.StatusOK, gzRec.Code)
	assert.Equal(t, "gzip", gzRec.Header().Get("Content-Encoding"))
}

func TestAdminExportPDF(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/summary/export.pdf",
		f.token(t, "a1", "admin@artos.co.za"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestAdminOrderProof(t *testing.T) {
	f := newFixture(t)

	data := []byte("%PDF-1.4 proof document")
	name, err := f.proofs.SaveProof("o1", data, "application/pdf")
	require.NoError(t, err)

	f.orders.orders = []order.Order{
		{ID: "o1", CustomerID: "c1", PaymentProof: name, Status: order.StatusPending},
		{ID: "o2", CustomerID: "c1", Status: order.StatusPending},
	}
	token := f.token(t, "a1", "admin@artos.co.za")

	rec := f.do(t, http.MethodGet, "/api/admin/orders/o1/proof", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	rec = f.do(t, http.MethodGet, "/api/admin/orders/o2/proof", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/orders/o-gone/proof", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListOrders_VerificationFailureView(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []order.Order{{
		ID: "o1", CustomerID: "c1", Status: order.StatusPending,
		Verification: &verify.Outcome{Failure: "verification request: status 429"},
	}}

	rec := f.do(t, http.MethodGet, "/api/admin/orders", f.token(t, "a1", "admin@artos.co.za"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []struct {
			Verification struct {
				Verified bool   `json:"verified"`
				Summary  string `json:"summary"`
				Failure  string `json:"failure"`
			} `json:"verification"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.False(t, resp.Orders[0].Verification.Verified)
	assert.Equal(t, "Verification failed", resp.Orders[0].Verification.Summary)
	assert.Equal(t, "verification request: status 429", resp.Orders[0].Verification.Failure)
}

func TestAdminDeleteOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	f.orders.err = order.ErrNotFound

	rec := f.do(t, http.MethodDelete, "/api/admin/orders/o-gone",
		f.token(t, "a1", "admin@artos.co.za"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutInfo(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/checkout/info", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Centurion")
	assert.Contains(t, rec.Body.String(), "Artos Bakery")
	assert.Contains(t, rec.Body.String(), "Wednesday 16:00")
}
