//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	const email, password = "Ruth@Example.com", "fresh-bread-123"

	resp := doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Ruth",
		"email":    email,
		"password": password,
	})
	wantStatus(t, resp, http.StatusCreated)
	created := decodeJSON[authPayload](t, resp)
	if created.Customer.Email != "ruth@example.com" {
		t.Errorf("email = %q, want lowercased", created.Customer.Email)
	}
	if created.Customer.Admin {
		t.Error("regular signup must not get the admin claim")
	}

	resp = doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ruth@example.com",
		"password": password,
	})
	wantStatus(t, resp, http.StatusOK)
	logged := decodeJSON[authPayload](t, resp)
	if logged.Token == "" {
		t.Error("login returned empty token")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	signup(t, "dup@example.com", "password-12345")

	resp := doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Dup",
		"email":    "dup@example.com",
		"password": "password-12345",
	})
	wantStatus(t, resp, http.StatusConflict)
	body := decodeJSON[errorPayload](t, resp)
	if body.Message == "" {
		t.Error("conflict response missing message")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	signup(t, "locked@example.com", "password-12345")

	resp := doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "locked@example.com",
		"password": "wrong-password",
	})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	resp := doGet(t, "/api/cart", "")
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = doGet(t, "/api/admin/orders", "")
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	token := signup(t, "plain@example.com", "password-12345")

	resp := doGet(t, "/api/admin/orders", token)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}
