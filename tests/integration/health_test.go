//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLiveness(t *testing.T) {
	resp := doGet(t, "/livez", "")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestReadiness(t *testing.T) {
	resp := doGet(t, "/readyz", "")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
