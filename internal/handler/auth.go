package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TessaEngelbrecht/artos-pos/internal/auth"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/customer"
)

type ctxKey int

const claimsKey ctxKey = iota

// claimsFrom returns the verified token claims stored by requireAuth.
func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// requireAuth verifies the bearer token and stores its claims in the context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// requireAdmin additionally checks the admin claim.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.Handler {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if claims := claimsFrom(r.Context()); claims == nil || !claims.Admin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

type signupRequest struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

type authResponse struct {
	Token    string           `json:"token"`
	Customer customerResponse `json:"customer"`
}

type customerResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Admin         bool   `json:"admin"`
}

// Signup registers a new customer and returns a session token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "name, email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	c := &customer.Customer{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Surname:       req.Surname,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		PasswordHash:  hash,
		CreatedAt:     time.Now(),
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.respondWithToken(w, r, c, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.customers.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same response for unknown email and wrong password.
		respondError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	if err := auth.CheckPassword(c.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	h.respondWithToken(w, r, c, http.StatusOK)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, c *customer.Customer, status int) {
	token, err := h.tokens.Issue(c.ID, c.Email)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, status, authResponse{
		Token: token,
		Customer: customerResponse{
			ID:            c.ID,
			Name:          c.Name,
			Surname:       c.Surname,
			Email:         c.Email,
			ContactNumber: c.ContactNumber,
			Admin:         h.tokens.IsAdmin(c.Email),
		},
	})
}
